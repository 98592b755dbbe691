package main

import (
	"log"

	"github.com/casey/buddyup-api/internal/config"
	"github.com/casey/buddyup-api/internal/database"
	"github.com/casey/buddyup-api/internal/handlers"
	"github.com/casey/buddyup-api/internal/routes"
	"github.com/casey/buddyup-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional, real deployments use environment variables
	godotenv.Load()

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	services.InitPush(cfg.FCMServiceAccount)

	handlers.Init(database.DB)

	app := fiber.New(fiber.Config{
		AppName: "BuddyUp API",
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.Setup(app)

	log.Printf("Starting server on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
