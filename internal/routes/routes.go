package routes

import (
	"github.com/casey/buddyup-api/internal/handlers"
	"github.com/casey/buddyup-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)

	goals := protected.Group("/goals")
	goals.Get("/", handlers.GetGoals)
	goals.Post("/", handlers.CreateGoal)
	goals.Get("/active", handlers.GetActiveGoals)
	goals.Get("/categories", handlers.GetGoalCategories)
	goals.Get("/:id", handlers.GetGoal)
	goals.Put("/:id", handlers.UpdateGoal)
	goals.Delete("/:id", handlers.DeleteGoal)
	goals.Put("/:id/progress", handlers.UpdateProgress)
	goals.Get("/:id/activity", handlers.GetGoalActivity)

	// Daily check-ins on a goal
	goals.Post("/:goalId/checkins", handlers.CreateCheckIn)
	goals.Get("/:goalId/checkins", handlers.GetCheckIns)
	goals.Get("/:goalId/streak", handlers.GetStreak)

	// Buddy matching and relationship lifecycle
	buddies := protected.Group("/buddies")
	buddies.Post("/request/:goalId", handlers.RequestBuddy)
	buddies.Post("/accept/:relationshipId", handlers.AcceptBuddy)
	buddies.Post("/reject/:relationshipId", handlers.RejectBuddy)
	buddies.Post("/:relationshipId/end", handlers.EndBuddyRelationship)
	buddies.Get("/my-buddies", handlers.GetMyBuddies)
	buddies.Get("/pending-requests", handlers.GetPendingRequests)
	buddies.Get("/recommendations", handlers.GetRecommendations)

	// Check-in validation by buddies
	checkins := protected.Group("/checkins")
	checkins.Get("/today", handlers.GetCheckedInToday)
	checkins.Get("/pending-validation", handlers.GetPendingValidation)
	checkins.Post("/:id/validate", handlers.ValidateCheckIn)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)
}
