package config

import "os"

type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	FCMServiceAccount string
}

func Load() *Config {
	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "buddyup.db"),
		JWTSecret:         getEnv("JWT_SECRET", "buddyup-dev-secret-change-in-production"),
		Port:              getEnv("PORT", "8080"),
		FCMServiceAccount: getEnv("FCM_SERVICE_ACCOUNT", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
