package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	DB_URL     string
	JWT_SECRET string
	APP_URL    string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string

	LEMONSQUEEZY_WEBHOOK_SECRET string

	CRON_SECRET string

	OPENAI_API_KEY string

	SUPABASE_URL         string
	SUPABASE_SERVICE_KEY string
	STORAGE_BUCKET       string

	REDIS_ADDR     string
	REDIS_PASSWORD string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	APP_URL = getEnv("APP_URL", "http://localhost:3000")

	// Payment providers and cron are checked again at the handler level, but
	// the cron secret has no safe fallback.
	STRIPE_SECRET_KEY = os.Getenv("STRIPE_SECRET_KEY")
	STRIPE_WEBHOOK_SECRET = os.Getenv("STRIPE_WEBHOOK_SECRET")
	LEMONSQUEEZY_WEBHOOK_SECRET = os.Getenv("LEMONSQUEEZY_WEBHOOK_SECRET")
	CRON_SECRET = mustEnv("CRON_SECRET")

	OPENAI_API_KEY = os.Getenv("OPENAI_API_KEY")

	SUPABASE_URL = os.Getenv("SUPABASE_URL")
	SUPABASE_SERVICE_KEY = os.Getenv("SUPABASE_SERVICE_KEY")
	STORAGE_BUCKET = getEnv("STORAGE_BUCKET", "brand-assets")

	REDIS_ADDR = os.Getenv("REDIS_ADDR")
	REDIS_PASSWORD = os.Getenv("REDIS_PASSWORD")

	GOOGLE_CLIENT_ID = os.Getenv("GOOGLE_CLIENT_ID")
	GOOGLE_CLIENT_SECRET = os.Getenv("GOOGLE_CLIENT_SECRET")
	GOOGLE_REDIRECT_URL = os.Getenv("GOOGLE_REDIRECT_URL")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
