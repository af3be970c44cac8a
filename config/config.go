package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DBUrl             string
	SupabaseUrl       string
	SupabaseKey       string
	SupabaseJWTSecret string
	FrontendURL       string
	// OAuth (GitHub)
	OAuthProvider    string
	OAuthRedirectURL string
	// Redis Configuration (wizard state store)
	RedisURL          string
	RedisPassword     string
	WizardStateTTLMin int
	// S3-compatible storage (avatars)
	S3Provider        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	AvatarBucket      string
	S3Endpoint        string
	// SMTP Configuration (welcome email)
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string
	// Availability check debounce (milliseconds)
	AvailabilityDebounceMs int
}

func LoadConfig() (*Config, error) {
	// .env only matters locally; ignored in production when the file is absent
	_ = godotenv.Load()

	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		DBUrl: getEnv("DATABASE_URL", ""),
		// Trim trailing slash to prevent double slashes (e.g. .co//auth)
		SupabaseUrl:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:       getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", "")),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", getEnv("SUPABASE_JWT_KEY", "")),
		FrontendURL:       strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		OAuthProvider:    getEnv("OAUTH_PROVIDER", "github"),
		OAuthRedirectURL: getEnv("OAUTH_REDIRECT_URL", ""),

		RedisURL:          getEnv("REDIS_URL", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		WizardStateTTLMin: getEnvInt("WIZARD_STATE_TTL_MINUTES", 1440),

		S3Provider:        getEnv("S3_PROVIDER", "aws"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Region:          getEnv("S3_REGION", "ap-northeast-2"),
		AvatarBucket:      getEnv("AVATAR_BUCKET", "avatars"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),

		SMTPHost:      getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", "noreply@example.com"),

		AvailabilityDebounceMs: getEnvInt("AVAILABILITY_DEBOUNCE_MS", 500),
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Wizard state will not survive restarts.")
	}
	if cfg.OAuthRedirectURL == "" {
		cfg.OAuthRedirectURL = cfg.FrontendURL + "/signup/step3?link=success"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
