package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-signup-backend/config"
	_ "go-signup-backend/docs" // Important for Swagger
	v1 "go-signup-backend/internal/delivery/http/v1"
	"go-signup-backend/internal/domain"
	"go-signup-backend/internal/repository/postgres"
	"go-signup-backend/internal/repository/redisstore"
	"go-signup-backend/internal/usecase"
	"go-signup-backend/pkg/auth"
	"go-signup-backend/pkg/database"
	"go-signup-backend/pkg/email"
	"go-signup-backend/pkg/identity"
	"go-signup-backend/pkg/logger"
	"go-signup-backend/pkg/redis"
	"go-signup-backend/pkg/storage"
	"go-signup-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// @title           Signup Backend API
// @version         1.0
// @description     Account registration wizard backend using Clean Architecture.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting signup backend", "port", cfg.Port)

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (wizard state store)
	if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
		logger.Log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	// 5. Setup Repositories
	userRepo := postgres.NewUserRepository(dbPool)
	profileRepo := postgres.NewProfileRepository(dbPool)
	wizardTTL := time.Duration(cfg.WizardStateTTLMin) * time.Minute
	wizardRepo := redisstore.NewWizardRepository(redis.Client(), wizardTTL)

	// 6. Setup Avatar Storage
	var avatars domain.AvatarStore
	if cfg.S3AccessKeyID != "" {
		s3cfg := storage.Config{
			Provider:        cfg.S3Provider,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.AvatarBucket,
			Endpoint:        cfg.S3Endpoint,
		}
		s3Client, err := storage.NewS3Client(context.Background(), s3cfg)
		if err != nil {
			logger.Log.Error("Failed to create S3 client", "error", err)
			os.Exit(1)
		}
		avatars = storage.NewAvatarStore(s3Client, s3cfg)
	} else {
		logger.Log.Warn("S3 storage not configured - profile image uploads will be unavailable")
	}

	// 7. Setup Identity Service + Email
	idp := identity.NewClient(cfg.SupabaseUrl, cfg.SupabaseKey)
	emailService := email.NewEmailService(cfg)
	if !emailService.IsConfigured() {
		logger.Log.Warn("Email service not fully configured - welcome emails will be skipped")
	}

	// 8. Setup UseCases
	validate := validator.New()
	validation.RegisterValidators(validate)

	links := usecase.NewLinkRegistry(cfg.OAuthProvider, idp.Hub())
	wizardUC := usecase.NewWizardUsecase(wizardRepo, avatars, validate)
	availabilityUC := usecase.NewAvailabilityUsecase(userRepo, wizardRepo)
	signupUC := usecase.NewSignupUsecase(userRepo, profileRepo, wizardRepo, idp, links, emailService, cfg.OAuthProvider, cfg.FrontendURL+"/home")
	authUC := usecase.NewAuthUsecase(userRepo, profileRepo, wizardRepo, idp, idp.Hub(), cfg.OAuthProvider, cfg.FrontendURL)

	// 9. Setup Auth Provider (JWKS)
	jwksURL := cfg.SupabaseUrl + "/auth/v1/.well-known/jwks.json"
	jwksProvider := auth.NewProvider(jwksURL)

	// 10. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		WizardUC:       wizardUC,
		AvailabilityUC: availabilityUC,
		SignupUC:       signupUC,
		AuthUC:         authUC,
		Links:          links,
		Identity:       idp,
		JWKSProvider:   jwksProvider,
		Config:         cfg,
	})

	// 11. Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
