package v1

import (
	"net/http"

	"go-signup-backend/config"
	"go-signup-backend/internal/delivery/http/middleware"
	"go-signup-backend/internal/delivery/http/response"
	"go-signup-backend/internal/domain"
	"go-signup-backend/internal/usecase"
	"go-signup-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	WizardUC       domain.WizardUsecase
	AvailabilityUC domain.AvailabilityUsecase
	SignupUC       usecase.SignupUsecase
	AuthUC         usecase.AuthUsecase
	Links          *usecase.LinkRegistry
	Identity       usecase.IdentityService
	JWKSProvider   *auth.Provider
	Config         *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", nil)
	})

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// The wizard and the OAuth callback ride on the wizard session cookie.
	wizard := v1.Group("")
	wizard.Use(middleware.WizardSession())
	{
		NewSignupHandler(wizard, deps.WizardUC, deps.AvailabilityUC, deps.SignupUC, deps.Links, deps.Identity)
		NewOAuthHandler(wizard, deps.AuthUC, deps.Identity, deps.Config)
	}

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.JWKSProvider, deps.Config))
	NewAuthHandler(v1, protected, deps.AuthUC)

	return r
}
