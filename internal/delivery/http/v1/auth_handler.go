package v1

import (
	"net/http"
	"os"

	"go-signup-backend/internal/delivery/http/response"
	"go-signup-backend/internal/domain"
	"go-signup-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUC usecase.AuthUsecase
}

func NewAuthHandler(public, protected *gin.RouterGroup, authUC usecase.AuthUsecase) {
	handler := &AuthHandler{authUC: authUC}

	auth := public.Group("/auth")
	{
		auth.POST("/login", handler.Login)
		auth.POST("/logout", handler.Logout)
		auth.POST("/forgot-password", handler.ForgotPassword)
		auth.POST("/reset-password", handler.ResetPassword)
	}

	protected.GET("/auth/me", handler.Me)
}

type loginRequest struct {
	// Identifier is an email address or a username.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func setAuthCookie(c *gin.Context, token string, maxAge int) {
	secure := os.Getenv("GIN_MODE") == "release"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("auth_token", token, maxAge, "/", "", secure, true)
}

// Login godoc
// @Summary      Sign in
// @Description  Sign in with an email address or username plus password. Sets the auth_token cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      loginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=usecase.LoginResult}
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	result, err := h.authUC.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	maxAge := result.ExpiresIn
	if maxAge <= 0 {
		maxAge = 3600
	}
	setAuthCookie(c, result.AccessToken, maxAge)

	response.Success(c, http.StatusOK, "Signed in", result)
}

// Logout godoc
// @Summary      Sign out
// @Description  Revoke the current identity session and clear the auth_token cookie.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authUC.Logout(c.Request.Context(), accessToken(c)); err != nil {
		c.Error(err)
		return
	}
	setAuthCookie(c, "", -1)

	response.Success(c, http.StatusOK, "Signed out", nil)
}

// Me godoc
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
// @Security     BearerAuth
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))

	user, profile, err := h.authUC.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Current user retrieved", gin.H{
		"user":    user,
		"profile": profile,
	})
}

// ForgotPassword godoc
// @Summary      Request a password reset
// @Description  Ask the identity service to email a reset link. Always responds 200 so address existence is not revealed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	if err := h.authUC.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "If the address exists, a reset link has been sent", nil)
}

// ResetPassword godoc
// @Summary      Set a new password
// @Description  Update the password using the recovery session token from the emailed reset link.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	if err := h.authUC.ResetPassword(c.Request.Context(), accessToken(c), req.Password); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Password updated", nil)
}
