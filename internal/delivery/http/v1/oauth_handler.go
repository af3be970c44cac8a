package v1

import (
	"errors"
	"net/http"
	"net/url"

	"go-signup-backend/config"
	"go-signup-backend/internal/delivery/http/response"
	"go-signup-backend/internal/usecase"
	"go-signup-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type OAuthHandler struct {
	authUC usecase.AuthUsecase
	idp    usecase.IdentityService
	cfg    *config.Config
}

func NewOAuthHandler(r *gin.RouterGroup, authUC usecase.AuthUsecase, idp usecase.IdentityService, cfg *config.Config) {
	handler := &OAuthHandler{authUC: authUC, idp: idp, cfg: cfg}

	oauth := r.Group("/oauth")
	{
		oauth.GET("/:provider/authorize", handler.Authorize)
		oauth.GET("/:provider/callback", handler.Callback)
	}
}

// Authorize godoc
// @Summary      Start an OAuth flow
// @Description  Redirect the browser to the identity provider's consent screen.
// @Tags         oauth
// @Param        provider  path  string  true  "OAuth provider"
// @Success      302
// @Failure      400  {object}  response.Response
// @Router       /oauth/{provider}/authorize [get]
func (h *OAuthHandler) Authorize(c *gin.Context) {
	provider := c.Param("provider")
	if provider != h.cfg.OAuthProvider {
		response.Error(c, http.StatusBadRequest, "Unsupported OAuth provider", nil)
		return
	}

	c.Redirect(http.StatusFound, h.idp.AuthorizeURL(provider, h.cfg.OAuthRedirectURL))
}

// Callback godoc
// @Summary      OAuth callback
// @Description  Handle the provider round-trip. Mid-signup it records the link and returns to step 3; otherwise it signs a registered account in. Unregistered accounts are signed out and bounced to the entry screen.
// @Tags         oauth
// @Param        provider      path   string  true   "OAuth provider"
// @Param        access_token  query  string  false  "Provider session token"
// @Success      302
// @Router       /oauth/{provider}/callback [get]
func (h *OAuthHandler) Callback(c *gin.Context) {
	frontend := h.cfg.FrontendURL

	if c.Param("provider") != h.cfg.OAuthProvider {
		c.Redirect(http.StatusFound, frontend+"/?error=unsupported_provider")
		return
	}

	if errCode := c.Query("error"); errCode != "" {
		desc := c.Query("error_description")
		c.Redirect(http.StatusFound, frontend+"/?error="+url.QueryEscape(desc))
		return
	}

	sid := sessionID(c)
	result, err := h.authUC.OAuthCallback(c.Request.Context(), sid, c.Query("access_token"))
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusForbidden {
			// Not registered: back to the entry screen with a hint.
			c.Redirect(http.StatusFound, frontend+"/?error=unregistered")
			return
		}
		c.Redirect(http.StatusFound, frontend+"/?error=oauth_failed")
		return
	}

	if result.Mode == "login" {
		setAuthCookie(c, result.AccessToken, 3600)
	}
	c.Redirect(http.StatusFound, frontend+result.RedirectTo)
}
