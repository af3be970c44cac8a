package middleware

import (
	"net/http"
	"os"

	"go-signup-backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const wizardSessionCookie = "wizard_session"

// Cookie lifetime matches the wizard state TTL default (24h).
const wizardSessionMaxAge = 24 * 60 * 60

// WizardSession assigns every visitor a wizard session ID carried in a
// cookie. The ID keys the server-side wizard state, so an interrupted signup
// resumes where it left off on the next visit.
func WizardSession() gin.HandlerFunc {
	secure := os.Getenv("GIN_MODE") == "release"

	return func(c *gin.Context) {
		sid, err := c.Cookie(wizardSessionCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(wizardSessionCookie, sid, wizardSessionMaxAge, "/", "", secure, true)
		}
		c.Set(string(domain.KeyWizardSession), sid)
		c.Next()
	}
}
