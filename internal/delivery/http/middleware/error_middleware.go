package middleware

import (
	"errors"
	"net/http"

	"go-signup-backend/internal/delivery/http/response"
	"go-signup-backend/pkg/apperror"
	"go-signup-backend/pkg/logger"
	"go-signup-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// Validation failures carry a per-field error map so the client can
		// annotate the form.
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			response.Error(c, http.StatusBadRequest, "Validation failed", validation.FieldErrors(ve))
			return
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				logger.Log.Error("request failed", "code", appErr.Code, "message", appErr.Message, "error", appErr.Err)
			}
			response.Error(c, appErr.Code, appErr.Message, nil)
			return
		}

		// Never expose internal error details to clients; log server-side
		// and send a generic message.
		logger.Log.Error("unhandled error", "error", err)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
