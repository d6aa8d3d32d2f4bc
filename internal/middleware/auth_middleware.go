package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/services"
	"chapel-site/internal/transport/httpdto"
	chapel_errors "chapel-site/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (chat.Actor, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			// Browsers cannot set headers on a websocket upgrade.
			token = c.Query("token")
		}

		actor, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, chapel_errors.ErrForbidden) {
				c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("account disabled", "FORBIDDEN"))
			} else if errors.Is(err, chapel_errors.ErrUnauthorized) {
				c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			} else {
				_ = c.Error(err)
				c.Status(http.StatusInternalServerError)
			}
			c.Abort()
			return
		}

		ctx := services.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin rejects every actor that is not the support admin. It must
// run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := services.ActorFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}
		if !actor.IsAdmin() {
			c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("admin only", "FORBIDDEN"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
