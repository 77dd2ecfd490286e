package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/security"
)

// TokenValidator validates bearer tokens into actors.
type TokenValidator interface {
	ValidateToken(tokenString string) (security.Actor, error)
}

// Auth validates JWT tokens and puts the Actor into the request context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		actor, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := security.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)

		// Gin-level access for logging middleware
		c.Set("user_id", actor.UserID)
		c.Set("role", string(actor.Role))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
