package middleware

import (
	"net/http"
	"strings"

	"ledger-service/internal/auth"
	"ledger-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActorContextKey is the context key carrying the authenticated user id
// recorded as the actor on audit entries
const ActorContextKey = "user_id"

// AuthMiddleware validates JWT tokens and stores the actor in the context
func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Missing authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.JSON(http.StatusUnauthorized, errors.NewStandardError(errors.CodeUnauthorized,
				"missing authorization header", "Header: Authorization"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.Warn("Invalid authorization header format",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.JSON(http.StatusUnauthorized, errors.NewStandardError(errors.CodeUnauthorized,
				"invalid authorization header format", "Expected: Bearer <token>"))
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, errors.NewStandardError(errors.CodeUnauthorized,
					"token expired", "Token has expired, please login again"))
				c.Abort()
				return
			}

			logger.Warn("Invalid token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err),
			)
			c.JSON(http.StatusUnauthorized, errors.NewStandardError(errors.CodeUnauthorized,
				"invalid token", err.Error()))
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Set(ActorContextKey, claims.Subject)

		c.Next()
	}
}
