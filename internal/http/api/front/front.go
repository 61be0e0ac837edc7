// Package front registers the end-user API routes.
package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/unlimited-chat/chatbilling/internal/billing"
	"github.com/unlimited-chat/chatbilling/internal/config"
	"github.com/unlimited-chat/chatbilling/internal/http/api/front/handlers"
	"github.com/unlimited-chat/chatbilling/internal/ratelimit"
	"github.com/unlimited-chat/chatbilling/internal/redeem"
	"github.com/unlimited-chat/chatbilling/internal/security"
)

// RegisterFrontRoutes registers authenticated end-user routes.
func RegisterFrontRoutes(r *gin.Engine, engine *billing.Engine, redeemer *redeem.Engine, limiter *ratelimit.Limiter, jwtCfg config.JWTConfig) {
	if r == nil || engine == nil {
		return
	}

	front := r.Group("/v0/front")

	authed := front.Group("")
	authed.Use(userAuthMiddleware(jwtCfg))

	billingHandler := handlers.NewBillingFrontHandler(engine)
	authed.GET("/billing", billingHandler.Get)
	authed.POST("/billing/consume", billingHandler.Consume)

	cardHandler := handlers.NewCardFrontHandler(redeemer, engine, limiter)
	authed.POST("/cards/redeem", cardHandler.Redeem)
}

// userAuthMiddleware validates user JWTs and loads the opaque user ID
// into context. Identity is owned by the auth collaborator; the token
// subject is used as-is.
func userAuthMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if strings.TrimSpace(claims.UserID) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}
