// Package admin registers the management API routes.
package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/unlimited-chat/chatbilling/internal/billing"
	"github.com/unlimited-chat/chatbilling/internal/config"
	"github.com/unlimited-chat/chatbilling/internal/http/api/admin/handlers"
	"github.com/unlimited-chat/chatbilling/internal/security"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers the admin login and management routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, engine *billing.Engine, jwtCfg config.JWTConfig) {
	if r == nil || db == nil || engine == nil {
		return
	}

	group := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/login", authHandler.Login)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(jwtCfg))

	userHandler := handlers.NewUserBillingHandler(engine)
	authed.GET("/users/:id/billing", userHandler.GetBilling)
	authed.POST("/users/:id/grant-points", userHandler.GrantPoints)
	authed.POST("/users/:id/grant-vip", userHandler.GrantVip)

	cardHandler := handlers.NewCardAdminHandler(db)
	authed.GET("/cards", cardHandler.List)
	authed.POST("/cards", cardHandler.Create)
	authed.PUT("/cards/:id", cardHandler.Update)
	authed.DELETE("/cards/:id", cardHandler.Delete)

	pricingHandler := handlers.NewPricingAdminHandler(db)
	authed.GET("/pricing", pricingHandler.List)
	authed.PUT("/pricing/:channel_id", pricingHandler.Upsert)
	authed.DELETE("/pricing/:channel_id", pricingHandler.Delete)

	configHandler := handlers.NewConfigAdminHandler(db)
	authed.GET("/config", configHandler.Get)
	authed.PUT("/config", configHandler.Update)

	ledgerHandler := handlers.NewLedgerAdminHandler(db)
	authed.GET("/ledgers", ledgerHandler.List)
}

// adminAuthMiddleware validates admin JWTs.
func adminAuthMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("adminID", claims.AdminID)
		c.Next()
	}
}
