// Package app wires configuration, storage, and HTTP routing into a
// runnable billing server.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/unlimited-chat/chatbilling/internal/billing"
	"github.com/unlimited-chat/chatbilling/internal/config"
	adminapi "github.com/unlimited-chat/chatbilling/internal/http/api/admin"
	"github.com/unlimited-chat/chatbilling/internal/http/api/front"
	"github.com/unlimited-chat/chatbilling/internal/logging"
	"github.com/unlimited-chat/chatbilling/internal/models"
	"github.com/unlimited-chat/chatbilling/internal/ratelimit"
	"github.com/unlimited-chat/chatbilling/internal/redeem"
	"github.com/unlimited-chat/chatbilling/internal/security"
	"gorm.io/gorm"

	"github.com/unlimited-chat/chatbilling/internal/db"
)

const (
	defaultAdminUsername = "admin"

	redeemRateLimit  = 10
	redeemRateWindow = time.Minute
)

// Migrate opens the database and runs migrations.
func Migrate(_ context.Context, configPath string) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the billing API server and blocks until ctx is done
// or the listener fails.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errAdmin := ensureDefaultAdmin(conn); errAdmin != nil {
		return errAdmin
	}
	if errSecret := ensureJWTSecret(cfg); errSecret != nil {
		return errSecret
	}

	engine := billing.NewEngine(conn)
	redeemer := redeem.NewEngine(conn)
	limiter := ratelimit.New(newRedisClient(ctx, cfg.Redis), redeemRateLimit, redeemRateWindow)

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	front.RegisterFrontRoutes(router, engine, redeemer, limiter, cfg.JWT)
	adminapi.RegisterAdminRoutes(router, conn, engine, cfg.JWT)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("billing server listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// newRedisClient builds a redis client when an address is configured,
// verifying connectivity once at boot. Redis stays optional.
func newRedisClient(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		log.Warnf("redis unavailable, redemption rate limiting disabled: %v", errPing)
		_ = client.Close()
		return nil
	}
	return client
}

// ensureDefaultAdmin creates an initial admin account with a random
// password when no admins exist, logging the credentials once.
func ensureDefaultAdmin(conn *gorm.DB) error {
	var count int64
	if errCount := conn.Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("app: count admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	password, errPassword := randomSecret(12)
	if errPassword != nil {
		return fmt.Errorf("app: generate admin password: %w", errPassword)
	}
	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("app: hash admin password: %w", errHash)
	}
	admin := models.Admin{Username: defaultAdminUsername, PasswordHash: hash}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		return fmt.Errorf("app: create default admin: %w", errCreate)
	}
	log.Warnf("created default admin %q with password %s; change it after first login", defaultAdminUsername, password)
	return nil
}

// ensureJWTSecret fills in a random signing secret when the config
// omits one. Tokens then do not survive a restart, which is fine for
// single-node evaluation setups but logged so operators notice.
func ensureJWTSecret(cfg *config.AppConfig) error {
	if cfg.JWT.Secret != "" {
		return nil
	}
	secret, errSecret := randomSecret(32)
	if errSecret != nil {
		return fmt.Errorf("app: generate jwt secret: %w", errSecret)
	}
	cfg.JWT.Secret = secret
	log.Warn("jwt secret not configured, generated an ephemeral one; tokens will not survive restarts")
	return nil
}

// randomSecret returns n random bytes hex-encoded.
func randomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
