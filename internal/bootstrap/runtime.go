// Package bootstrap connects the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"zenith/internal/cache"
	"zenith/internal/config"
	"zenith/internal/database"
	"zenith/internal/middleware"
	"zenith/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database, applies the schema policy, connects
// Redis (nil when unreachable) and ensures the development admin exists.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return nil, nil, fmt.Errorf("schema setup failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if err := EnsureDevAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}
	return db, rdb, nil
}

// EnsureDevAdmin creates the configured admin account in development, or
// promotes it to ADMIN when it already exists. It never runs in other
// environments.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "admin"
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@zenith.local"
	}
	if cfg.DevAdminPassword == "" {
		return errors.New("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("LOWER(username) = LOWER(?)", username).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			admin = models.User{
				Username: username,
				Email:    email,
				Password: string(hashed),
				Role:     models.RoleAdmin,
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", admin.ID).Update("role", models.RoleAdmin).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development admin ensured", slog.String("username", username))
	return nil
}
