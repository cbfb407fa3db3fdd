package bootstrap

import (
	"context"
	"testing"

	"zenith/internal/config"
	"zenith/internal/models"
	"zenith/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func devConfig() *config.Config {
	return &config.Config{
		Env:               "development",
		DevBootstrapAdmin: true,
		DevAdminUsername:  "root",
		DevAdminEmail:     "Root@Zenith.Local",
		DevAdminPassword:  "Dev-Admin-Pass-1",
	}
}

func TestEnsureDevAdmin_CreatesAdmin(t *testing.T) {
	db := testutil.OpenSQLite(t)

	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))

	var admin models.User
	require.NoError(t, db.Where("username = ?", "root").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "root@zenith.local", admin.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("Dev-Admin-Pass-1")))

	// a second run leaves a single account
	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureDevAdmin_PromotesExistingUser(t *testing.T) {
	db := testutil.OpenSQLite(t)
	existing := testutil.CreateUser(t, db, "Root", models.RoleUser)

	require.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), db))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, existing.ID).Error)
	assert.Equal(t, models.RoleAdmin, reloaded.Role)
	assert.Equal(t, existing.Password, reloaded.Password, "password is left untouched")
}

func TestEnsureDevAdmin_Skipped(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"production", func(c *config.Config) { c.Env = "production" }},
		{"test", func(c *config.Config) { c.Env = "test" }},
		{"disabled", func(c *config.Config) { c.DevBootstrapAdmin = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.OpenSQLite(t)
			cfg := devConfig()
			tt.mutate(cfg)

			require.NoError(t, EnsureDevAdmin(context.Background(), cfg, db))

			var count int64
			require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestEnsureDevAdmin_RequiresPassword(t *testing.T) {
	db := testutil.OpenSQLite(t)
	cfg := devConfig()
	cfg.DevAdminPassword = ""

	err := EnsureDevAdmin(context.Background(), cfg, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEV_ADMIN_PASSWORD")
}

func TestEnsureDevAdmin_NilInputs(t *testing.T) {
	assert.NoError(t, EnsureDevAdmin(context.Background(), nil, nil))
	assert.NoError(t, EnsureDevAdmin(context.Background(), devConfig(), nil))
}
