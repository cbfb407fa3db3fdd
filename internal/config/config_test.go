package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                  "development",
		Port:                 "8080",
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		JWTExpiration:        24 * time.Hour,
		DBPassword:           "secure-password",
		DBSSLMode:            "require",
		DBSchemaMode:         "hybrid",
		CleanupRetentionDays: 30,
		TracingSampleRatio:   1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	c := validConfig()
	c.Env = "production"
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Env = "production"
	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Env = "production"
	c.DBPassword = "password"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.Env = "production"
	c.DevBootstrapAdmin = true
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateRanges(t *testing.T) {
	c := validConfig()
	c.JWTExpiration = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.CleanupRetentionDays = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBSchemaMode = "magic"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.TracingSampleRatio = 1.5
	assert.Error(t, c.Validate())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("JWT_EXPIRATION", "2h")
	t.Setenv("CLEANUP_RETENTION_DAYS", "45")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 2*time.Hour, c.JWTExpiration)
	assert.Equal(t, 45, c.CleanupRetentionDays)
	assert.Equal(t, 45*24*time.Hour, c.CleanupRetention())
	assert.Equal(t, "@daily", c.CleanupSchedule)
}
