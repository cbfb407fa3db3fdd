// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTExpiration time.Duration `mapstructure:"JWT_EXPIRATION"`
	JWTIssuer     string        `mapstructure:"JWT_ISSUER"`
	JWTAudience   string        `mapstructure:"JWT_AUDIENCE"`

	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	DBReadHost               string `mapstructure:"DB_READ_HOST"`
	DBReadPort               string `mapstructure:"DB_READ_PORT"`
	DBReadUser               string `mapstructure:"DB_READ_USER"`
	DBReadPassword           string `mapstructure:"DB_READ_PASSWORD"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSchemaMode             string `mapstructure:"DB_SCHEMA_MODE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	CleanupEnabled       bool   `mapstructure:"CLEANUP_ENABLED"`
	CleanupSchedule      string `mapstructure:"CLEANUP_SCHEDULE"`
	CleanupRetentionDays int    `mapstructure:"CLEANUP_RETENTION_DAYS"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`

	DevBootstrapAdmin bool   `mapstructure:"DEV_BOOTSTRAP_ADMIN"`
	DevAdminUsername  string `mapstructure:"DEV_ADMIN_USERNAME"`
	DevAdminEmail     string `mapstructure:"DEV_ADMIN_EMAIL"`
	DevAdminPassword  string `mapstructure:"DEV_ADMIN_PASSWORD"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("FEATURE_FLAGS", "")

	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_EXPIRATION", "24h")
	viper.SetDefault("JWT_ISSUER", "zenith-api")
	viper.SetDefault("JWT_AUDIENCE", "zenith-app")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "zenith")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")

	viper.SetDefault("REDIS_URL", "localhost:6379")

	viper.SetDefault("CLEANUP_ENABLED", true)
	viper.SetDefault("CLEANUP_SCHEDULE", "@daily")
	viper.SetDefault("CLEANUP_RETENTION_DAYS", 30)

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "otlp")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	viper.SetDefault("DEV_BOOTSTRAP_ADMIN", false)
	viper.SetDefault("DEV_ADMIN_USERNAME", "admin")
	viper.SetDefault("DEV_ADMIN_EMAIL", "admin@zenith.local")
	viper.SetDefault("DEV_ADMIN_PASSWORD", "")
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
}

// IsProduction reports whether strict production checks apply.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// CleanupRetention returns the age after which archived content is purged.
func (c *Config) CleanupRetention() time.Duration {
	return time.Duration(c.CleanupRetentionDays) * 24 * time.Hour
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTExpiration <= 0 {
		return errors.New("JWT_EXPIRATION must be a positive duration")
	}
	if c.CleanupRetentionDays <= 0 {
		return errors.New("CLEANUP_RETENTION_DAYS must be positive")
	}
	switch c.DBSchemaMode {
	case "", "hybrid", "sql", "auto":
	default:
		return fmt.Errorf("DB_SCHEMA_MODE %q must be one of hybrid, sql, auto", c.DBSchemaMode)
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return errors.New("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.DevBootstrapAdmin {
			return errors.New("DEV_BOOTSTRAP_ADMIN must be disabled in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
