package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`

	// Database
	DBDriver    string `mapstructure:"DB_DRIVER"` // postgres | sqlite
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis; empty disables the price cache and the receipt queue
	RedisURL string `mapstructure:"REDIS_URL"`

	// Auth
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`
	JWTRefreshHours    int    `mapstructure:"JWT_REFRESH_HOURS"`

	// SMTP
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	// Business
	CustomerDiscountPct string `mapstructure:"CUSTOMER_DISCOUNT_PCT"`
	LowStockThreshold   int    `mapstructure:"LOW_STOCK_THRESHOLD"`
	StoreName           string `mapstructure:"STORE_NAME"`
	ReceiptStoragePath  string `mapstructure:"RECEIPT_STORAGE_PATH"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// Optional .env file for local development
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("WORKER_POOL_SIZE", 3)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "hardware_store.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_EXPIRATION_HOURS", 8)
	v.SetDefault("JWT_REFRESH_HOURS", 24)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("CUSTOMER_DISCOUNT_PCT", "5")
	v.SetDefault("LOW_STOCK_THRESHOLD", 5)
	v.SetDefault("STORE_NAME", "Hardware Store")
	v.SetDefault("RECEIPT_STORAGE_PATH", "/tmp/hardware-store/receipts")
}

// CustomerDiscount parses CustomerDiscountPct.
func (c *Config) CustomerDiscount() (decimal.Decimal, error) {
	return decimal.NewFromString(c.CustomerDiscountPct)
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.Env == "production" && (c.JWTSecret == "" || c.JWTSecret == "dev-secret-change-me") {
		return errors.New("config: JWT_SECRET must be set in production")
	}
	pct, err := c.CustomerDiscount()
	if err != nil {
		return fmt.Errorf("config: CUSTOMER_DISCOUNT_PCT: %w", err)
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(10)) {
		return fmt.Errorf("config: CUSTOMER_DISCOUNT_PCT %s outside 0..10", pct)
	}
	if c.LowStockThreshold < 0 {
		return errors.New("config: LOW_STOCK_THRESHOLD must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }
