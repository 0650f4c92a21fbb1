package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	pct, err := cfg.CustomerDiscount()
	require.NoError(t, err)
	assert.Equal(t, "5", pct.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CUSTOMER_DISCOUNT_PCT", "7.5")
	t.Setenv("DB_DRIVER", "postgres")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "7.5", cfg.CustomerDiscountPct)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{DBDriver: "sqlite", Env: "development", JWTSecret: "s", CustomerDiscountPct: "5"}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.CustomerDiscountPct = "11"
	assert.Error(t, c.Validate())

	c = base()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = base()
	c.Env = "production"
	c.JWTSecret = "dev-secret-change-me"
	assert.Error(t, c.Validate())
}
