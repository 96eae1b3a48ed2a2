package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/pkg/config"
)

func TestLoad_LeeVariablesDeEntorno(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_POSITION_TTL_SECONDS", "30")
	t.Setenv("INVENTORY_VALUATION_WORKERS", "8")
	t.Setenv("INVENTORY_STORAGE", "Memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.PositionTTL)
	assert.Equal(t, 8, cfg.Inventory.ValuationWorkers)
	assert.Equal(t, config.StorageMemory, cfg.Inventory.Storage)
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			App:       config.AppConfig{Env: "development"},
			Inventory: config.InventoryConfig{Storage: config.StoragePostgres},
		}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.Inventory.Storage = "sqlite"
	assert.Error(t, c.Validate())

	c = base()
	c.Inventory.ValuationWorkers = -1
	assert.Error(t, c.Validate())

	c = base()
	c.App.Env = "production"
	assert.Error(t, c.Validate(), "production sin JWT_SECRET")
}

func TestDBConfig_DSNEscapaLaContrasena(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "agro", SSLMode: "disable"}

	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/agro?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
