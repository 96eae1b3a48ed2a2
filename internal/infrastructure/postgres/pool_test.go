package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/agro-inventario/pkg/config"
)

func TestPoolConfig_DesdeCamposDB(t *testing.T) {
	cfg := config.DBConfig{
		Host: "db.interno", Port: 5433, User: "agro", Password: "p@ss:word",
		DBName: "inventario", SSLMode: "disable", MaxConns: 8, MinConns: 2,
	}

	pc, err := postgres.PoolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "db.interno", pc.ConnConfig.Host, "el host se usa tal cual")
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "p@ss:word", pc.ConnConfig.Password)
	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.NotNil(t, pc.AfterConnect)
}

func TestPoolConfig_DatabaseURLTienePrioridad(t *testing.T) {
	cfg := config.DBConfig{
		DatabaseURL: "postgresql://u:p@remoto.example:6543/agro?sslmode=disable",
		Host:        "ignorado",
		MinConns:    40,
	}

	pc, err := postgres.PoolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "remoto.example", pc.ConnConfig.Host)
	assert.Equal(t, "agro", pc.ConnConfig.Database)
	assert.Equal(t, int32(25), pc.MaxConns, "sin DB_MAX_CONNS se usa el tope por defecto")
	assert.Zero(t, pc.MinConns, "un mínimo mayor al tope se ignora")
}

func TestPoolConfig_DSNInvalido(t *testing.T) {
	_, err := postgres.PoolConfig(config.DBConfig{DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}
