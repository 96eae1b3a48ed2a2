// Package cache guarda posiciones valorizadas en Redis con invalidación por versión.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

const (
	versionKey = "inventario:positions:version"
	keyPrefix  = "inventario:positions"
	allBranch  = "all"
)

var _ inventory.PositionCache = (*PositionCache)(nil)

// PositionCache cachea el listado de posiciones por sucursal. Cada escritura al libro
// incrementa la versión global, lo que deja huérfanas todas las entradas anteriores (expiran por TTL).
// Un *PositionCache nil o sin cliente delega siempre en el loader; si Redis falla, también.
type PositionCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewPositionCache instancia la caché.
func NewPositionCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *PositionCache {
	if log == nil {
		log = logger.Nop()
	}
	return &PositionCache{client: client, ttl: ttl, log: log}
}

// Version devuelve la versión vigente, inicializándola si no existe.
func (c *PositionCache) Version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey).Int64()
	}
	return ver, err
}

// Key compone la clave versionada de una sucursal ("" = todas).
func (c *PositionCache) Key(ctx context.Context, branchID string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	if branchID == "" {
		branchID = allBranch
	}
	return fmt.Sprintf("%s:%s:%d", keyPrefix, branchID, ver), nil
}

// Positions devuelve el listado cacheado o lo calcula con load y lo guarda.
func (c *PositionCache) Positions(
	ctx context.Context,
	branchID string,
	load func(context.Context) ([]dto.InventoryPositionDTO, error),
) ([]dto.InventoryPositionDTO, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}
	key, err := c.Key(ctx, branchID)
	if err != nil {
		c.log.Warn().Err(err).Str("branch_id", branchID).Msg("caché de posiciones no disponible, se calcula sin caché")
		return load(ctx)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []dto.InventoryPositionDTO
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("leer caché de posiciones")
		return load(ctx)
	}

	out, err := load(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("guardar caché de posiciones")
	}
	return out, nil
}

// Invalidate incrementa la versión global.
func (c *PositionCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey).Err()
}
