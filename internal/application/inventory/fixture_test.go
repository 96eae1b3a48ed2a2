package inventory_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	invapp "github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	prodUrea  = "prod-urea"
	prodCal   = "prod-cal"
	branchSur = "branch-sur"
	branchNte = "branch-norte"
	testUser  = "user-1"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(n int) time.Time { return time.Date(2024, 1, n, 9, 0, 0, 0, time.UTC) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "esperado %s, obtenido %s %v", want, got.String(), msgAndArgs)
}

// spyCache cuenta invalidaciones y no guarda nada.
type spyCache struct {
	invalidations atomic.Int32
}

func (c *spyCache) Positions(ctx context.Context, _ string, load func(context.Context) ([]dto.InventoryPositionDTO, error)) ([]dto.InventoryPositionDTO, error) {
	return load(ctx)
}

func (c *spyCache) Invalidate(context.Context) error {
	c.invalidations.Add(1)
	return nil
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	cache     *spyCache
	valuation *invapp.ValuationUseCase
	movements *invapp.MovementUseCase
	counts    *invapp.CountUseCase
	imports   *invapp.ImportUseCase
}

// newFixture arma los casos de uso sobre el almacén en memoria con dos productos y dos sucursales.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutProduct(entity.Product{ID: prodUrea, SKU: "URE-46", Name: "Urea 46%", UnitMeasure: "kg"})
	store.PutProduct(entity.Product{ID: prodCal, SKU: "CAL-AG", Name: "Cal agrícola", UnitMeasure: "kg"})
	store.PutBranch(entity.Branch{ID: branchSur, Name: "Sur"})
	store.PutBranch(entity.Branch{ID: branchNte, Name: "Norte"})

	log := logger.Nop()
	cache := &spyCache{}
	tx := memory.NewTxRunner(store)
	valuation := invapp.NewValuationUseCase(store.Movements(), store.Products(), store.Branches(), cache, 4, log)
	return &fixture{
		ctx:       context.Background(),
		store:     store,
		cache:     cache,
		valuation: valuation,
		movements: invapp.NewMovementUseCase(tx, store.Movements(), store.Products(), store.Branches(), valuation, cache, nil, log),
		counts:    invapp.NewCountUseCase(tx, store.Counts(), store.Products(), store.Branches(), nil, cache, log),
		imports:   invapp.NewImportUseCase(tx, store.Products(), store.Branches(), cache, log),
	}
}

// register registra una entrada o salida fechada en el libro.
func (f *fixture) register(t *testing.T, typ, productID, branchID string, date time.Time, qty, price, comment string) *dto.MovementResponse {
	t.Helper()
	out, err := f.movements.RegisterMovement(f.ctx, testUser, dto.RegisterMovementRequest{
		ProductID:          productID,
		BranchID:           branchID,
		Type:               typ,
		Quantity:           dec(qty),
		PriceAtTransaction: dec(price),
		Date:               &date,
		Comment:            comment,
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) ledger(t *testing.T) []*entity.StockMovement {
	t.Helper()
	all, err := f.store.Movements().ListAll(f.ctx)
	require.NoError(t, err)
	return all
}

func findPosition(t *testing.T, positions []dto.InventoryPositionDTO, productID, branchID string) dto.InventoryPositionDTO {
	t.Helper()
	for _, p := range positions {
		if p.ProductID == productID && p.BranchID == branchID {
			return p
		}
	}
	require.Failf(t, "posición no encontrada", "%s/%s", productID, branchID)
	return dto.InventoryPositionDTO{}
}

func findItem(t *testing.T, count *dto.CountResponse, productID string) dto.CountItemResponse {
	t.Helper()
	for _, it := range count.Items {
		if it.ProductID == productID {
			return it
		}
	}
	require.Failf(t, "línea no encontrada", "%s", productID)
	return dto.CountItemResponse{}
}
