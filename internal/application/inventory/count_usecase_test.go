package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	invapp "github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

func (f *fixture) seedUreaSur(t *testing.T) {
	t.Helper()
	f.register(t, entity.MovementTypeInflow, prodUrea, branchSur, day(2), "10", "5", "")
	f.register(t, entity.MovementTypeOutflow, prodUrea, branchSur, day(5), "3", "0", "")
}

func (f *fixture) newCount(t *testing.T, dayN int) *dto.CountResponse {
	t.Helper()
	date := day(dayN)
	c, err := f.counts.Create(f.ctx, dto.CreateCountRequest{BranchID: branchSur, Responsible: "Marta", Date: &date})
	require.NoError(t, err)
	return c
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación
// ──────────────────────────────────────────────────────────────────────────────

func TestCountCreate_SiembraUnaLineaPorProductoOrdenadaPorNombre(t *testing.T) {
	f := newFixture(t)
	f.seedUreaSur(t)

	c := f.newCount(t, 10)

	assert.Equal(t, entity.CountStatusInProgress, c.Status)
	assert.False(t, c.AdjustmentsApplied)
	require.Len(t, c.Items, 2)
	assert.Equal(t, prodCal, c.Items[0].ProductID, "Cal agrícola va antes que Urea")
	assert.Equal(t, prodUrea, c.Items[1].ProductID)

	urea := c.Items[1]
	assertDec(t, "0", urea.InitialQuantity)
	assertDec(t, "10", urea.InflowQuantity)
	assertDec(t, "3", urea.OutflowQuantity)
	assertDec(t, "7", urea.TheoreticalQuantity)
	assertDec(t, "0", urea.PhysicalQuantity)
	assertDec(t, "-7", urea.Difference)
}

func TestCountCreate_SucursalInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.counts.Create(f.ctx, dto.CreateCountRequest{BranchID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCountCreate_SaldoInicialMarcadoSinConteoPrevio(t *testing.T) {
	f := newFixture(t)
	f.register(t, entity.MovementTypeInflow, prodUrea, branchSur, day(1), "8", "4", "Saldo INICIAL bodega")
	f.register(t, entity.MovementTypeInflow, prodUrea, branchSur, day(3), "2", "4", "")

	c := f.newCount(t, 10)
	urea := findItem(t, c, prodUrea)

	assertDec(t, "8", urea.InitialQuantity)
	assertDec(t, "2", urea.InflowQuantity)
	assertDec(t, "10", urea.TheoreticalQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestCountLifecycle_AplicarAjustesCierraElCiclo(t *testing.T) {
	f := newFixture(t)
	f.seedUreaSur(t)
	c := f.newCount(t, 10)

	_, err := f.counts.UpdateItems(f.ctx, c.ID, dto.UpdateCountItemsRequest{Items: []dto.PhysicalEntry{
		{ProductID: prodUrea, PhysicalQuantity: dec("5")},
		{ProductID: prodCal, PhysicalQuantity: dec("2")},
	}})
	require.NoError(t, err)

	completed, err := f.counts.Complete(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CountStatusCompleted, completed.Status)

	_, err = f.counts.UpdateItems(f.ctx, c.ID, dto.UpdateCountItemsRequest{Items: []dto.PhysicalEntry{
		{ProductID: prodUrea, PhysicalQuantity: dec("9")},
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "un conteo completado no acepta cambios")

	res, err := f.counts.ApplyAdjustments(f.ctx, testUser, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Movements)
	assert.Equal(t, inventory.AdjustmentRemission(c.ID), res.RemissionNumber)

	batch, err := f.store.Movements().ListByRemission(f.ctx, res.RemissionNumber)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	byIndex := map[int]*entity.StockMovement{}
	for _, m := range batch {
		byIndex[m.IndexInTransaction] = m
	}
	require.Contains(t, byIndex, 0)
	require.Contains(t, byIndex, 1)
	assert.Equal(t, entity.MovementTypeInflow, byIndex[0].Type, "primero los sobrantes")
	assert.Equal(t, prodCal, byIndex[0].ProductID)
	assertDec(t, "2", byIndex[0].Quantity)
	assert.Equal(t, entity.MovementTypeOutflow, byIndex[1].Type)
	assert.Equal(t, prodUrea, byIndex[1].ProductID)
	assertDec(t, "2", byIndex[1].Quantity)
	assertDec(t, "5", byIndex[1].PriceAtTransaction, "el faltante se valora al costo promedio FIFO")
	assert.True(t, byIndex[1].Date.After(day(10)), "los ajustes se fechan al aplicar")

	got, err := f.counts.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.AdjustmentsApplied)

	// el siguiente conteo parte del físico contado
	next := f.newCount(t, 20)
	assertDec(t, "5", findItem(t, next, prodUrea).TheoreticalQuantity)
	assertDec(t, "7", findItem(t, next, prodUrea).InitialQuantity)
	assertDec(t, "2", findItem(t, next, prodUrea).OutflowQuantity)
	assertDec(t, "2", findItem(t, next, prodCal).TheoreticalQuantity)
}

func TestCountApply_EsTerminalYNoDuplicaMovimientos(t *testing.T) {
	f := newFixture(t)
	f.seedUreaSur(t)
	c := f.newCount(t, 10)
	_, err := f.counts.Complete(f.ctx, c.ID)
	require.NoError(t, err)

	_, err = f.counts.ApplyAdjustments(f.ctx, testUser, c.ID)
	require.NoError(t, err)
	before := len(f.ledger(t))

	_, err = f.counts.ApplyAdjustments(f.ctx, testUser, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Len(t, f.ledger(t), before, "la segunda aplicación no emite movimientos")

	_, err = f.counts.Recalculate(f.ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.counts.Equalize(f.ctx, c.ID, dto.EqualizeRequest{Confirm: true})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.counts.Complete(f.ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, f.counts.Delete(f.ctx, c.ID), domain.ErrInvalidState)
}

// lateInflowTx confirma una entrada justo antes de ceder la transacción,
// como si otra escritura hubiera ganado la carrera por el bloqueo.
type lateInflowTx struct {
	inner  *memory.TxRunner
	inflow *entity.StockMovement
}

func (l *lateInflowTx) Run(ctx context.Context, fn func(context.Context, repository.StockMovementRepository, repository.InventoryCountRepository) error) error {
	return l.inner.Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, countRepo repository.InventoryCountRepository) error {
		if l.inflow != nil {
			if err := movRepo.CreateBatch(ctx, []*entity.StockMovement{l.inflow}); err != nil {
				return err
			}
			l.inflow = nil
		}
		return fn(ctx, movRepo, countRepo)
	})
}

func TestCountApply_CostoLeidoDentroDeLaTransaccion(t *testing.T) {
	f := newFixture(t)
	f.register(t, entity.MovementTypeInflow, prodUrea, branchSur, day(2), "10", "5", "")
	c := f.newCount(t, 10)
	_, err := f.counts.UpdateItems(f.ctx, c.ID, dto.UpdateCountItemsRequest{Items: []dto.PhysicalEntry{
		{ProductID: prodUrea, PhysicalQuantity: dec("8")},
	}})
	require.NoError(t, err)
	_, err = f.counts.Complete(f.ctx, c.ID)
	require.NoError(t, err)

	tx := &lateInflowTx{inner: memory.NewTxRunner(f.store), inflow: &entity.StockMovement{
		ID: "late-inflow", ProductID: prodUrea, BranchID: branchSur, Type: entity.MovementTypeInflow,
		Quantity: dec("10"), PriceAtTransaction: dec("8"), Date: day(3), RemissionNumber: "late-rem", CreatedBy: testUser,
	}}
	uc := invapp.NewCountUseCase(tx, f.store.Counts(), f.store.Products(), f.store.Branches(), nil, nil, logger.Nop())

	res, err := uc.ApplyAdjustments(f.ctx, testUser, c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, res.Movements)

	batch, err := f.store.Movements().ListByRemission(f.ctx, res.RemissionNumber)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, entity.MovementTypeOutflow, batch[0].Type)
	assertDec(t, "2", batch[0].Quantity)
	assertDec(t, "6.5", batch[0].PriceAtTransaction, "el costo incluye la entrada confirmada antes del bloqueo")
}

func TestCountApply_AntesDeCompletarFalla(t *testing.T) {
	f := newFixture(t)
	f.seedUreaSur(t)
	c := f.newCount(t, 10)

	_, err := f.counts.ApplyAdjustments(f.ctx, testUser, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Len(t, f.ledger(t), 2)
}

func TestCountApply_SinDiferenciasMarcaAplicadoSinMovimientos(t *testing.T) {
	f := newFixture(t)
	f.seedUreaSur(t)
	c := f.newCount(t, 10)
	_, err := f.counts.Equalize(f.ctx, c.ID, dto.EqualizeRequest{Confirm: true})
	require.NoError(t, err)
	_, err = f.counts.Complete(f.ctx, c.ID)
	require.NoError(t, err)
	invalidations := f.cache.invalidations.Load()

	res, err := f.counts.ApplyAdjustments(f.ctx, testUser, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Movements)
	assert.Len(t, f.ledger(t), 2)
	assert.Greater(t, f.cache.invalidations.Load(), invalidations)

	got, err := f.counts.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.AdjustmentsApplied)
}

// ──────────────────────────────────────────────────────────────────────────────
// Captura, recálculo e igualación
// ──────────────────────────────────────────────────────────────────────────────

func TestCountUpdateItems_RechazaNegativosYProductosAjenos(t *testing.T) {
	f := newFixture(t)
	c := f.newCount(t, 10)

	_, err := f.counts.UpdateItems(f.ctx, c.ID, dto.UpdateCountItemsRequest{Items: []dto.PhysicalEntry{
		{ProductID: prodUrea, PhysicalQuantity: dec("-1")},
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.counts.UpdateItems(f.ctx, c.ID, dto.UpdateCountItemsRequest{Items: []dto.PhysicalEntry{
		{ProductID: "otro", PhysicalQuantity: dec("1")},
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCountRecalculate_ConservaLaCantidadFisica(t *testing.T) {
	f := newFixture(t)
	f.seedUreaSur(t)
	c := f.newCount(t, 10)
	_, err := f.counts.UpdateItems(f.ctx, c.ID, dto.UpdateCountItemsRequest{Items: []dto.PhysicalEntry{
		{ProductID: prodUrea, PhysicalQuantity: dec("4")},
	}})
	require.NoError(t, err)

	f.register(t, entity.MovementTypeInflow, prodUrea, branchSur, day(8), "6", "5", "")

	got, err := f.counts.Recalculate(f.ctx, c.ID)
	require.NoError(t, err)
	urea := findItem(t, got, prodUrea)
	assertDec(t, "13", urea.TheoreticalQuantity)
	assertDec(t, "4", urea.PhysicalQuantity)
	assertDec(t, "-9", urea.Difference)
}

func TestCountRecalculate_ParteDelUltimoConteoAplicado(t *testing.T) {
	f := newFixture(t)
	f.seedUreaSur(t)
	first := f.newCount(t, 10)
	_, err := f.counts.Equalize(f.ctx, first.ID, dto.EqualizeRequest{Confirm: true})
	require.NoError(t, err)
	_, err = f.counts.Complete(f.ctx, first.ID)
	require.NoError(t, err)
	_, err = f.counts.ApplyAdjustments(f.ctx, testUser, first.ID)
	require.NoError(t, err)

	second := f.newCount(t, 20)
	got, err := f.counts.Recalculate(f.ctx, second.ID)
	require.NoError(t, err)
	urea := findItem(t, got, prodUrea)
	assertDec(t, "7", urea.InitialQuantity, "la base es el primer conteo")
	assertDec(t, "0", urea.InflowQuantity)
	assertDec(t, "7", urea.TheoreticalQuantity)
}

func TestCountEqualize_ExigeConfirmacion(t *testing.T) {
	f := newFixture(t)
	f.seedUreaSur(t)
	c := f.newCount(t, 10)

	_, err := f.counts.Equalize(f.ctx, c.ID, dto.EqualizeRequest{})
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)

	got, err := f.counts.Equalize(f.ctx, c.ID, dto.EqualizeRequest{Confirm: true})
	require.NoError(t, err)
	for _, it := range got.Items {
		assert.True(t, it.PhysicalQuantity.Equal(it.TheoreticalQuantity), it.ProductID)
		assert.True(t, it.Difference.IsZero(), it.ProductID)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Borrado, listado y acta
// ──────────────────────────────────────────────────────────────────────────────

func TestCountDelete_EnProgreso(t *testing.T) {
	f := newFixture(t)
	c := f.newCount(t, 10)

	require.NoError(t, f.counts.Delete(f.ctx, c.ID))

	_, err := f.counts.Get(f.ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.counts.Delete(f.ctx, c.ID), domain.ErrNotFound)
}

func TestCountList_PorSucursal(t *testing.T) {
	f := newFixture(t)
	f.newCount(t, 10)
	f.newCount(t, 12)

	sur, err := f.counts.List(f.ctx, branchSur, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, sur.Items, 2)
	assert.True(t, sur.Items[0].Date.After(sur.Items[1].Date), "del más reciente al más antiguo")
	assert.Equal(t, dto.PageResponse{Limit: dto.DefaultPageLimit, Offset: 0, Total: 2}, sur.Page)

	norte, err := f.counts.List(f.ctx, branchNte, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, norte.Items)
	assert.Zero(t, norte.Page.Total)
}

func TestCountList_Paginado(t *testing.T) {
	f := newFixture(t)
	f.newCount(t, 10)
	f.newCount(t, 12)
	f.newCount(t, 14)

	page, err := f.counts.List(f.ctx, "", dto.PageRequest{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, day(12).Equal(page.Items[0].Date))
	assert.True(t, day(10).Equal(page.Items[1].Date))
	assert.Equal(t, dto.PageResponse{Limit: 2, Offset: 1, Total: 3}, page.Page)

	past, err := f.counts.List(f.ctx, "", dto.PageRequest{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past.Items)
	assert.Equal(t, 3, past.Page.Total)
}

func TestCountReport_SinGenerador(t *testing.T) {
	f := newFixture(t)
	c := f.newCount(t, 10)

	_, err := f.counts.Report(f.ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
