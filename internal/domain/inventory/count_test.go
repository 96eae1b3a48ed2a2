package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/inventory"
)

func newCount() *entity.InventoryCount {
	return &entity.InventoryCount{ID: "conteo-1", BranchID: branchSur, Date: day(10), Status: entity.CountStatusInProgress}
}

func seededItem(initial, in, out string) entity.InventoryCountItem {
	return inventory.NewCountItem("conteo-1", entity.Product{ID: prodUrea, Name: "Urea 46%"}, inventory.TheoreticalStock{
		Initial: dec(initial), Inflows: dec(in), Outflows: dec(out),
	})
}

func assertItemCuadra(t *testing.T, item entity.InventoryCountItem) {
	t.Helper()
	assert.True(t, item.TheoreticalQuantity.Equal(item.InitialQuantity.Add(item.InflowQuantity).Sub(item.OutflowQuantity)))
	assert.True(t, item.Difference.Equal(item.PhysicalQuantity.Sub(item.TheoreticalQuantity)))
}

func TestNewCountItem_SiembraTeoricoConFisicoEnCero(t *testing.T) {
	item := seededItem("7", "4", "1")

	assertDec(t, "10", item.TheoreticalQuantity)
	assertDec(t, "0", item.PhysicalQuantity)
	assertDec(t, "-10", item.Difference)
	assert.Equal(t, "Urea 46%", item.ProductName)
	assertItemCuadra(t, item)
}

func TestRecordPhysical_RecalculaDiferencia(t *testing.T) {
	c := newCount()
	item := seededItem("7", "4", "1")

	require.NoError(t, inventory.RecordPhysical(c, &item, dec("8")))
	assertDec(t, "-2", item.Difference)
	assertItemCuadra(t, item)

	err := inventory.RecordPhysical(c, &item, dec("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRefreshItem_ConservaFisico(t *testing.T) {
	c := newCount()
	item := seededItem("7", "4", "1")
	require.NoError(t, inventory.RecordPhysical(c, &item, dec("9")))

	inventory.RefreshItem(&item, inventory.TheoreticalStock{Initial: dec("7"), Inflows: dec("6"), Outflows: dec("1")})

	assertDec(t, "9", item.PhysicalQuantity)
	assertDec(t, "12", item.TheoreticalQuantity)
	assertDec(t, "-3", item.Difference)
	assertItemCuadra(t, item)
}

func TestEqualize_RequiereConfirmacion(t *testing.T) {
	c := newCount()
	items := []entity.InventoryCountItem{seededItem("7", "4", "1"), seededItem("2", "0", "0")}

	err := inventory.Equalize(c, items, false)
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)
	assertDec(t, "0", items[0].PhysicalQuantity)

	require.NoError(t, inventory.Equalize(c, items, true))
	for _, it := range items {
		assert.True(t, it.PhysicalQuantity.Equal(it.TheoreticalQuantity))
		assert.True(t, it.Difference.IsZero())
	}
}

func TestComplete_CongelaElConteo(t *testing.T) {
	c := newCount()
	item := seededItem("7", "4", "1")

	require.NoError(t, inventory.Complete(c, day(11)))
	assert.Equal(t, entity.CountStatusCompleted, c.Status)

	assert.ErrorIs(t, inventory.RecordPhysical(c, &item, dec("3")), domain.ErrInvalidState)
	assert.ErrorIs(t, inventory.Equalize(c, []entity.InventoryCountItem{item}, true), domain.ErrInvalidState)
	assert.ErrorIs(t, inventory.Complete(c, day(12)), domain.ErrInvalidState, "no hay vuelta atrás")
}

func TestMarkApplied_TransicionesValidas(t *testing.T) {
	c := newCount()
	assert.ErrorIs(t, inventory.MarkApplied(c, day(11)), domain.ErrInvalidState, "no se aplica antes de completar")

	require.NoError(t, inventory.Complete(c, day(11)))
	require.NoError(t, inventory.MarkApplied(c, day(12)))
	assert.True(t, c.AdjustmentsApplied)

	assert.ErrorIs(t, inventory.MarkApplied(c, day(13)), domain.ErrInvalidState, "aplicar dos veces falla")
	assert.ErrorIs(t, inventory.EnsureDeletable(c), domain.ErrInvalidState)
}

func TestEnsureDeletable_EstadosNoTerminales(t *testing.T) {
	c := newCount()
	assert.NoError(t, inventory.EnsureDeletable(c))
	require.NoError(t, inventory.Complete(c, day(11)))
	assert.NoError(t, inventory.EnsureDeletable(c))
}
