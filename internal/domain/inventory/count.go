package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// NewCountItem siembra una línea de conteo con la foto teórica; la cantidad física arranca en 0.
func NewCountItem(countID string, product entity.Product, ts TheoreticalStock) entity.InventoryCountItem {
	item := entity.InventoryCountItem{
		CountID:          countID,
		ProductID:        product.ID,
		ProductName:      product.Name,
		PhysicalQuantity: decimal.Zero,
	}
	item.SetTheoretical(ts.Initial, ts.Inflows, ts.Outflows)
	return item
}

// RefreshItem reemplaza la parte teórica de una línea conservando la cantidad física capturada.
func RefreshItem(item *entity.InventoryCountItem, ts TheoreticalStock) {
	item.SetTheoretical(ts.Initial, ts.Inflows, ts.Outflows)
}

// EnsureEditable falla si el conteo ya no acepta cambios en cantidades físicas.
func EnsureEditable(c *entity.InventoryCount) error {
	if !c.IsEditable() {
		return fmt.Errorf("%w: conteo %s en estado %s", domain.ErrInvalidState, c.ID, c.Status)
	}
	return nil
}

// RecordPhysical registra la cantidad contada de una línea.
func RecordPhysical(c *entity.InventoryCount, item *entity.InventoryCountItem, physical decimal.Decimal) error {
	if err := EnsureEditable(c); err != nil {
		return err
	}
	if physical.IsNegative() {
		return fmt.Errorf("%w: cantidad física negativa para %s", domain.ErrInvalidInput, item.ProductID)
	}
	item.SetPhysical(physical)
	return nil
}

// Equalize iguala física = teórica en todas las líneas. Sobrescribe lo capturado,
// por eso exige confirmed=true.
func Equalize(c *entity.InventoryCount, items []entity.InventoryCountItem, confirmed bool) error {
	if err := EnsureEditable(c); err != nil {
		return err
	}
	if !confirmed {
		return domain.ErrConfirmationRequired
	}
	for i := range items {
		items[i].SetPhysical(items[i].TheoreticalQuantity)
	}
	return nil
}

// Complete congela las cantidades físicas. Irreversible.
func Complete(c *entity.InventoryCount, now time.Time) error {
	if err := EnsureEditable(c); err != nil {
		return err
	}
	c.Status = entity.CountStatusCompleted
	c.UpdatedAt = now
	return nil
}

// EnsureApplicable exige status completed y ajustes aún no aplicados.
func EnsureApplicable(c *entity.InventoryCount) error {
	if c.AdjustmentsApplied {
		return fmt.Errorf("%w: los ajustes del conteo %s ya fueron aplicados", domain.ErrInvalidState, c.ID)
	}
	if c.Status != entity.CountStatusCompleted {
		return fmt.Errorf("%w: el conteo %s debe estar completado para aplicar ajustes", domain.ErrInvalidState, c.ID)
	}
	return nil
}

// MarkApplied deja el conteo en su estado terminal; pasa a ser la nueva base del cálculo teórico.
func MarkApplied(c *entity.InventoryCount, now time.Time) error {
	if err := EnsureApplicable(c); err != nil {
		return err
	}
	c.AdjustmentsApplied = true
	c.UpdatedAt = now
	return nil
}

// EnsureDeletable permite borrar un conteo mientras no esté en estado terminal.
// Borrar no revierte movimientos de ajuste ya emitidos.
func EnsureDeletable(c *entity.InventoryCount) error {
	if c.AdjustmentsApplied {
		return fmt.Errorf("%w: el conteo %s ya aplicó ajustes", domain.ErrInvalidState, c.ID)
	}
	return nil
}
