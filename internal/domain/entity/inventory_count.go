package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un conteo físico de inventario.
const (
	CountStatusInProgress = "in_progress"
	CountStatusCompleted  = "completed"
)

// InventoryCount es la cabecera de un conteo físico por sucursal.
// Ciclo de vida: in_progress -> completed -> AdjustmentsApplied=true (terminal). Nunca se reabre.
type InventoryCount struct {
	ID                 string
	Date               time.Time
	BranchID           string
	Responsible        string
	Status             string
	Notes              string
	AdjustmentsApplied bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsEditable indica si aún se pueden capturar cantidades físicas.
func (c *InventoryCount) IsEditable() bool {
	return c.Status == CountStatusInProgress
}

// InventoryCountItem es la línea de un conteo para un producto.
// Theoretical = Initial + Inflow - Outflow; Difference = Physical - Theoretical.
// Los campos se escriben solo con SetTheoretical/SetPhysical para mantener ambas igualdades.
type InventoryCountItem struct {
	ID                  string
	CountID             string
	ProductID           string
	ProductName         string
	InitialQuantity     decimal.Decimal
	InflowQuantity      decimal.Decimal
	OutflowQuantity     decimal.Decimal
	TheoreticalQuantity decimal.Decimal
	PhysicalQuantity    decimal.Decimal
	Difference          decimal.Decimal
}

// SetTheoretical reemplaza la descomposición teórica y recalcula teórico y diferencia.
func (i *InventoryCountItem) SetTheoretical(initial, inflow, outflow decimal.Decimal) {
	i.InitialQuantity = initial
	i.InflowQuantity = inflow
	i.OutflowQuantity = outflow
	i.TheoreticalQuantity = initial.Add(inflow).Sub(outflow)
	i.Difference = i.PhysicalQuantity.Sub(i.TheoreticalQuantity)
}

// SetPhysical registra la cantidad contada y recalcula la diferencia.
func (i *InventoryCountItem) SetPhysical(physical decimal.Decimal) {
	i.PhysicalQuantity = physical
	i.Difference = physical.Sub(i.TheoreticalQuantity)
}
