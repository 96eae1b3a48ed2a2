package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// AdjustmentRemissionPrefix antecede el número de remisión de todo lote de ajustes por conteo.
// El agrupador del kardex lo usa para etiquetar el lote como "adjustment" aunque cada fila sea inflow/outflow.
const AdjustmentRemissionPrefix = "AJUSTE-CONTEO-"

// AdjustmentRemission deriva el número de remisión del lote a partir del id del conteo.
func AdjustmentRemission(countID string) string {
	return AdjustmentRemissionPrefix + countID
}

// IsAdjustmentRemission indica si la remisión pertenece a un lote de ajustes por conteo.
func IsAdjustmentRemission(remission string) bool {
	return strings.HasPrefix(remission, AdjustmentRemissionPrefix)
}

// AdjustmentRequest agrupa lo necesario para planear los ajustes de un conteo.
type AdjustmentRequest struct {
	CountID   string
	BranchID  string
	Items     []entity.InventoryCountItem
	AppliedAt time.Time
	// UnitCosts costo unitario por producto para valorizar sobrantes y faltantes (opcional).
	UnitCosts map[string]decimal.Decimal
	CreatedBy string
}

// PlanAdjustments genera un movimiento por línea con física != teórica:
// sobrante -> inflow por (física - teórica), faltante -> outflow por (teórica - física).
// Todo el lote comparte remisión y fecha de aplicación; IndexInTransaction es denso,
// primero las entradas y luego las salidas, en el orden de las líneas.
func PlanAdjustments(req AdjustmentRequest) []entity.StockMovement {
	remission := AdjustmentRemission(req.CountID)
	var overages, shortages []entity.StockMovement
	for _, item := range req.Items {
		diff := item.PhysicalQuantity.Sub(item.TheoreticalQuantity)
		if diff.IsZero() {
			continue
		}
		m := entity.StockMovement{
			ProductID:          item.ProductID,
			BranchID:           req.BranchID,
			PriceAtTransaction: req.UnitCosts[item.ProductID],
			Date:               req.AppliedAt,
			RemissionNumber:    remission,
			CreatedAt:          req.AppliedAt,
			CreatedBy:          req.CreatedBy,
		}
		if diff.IsPositive() {
			m.Type = entity.MovementTypeInflow
			m.Quantity = diff
			m.Comment = fmt.Sprintf("Ajuste por conteo %s: sobrante", req.CountID)
			overages = append(overages, m)
			continue
		}
		m.Type = entity.MovementTypeOutflow
		m.Quantity = diff.Neg()
		m.Comment = fmt.Sprintf("Ajuste por conteo %s: faltante", req.CountID)
		shortages = append(shortages, m)
	}

	out := make([]entity.StockMovement, 0, len(overages)+len(shortages))
	out = append(out, overages...)
	out = append(out, shortages...)
	for i := range out {
		out[i].IndexInTransaction = i
	}
	return out
}
