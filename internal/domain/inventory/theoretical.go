package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// TheoreticalStock es la descomposición del stock esperado desde el último conteo aplicado.
type TheoreticalStock struct {
	Initial     decimal.Decimal
	Inflows     decimal.Decimal
	Outflows    decimal.Decimal
	Theoretical decimal.Decimal
}

// BaselineCount devuelve el conteo aplicado más reciente de la sucursal, excluyendo excludeCountID.
// nil si no existe ninguno.
func BaselineCount(counts []entity.InventoryCount, branchID, excludeCountID string) *entity.InventoryCount {
	var best *entity.InventoryCount
	for i := range counts {
		c := &counts[i]
		if !c.AdjustmentsApplied || c.ID == excludeCountID {
			continue
		}
		if branchID != "" && c.BranchID != branchID {
			continue
		}
		if best == nil || c.Date.After(best.Date) || (c.Date.Equal(best.Date) && c.CreatedAt.After(best.CreatedAt)) {
			best = c
		}
	}
	return best
}

// ComputeTheoreticalStock calcula {inicial, entradas, salidas, teórico} del par (productID, branchID).
//
// Todo lo fechado hasta el conteo base se colapsa en Initial. Sin conteo base, los movimientos
// marcados como saldo inicial en el comentario también van a Initial. El resto se acumula en
// Inflows u Outflows según su dirección. Theoretical = Initial + Inflows - Outflows.
func ComputeTheoreticalStock(
	productID, branchID string,
	movements []entity.StockMovement,
	appliedCounts []entity.InventoryCount,
	excludeCountID string,
) (TheoreticalStock, []domain.ValidationError, error) {
	classified, rejected, err := ClassifyPair(productID, branchID, movements)
	if err != nil {
		return TheoreticalStock{}, nil, err
	}

	baseline := BaselineCount(appliedCounts, branchID, excludeCountID)
	lastCountDate := time.Time{}
	if baseline != nil {
		lastCountDate = baseline.Date
	}

	initial, inflows, outflows := decimal.Zero, decimal.Zero, decimal.Zero
	for _, c := range classified {
		switch {
		case baseline != nil && !c.Movement.Date.After(lastCountDate):
			initial = initial.Add(c.Signed())
		case baseline == nil && c.InitialMarker:
			initial = initial.Add(c.Signed())
		case c.IsAddition():
			inflows = inflows.Add(c.Quantity)
		case c.IsSubtraction():
			outflows = outflows.Add(c.Quantity)
		}
	}

	return TheoreticalStock{
		Initial:     initial,
		Inflows:     inflows,
		Outflows:    outflows,
		Theoretical: initial.Add(inflows).Sub(outflows),
	}, rejected, nil
}
