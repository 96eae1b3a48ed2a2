package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// DataIntegrityWarning marca una salida que consumió más de lo que había en capas (sobreventa).
// El déficit se valoró al precio del movimiento que lo provocó.
type DataIntegrityWarning struct {
	MovementID string          `json:"movement_id"`
	Date       time.Time       `json:"date"`
	Deficit    decimal.Decimal `json:"deficit"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

// InventoryPosition es el resultado derivado (no persistido) de valorizar un par (producto, sucursal).
type InventoryPosition struct {
	ProductID   string
	BranchID    string
	Quantity    decimal.Decimal
	CostLayers  CostLayers
	AverageCost decimal.Decimal
	TotalValue  decimal.Decimal
	Warnings    []DataIntegrityWarning
	Rejected    []domain.ValidationError
}

// Oversold indica si la posición quedó negativa o pasó por una sobreventa.
func (p InventoryPosition) Oversold() bool {
	return p.Quantity.IsNegative() || len(p.Warnings) > 0
}

// PairKey identifica un par (producto, sucursal).
type PairKey struct {
	ProductID string
	BranchID  string
}

// ComputeInventoryPosition valoriza por FIFO los movimientos del par (productID, branchID).
// movements puede ser el libro completo: se filtra internamente. Es una función pura.
func ComputeInventoryPosition(productID, branchID string, movements []entity.StockMovement) (InventoryPosition, error) {
	classified, rejected, err := ClassifyPair(productID, branchID, movements)
	if err != nil {
		return InventoryPosition{}, err
	}
	pos := valuate(classified)
	pos.ProductID = productID
	pos.BranchID = branchID
	pos.Rejected = rejected
	return pos, nil
}

// valuate recorre los movimientos en orden cronológico manteniendo la cola de capas.
// El consumo es estrictamente secuencial: cada salida depende del remanente exacto anterior.
func valuate(classified []ClassifiedMovement) InventoryPosition {
	ordered := make([]ClassifiedMovement, len(classified))
	copy(ordered, classified)
	SortChronologically(ordered)

	var (
		queue    layerQueue
		quantity = decimal.Zero
		value    = decimal.Zero
		warnings []DataIntegrityWarning
	)
	for _, c := range ordered {
		switch c.Direction {
		case DirectionAddition:
			unitCost := c.Movement.PriceAtTransaction
			queue.push(CostLayer{Quantity: c.Quantity, UnitCost: unitCost, Date: c.Movement.Date, MovementID: c.Movement.ID})
			quantity = quantity.Add(c.Quantity)
			value = value.Add(c.Quantity.Mul(unitCost))

		case DirectionSubtraction:
			remaining := c.Quantity
			for remaining.IsPositive() {
				layer := queue.front()
				if layer == nil {
					break
				}
				if layer.Quantity.LessThanOrEqual(remaining) {
					remaining = remaining.Sub(layer.Quantity)
					quantity = quantity.Sub(layer.Quantity)
					value = value.Sub(layer.Value())
					queue.pop()
					continue
				}
				layer.Quantity = layer.Quantity.Sub(remaining)
				quantity = quantity.Sub(remaining)
				value = value.Sub(remaining.Mul(layer.UnitCost))
				remaining = decimal.Zero
			}
			if remaining.IsPositive() {
				// sobreventa: se permite stock negativo y el déficit se valora al precio del movimiento
				price := c.Movement.PriceAtTransaction
				quantity = quantity.Sub(remaining)
				value = value.Sub(remaining.Mul(price))
				warnings = append(warnings, DataIntegrityWarning{
					MovementID: c.Movement.ID,
					Date:       c.Movement.Date,
					Deficit:    remaining,
					UnitCost:   price,
				})
			}
		}
	}

	return InventoryPosition{
		Quantity:    quantity,
		CostLayers:  queue.snapshot(),
		AverageCost: AverageCost(value, quantity),
		TotalValue:  value,
		Warnings:    warnings,
	}
}

// SortChronologically ordena por fecha ascendente; en empate las sumas van antes que las restas
// y luego por IndexInTransaction, para no producir negativos transitorios espurios.
func SortChronologically(ms []ClassifiedMovement) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if !a.Movement.Date.Equal(b.Movement.Date) {
			return a.Movement.Date.Before(b.Movement.Date)
		}
		if ra, rb := directionRank(a.Direction), directionRank(b.Direction); ra != rb {
			return ra < rb
		}
		return a.Movement.IndexInTransaction < b.Movement.IndexInTransaction
	})
}

func directionRank(d Direction) int {
	switch d {
	case DirectionAddition:
		return 0
	case DirectionSubtraction:
		return 1
	}
	return 2
}

// GroupByPair reparte el libro por par (producto, sucursal) en una sola pasada.
// Los movimientos sin producto o sucursal no pertenecen a ningún par y se reportan aparte.
func GroupByPair(movements []entity.StockMovement) (map[PairKey][]entity.StockMovement, []domain.ValidationError) {
	groups := make(map[PairKey][]entity.StockMovement)
	var rejected []domain.ValidationError
	for _, m := range movements {
		if m.ProductID == "" {
			rejected = append(rejected, domain.ValidationError{MovementID: m.ID, Field: "product_id", Reason: "requerido"})
			continue
		}
		if m.BranchID == "" {
			rejected = append(rejected, domain.ValidationError{MovementID: m.ID, Field: "branch_id", Reason: "requerido"})
			continue
		}
		k := PairKey{ProductID: m.ProductID, BranchID: m.BranchID}
		groups[k] = append(groups[k], m)
	}
	return groups, rejected
}
