package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// Direction es la dirección de un movimiento respecto al stock de su par (producto, sucursal).
type Direction int

const (
	DirectionNone Direction = iota
	DirectionAddition
	DirectionSubtraction
)

func (d Direction) String() string {
	switch d {
	case DirectionAddition:
		return "addition"
	case DirectionSubtraction:
		return "subtraction"
	default:
		return "none"
	}
}

// ClassifiedMovement es un movimiento cuya dirección se resolvió una sola vez al entrar al núcleo.
// Quantity es siempre la magnitud (>= 0); el signo lo da Direction.
type ClassifiedMovement struct {
	Movement      entity.StockMovement
	Direction     Direction
	Quantity      decimal.Decimal
	InitialMarker bool
}

// IsAddition indica si el movimiento suma stock.
func (c ClassifiedMovement) IsAddition() bool { return c.Direction == DirectionAddition }

// IsSubtraction indica si el movimiento resta stock.
func (c ClassifiedMovement) IsSubtraction() bool { return c.Direction == DirectionSubtraction }

// Signed devuelve la cantidad con signo: positiva si suma, negativa si resta, cero si no aplica.
func (c ClassifiedMovement) Signed() decimal.Decimal {
	switch c.Direction {
	case DirectionAddition:
		return c.Quantity
	case DirectionSubtraction:
		return c.Quantity.Neg()
	}
	return decimal.Zero
}

// Classify aplica la regla de suma/resta:
//   - suma: inflow, o transfer/conversion/adjustment con cantidad > 0
//   - resta: outflow, o transfer/conversion/adjustment con cantidad < 0
//
// Entradas y salidas se toman por magnitud: filas antiguas guardan las salidas en negativo.
// Devuelve ValidationError si faltan referencias o el tipo es desconocido, y
// ErrInvalidMovementDate (error duro) si el movimiento no tiene fecha.
func Classify(m entity.StockMovement) (ClassifiedMovement, error) {
	if m.ProductID == "" {
		return ClassifiedMovement{}, domain.ValidationError{MovementID: m.ID, Field: "product_id", Reason: "requerido"}
	}
	if m.BranchID == "" {
		return ClassifiedMovement{}, domain.ValidationError{MovementID: m.ID, Field: "branch_id", Reason: "requerido"}
	}
	if m.Date.IsZero() {
		return ClassifiedMovement{}, fmt.Errorf("%w: %s", domain.ErrInvalidMovementDate, m.ID)
	}

	c := ClassifiedMovement{Movement: m, Quantity: m.Quantity.Abs(), InitialMarker: IsInitialMarker(m.Comment)}
	switch m.Type {
	case entity.MovementTypeInflow:
		c.Direction = DirectionAddition
	case entity.MovementTypeOutflow:
		c.Direction = DirectionSubtraction
	case entity.MovementTypeTransfer, entity.MovementTypeConversion, entity.MovementTypeAdjustment:
		switch m.Quantity.Sign() {
		case 1:
			c.Direction = DirectionAddition
		case -1:
			c.Direction = DirectionSubtraction
		}
	default:
		return ClassifiedMovement{}, domain.ValidationError{MovementID: m.ID, Field: "type", Reason: fmt.Sprintf("tipo desconocido %q", m.Type)}
	}
	return c, nil
}

// ClassifyPair clasifica los movimientos del par (productID, branchID); los de otros pares se ignoran.
// Un productID o branchID vacío no filtra esa dimensión.
// Los movimientos mal formados se excluyen y se reportan; un error duro aborta todo el par.
func ClassifyPair(productID, branchID string, movements []entity.StockMovement) ([]ClassifiedMovement, []domain.ValidationError, error) {
	out := make([]ClassifiedMovement, 0, len(movements))
	var rejected []domain.ValidationError
	for _, m := range movements {
		if m.ProductID != "" && productID != "" && m.ProductID != productID {
			continue
		}
		if m.BranchID != "" && branchID != "" && m.BranchID != branchID {
			continue
		}
		c, err := Classify(m)
		if err != nil {
			var verr domain.ValidationError
			if errors.As(err, &verr) {
				rejected = append(rejected, verr)
				continue
			}
			return nil, nil, err
		}
		out = append(out, c)
	}
	return out, rejected, nil
}

// IsInitialMarker indica si el comentario marca un saldo inicial previo al libro ("inicial"/"initial").
func IsInitialMarker(comment string) bool {
	if comment == "" {
		return false
	}
	folded := FoldKey(comment)
	return strings.Contains(folded, "inicial") || strings.Contains(folded, "initial")
}

// FoldKey normaliza un texto para comparaciones sin distinguir mayúsculas (NFC + case folding Unicode).
// Las tildes se conservan: "Urea" y "UREA" coinciden, "Cal" y "Cál" no.
func FoldKey(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
