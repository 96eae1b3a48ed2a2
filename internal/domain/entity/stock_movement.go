package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de inventario.
const (
	MovementTypeInflow     = "inflow"     // entrada (compra, remisión de proveedor, importación)
	MovementTypeOutflow    = "outflow"    // salida (venta, consumo); cantidad guardada como magnitud positiva
	MovementTypeTransfer   = "transfer"   // traslado entre sucursales: dos filas, origen negativo y destino positivo
	MovementTypeConversion = "conversion" // conversión entre productos: fuente negativa, destino positivo
	MovementTypeAdjustment = "adjustment" // ajuste manual, signo indica dirección
)

// IsValidMovementType indica si t es uno de los tipos conocidos.
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeInflow, MovementTypeOutflow, MovementTypeTransfer, MovementTypeConversion, MovementTypeAdjustment:
		return true
	}
	return false
}

// StockMovement es una fila del libro de movimientos.
// Las filas de una misma transacción lógica (factura, traslado, conversión, lote de ajustes)
// comparten RemissionNumber y se ordenan por IndexInTransaction.
type StockMovement struct {
	ID                 string
	ProductID          string
	BranchID           string
	Type               string
	Quantity           decimal.Decimal
	PriceAtTransaction decimal.Decimal
	Date               time.Time
	RemissionNumber    string
	IndexInTransaction int
	Comment            string
	CreatedAt          time.Time
	CreatedBy          string
}

// TotalCost devuelve cantidad * precio de la transacción.
func (m StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Abs().Mul(m.PriceAtTransaction)
}
