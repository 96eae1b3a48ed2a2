package inventory

import "github.com/shopspring/decimal"

// AverageCost devuelve el costo promedio de una posición (servicio de dominio).
// CostoPromedio = ValorTotal / Cantidad cuando Cantidad > 0; en otro caso 0.
func AverageCost(totalValue, quantity decimal.Decimal) decimal.Decimal {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return totalValue.Div(quantity)
}
