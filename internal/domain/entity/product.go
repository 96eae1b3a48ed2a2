package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo (semillas, fertilizantes, agroquímicos, etc.).
// El costo no se guarda aquí: se deriva de las capas FIFO de cada sucursal.
type Product struct {
	ID          string
	SKU         string
	Name        string
	UnitMeasure string
	Price       decimal.Decimal // precio de venta de referencia
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
