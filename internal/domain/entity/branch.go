package entity

import "time"

// Branch representa una sucursal de la tienda agropecuaria donde se almacena inventario (multi-sucursal).
type Branch struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
