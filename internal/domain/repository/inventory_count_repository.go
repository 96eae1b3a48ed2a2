package repository

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// InventoryCountRepository define el puerto de persistencia de conteos físicos y sus líneas (DIP).
type InventoryCountRepository interface {
	Create(ctx context.Context, count *entity.InventoryCount, items []*entity.InventoryCountItem) error
	GetByID(ctx context.Context, id string) (*entity.InventoryCount, error)
	// GetForUpdate bloquea la fila del conteo (SELECT FOR UPDATE) durante la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryCount, error)
	// ListByBranch con branchID vacío devuelve todos los conteos.
	ListByBranch(ctx context.Context, branchID string) ([]*entity.InventoryCount, error)
	// ListApplied devuelve los conteos de la sucursal con ajustes aplicados.
	ListApplied(ctx context.Context, branchID string) ([]*entity.InventoryCount, error)
	Items(ctx context.Context, countID string) ([]*entity.InventoryCountItem, error)
	UpdateItems(ctx context.Context, items []*entity.InventoryCountItem) error
	Update(ctx context.Context, count *entity.InventoryCount) error
	Delete(ctx context.Context, id string) error
}
