package repository

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del libro de movimientos (DIP).
// Los métodos de lista no garantizan orden: el núcleo ordena por fecha.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// CreateBatch inserta todas las filas de una remisión; el llamador lo usa dentro de una transacción.
	CreateBatch(ctx context.Context, movements []*entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	Update(ctx context.Context, movement *entity.StockMovement) error
	Delete(ctx context.Context, id string) error
	// DeleteByRemission borra todas las filas de la remisión y devuelve cuántas eran.
	DeleteByRemission(ctx context.Context, remission string) (int64, error)
	ListByRemission(ctx context.Context, remission string) ([]*entity.StockMovement, error)
	ListByBranch(ctx context.Context, branchID string) ([]*entity.StockMovement, error)
	ListByProductAndBranch(ctx context.Context, productID, branchID string) ([]*entity.StockMovement, error)
	ListAll(ctx context.Context) ([]*entity.StockMovement, error)
}
