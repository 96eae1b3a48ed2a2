package repository

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// BranchRepository define el puerto de lectura de sucursales (DIP).
// El CRUD de sucursales vive fuera de este servicio.
type BranchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Branch, error)
	List(ctx context.Context) ([]*entity.Branch, error)
}
