package inventory

import (
	"context"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el libro de movimientos y los conteos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ctx context.Context,
		movRepo repository.StockMovementRepository,
		countRepo repository.InventoryCountRepository,
	) error) error
}

// PositionCache guarda posiciones valorizadas por sucursal. Cualquier escritura al libro la invalida.
// Una implementación nil-safe permite operar sin caché.
type PositionCache interface {
	Positions(ctx context.Context, branchID string, load func(context.Context) ([]dto.InventoryPositionDTO, error)) ([]dto.InventoryPositionDTO, error)
	Invalidate(ctx context.Context) error
}

// InvoiceTotals recalcula totales derivados (facturas de proveedor) cuando cambia una remisión.
// Colaborador externo opcional.
type InvoiceTotals interface {
	RecalculateRemission(ctx context.Context, remission string) error
}

// CountReportGenerator genera el acta de un conteo físico (PDF).
type CountReportGenerator interface {
	GenerateCountReport(ctx context.Context, count *entity.InventoryCount, branch *entity.Branch, items []*entity.InventoryCountItem) ([]byte, error)
}
