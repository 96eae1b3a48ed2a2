package inventory

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// ValuationUseCase valoriza el inventario por FIFO para cada producto × sucursal.
// Cada par se calcula de forma independiente, en paralelo; dentro del par el consumo es secuencial.
type ValuationUseCase struct {
	movRepo     repository.StockMovementRepository
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	cache       PositionCache
	workers     int
	log         *logger.Logger
}

// NewValuationUseCase construye el caso de uso. cache puede ser nil; workers <= 0 usa GOMAXPROCS.
func NewValuationUseCase(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	cache PositionCache,
	workers int,
	log *logger.Logger,
) *ValuationUseCase {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ValuationUseCase{
		movRepo:     movRepo,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		cache:       cache,
		workers:     workers,
		log:         log,
	}
}

// Positions devuelve la posición de todos los productos en la sucursal, incluidos los que no
// tienen movimientos (cantidad 0). Con branchID vacío recorre todas las sucursales.
func (uc *ValuationUseCase) Positions(ctx context.Context, branchID string) ([]dto.InventoryPositionDTO, error) {
	if uc.cache == nil {
		return uc.loadPositions(ctx, branchID)
	}
	return uc.cache.Positions(ctx, branchID, func(ctx context.Context) ([]dto.InventoryPositionDTO, error) {
		return uc.loadPositions(ctx, branchID)
	})
}

func (uc *ValuationUseCase) loadPositions(ctx context.Context, branchID string) ([]dto.InventoryPositionDTO, error) {
	var (
		branches  []*entity.Branch
		movements []*entity.StockMovement
		err       error
	)
	if branchID != "" {
		branch, err := uc.branchRepo.GetByID(ctx, branchID)
		if err != nil {
			return nil, err
		}
		if branch == nil {
			return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, branchID)
		}
		branches = []*entity.Branch{branch}
		movements, err = uc.movRepo.ListByBranch(ctx, branchID)
		if err != nil {
			return nil, err
		}
	} else {
		if branches, err = uc.branchRepo.List(ctx); err != nil {
			return nil, err
		}
		if movements, err = uc.movRepo.ListAll(ctx); err != nil {
			return nil, err
		}
	}
	products, err := uc.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	groups, rejected := inventory.GroupByPair(derefMovements(movements))
	if len(rejected) > 0 {
		uc.log.Warn().Str("branch_id", branchID).Int("rejected", len(rejected)).
			Msg("movimientos sin producto o sucursal excluidos de la valorización")
	}
	return uc.computeAll(ctx, products, branches, groups)
}

// computeAll reparte el producto cruz de pares entre workers. Si un par falla, falla todo:
// nunca se devuelve una valorización parcial.
func (uc *ValuationUseCase) computeAll(
	ctx context.Context,
	products []*entity.Product,
	branches []*entity.Branch,
	groups map[inventory.PairKey][]entity.StockMovement,
) ([]dto.InventoryPositionDTO, error) {
	results := make([]dto.InventoryPositionDTO, len(branches)*len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)

	for bi, branch := range branches {
		for pi, product := range products {
			i := bi*len(products) + pi
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				key := inventory.PairKey{ProductID: product.ID, BranchID: branch.ID}
				pos, err := inventory.ComputeInventoryPosition(product.ID, branch.ID, groups[key])
				if err != nil {
					return fmt.Errorf("valorizar producto %s en sucursal %s: %w", product.ID, branch.ID, err)
				}
				if pos.Oversold() {
					uc.log.Warn().Str("product_id", product.ID).Str("branch_id", branch.ID).
						Str("quantity", pos.Quantity.String()).Msg("stock negativo (sobreventa)")
				}
				results[i] = toPositionDTO(pos, product, branch, false)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Position devuelve la posición de un par con el detalle de capas FIFO (vista de auditoría).
func (uc *ValuationUseCase) Position(ctx context.Context, productID, branchID string) (*dto.InventoryPositionDTO, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	branch, err := uc.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, branchID)
	}
	movements, err := uc.movRepo.ListByProductAndBranch(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	pos, err := inventory.ComputeInventoryPosition(productID, branchID, derefMovements(movements))
	if err != nil {
		return nil, err
	}
	out := toPositionDTO(pos, product, branch, true)
	return &out, nil
}

// AverageCost devuelve el costo promedio FIFO vigente de un par; 0 si no hay existencias.
func (uc *ValuationUseCase) AverageCost(ctx context.Context, productID, branchID string) (decimal.Decimal, error) {
	movements, err := uc.movRepo.ListByProductAndBranch(ctx, productID, branchID)
	if err != nil {
		return decimal.Zero, err
	}
	pos, err := inventory.ComputeInventoryPosition(productID, branchID, derefMovements(movements))
	if err != nil {
		return decimal.Zero, err
	}
	return pos.AverageCost, nil
}

// unitCosts devuelve el costo promedio FIFO por producto en la sucursal; valoriza sobrantes
// y faltantes al aplicar un conteo. movRepo es el repo atado a la transacción del llamador.
func unitCosts(ctx context.Context, movRepo repository.StockMovementRepository, branchID string) (map[string]decimal.Decimal, error) {
	movements, err := movRepo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	groups, _ := inventory.GroupByPair(derefMovements(movements))
	costs := make(map[string]decimal.Decimal, len(groups))
	for key, ms := range groups {
		pos, err := inventory.ComputeInventoryPosition(key.ProductID, key.BranchID, ms)
		if err != nil {
			return nil, err
		}
		costs[key.ProductID] = pos.AverageCost
	}
	return costs, nil
}
