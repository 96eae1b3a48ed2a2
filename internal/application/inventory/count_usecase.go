package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// CountUseCase orquesta el ciclo de vida de un conteo físico:
// crear -> capturar/recalcular/igualar -> completar -> aplicar ajustes.
// Toda mutación toma el candado de la fila del conteo dentro de una transacción.
type CountUseCase struct {
	txRunner    TxRunner
	countRepo   repository.InventoryCountRepository
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	reports     CountReportGenerator
	cache       PositionCache
	log         *logger.Logger
	now         func() time.Time
}

// NewCountUseCase construye el caso de uso. reports y cache pueden ser nil.
func NewCountUseCase(
	txRunner TxRunner,
	countRepo repository.InventoryCountRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	reports CountReportGenerator,
	cache PositionCache,
	log *logger.Logger,
) *CountUseCase {
	return &CountUseCase{
		txRunner:    txRunner,
		countRepo:   countRepo,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		reports:     reports,
		cache:       cache,
		log:         log,
		now:         time.Now,
	}
}

// Create abre un conteo en la sucursal con una línea por producto, sembrada con la foto teórica.
func (uc *CountUseCase) Create(ctx context.Context, in dto.CreateCountRequest) (*dto.CountResponse, error) {
	branch, err := uc.branchRepo.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, in.BranchID)
	}
	products, err := uc.sortedProducts(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	count := &entity.InventoryCount{
		ID:          uuid.New().String(),
		Date:        dateOr(in.Date, now),
		BranchID:    in.BranchID,
		Responsible: in.Responsible,
		Status:      entity.CountStatusInProgress,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var items []*entity.InventoryCountItem
	err = uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, countRepo repository.InventoryCountRepository) error {
		stocks, err := uc.theoretical(ctx, movRepo, countRepo, count.BranchID, count.ID, products)
		if err != nil {
			return err
		}
		items = make([]*entity.InventoryCountItem, 0, len(products))
		for _, p := range products {
			item := inventory.NewCountItem(count.ID, *p, stocks[p.ID])
			item.ID = uuid.New().String()
			items = append(items, &item)
		}
		return countRepo.Create(ctx, count, items)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("count_id", count.ID).Str("branch_id", count.BranchID).Int("items", len(items)).Msg("conteo creado")
	return toCountResponse(count, items), nil
}

// Get devuelve el conteo con sus líneas.
func (uc *CountUseCase) Get(ctx context.Context, id string) (*dto.CountResponse, error) {
	count, err := uc.countRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if count == nil {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
	}
	items, err := uc.countRepo.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCountResponse(count, items), nil
}

// List devuelve las cabeceras de los conteos de la sucursal.
func (uc *CountUseCase) List(ctx context.Context, branchID string, page dto.PageRequest) (*dto.CountListResponse, error) {
	counts, err := uc.countRepo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	start, end := page.Window(len(counts))
	out := make([]*dto.CountResponse, 0, end-start)
	for _, c := range counts[start:end] {
		out = append(out, toCountResponse(c, nil))
	}
	return &dto.CountListResponse{Items: out, Page: page.Response(len(counts))}, nil
}

// UpdateItems registra cantidades físicas. Solo en conteos en progreso.
func (uc *CountUseCase) UpdateItems(ctx context.Context, id string, in dto.UpdateCountItemsRequest) (*dto.CountResponse, error) {
	return uc.mutate(ctx, id, func(ctx context.Context, _ repository.StockMovementRepository, countRepo repository.InventoryCountRepository, count *entity.InventoryCount, items []*entity.InventoryCountItem) error {
		byProduct := make(map[string]*entity.InventoryCountItem, len(items))
		for _, it := range items {
			byProduct[it.ProductID] = it
		}
		changed := make([]*entity.InventoryCountItem, 0, len(in.Items))
		for _, e := range in.Items {
			item, ok := byProduct[e.ProductID]
			if !ok {
				return fmt.Errorf("%w: el producto %s no pertenece al conteo", domain.ErrInvalidInput, e.ProductID)
			}
			if err := inventory.RecordPhysical(count, item, e.PhysicalQuantity); err != nil {
				return err
			}
			changed = append(changed, item)
		}
		return countRepo.UpdateItems(ctx, changed)
	})
}

// Recalculate refresca la parte teórica de cada línea conservando lo contado.
// El propio conteo nunca es su base.
func (uc *CountUseCase) Recalculate(ctx context.Context, id string) (*dto.CountResponse, error) {
	products, err := uc.sortedProducts(ctx)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, id, func(ctx context.Context, movRepo repository.StockMovementRepository, countRepo repository.InventoryCountRepository, count *entity.InventoryCount, items []*entity.InventoryCountItem) error {
		if err := inventory.EnsureEditable(count); err != nil {
			return err
		}
		stocks, err := uc.theoretical(ctx, movRepo, countRepo, count.BranchID, count.ID, products)
		if err != nil {
			return err
		}
		for _, it := range items {
			inventory.RefreshItem(it, stocks[it.ProductID])
		}
		return countRepo.UpdateItems(ctx, items)
	})
}

// Equalize iguala física = teórica en todas las líneas; exige confirmación explícita.
func (uc *CountUseCase) Equalize(ctx context.Context, id string, in dto.EqualizeRequest) (*dto.CountResponse, error) {
	return uc.mutate(ctx, id, func(ctx context.Context, _ repository.StockMovementRepository, countRepo repository.InventoryCountRepository, count *entity.InventoryCount, items []*entity.InventoryCountItem) error {
		values := make([]entity.InventoryCountItem, len(items))
		for i, it := range items {
			values[i] = *it
		}
		if err := inventory.Equalize(count, values, in.Confirm); err != nil {
			return err
		}
		for i := range values {
			*items[i] = values[i]
		}
		return countRepo.UpdateItems(ctx, items)
	})
}

// Complete congela el conteo. Irreversible.
func (uc *CountUseCase) Complete(ctx context.Context, id string) (*dto.CountResponse, error) {
	return uc.mutate(ctx, id, func(ctx context.Context, _ repository.StockMovementRepository, countRepo repository.InventoryCountRepository, count *entity.InventoryCount, _ []*entity.InventoryCountItem) error {
		if err := inventory.Complete(count, uc.now()); err != nil {
			return err
		}
		return countRepo.Update(ctx, count)
	})
}

// ApplyAdjustments emite un movimiento por cada línea con diferencia y deja el conteo en su
// estado terminal, todo en la misma transacción. Una segunda llamada falla con ErrInvalidState.
func (uc *CountUseCase) ApplyAdjustments(ctx context.Context, userID, id string) (*dto.ApplyAdjustmentsResponse, error) {
	head, err := uc.countRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if head == nil {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
	}
	if err := inventory.EnsureApplicable(head); err != nil {
		return nil, err
	}

	var emitted int
	err = uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, countRepo repository.InventoryCountRepository) error {
		count, err := countRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if count == nil {
			return fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
		}
		if err := inventory.EnsureApplicable(count); err != nil {
			return err
		}
		items, err := countRepo.Items(ctx, id)
		if err != nil {
			return err
		}
		values := make([]entity.InventoryCountItem, 0, len(items))
		for _, it := range items {
			values = append(values, *it)
		}
		// Costos con el conteo ya bloqueado: incluye lo confirmado hasta este punto.
		costs, err := unitCosts(ctx, movRepo, count.BranchID)
		if err != nil {
			return err
		}

		now := uc.now()
		planned := inventory.PlanAdjustments(inventory.AdjustmentRequest{
			CountID:   count.ID,
			BranchID:  count.BranchID,
			Items:     values,
			AppliedAt: now,
			UnitCosts: costs,
			CreatedBy: userID,
		})
		if len(planned) > 0 {
			batch := make([]*entity.StockMovement, len(planned))
			for i := range planned {
				planned[i].ID = uuid.New().String()
				batch[i] = &planned[i]
			}
			if err := movRepo.CreateBatch(ctx, batch); err != nil {
				return err
			}
		}
		if err := inventory.MarkApplied(count, now); err != nil {
			return err
		}
		emitted = len(planned)
		return countRepo.Update(ctx, count)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("count_id", id).Int("movements", emitted).Msg("ajustes de conteo aplicados")
	uc.invalidate(ctx)
	return &dto.ApplyAdjustmentsResponse{
		CountID:         id,
		RemissionNumber: inventory.AdjustmentRemission(id),
		Movements:       emitted,
	}, nil
}

// Delete borra un conteo que aún no aplicó ajustes.
func (uc *CountUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(ctx context.Context, _ repository.StockMovementRepository, countRepo repository.InventoryCountRepository) error {
		count, err := countRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if count == nil {
			return fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
		}
		if err := inventory.EnsureDeletable(count); err != nil {
			return err
		}
		return countRepo.Delete(ctx, id)
	})
}

// Report genera el acta del conteo en PDF.
func (uc *CountUseCase) Report(ctx context.Context, id string) ([]byte, error) {
	if uc.reports == nil {
		return nil, fmt.Errorf("%w: generador de actas no configurado", domain.ErrInvalidState)
	}
	count, err := uc.countRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if count == nil {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
	}
	branch, err := uc.branchRepo.GetByID(ctx, count.BranchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, count.BranchID)
	}
	items, err := uc.countRepo.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.reports.GenerateCountReport(ctx, count, branch, items)
}

type countMutation func(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	countRepo repository.InventoryCountRepository,
	count *entity.InventoryCount,
	items []*entity.InventoryCountItem,
) error

// mutate bloquea el conteo, carga sus líneas y aplica fn dentro de una transacción.
func (uc *CountUseCase) mutate(ctx context.Context, id string, fn countMutation) (*dto.CountResponse, error) {
	var (
		count *entity.InventoryCount
		items []*entity.InventoryCountItem
	)
	err := uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, countRepo repository.InventoryCountRepository) error {
		var err error
		count, err = countRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if count == nil {
			return fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
		}
		items, err = countRepo.Items(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, movRepo, countRepo, count, items)
	})
	if err != nil {
		return nil, err
	}
	return toCountResponse(count, items), nil
}

// theoretical calcula la foto teórica de cada producto en la sucursal.
func (uc *CountUseCase) theoretical(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	countRepo repository.InventoryCountRepository,
	branchID, excludeCountID string,
	products []*entity.Product,
) (map[string]inventory.TheoreticalStock, error) {
	movements, err := movRepo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	applied, err := countRepo.ListApplied(ctx, branchID)
	if err != nil {
		return nil, err
	}
	counts := derefCounts(applied)
	groups, rejected := inventory.GroupByPair(derefMovements(movements))

	out := make(map[string]inventory.TheoreticalStock, len(products))
	for _, p := range products {
		key := inventory.PairKey{ProductID: p.ID, BranchID: branchID}
		ts, bad, err := inventory.ComputeTheoreticalStock(p.ID, branchID, groups[key], counts, excludeCountID)
		if err != nil {
			return nil, fmt.Errorf("stock teórico de %s: %w", p.ID, err)
		}
		rejected = append(rejected, bad...)
		out[p.ID] = ts
	}
	if len(rejected) > 0 {
		uc.log.Warn().Str("branch_id", branchID).Int("rejected", len(rejected)).
			Msg("movimientos excluidos del stock teórico")
	}
	return out, nil
}

func (uc *CountUseCase) sortedProducts(ctx context.Context) ([]*entity.Product, error) {
	products, err := uc.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool {
		return inventory.FoldKey(products[i].Name) < inventory.FoldKey(products[j].Name)
	})
	return products, nil
}

func (uc *CountUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.log.Error().Err(err).Msg("invalidar caché de posiciones")
	}
}
