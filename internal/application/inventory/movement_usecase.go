package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// MovementUseCase registra, edita y borra movimientos del libro de inventario.
// Las filas de una misma remisión (traslado, conversión) se insertan en una sola transacción.
type MovementUseCase struct {
	txRunner    TxRunner
	movRepo     repository.StockMovementRepository
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	valuation   *ValuationUseCase
	cache       PositionCache
	invoices    InvoiceTotals
	log         *logger.Logger
	now         func() time.Time
}

// NewMovementUseCase construye el caso de uso. cache e invoices pueden ser nil.
func NewMovementUseCase(
	txRunner TxRunner,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	valuation *ValuationUseCase,
	cache PositionCache,
	invoices InvoiceTotals,
	log *logger.Logger,
) *MovementUseCase {
	return &MovementUseCase{
		txRunner:    txRunner,
		movRepo:     movRepo,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		valuation:   valuation,
		cache:       cache,
		invoices:    invoices,
		log:         log,
		now:         time.Now,
	}
}

// RegisterMovement registra una entrada, salida o ajuste de una sola fila.
// inflow/outflow exigen cantidad > 0; adjustment exige cantidad != 0 (el signo da la dirección).
func (uc *MovementUseCase) RegisterMovement(ctx context.Context, userID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	switch in.Type {
	case entity.MovementTypeInflow, entity.MovementTypeOutflow:
		if !in.Quantity.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovementTypeAdjustment:
		if in.Quantity.IsZero() {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}
	if in.PriceAtTransaction.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.ensureProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}
	if err := uc.ensureBranch(ctx, in.BranchID); err != nil {
		return nil, err
	}

	now := uc.now()
	mov := &entity.StockMovement{
		ID:                 uuid.New().String(),
		ProductID:          in.ProductID,
		BranchID:           in.BranchID,
		Type:               in.Type,
		Quantity:           in.Quantity,
		PriceAtTransaction: in.PriceAtTransaction,
		Date:               dateOr(in.Date, now),
		RemissionNumber:    remissionOr(in.RemissionNumber),
		Comment:            in.Comment,
		CreatedAt:          now,
		CreatedBy:          userID,
	}
	if err := uc.insert(ctx, []*entity.StockMovement{mov}); err != nil {
		return nil, err
	}
	out := toMovementResponse(mov)
	return &out, nil
}

// RegisterTransfer registra un traslado entre sucursales: fila negativa en origen (índice 0)
// y positiva en destino (índice 1), ambas tipo transfer y con la misma remisión.
func (uc *MovementUseCase) RegisterTransfer(ctx context.Context, userID string, in dto.TransferRequest) ([]dto.MovementResponse, error) {
	if in.FromBranchID == in.ToBranchID || !in.Quantity.IsPositive() || in.PriceAtTransaction.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.ensureProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}
	if err := uc.ensureBranch(ctx, in.FromBranchID); err != nil {
		return nil, err
	}
	if err := uc.ensureBranch(ctx, in.ToBranchID); err != nil {
		return nil, err
	}

	price := in.PriceAtTransaction
	if price.IsZero() {
		avg, err := uc.valuation.AverageCost(ctx, in.ProductID, in.FromBranchID)
		if err != nil {
			return nil, err
		}
		price = avg
	}

	now := uc.now()
	date := dateOr(in.Date, now)
	remission := remissionOr(in.RemissionNumber)
	legs := []*entity.StockMovement{
		{
			ID: uuid.New().String(), ProductID: in.ProductID, BranchID: in.FromBranchID,
			Type: entity.MovementTypeTransfer, Quantity: in.Quantity.Neg(), PriceAtTransaction: price,
			Date: date, RemissionNumber: remission, IndexInTransaction: 0,
			Comment: in.Comment, CreatedAt: now, CreatedBy: userID,
		},
		{
			ID: uuid.New().String(), ProductID: in.ProductID, BranchID: in.ToBranchID,
			Type: entity.MovementTypeTransfer, Quantity: in.Quantity, PriceAtTransaction: price,
			Date: date, RemissionNumber: remission, IndexInTransaction: 1,
			Comment: in.Comment, CreatedAt: now, CreatedBy: userID,
		},
	}
	if err := uc.insert(ctx, legs); err != nil {
		return nil, err
	}
	return []dto.MovementResponse{toMovementResponse(legs[0]), toMovementResponse(legs[1])}, nil
}

// RegisterConversion registra la conversión de un producto en otro dentro de la sucursal:
// fila negativa del producto fuente (índice 0) y positiva del producto destino (índice 1).
func (uc *MovementUseCase) RegisterConversion(ctx context.Context, userID string, in dto.ConversionRequest) ([]dto.MovementResponse, error) {
	if in.SourceProductID == in.TargetProductID || !in.SourceQuantity.IsPositive() || !in.TargetQuantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if in.SourcePrice.IsNegative() || in.TargetPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.ensureBranch(ctx, in.BranchID); err != nil {
		return nil, err
	}
	if err := uc.ensureProduct(ctx, in.SourceProductID); err != nil {
		return nil, err
	}
	if err := uc.ensureProduct(ctx, in.TargetProductID); err != nil {
		return nil, err
	}

	sourcePrice := in.SourcePrice
	if sourcePrice.IsZero() {
		avg, err := uc.valuation.AverageCost(ctx, in.SourceProductID, in.BranchID)
		if err != nil {
			return nil, err
		}
		sourcePrice = avg
	}
	targetPrice := in.TargetPrice
	if targetPrice.IsZero() {
		targetPrice = ConversionUnitCost(in.SourceQuantity, sourcePrice, in.TargetQuantity)
	}

	now := uc.now()
	date := dateOr(in.Date, now)
	remission := remissionOr(in.RemissionNumber)
	legs := []*entity.StockMovement{
		{
			ID: uuid.New().String(), ProductID: in.SourceProductID, BranchID: in.BranchID,
			Type: entity.MovementTypeConversion, Quantity: in.SourceQuantity.Neg(), PriceAtTransaction: sourcePrice,
			Date: date, RemissionNumber: remission, IndexInTransaction: 0,
			Comment: in.Comment, CreatedAt: now, CreatedBy: userID,
		},
		{
			ID: uuid.New().String(), ProductID: in.TargetProductID, BranchID: in.BranchID,
			Type: entity.MovementTypeConversion, Quantity: in.TargetQuantity, PriceAtTransaction: targetPrice,
			Date: date, RemissionNumber: remission, IndexInTransaction: 1,
			Comment: in.Comment, CreatedAt: now, CreatedBy: userID,
		},
	}
	if err := uc.insert(ctx, legs); err != nil {
		return nil, err
	}
	return []dto.MovementResponse{toMovementResponse(legs[0]), toMovementResponse(legs[1])}, nil
}

// ConversionUnitCost reparte el valor de la fuente entre las unidades destino.
func ConversionUnitCost(sourceQty, sourcePrice, targetQty decimal.Decimal) decimal.Decimal {
	if !targetQty.IsPositive() {
		return decimal.Zero
	}
	return sourceQty.Mul(sourcePrice).Div(targetQty).Round(4)
}

// UpdateMovement edita cantidad, precio o comentario de un movimiento.
// No ajusta la fila pareada: si la remisión tiene más filas, devuelve un aviso.
func (uc *MovementUseCase) UpdateMovement(ctx context.Context, id string, in dto.UpdateMovementRequest) (*dto.MutationResponse, error) {
	var mov *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, _ repository.InventoryCountRepository) error {
		var err error
		mov, err = loadMovement(ctx, movRepo, id)
		if err != nil {
			return err
		}
		if err := applyMovementEdit(mov, in); err != nil {
			return err
		}
		return movRepo.Update(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	return uc.mutated(ctx, mov)
}

// DeleteMovement borra un movimiento. Igual que al editar, la fila pareada no se toca.
func (uc *MovementUseCase) DeleteMovement(ctx context.Context, id string) (*dto.MutationResponse, error) {
	var mov *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, _ repository.InventoryCountRepository) error {
		var err error
		mov, err = loadMovement(ctx, movRepo, id)
		if err != nil {
			return err
		}
		return movRepo.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return uc.mutated(ctx, mov)
}

func loadMovement(ctx context.Context, movRepo repository.StockMovementRepository, id string) (*entity.StockMovement, error) {
	mov, err := movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
	}
	return mov, nil
}

func applyMovementEdit(mov *entity.StockMovement, in dto.UpdateMovementRequest) error {
	if in.Quantity != nil {
		q := *in.Quantity
		switch mov.Type {
		case entity.MovementTypeInflow, entity.MovementTypeOutflow:
			if !q.IsPositive() {
				return domain.ErrInvalidInput
			}
		default:
			if q.IsZero() {
				return domain.ErrInvalidInput
			}
		}
		mov.Quantity = q
	}
	if in.PriceAtTransaction != nil {
		if in.PriceAtTransaction.IsNegative() {
			return domain.ErrInvalidInput
		}
		mov.PriceAtTransaction = *in.PriceAtTransaction
	}
	if in.Comment != nil {
		mov.Comment = *in.Comment
	}
	return nil
}

// mutated arma la respuesta de una edición o borrado ya confirmado.
func (uc *MovementUseCase) mutated(ctx context.Context, mov *entity.StockMovement) (*dto.MutationResponse, error) {
	warning, err := uc.pairingWarning(ctx, mov.RemissionNumber, mov.ID)
	if err != nil {
		return nil, err
	}
	uc.afterWrite(ctx, mov.RemissionNumber)
	return &dto.MutationResponse{Affected: 1, RemissionNumber: mov.RemissionNumber, Warning: warning}, nil
}

// DeleteRemission borra todas las filas que comparten la remisión.
func (uc *MovementUseCase) DeleteRemission(ctx context.Context, remission string) (*dto.MutationResponse, error) {
	if remission == "" {
		return nil, domain.ErrInvalidInput
	}
	var n int64
	err := uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, _ repository.InventoryCountRepository) error {
		var err error
		n, err = movRepo.DeleteByRemission(ctx, remission)
		return err
	})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: remisión %s", domain.ErrNotFound, remission)
	}
	if inventory.IsAdjustmentRemission(remission) {
		uc.log.Warn().Str("remission", remission).Msg("se borró un lote de ajustes por conteo; el conteo sigue marcado como aplicado")
	}
	uc.afterWrite(ctx, remission)
	return &dto.MutationResponse{Affected: n, RemissionNumber: remission}, nil
}

// StockLog devuelve el kardex agrupado por remisión, del más reciente al más antiguo.
// Sin branchID incluye todas las sucursales.
func (uc *MovementUseCase) StockLog(ctx context.Context, branchID string, page dto.PageRequest) (*dto.StockLogResponse, error) {
	var (
		movements []*entity.StockMovement
		err       error
	)
	if branchID == "" {
		movements, err = uc.movRepo.ListAll(ctx)
	} else {
		if err := uc.ensureBranch(ctx, branchID); err != nil {
			return nil, err
		}
		movements, err = uc.movRepo.ListByBranch(ctx, branchID)
	}
	if err != nil {
		return nil, err
	}
	// La página corta por remisión, nunca en medio de una transacción.
	groups := inventory.GroupByRemission(derefMovements(movements))
	start, end := page.Window(len(groups))
	out := make([]dto.RemissionGroupDTO, 0, end-start)
	for _, g := range groups[start:end] {
		rows := make([]dto.MovementResponse, 0, len(g.Movements))
		for i := range g.Movements {
			rows = append(rows, toMovementResponse(&g.Movements[i]))
		}
		out = append(out, dto.RemissionGroupDTO{RemissionNumber: g.RemissionNumber, Type: g.Type, Date: g.Date, Movements: rows})
	}
	return &dto.StockLogResponse{Items: out, Page: page.Response(len(groups))}, nil
}

func (uc *MovementUseCase) insert(ctx context.Context, movements []*entity.StockMovement) error {
	err := uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, _ repository.InventoryCountRepository) error {
		return movRepo.CreateBatch(ctx, movements)
	})
	if err != nil {
		return err
	}
	uc.afterWrite(ctx, movements[0].RemissionNumber)
	return nil
}

// pairingWarning avisa cuando la remisión conserva otras filas que pueden quedar descuadradas.
func (uc *MovementUseCase) pairingWarning(ctx context.Context, remission, movementID string) (string, error) {
	if remission == "" {
		return "", nil
	}
	rows, err := uc.movRepo.ListByRemission(ctx, remission)
	if err != nil {
		return "", err
	}
	others := 0
	for _, r := range rows {
		if r.ID != movementID {
			others++
		}
	}
	if others == 0 {
		return "", nil
	}
	return fmt.Sprintf("la remisión %s tiene %d fila(s) relacionada(s); verifique que los movimientos pareados sigan consistentes", remission, others), nil
}

// afterWrite invalida la caché y recalcula totales derivados; los fallos solo se registran.
func (uc *MovementUseCase) afterWrite(ctx context.Context, remission string) {
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx); err != nil {
			uc.log.Error().Err(err).Msg("invalidar caché de posiciones")
		}
	}
	if uc.invoices != nil && remission != "" {
		if err := uc.invoices.RecalculateRemission(ctx, remission); err != nil {
			uc.log.Error().Err(err).Str("remission", remission).Msg("recalcular total de factura")
		}
	}
}

func (uc *MovementUseCase) ensureProduct(ctx context.Context, id string) error {
	p, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return nil
}

func (uc *MovementUseCase) ensureBranch(ctx context.Context, id string) error {
	b, err := uc.branchRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, id)
	}
	return nil
}

func dateOr(d *time.Time, def time.Time) time.Time {
	if d == nil || d.IsZero() {
		return def
	}
	return *d
}

func remissionOr(r string) string {
	if r != "" {
		return r
	}
	return "REM-" + uuid.New().String()
}
