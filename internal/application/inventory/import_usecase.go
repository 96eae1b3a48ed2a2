package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// ImportUseCase carga entradas masivas (saldos iniciales, compras) desde filas ya interpretadas.
// Las filas válidas se insertan en una sola remisión y una sola transacción; las inválidas se reportan.
type ImportUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	cache       PositionCache
	log         *logger.Logger
	now         func() time.Time
}

func NewImportUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	cache PositionCache,
	log *logger.Logger,
) *ImportUseCase {
	return &ImportUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		cache:       cache,
		log:         log,
		now:         time.Now,
	}
}

// ImportInflows resuelve producto y sucursal por nombre (sin distinguir mayúsculas)
// y registra cada fila válida como inflow.
func (uc *ImportUseCase) ImportInflows(ctx context.Context, userID string, rows []dto.ImportRow) (*dto.ImportResult, error) {
	products, err := uc.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	branches, err := uc.branchRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	productIDs := indexByName(len(products), func(i int) (string, string) { return products[i].Name, products[i].ID })
	branchIDs := indexByName(len(branches), func(i int) (string, string) { return branches[i].Name, branches[i].ID })

	result := &dto.ImportResult{}
	remission := "IMP-" + uuid.New().String()
	now := uc.now()
	var batch []*entity.StockMovement

	for _, row := range rows {
		productID, branchID, reason := resolveRow(productIDs, branchIDs, row)
		if reason != "" {
			result.Rejected = append(result.Rejected, dto.ImportRejection{Line: row.Line, Reason: reason})
			continue
		}
		batch = append(batch, &entity.StockMovement{
			ID:                 uuid.New().String(),
			ProductID:          productID,
			BranchID:           branchID,
			Type:               entity.MovementTypeInflow,
			Quantity:           row.Quantity,
			PriceAtTransaction: row.UnitCost,
			Date:               row.Date,
			RemissionNumber:    remission,
			IndexInTransaction: len(batch),
			Comment:            row.Comment,
			CreatedAt:          now,
			CreatedBy:          userID,
		})
	}

	if len(batch) == 0 {
		return result, nil
	}
	err = uc.txRunner.Run(ctx, func(ctx context.Context, movRepo repository.StockMovementRepository, _ repository.InventoryCountRepository) error {
		return movRepo.CreateBatch(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	result.RemissionNumber = remission
	result.Imported = len(batch)
	uc.log.Info().Str("remission", remission).Int("imported", result.Imported).Int("rejected", len(result.Rejected)).
		Msg("carga masiva de entradas")
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx); err != nil {
			uc.log.Error().Err(err).Msg("invalidar caché de posiciones")
		}
	}
	return result, nil
}

// ambiguousName marca un nombre que corresponde a más de un registro.
const ambiguousName = "\x00"

func indexByName(n int, at func(int) (name, id string)) map[string]string {
	out := make(map[string]string, n)
	for i := 0; i < n; i++ {
		name, id := at(i)
		key := inventory.FoldKey(name)
		if _, dup := out[key]; dup {
			out[key] = ambiguousName
			continue
		}
		out[key] = id
	}
	return out
}

func resolveName(index map[string]string, name, kind string) (string, string) {
	id, ok := index[inventory.FoldKey(name)]
	switch {
	case name == "":
		return "", fmt.Sprintf("%s vacío", kind)
	case !ok:
		return "", fmt.Sprintf("%s %q no existe", kind, name)
	case id == ambiguousName:
		return "", fmt.Sprintf("%s %q es ambiguo", kind, name)
	}
	return id, ""
}

// resolveRow devuelve los ids de la fila o el motivo del rechazo.
func resolveRow(products, branches map[string]string, row dto.ImportRow) (productID, branchID, reason string) {
	if productID, reason = resolveName(products, row.ProductName, "producto"); reason != "" {
		return "", "", reason
	}
	if branchID, reason = resolveName(branches, row.BranchName, "sucursal"); reason != "" {
		return "", "", reason
	}
	if reason = validateImportRow(row); reason != "" {
		return "", "", reason
	}
	return productID, branchID, ""
}

func validateImportRow(row dto.ImportRow) string {
	switch {
	case !row.Quantity.IsPositive():
		return "la cantidad debe ser mayor que cero"
	case row.UnitCost.IsNegative():
		return "el costo no puede ser negativo"
	case row.Date.IsZero():
		return "fecha inválida"
	}
	return ""
}
