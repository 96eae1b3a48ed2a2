package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, branch_id, type, quantity, price_at_transaction, date,
	remission_number, index_in_transaction, comment, created_at, created_by`

const insertMovement = `
	INSERT INTO stock_movements (id, product_id, branch_id, type, quantity, price_at_transaction, date,
		remission_number, index_in_transaction, comment, created_at, created_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func movementArgs(m *entity.StockMovement) []any {
	return []any{
		m.ID, m.ProductID, m.BranchID, m.Type, m.Quantity, m.PriceAtTransaction, m.Date,
		nullIfEmpty(m.RemissionNumber), m.IndexInTransaction, nullIfEmpty(m.Comment), m.CreatedAt, nullIfEmpty(m.CreatedBy),
	}
}

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if _, err := r.q.Exec(ctx, insertMovement, movementArgs(m)...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// CreateBatch inserta las filas en un solo viaje (pgx.Batch). Atómico solo si q es una tx.
func (r *StockMovementRepo) CreateBatch(ctx context.Context, ms []*entity.StockMovement) error {
	if len(ms) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range ms {
		batch.Queue(insertMovement, movementArgs(m)...)
	}
	if err := r.sendBatch(ctx, batch, len(ms)); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create stock movements: %w", err)
	}
	return nil
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (r *StockMovementRepo) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	sender, ok := r.q.(batchSender)
	if !ok {
		for _, qq := range batch.QueuedQueries {
			if _, err := r.q.Exec(ctx, qq.SQL, qq.Arguments...); err != nil {
				return err
			}
		}
		return nil
	}
	results := sender.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	list, err := scanMovements(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// Update reescribe cantidad, precio y comentario.
func (r *StockMovementRepo) Update(ctx context.Context, m *entity.StockMovement) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_movements SET quantity = $2, price_at_transaction = $3, comment = $4
		WHERE id = $1`,
		m.ID, m.Quantity, m.PriceAtTransaction, nullIfEmpty(m.Comment),
	)
	if err != nil {
		return fmt.Errorf("update stock movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra un movimiento.
func (r *StockMovementRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stock movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByRemission borra todas las filas de la remisión.
func (r *StockMovementRepo) DeleteByRemission(ctx context.Context, remission string) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE remission_number = $1`, remission)
	if err != nil {
		return 0, fmt.Errorf("delete remission: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *StockMovementRepo) ListByRemission(ctx context.Context, remission string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE remission_number = $1 ORDER BY index_in_transaction`, remission)
}

func (r *StockMovementRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE branch_id = $1`, branchID)
}

func (r *StockMovementRepo) ListByProductAndBranch(ctx context.Context, productID, branchID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE product_id = $1 AND branch_id = $2`, productID, branchID)
}

func (r *StockMovementRepo) ListAll(ctx context.Context) ([]*entity.StockMovement, error) {
	return r.list(ctx, ``)
}

func (r *StockMovementRepo) list(ctx context.Context, where string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var (
			m                             entity.StockMovement
			remission, comment, createdBy *string
		)
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.BranchID, &m.Type, &m.Quantity, &m.PriceAtTransaction, &m.Date,
			&remission, &m.IndexInTransaction, &comment, &m.CreatedAt, &createdBy,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.RemissionNumber = derefString(remission)
		m.Comment = derefString(comment)
		m.CreatedBy = derefString(createdBy)
		list = append(list, &m)
	}
	return list, rows.Err()
}
