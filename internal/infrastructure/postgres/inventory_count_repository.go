package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

var _ repository.InventoryCountRepository = (*InventoryCountRepo)(nil)

// InventoryCountRepo conteos físicos y sus líneas sobre PostgreSQL (usable con pool o tx).
type InventoryCountRepo struct {
	q Querier
}

// NewInventoryCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryCountRepository(q Querier) *InventoryCountRepo {
	return &InventoryCountRepo{q: q}
}

const countColumns = `id, date, branch_id, responsible, status, notes, adjustments_applied, created_at, updated_at`

const itemColumns = `id, count_id, product_id, product_name, initial_quantity, inflow_quantity,
	outflow_quantity, theoretical_quantity, physical_quantity, difference`

// Create inserta la cabecera y sus líneas. Debe ejecutarse dentro de una tx para ser atómico.
func (r *InventoryCountRepo) Create(ctx context.Context, c *entity.InventoryCount, items []*entity.InventoryCountItem) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_counts (`+countColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Date, c.BranchID, nullIfEmpty(c.Responsible), c.Status, nullIfEmpty(c.Notes),
		c.AdjustmentsApplied, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert inventory count: %w", err)
	}
	for _, it := range items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO inventory_count_items (`+itemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, it.CountID, it.ProductID, it.ProductName, it.InitialQuantity, it.InflowQuantity,
			it.OutflowQuantity, it.TheoreticalQuantity, it.PhysicalQuantity, it.Difference,
		)
		if err != nil {
			return fmt.Errorf("insert inventory count item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la cabecera de un conteo.
func (r *InventoryCountRepo) GetByID(ctx context.Context, id string) (*entity.InventoryCount, error) {
	return r.get(ctx, `SELECT `+countColumns+` FROM inventory_counts WHERE id = $1`, id)
}

// GetForUpdate obtiene la cabecera con SELECT ... FOR UPDATE; el candado dura hasta el fin de la tx.
func (r *InventoryCountRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryCount, error) {
	return r.get(ctx, `SELECT `+countColumns+` FROM inventory_counts WHERE id = $1 FOR UPDATE`, id)
}

func (r *InventoryCountRepo) get(ctx context.Context, query, id string) (*entity.InventoryCount, error) {
	c, err := scanCount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory count: %w", err)
	}
	return c, nil
}

// ListByBranch devuelve los conteos de la sucursal ("" = todas), del más reciente al más antiguo.
func (r *InventoryCountRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.InventoryCount, error) {
	return r.list(ctx, `WHERE ($1 = '' OR branch_id = $1) ORDER BY date DESC, created_at DESC`, branchID)
}

// ListApplied devuelve los conteos de la sucursal con ajustes aplicados.
func (r *InventoryCountRepo) ListApplied(ctx context.Context, branchID string) ([]*entity.InventoryCount, error) {
	return r.list(ctx, `WHERE branch_id = $1 AND adjustments_applied ORDER BY date DESC, created_at DESC`, branchID)
}

func (r *InventoryCountRepo) list(ctx context.Context, where string, args ...any) ([]*entity.InventoryCount, error) {
	rows, err := r.q.Query(ctx, `SELECT `+countColumns+` FROM inventory_counts `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory counts: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryCount
	for rows.Next() {
		c, err := scanCount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory count: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCount(row pgx.Row) (*entity.InventoryCount, error) {
	var (
		c                  entity.InventoryCount
		responsible, notes *string
	)
	if err := row.Scan(&c.ID, &c.Date, &c.BranchID, &responsible, &c.Status, &notes,
		&c.AdjustmentsApplied, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Responsible = derefString(responsible)
	c.Notes = derefString(notes)
	return &c, nil
}

// Items devuelve las líneas del conteo ordenadas por nombre de producto.
func (r *InventoryCountRepo) Items(ctx context.Context, countID string) ([]*entity.InventoryCountItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM inventory_count_items WHERE count_id = $1 ORDER BY product_name, product_id`, countID)
	if err != nil {
		return nil, fmt.Errorf("list inventory count items: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryCountItem
	for rows.Next() {
		var it entity.InventoryCountItem
		if err := rows.Scan(&it.ID, &it.CountID, &it.ProductID, &it.ProductName, &it.InitialQuantity, &it.InflowQuantity,
			&it.OutflowQuantity, &it.TheoreticalQuantity, &it.PhysicalQuantity, &it.Difference); err != nil {
			return nil, fmt.Errorf("scan inventory count item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// UpdateItems reescribe la parte teórica y física de cada línea.
func (r *InventoryCountRepo) UpdateItems(ctx context.Context, items []*entity.InventoryCountItem) error {
	for _, it := range items {
		cmd, err := r.q.Exec(ctx, `
			UPDATE inventory_count_items SET initial_quantity = $2, inflow_quantity = $3, outflow_quantity = $4,
				theoretical_quantity = $5, physical_quantity = $6, difference = $7
			WHERE id = $1`,
			it.ID, it.InitialQuantity, it.InflowQuantity, it.OutflowQuantity,
			it.TheoreticalQuantity, it.PhysicalQuantity, it.Difference,
		)
		if err != nil {
			return fmt.Errorf("update inventory count item: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

// Update reescribe estado, notas y bandera de ajustes.
func (r *InventoryCountRepo) Update(ctx context.Context, c *entity.InventoryCount) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_counts SET responsible = $2, status = $3, notes = $4, adjustments_applied = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, nullIfEmpty(c.Responsible), c.Status, nullIfEmpty(c.Notes), c.AdjustmentsApplied, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory count: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra el conteo; sus líneas caen por ON DELETE CASCADE.
func (r *InventoryCountRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM inventory_counts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inventory count: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
