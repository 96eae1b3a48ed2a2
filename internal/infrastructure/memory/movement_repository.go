package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// StockMovementRepository libro de movimientos en memoria.
type StockMovementRepository struct {
	s *Store
}

func (r *StockMovementRepository) Create(ctx context.Context, m *entity.StockMovement) error {
	return r.CreateBatch(ctx, []*entity.StockMovement{m})
}

func (r *StockMovementRepository) CreateBatch(_ context.Context, ms []*entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range ms {
		if _, dup := r.s.movements[m.ID]; dup {
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, m.ID)
		}
	}
	for _, m := range ms {
		r.s.movements[m.ID] = *m
	}
	return nil
}

func (r *StockMovementRepository) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.movements[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *StockMovementRepository) Update(_ context.Context, m *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.movements[m.ID]; !ok {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, m.ID)
	}
	r.s.movements[m.ID] = *m
	return nil
}

func (r *StockMovementRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.movements[id]; !ok {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
	}
	delete(r.s.movements, id)
	return nil
}

func (r *StockMovementRepository) DeleteByRemission(_ context.Context, remission string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, m := range r.s.movements {
		if m.RemissionNumber == remission {
			delete(r.s.movements, id)
			n++
		}
	}
	return n, nil
}

func (r *StockMovementRepository) ListByRemission(_ context.Context, remission string) ([]*entity.StockMovement, error) {
	return r.filter(func(m entity.StockMovement) bool { return m.RemissionNumber == remission }), nil
}

func (r *StockMovementRepository) ListByBranch(_ context.Context, branchID string) ([]*entity.StockMovement, error) {
	return r.filter(func(m entity.StockMovement) bool { return m.BranchID == branchID }), nil
}

func (r *StockMovementRepository) ListByProductAndBranch(_ context.Context, productID, branchID string) ([]*entity.StockMovement, error) {
	return r.filter(func(m entity.StockMovement) bool { return m.ProductID == productID && m.BranchID == branchID }), nil
}

func (r *StockMovementRepository) ListAll(_ context.Context) ([]*entity.StockMovement, error) {
	return r.filter(func(entity.StockMovement) bool { return true }), nil
}

func (r *StockMovementRepository) filter(keep func(entity.StockMovement) bool) []*entity.StockMovement {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if keep(m) {
			out = append(out, &m)
		}
	}
	return out
}
