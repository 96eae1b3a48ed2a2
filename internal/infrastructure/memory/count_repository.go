package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/agro-inventario/internal/domain"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
)

// InventoryCountRepository conteos físicos en memoria.
type InventoryCountRepository struct {
	s *Store
}

func (r *InventoryCountRepository) Create(_ context.Context, c *entity.InventoryCount, items []*entity.InventoryCountItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.counts[c.ID]; dup {
		return fmt.Errorf("%w: conteo %s", domain.ErrDuplicate, c.ID)
	}
	r.s.counts[c.ID] = *c
	stored := make([]entity.InventoryCountItem, 0, len(items))
	for _, it := range items {
		stored = append(stored, *it)
	}
	r.s.items[c.ID] = stored
	return nil
}

func (r *InventoryCountRepository) GetByID(_ context.Context, id string) (*entity.InventoryCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.counts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// GetForUpdate equivale a GetByID: TxRunner ya serializa las transacciones.
func (r *InventoryCountRepository) GetForUpdate(ctx context.Context, id string) (*entity.InventoryCount, error) {
	return r.GetByID(ctx, id)
}

func (r *InventoryCountRepository) ListByBranch(_ context.Context, branchID string) ([]*entity.InventoryCount, error) {
	return r.filter(func(c entity.InventoryCount) bool { return branchID == "" || c.BranchID == branchID }), nil
}

func (r *InventoryCountRepository) ListApplied(_ context.Context, branchID string) ([]*entity.InventoryCount, error) {
	return r.filter(func(c entity.InventoryCount) bool { return c.BranchID == branchID && c.AdjustmentsApplied }), nil
}

func (r *InventoryCountRepository) Items(_ context.Context, countID string) ([]*entity.InventoryCountItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stored := r.s.items[countID]
	out := make([]*entity.InventoryCountItem, 0, len(stored))
	for _, it := range stored {
		out = append(out, &it)
	}
	return out, nil
}

func (r *InventoryCountRepository) UpdateItems(_ context.Context, items []*entity.InventoryCountItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range items {
		stored := r.s.items[it.CountID]
		found := false
		for i := range stored {
			if stored[i].ID == it.ID {
				stored[i] = *it
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: línea %s", domain.ErrNotFound, it.ID)
		}
	}
	return nil
}

func (r *InventoryCountRepository) Update(_ context.Context, c *entity.InventoryCount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.counts[c.ID]; !ok {
		return fmt.Errorf("%w: conteo %s", domain.ErrNotFound, c.ID)
	}
	r.s.counts[c.ID] = *c
	return nil
}

func (r *InventoryCountRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.counts[id]; !ok {
		return fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
	}
	delete(r.s.counts, id)
	delete(r.s.items, id)
	return nil
}

func (r *InventoryCountRepository) filter(keep func(entity.InventoryCount) bool) []*entity.InventoryCount {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.InventoryCount
	for _, c := range r.s.counts {
		if keep(c) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
