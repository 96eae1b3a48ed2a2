// Package memory implementa los repositorios sobre mapas en memoria.
// Sirve para desarrollo local (storage=memory) y para las pruebas de los casos de uso.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/repository"
)

// Store guarda el estado completo. Las lecturas devuelven copias: nada cambia hasta Update.
type Store struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	products  map[string]entity.Product
	branches  map[string]entity.Branch
	movements map[string]entity.StockMovement
	counts    map[string]entity.InventoryCount
	items     map[string][]entity.InventoryCountItem
}

func NewStore() *Store {
	return &Store{
		products:  make(map[string]entity.Product),
		branches:  make(map[string]entity.Branch),
		movements: make(map[string]entity.StockMovement),
		counts:    make(map[string]entity.InventoryCount),
		items:     make(map[string][]entity.InventoryCountItem),
	}
}

// PutProduct agrega o reemplaza un producto del catálogo.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// PutBranch agrega o reemplaza una sucursal.
func (s *Store) PutBranch(b entity.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[b.ID] = b
}

func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

func (s *Store) Branches() *BranchRepository { return &BranchRepository{s: s} }

func (s *Store) Movements() *StockMovementRepository { return &StockMovementRepository{s: s} }

func (s *Store) Counts() *InventoryCountRepository { return &InventoryCountRepository{s: s} }

// TxRunner serializa las transacciones y, si fn falla, restaura el estado previo.
type TxRunner struct {
	s *Store
}

func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

func (r *TxRunner) Run(ctx context.Context, fn func(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	countRepo repository.InventoryCountRepository,
) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	snap := r.s.snapshot()
	if err := fn(ctx, r.s.Movements(), r.s.Counts()); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	movements map[string]entity.StockMovement
	counts    map[string]entity.InventoryCount
	items     map[string][]entity.InventoryCountItem
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make(map[string][]entity.InventoryCountItem, len(s.items))
	for k, v := range s.items {
		items[k] = append([]entity.InventoryCountItem(nil), v...)
	}
	return snapshot{
		movements: maps.Clone(s.movements),
		counts:    maps.Clone(s.counts),
		items:     items,
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = snap.movements
	s.counts = snap.counts
	s.items = snap.items
}
