// Package possync orchestrates stock reconciliation and record synchronization
// between the local store and the POS backend.
package possync

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/erp/pos-bridge/internal/domain/catalog"
	"github.com/erp/pos-bridge/internal/domain/integration"
	"github.com/erp/pos-bridge/internal/infrastructure/synclog"
)

// StockReconciler recomputes variant allocations for a product from an
// aggregate stock total. Reconciliation for one product never interleaves
// with another reconciliation of the same product: webhook deliveries and the
// periodic full sync share one reconciler and its per-product locks.
type StockReconciler struct {
	products catalog.ProductRepository
	audit    *synclog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewStockReconciler creates a reconciler over the given product store
func NewStockReconciler(products catalog.ProductRepository, audit *synclog.Logger) *StockReconciler {
	return &StockReconciler{
		products: products,
		audit:    audit,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// Reconcile reallocates the product's variant amounts to cover total and
// persists the result, logging the final per-variant breakdown.
func (r *StockReconciler) Reconcile(ctx context.Context, product *catalog.Product, total int64) error {
	lock := r.lockFor(product.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := product.AllocateStock(total); err != nil {
		return fmt.Errorf("allocation for product %s failed: %w", product.Code, err)
	}
	if err := r.products.SaveVariants(ctx, product.Variants); err != nil {
		return fmt.Errorf("failed to persist variants for product %s: %w", product.Code, err)
	}

	r.audit.Logf(integration.DirectionIncoming, "Update of product stock in product: %s with variants:", product.Name)
	for _, v := range product.Variants {
		r.audit.Logf(integration.DirectionIncoming, "   → %s x %d", v.Weight.String(), v.Amount)
	}
	return nil
}

func (r *StockReconciler) lockFor(id uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}
