package possync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/domain/catalog"
	"github.com/erp/pos-bridge/internal/domain/integration"
	"github.com/erp/pos-bridge/internal/infrastructure/config"
)

// FullSyncService walks the POS's paginated stock listing end to end and
// reconciles every item for the managed location. It exists to correct the
// drift left behind by missed or failed webhook deliveries; it is the only
// retry mechanism in the system.
type FullSyncService struct {
	gateway    integration.POSGateway
	products   catalog.ProductRepository
	reconciler *StockReconciler
	locationID int64
	maxPages   int
	logger     *zap.Logger
}

// NewFullSyncService creates a new full sync service
func NewFullSyncService(
	gateway integration.POSGateway,
	products catalog.ProductRepository,
	reconciler *StockReconciler,
	cfg *config.POSConfig,
	logger *zap.Logger,
) *FullSyncService {
	return &FullSyncService{
		gateway:    gateway,
		products:   products,
		reconciler: reconciler,
		locationID: cfg.LocationID,
		maxPages:   cfg.MaxSyncPages,
		logger:     logger,
	}
}

// RunFullSync fetches stock listing pages starting from the unnumbered first
// page until the POS returns an empty page, the page cap is reached, or the
// context is cancelled. Items for other locations are skipped; each remaining
// item is reconciled exactly like a stock change event, except the listing
// carries a flat per-location stock figure and no minimum-stock threshold.
func (s *FullSyncService) RunFullSync(ctx context.Context) error {
	var items, applied int

	for page := 0; ; page++ {
		if page >= s.maxPages {
			s.logger.Warn("Full sync aborted at page cap",
				zap.Int("max_pages", s.maxPages),
			)
			return fmt.Errorf("stock listing did not terminate within %d pages", s.maxPages)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		listings, err := s.gateway.ListStock(ctx, page)
		if err != nil {
			return fmt.Errorf("failed to fetch stock listing page %d: %w", page, err)
		}
		if len(listings) == 0 {
			break
		}

		for i := range listings {
			items++
			if n, err := s.applyListing(ctx, &listings[i]); err != nil {
				return err
			} else {
				applied += n
			}
		}
	}

	s.logger.Info("Full stock synchronization completed",
		zap.Int("listing_items", items),
		zap.Int("products_reconciled", applied),
	)
	return nil
}

// applyListing reconciles all local products mapped to one listing item,
// returning how many products were touched.
func (s *FullSyncService) applyListing(ctx context.Context, listing *integration.StockListing) (int, error) {
	if listing.LocationID != s.locationID {
		return 0, nil
	}

	products, err := s.products.FindByPOSMasterID(ctx, listing.ProductID)
	if err != nil {
		return 0, fmt.Errorf("failed to load products for POS master %d: %w", listing.ProductID, err)
	}

	for i := range products {
		if err := s.reconciler.Reconcile(ctx, &products[i], listing.CurrentStock); err != nil {
			return i, err
		}
	}
	return len(products), nil
}
