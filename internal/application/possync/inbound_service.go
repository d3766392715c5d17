package possync

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/domain/catalog"
	"github.com/erp/pos-bridge/internal/domain/integration"
	"github.com/erp/pos-bridge/internal/domain/shared"
	"github.com/erp/pos-bridge/internal/infrastructure/config"
	"github.com/erp/pos-bridge/internal/infrastructure/synclog"
)

// InboundService applies catalog and stock change events pushed by the POS
type InboundService struct {
	products   catalog.ProductRepository
	reconciler *StockReconciler
	locationID int64
	unitScale  int64
	audit      *synclog.Logger
	logger     *zap.Logger
}

// NewInboundService creates a new inbound event service
func NewInboundService(
	products catalog.ProductRepository,
	reconciler *StockReconciler,
	cfg *config.POSConfig,
	audit *synclog.Logger,
	logger *zap.Logger,
) *InboundService {
	return &InboundService{
		products:   products,
		reconciler: reconciler,
		locationID: cfg.LocationID,
		unitScale:  cfg.UnitScale,
		audit:      audit,
		logger:     logger,
	}
}

// ApplyProductChange updates the local catalog record referenced by the
// event. The POS may reference products this system has not provisioned;
// those events are a no-op.
func (s *InboundService) ApplyProductChange(ctx context.Context, change *integration.ProductChange) error {
	code := strconv.FormatInt(change.ProductID, 10)

	product, err := s.products.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Debug("Catalog change for unprovisioned product ignored",
				zap.Int64("pos_product_id", change.ProductID),
			)
			return nil
		}
		return fmt.Errorf("failed to load product %s: %w", code, err)
	}

	// The POS reports the sale price per smallest unit; the local catalog
	// stores a per-kilo price.
	pricePerKilo := change.SalePrice.Mul(decimal.NewFromInt(s.unitScale))
	product.UpdateCatalogInfo(change.Description, pricePerKilo)

	if err := s.products.Save(ctx, product); err != nil {
		return fmt.Errorf("failed to persist product %s: %w", code, err)
	}

	s.audit.Logf(integration.DirectionIncoming, "Simple update of product: %s with price per kilo: %s",
		change.Description, pricePerKilo.String())
	return nil
}

// ApplyStockChange reconciles variant allocations from a stock change event.
// Events for locations other than the configured target are discarded with
// no mutations. The event's POS product ID may map to zero, one or many
// local products; every match is reconciled.
func (s *InboundService) ApplyStockChange(ctx context.Context, change *integration.StockChange) error {
	if change.LocationID != s.locationID {
		s.logger.Debug("Stock change for unmanaged location ignored",
			zap.Int64("location_id", change.LocationID),
			zap.Int64("pos_product_id", change.ProductID),
		)
		return nil
	}

	total := change.TotalStock()

	products, err := s.products.FindByPOSMasterID(ctx, change.ProductID)
	if err != nil {
		return fmt.Errorf("failed to load products for POS master %d: %w", change.ProductID, err)
	}

	for i := range products {
		product := &products[i]
		product.SetMinimalQuantity(change.MinStock)
		if err := s.products.Save(ctx, product); err != nil {
			return fmt.Errorf("failed to persist product %s: %w", product.Code, err)
		}
		if err := s.reconciler.Reconcile(ctx, product, total); err != nil {
			return err
		}
	}
	return nil
}
