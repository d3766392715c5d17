package possync

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/domain/catalog"
	"github.com/erp/pos-bridge/internal/domain/integration"
	"github.com/erp/pos-bridge/internal/domain/shared"
	"github.com/erp/pos-bridge/internal/infrastructure/config"
	"github.com/erp/pos-bridge/internal/infrastructure/synclog"
)

type inboundFixture struct {
	products *MockProductRepository
	auditBuf *bytes.Buffer
	service  *InboundService
}

func newInboundFixture() *inboundFixture {
	f := &inboundFixture{
		products: new(MockProductRepository),
		auditBuf: &bytes.Buffer{},
	}
	audit := synclog.New(f.auditBuf)
	cfg := &config.POSConfig{LocationID: 14340, UnitScale: 1000}
	reconciler := NewStockReconciler(f.products, audit)
	f.service = NewInboundService(f.products, reconciler, cfg, audit, zap.NewNop())
	return f
}

func newStockedProduct(t *testing.T, code string, posMasterID int64, weights ...int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(code, "Product "+code)
	require.NoError(t, err)
	p.AssignPOSMasterID(posMasterID)
	for _, w := range weights {
		require.NoError(t, p.AddVariant(decimal.NewFromInt(w)))
	}
	return p
}

func TestInboundService_ApplyProductChange(t *testing.T) {
	t.Run("updates name and scales sale price to per kilo", func(t *testing.T) {
		f := newInboundFixture()
		product := newStockedProduct(t, "4821", 4821, 1)

		f.products.On("FindByCode", mock.Anything, "4821").Return(product, nil)
		f.products.On("Save", mock.Anything, product).Return(nil)

		err := f.service.ApplyProductChange(context.Background(), &integration.ProductChange{
			ProductID:   4821,
			Description: "Beef sirloin",
			SalePrice:   decimal.RequireFromString("0.035"),
		})

		require.NoError(t, err)
		assert.Equal(t, "Beef sirloin", product.Name)
		assert.True(t, product.PricePerKilo.Equal(decimal.NewFromInt(35)),
			"got %s", product.PricePerKilo)
		assert.Contains(t, f.auditBuf.String(), "#incoming Simple update of product: Beef sirloin with price per kilo: 35")
	})

	t.Run("unknown product is a silent no-op", func(t *testing.T) {
		f := newInboundFixture()

		f.products.On("FindByCode", mock.Anything, "999").Return(nil, shared.ErrNotFound)

		err := f.service.ApplyProductChange(context.Background(), &integration.ProductChange{
			ProductID:   999,
			Description: "Ghost product",
			SalePrice:   decimal.NewFromInt(1),
		})

		require.NoError(t, err)
		f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.auditBuf.String())
	})
}

func TestInboundService_ApplyStockChange(t *testing.T) {
	t.Run("reconciles every product sharing the POS master id", func(t *testing.T) {
		f := newInboundFixture()
		a := newStockedProduct(t, "101", 77, 1, 2, 5)
		b := newStockedProduct(t, "102", 77, 2)

		f.products.On("FindByPOSMasterID", mock.Anything, int64(77)).
			Return([]catalog.Product{*a, *b}, nil)
		f.products.On("Save", mock.Anything, mock.Anything).Return(nil).Twice()
		f.products.On("SaveVariants", mock.Anything, mock.Anything).Return(nil).Twice()

		err := f.service.ApplyStockChange(context.Background(), &integration.StockChange{
			ProductID:  77,
			LocationID: 14340,
			MinStock:   4,
			ProductStocks: []integration.SubLocationStock{
				{CurrentStock: 2}, {CurrentStock: 4},
			},
		})

		require.NoError(t, err)
		f.products.AssertExpectations(t)

		// total 6 over weights [1,2,5] allocates one unit each
		log := f.auditBuf.String()
		assert.Contains(t, log, "Update of product stock in product: Product 101 with variants:")
		assert.Contains(t, log, "→ 1 x 1")
		assert.Contains(t, log, "→ 2 x 1")
		assert.Contains(t, log, "→ 5 x 1")
		assert.Contains(t, log, "Update of product stock in product: Product 102 with variants:")
		assert.Contains(t, log, "→ 2 x 3")
	})

	t.Run("sets the minimum stock threshold before reconciling", func(t *testing.T) {
		f := newInboundFixture()
		product := newStockedProduct(t, "101", 77, 1)

		var saved *catalog.Product
		f.products.On("FindByPOSMasterID", mock.Anything, int64(77)).
			Return([]catalog.Product{*product}, nil)
		f.products.On("Save", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*catalog.Product)
			}).Return(nil)
		f.products.On("SaveVariants", mock.Anything, mock.Anything).Return(nil)

		err := f.service.ApplyStockChange(context.Background(), &integration.StockChange{
			ProductID:     77,
			LocationID:    14340,
			MinStock:      9,
			ProductStocks: []integration.SubLocationStock{{CurrentStock: 3}},
		})

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, int64(9), saved.MinimalQuantity)
	})

	t.Run("foreign location produces zero mutations and zero audit entries", func(t *testing.T) {
		f := newInboundFixture()

		err := f.service.ApplyStockChange(context.Background(), &integration.StockChange{
			ProductID:     77,
			LocationID:    99999,
			MinStock:      4,
			ProductStocks: []integration.SubLocationStock{{CurrentStock: 10}},
		})

		require.NoError(t, err)
		f.products.AssertNotCalled(t, "FindByPOSMasterID", mock.Anything, mock.Anything)
		f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.auditBuf.String())
	})

	t.Run("no local products mapped is a no-op", func(t *testing.T) {
		f := newInboundFixture()

		f.products.On("FindByPOSMasterID", mock.Anything, int64(77)).
			Return([]catalog.Product{}, nil)

		err := f.service.ApplyStockChange(context.Background(), &integration.StockChange{
			ProductID:     77,
			LocationID:    14340,
			ProductStocks: []integration.SubLocationStock{{CurrentStock: 10}},
		})

		require.NoError(t, err)
		f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("allocation failure surfaces", func(t *testing.T) {
		f := newInboundFixture()
		product, err := catalog.NewProduct("101", "No variants")
		require.NoError(t, err)
		product.AssignPOSMasterID(77)

		f.products.On("FindByPOSMasterID", mock.Anything, int64(77)).
			Return([]catalog.Product{*product}, nil)
		f.products.On("Save", mock.Anything, mock.Anything).Return(nil)

		err = f.service.ApplyStockChange(context.Background(), &integration.StockChange{
			ProductID:     77,
			LocationID:    14340,
			ProductStocks: []integration.SubLocationStock{{CurrentStock: 10}},
		})

		assert.ErrorIs(t, err, catalog.ErrNoVariants)
	})
}
