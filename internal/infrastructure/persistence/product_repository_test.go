package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/erp/pos-bridge/internal/domain/catalog"
	"github.com/erp/pos-bridge/internal/domain/shared"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalog.Product{}, &catalog.Variant{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, code string, posMasterID int64, weights ...float64) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(code, "Product "+code)
	require.NoError(t, err)
	product.AssignPOSMasterID(posMasterID)
	for _, w := range weights {
		require.NoError(t, product.AddVariant(decimal.NewFromFloat(w)))
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestGormProductRepository_FindByCode(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	seedProduct(t, db, "P-100", 42, 1, 2, 5)

	t.Run("loads product with variants in position order", func(t *testing.T) {
		product, err := repo.FindByCode(context.Background(), "P-100")
		require.NoError(t, err)

		require.Len(t, product.Variants, 3)
		for i, want := range []float64{1, 2, 5} {
			assert.Equal(t, i, product.Variants[i].Position)
			assert.True(t, product.Variants[i].Weight.Equal(decimal.NewFromFloat(want)))
		}
	})

	t.Run("unknown code yields not found", func(t *testing.T) {
		_, err := repo.FindByCode(context.Background(), "MISSING")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_FindByPOSMasterID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)

	// Two local products map to one POS master record
	seedProduct(t, db, "P-1", 77, 1)
	seedProduct(t, db, "P-2", 77, 2, 3)
	seedProduct(t, db, "P-3", 88, 1)

	products, err := repo.FindByPOSMasterID(context.Background(), 77)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	none, err := repo.FindByPOSMasterID(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormProductRepository_SaveVariants(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	product := seedProduct(t, db, "P-5", 5, 1, 2, 5)

	require.NoError(t, product.AllocateStock(6))
	require.NoError(t, repo.SaveVariants(context.Background(), product.Variants))

	reloaded, err := repo.FindByCode(context.Background(), "P-5")
	require.NoError(t, err)
	for i := range reloaded.Variants {
		assert.Equal(t, int64(1), reloaded.Variants[i].Amount)
	}

	assert.NoError(t, repo.SaveVariants(context.Background(), nil))
}

func TestGormProductRepository_SaveDoesNotTouchVariants(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	product := seedProduct(t, db, "P-6", 6, 1)

	product.MinimalQuantity = 9
	product.Variants[0].Amount = 123 // must not be persisted by Save
	require.NoError(t, repo.Save(context.Background(), product))

	reloaded, err := repo.FindByCode(context.Background(), "P-6")
	require.NoError(t, err)
	assert.Equal(t, int64(9), reloaded.MinimalQuantity)
	assert.Equal(t, int64(0), reloaded.Variants[0].Amount)
}
