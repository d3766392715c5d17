package catalog

import (
	"context"
)

// ProductRepository defines the persistence interface for products
type ProductRepository interface {
	// FindByCode finds a product by its POS product code
	FindByCode(ctx context.Context, code string) (*Product, error)

	// FindByPOSMasterID finds all products linked to a POS master record.
	// Several local products may share one POS master ID; callers must
	// handle zero, one or many results.
	FindByPOSMasterID(ctx context.Context, posMasterID int64) ([]Product, error)

	// Save persists the product entity (without variants)
	Save(ctx context.Context, product *Product) error

	// SaveVariants persists variant amounts after an allocation
	SaveVariants(ctx context.Context, variants []Variant) error
}
