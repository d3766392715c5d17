package catalog

import (
	"strings"

	"github.com/erp/pos-bridge/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a locally managed product mapped to a POS master record.
// It is the aggregate root for stock reconciliation: the POS reports one
// aggregate stock figure per master record, and the product distributes it
// across its variants.
type Product struct {
	shared.BaseEntity
	Code            string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	POSMasterID     *int64          `gorm:"index"` // nil until first sync with the POS
	Name            string          `gorm:"type:varchar(200);not null"`
	PricePerKilo    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinimalQuantity int64           `gorm:"not null;default:0"`

	// Variants are ordered by Position. The order is a business constant:
	// it defines the rotation order of stock allocation.
	Variants []Variant `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// Variant is a packaging-weight-specific SKU belonging to one product.
// Weight is immutable after creation; Amount is the reconciliation target.
type Variant struct {
	shared.BaseEntity
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position  int             `gorm:"not null;default:0"`
	Weight    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // kg per unit
	Amount    int64           `gorm:"not null;default:0"`          // allocated unit count
}

// TableName returns the table name for GORM
func (Variant) TableName() string {
	return "variants"
}

// NewProduct creates a new product with the given POS product code
func NewProduct(code, name string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	return &Product{
		BaseEntity:   shared.NewBaseEntity(),
		Code:         code,
		Name:         name,
		PricePerKilo: decimal.Zero,
		Variants:     make([]Variant, 0),
	}, nil
}

// AddVariant appends a variant with the given weight at the next position
func (p *Product) AddVariant(weight decimal.Decimal) error {
	if weight.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidVariantWeight
	}
	p.Variants = append(p.Variants, Variant{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  p.ID,
		Position:   len(p.Variants),
		Weight:     weight,
	})
	return nil
}

// UpdateCatalogInfo overwrites the POS-owned catalog fields
func (p *Product) UpdateCatalogInfo(name string, pricePerKilo decimal.Decimal) {
	p.Name = name
	p.PricePerKilo = pricePerKilo
}

// SetMinimalQuantity sets the minimum-stock threshold reported by the POS
func (p *Product) SetMinimalQuantity(q int64) {
	p.MinimalQuantity = q
}

// IsRegistered returns true once the product has been linked to a POS master record
func (p *Product) IsRegistered() bool {
	return p.POSMasterID != nil
}

// AssignPOSMasterID links the product to its POS master record
func (p *Product) AssignPOSMasterID(id int64) {
	p.POSMasterID = &id
}
