package trade

import (
	"github.com/erp/pos-bridge/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how an order was paid locally. The POS only
// accepts tender types it knows about; the mapping lives in configuration.
type PaymentMethod string

const (
	PaymentMethodClassic PaymentMethod = "classic"
	PaymentMethodPayPal  PaymentMethod = "paypal"
)

// Order represents a local order pushed to the POS as a complete transaction.
// POSTransactionID is assigned by the POS on the first successful create.
type Order struct {
	shared.BaseEntity
	POSTransactionID *int64          `gorm:"index"`
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentMethod    PaymentMethod   `gorm:"type:varchar(30);not null"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DeliveryName     string          `gorm:"type:varchar(200)"`
	DeliveryCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	// Order-level discount, applied first
	DiscountName    string          `gorm:"type:varchar(200)"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`

	// Discount code, applied second
	DiscountCodeName    string          `gorm:"type:varchar(200)"`
	DiscountCodePercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`

	Lines []OrderLine `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderLine is one purchased deal: Amount units of a variant weighing Weight
// kg each, at Price for the whole line weight.
type OrderLine struct {
	shared.BaseEntity
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(50);not null"`
	Weight      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      int64           `gorm:"not null;default:1"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// IsRegistered returns true once the POS has assigned a transaction ID
func (o *Order) IsRegistered() bool {
	return o.POSTransactionID != nil
}

// AssignPOSTransactionID records the POS-assigned identifier
func (o *Order) AssignPOSTransactionID(id int64) {
	o.POSTransactionID = &id
}

// HasOrderDiscount returns true if a named order-level discount applies
func (o *Order) HasOrderDiscount() bool {
	return o.DiscountName != "" && o.DiscountPercent.IsPositive()
}

// HasDiscountCode returns true if a named discount code applies
func (o *Order) HasDiscountCode() bool {
	return o.DiscountCodeName != "" && o.DiscountCodePercent.IsPositive()
}

// DiscountedPrice applies the order's discounts to a price in their fixed
// order: the order-level discount first, then the discount code, each as a
// multiplicative reduction.
func (o *Order) DiscountedPrice(price decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	if o.HasOrderDiscount() {
		price = price.Mul(hundred.Sub(o.DiscountPercent)).Div(hundred)
	}
	if o.HasDiscountCode() {
		price = price.Mul(hundred.Sub(o.DiscountCodePercent)).Div(hundred)
	}
	return price
}
