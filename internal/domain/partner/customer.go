package partner

import (
	"strings"

	"github.com/erp/pos-bridge/internal/domain/shared"
)

// Customer represents a local customer account mirrored to the POS backend.
// POSCustomerID is assigned lazily by the POS on the first successful
// outbound create; its presence means the customer is registered remotely.
type Customer struct {
	shared.BaseEntity
	POSCustomerID *int64 `gorm:"index"`
	PublicName    string `gorm:"type:varchar(200);not null"`
	Email         string `gorm:"type:varchar(200);not null"`
	Phone         string `gorm:"type:varchar(50)"`
	Street        string `gorm:"type:varchar(500)"`
	City          string `gorm:"type:varchar(100)"`
	PostCode      string `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer
func NewCustomer(publicName, email string) (*Customer, error) {
	if strings.TrimSpace(publicName) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if strings.TrimSpace(email) == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Customer email cannot be empty")
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		PublicName: publicName,
		Email:      email,
	}, nil
}

// IsRegistered returns true once the POS has assigned a customer ID
func (c *Customer) IsRegistered() bool {
	return c.POSCustomerID != nil
}

// AssignPOSCustomerID records the POS-assigned identifier
func (c *Customer) AssignPOSCustomerID(id int64) {
	c.POSCustomerID = &id
}

// HasDeliveryAddress returns true if enough address fields are present to
// register a delivery address with the POS
func (c *Customer) HasDeliveryAddress() bool {
	return c.City != ""
}
