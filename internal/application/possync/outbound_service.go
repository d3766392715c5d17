package possync

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/pos-bridge/internal/domain/integration"
	"github.com/erp/pos-bridge/internal/domain/partner"
	"github.com/erp/pos-bridge/internal/domain/shared"
	"github.com/erp/pos-bridge/internal/domain/trade"
	"github.com/erp/pos-bridge/internal/infrastructure/config"
	"github.com/erp/pos-bridge/internal/infrastructure/synclog"
)

const (
	// posTimeLayout is the timestamp format the POS expects in payloads
	posTimeLayout = "2006-01-02 15:04:05"

	// eatOutDelivery marks a transaction as a delivery order
	eatOutDelivery = 2

	// baseItemServiceCharge is the POS item type for service charges; the
	// delivery cost is attached to a transaction as one of these
	baseItemServiceCharge = 51

	paymentStatusComplete = "Complete"
	paymentStatusHold     = "Hold"
)

// OutboundService pushes local customer and order records to the POS.
// Every operation is a single attempt: a transport or parse failure aborts
// without persisting anything, so re-running the operation is always safe.
// A rejection the POS answered with a parsable body is logged by the gateway
// and swallowed; the periodic full sync is the system's only retry.
type OutboundService struct {
	gateway   integration.POSGateway
	customers partner.CustomerRepository
	orders    trade.OrderRepository
	cfg       *config.POSConfig
	audit     *synclog.Logger
	logger    *zap.Logger
}

// NewOutboundService creates a new outbound sync service
func NewOutboundService(
	gateway integration.POSGateway,
	customers partner.CustomerRepository,
	orders trade.OrderRepository,
	cfg *config.POSConfig,
	audit *synclog.Logger,
	logger *zap.Logger,
) *OutboundService {
	return &OutboundService{
		gateway:   gateway,
		customers: customers,
		orders:    orders,
		cfg:       cfg,
		audit:     audit,
		logger:    logger,
	}
}

// CreateCustomer registers the customer with the POS and persists the
// POS-assigned identifier. Already-registered customers are verified with a
// live existence check and skipped.
func (s *OutboundService) CreateCustomer(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}
	return s.ensureCustomer(ctx, customer)
}

func (s *OutboundService) ensureCustomer(ctx context.Context, customer *partner.Customer) error {
	if customer.IsRegistered() {
		registered, err := s.isRegisteredRemotely(ctx, customer)
		if err != nil {
			return err
		}
		if registered {
			return nil
		}
		// The local identifier is stale; fall through and re-create.
	}

	result, err := s.gateway.Send(ctx, http.MethodPost, integration.EndpointCustomer, map[string]any{
		"Forename":      customer.PublicName,
		"MaxCredit":     0,
		"SignUpDate":    customer.CreatedAt.Format(posTimeLayout),
		"EmailAddress":  customer.Email,
		"ContactNumber": customer.Phone,
	})
	if err != nil {
		return err
	}

	posID, ok := result.Int64("CustomerID")
	if !result.OK() || !ok {
		return nil
	}

	customer.AssignPOSCustomerID(posID)
	if err := s.customers.Save(ctx, customer); err != nil {
		return fmt.Errorf("failed to persist customer %s: %w", customer.ID, err)
	}

	if customer.HasDeliveryAddress() {
		return s.createAddress(ctx, customer)
	}
	return nil
}

// UpdateCustomer pushes the current local customer fields to the POS record
func (s *OutboundService) UpdateCustomer(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}
	if !customer.IsRegistered() {
		return shared.NewDomainError("NOT_REGISTERED", "Customer has no POS identifier")
	}

	_, err = s.gateway.Send(ctx, http.MethodPut, customerEndpoint(customer), map[string]any{
		"Forename":      customer.PublicName,
		"EmailAddress":  customer.Email,
		"ContactNumber": strings.ReplaceAll(customer.Phone, "+", ""),
	})
	return err
}

// RemoveCustomer deletes the customer's POS record
func (s *OutboundService) RemoveCustomer(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}
	if !customer.IsRegistered() {
		return nil
	}

	_, err = s.gateway.Send(ctx, http.MethodDelete, customerEndpoint(customer), nil)
	return err
}

// IsCustomerRegistered checks against the live POS whether the customer's
// record still exists there
func (s *OutboundService) IsCustomerRegistered(ctx context.Context, customerID uuid.UUID) (bool, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return false, fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}
	if !customer.IsRegistered() {
		return false, nil
	}
	return s.isRegisteredRemotely(ctx, customer)
}

func (s *OutboundService) isRegisteredRemotely(ctx context.Context, customer *partner.Customer) (bool, error) {
	result, err := s.gateway.Send(ctx, http.MethodGet, customerEndpoint(customer), nil)
	if err != nil {
		return false, err
	}
	return result.OK() && result.Has("CustomerID"), nil
}

// HasCustomerAddress checks whether the POS record carries a main address
func (s *OutboundService) HasCustomerAddress(ctx context.Context, customerID uuid.UUID) (bool, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return false, fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}
	if !customer.IsRegistered() {
		return false, nil
	}

	result, err := s.gateway.Send(ctx, http.MethodGet, customerEndpoint(customer), nil)
	if err != nil {
		return false, err
	}
	addressID, ok := result.Int64("MainAddressID")
	return result.OK() && ok && addressID != 0, nil
}

// CreateCustomerAddress registers the customer's delivery address with the
// POS and links it as the main address of the customer record
func (s *OutboundService) CreateCustomerAddress(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}
	if !customer.IsRegistered() {
		return shared.NewDomainError("NOT_REGISTERED", "Customer has no POS identifier")
	}
	return s.createAddress(ctx, customer)
}

func (s *OutboundService) createAddress(ctx context.Context, customer *partner.Customer) error {
	result, err := s.gateway.Send(ctx, http.MethodPost, integration.EndpointCustomerAddress, map[string]any{
		"CustomerID":   *customer.POSCustomerID,
		"Name":         "Main address",
		"AddressLine1": customer.Street,
		"AddressLine2": customer.PostCode + " - " + customer.City,
		"Town":         customer.City,
		"PostCode":     customer.PostCode,
	})
	if err != nil {
		return err
	}

	addressID, ok := result.Int64("CustomerAddressID")
	if !result.OK() || !ok {
		return nil
	}

	_, err = s.gateway.Send(ctx, http.MethodPut, customerEndpoint(customer), map[string]any{
		"MainAddressID": addressID,
	})
	return err
}

// CreateOrder pushes the order to the POS as a complete transaction and
// persists the POS-assigned transaction identifier. The order's customer is
// registered first if needed. An order whose payment method has no tender
// mapping is a configuration defect: the operation fails before any network
// call for the transaction is made.
func (s *OutboundService) CreateOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", orderID, err)
	}

	customer, err := s.customers.FindByID(ctx, order.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to load customer %s: %w", order.CustomerID, err)
	}
	if err := s.ensureCustomer(ctx, customer); err != nil {
		return err
	}
	if !customer.IsRegistered() {
		// The create attempt was rejected; nothing to attach the order to.
		return nil
	}

	tenderType, ok := s.cfg.TenderFor(string(order.PaymentMethod))
	if !ok {
		s.audit.Logf(integration.DirectionOutgoing,
			"Cannot create tender with type: %s. Missing tender mapping", order.PaymentMethod)
		s.logger.Error("Order has unmapped payment method",
			zap.String("order_id", order.ID.String()),
			zap.String("payment_method", string(order.PaymentMethod)),
		)
		return integration.ErrUnmappedPaymentMethod
	}

	transactionItems := make([]map[string]any, 0, len(order.Lines))
	for _, line := range order.Lines {
		// Line price covers the whole line weight; the POS wants a unit price.
		unitPrice := order.DiscountedPrice(line.Price.Div(line.Weight))
		transactionItems = append(transactionItems, map[string]any{
			"ProductID": line.ProductCode,
			"Quantity":  line.Weight.Mul(decimal.NewFromInt(line.Amount)).InexactFloat64(),
			"Price":     unitPrice.InexactFloat64(),
		})
	}

	deliveryCost := order.DiscountedPrice(order.DeliveryCost)

	result, err := s.gateway.Send(ctx, http.MethodPost, integration.EndpointCompleteTransaction, map[string]any{
		"DateTime":         order.CreatedAt.Format(posTimeLayout),
		"CustomerID":       *customer.POSCustomerID,
		"EatOut":           eatOutDelivery,
		"TransactionItems": transactionItems,
		"Tenders": []map[string]any{
			{"TypeID": tenderType, "Amount": order.TotalCost.InexactFloat64()},
		},
		"BaseItems": []map[string]any{
			{"ItemTypeID": baseItemServiceCharge, "Amount": deliveryCost.InexactFloat64(), "Notes": order.DeliveryName},
		},
	})
	if err != nil {
		return err
	}

	transactionID, ok := result.Int64("TransactionID")
	if !result.OK() || !ok {
		return nil
	}

	order.AssignPOSTransactionID(transactionID)
	if err := s.orders.Save(ctx, order); err != nil {
		return fmt.Errorf("failed to persist order %s: %w", order.ID, err)
	}
	return nil
}

// ConfirmOrder marks the POS transaction as paid
func (s *OutboundService) ConfirmOrder(ctx context.Context, orderID uuid.UUID) error {
	return s.setPaymentStatus(ctx, orderID, paymentStatusComplete)
}

// CancelOrder puts the POS transaction on hold
func (s *OutboundService) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	return s.setPaymentStatus(ctx, orderID, paymentStatusHold)
}

func (s *OutboundService) setPaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if !order.IsRegistered() {
		return shared.NewDomainError("NOT_REGISTERED", "Order has no POS transaction identifier")
	}

	_, err = s.gateway.Send(ctx, http.MethodPut,
		fmt.Sprintf("%s%d", integration.EndpointTransaction, *order.POSTransactionID),
		map[string]any{"PaymentStatus": status},
	)
	return err
}

func customerEndpoint(customer *partner.Customer) string {
	return fmt.Sprintf("%s%d", integration.EndpointCustomer, *customer.POSCustomerID)
}
