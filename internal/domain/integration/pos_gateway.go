package integration

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// POS Gateway Errors
// ---------------------------------------------------------------------------

var (
	// ErrPOSUnavailable indicates a transport-level failure: the request never
	// produced a usable HTTP response.
	ErrPOSUnavailable = errors.New("integration: POS backend unavailable")
	// ErrPOSInvalidResponse indicates the POS returned a body that is not
	// valid JSON.
	ErrPOSInvalidResponse = errors.New("integration: invalid POS response")
	// ErrPOSRequestRejected indicates the POS answered with a non-2xx status
	// on a request that has no per-call result body to carry it.
	ErrPOSRequestRejected = errors.New("integration: POS request rejected")
	// ErrUnmappedPaymentMethod indicates no tender type is configured for the
	// order's payment method. A configuration defect, never retried.
	ErrUnmappedPaymentMethod = errors.New("integration: payment method has no tender mapping")
)

// ---------------------------------------------------------------------------
// Gateway Result
// ---------------------------------------------------------------------------

// Result is the discriminated outcome of one POS request. The POS replies
// with a parsable JSON body on both success and rejection, so the status
// code is carried alongside the body and callers branch on OK explicitly.
type Result struct {
	StatusCode int
	Body       map[string]any
}

// OK returns true if the POS accepted the request
func (r *Result) OK() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated
}

// Int64 extracts an integer field from the response body. POS identifiers
// arrive as JSON numbers, which decode as float64.
func (r *Result) Int64(key string) (int64, bool) {
	if r == nil || r.Body == nil {
		return 0, false
	}
	switch v := r.Body[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// Has returns true if the response body carries a non-nil field
func (r *Result) Has(key string) bool {
	if r == nil || r.Body == nil {
		return false
	}
	v, ok := r.Body[key]
	return ok && v != nil
}

// ---------------------------------------------------------------------------
// POSGateway
// ---------------------------------------------------------------------------

// Resource endpoints, relative to the configured POS base URL
const (
	EndpointTransaction         = "Transaction/"
	EndpointCompleteTransaction = "CompleteTransaction/"
	EndpointCustomer            = "Customer/"
	EndpointCustomerAddress     = "CustomerAddress/"
	EndpointProductStock        = "ProductStock/"
)

// Direction tags audit log entries with the flow a request belongs to
type Direction string

const (
	DirectionOutgoing Direction = "#outgoing"
	DirectionIncoming Direction = "#incoming"
)

// POSGateway sends one authenticated request to the POS backend. Each call is
// a single synchronous attempt: no retries happen at this layer, resilience
// comes from periodic full synchronization.
type POSGateway interface {
	// Send issues the request and returns the parsed result. body may be nil;
	// an empty JSON object is sent in that case. A nil error with a non-OK
	// Result means the POS rejected the request but replied with a parsable
	// body. ErrPOSUnavailable and ErrPOSInvalidResponse mean no usable result
	// exists and the operation must abort without persisting anything.
	Send(ctx context.Context, method, endpoint string, body map[string]any) (*Result, error)

	// ListStock fetches one page of the paginated stock listing. Page 0 is
	// the unnumbered first page. An empty slice means the listing is
	// exhausted.
	ListStock(ctx context.Context, page int) ([]StockListing, error)
}

// ---------------------------------------------------------------------------
// Inbound payloads
// ---------------------------------------------------------------------------

// ProductChange is the catalog-change webhook payload
type ProductChange struct {
	ProductID   int64           `json:"ProductID" binding:"required"`
	Description string          `json:"Description"`
	SalePrice   decimal.Decimal `json:"SalePrice"`
}

// SubLocationStock is one per-sub-location stock figure inside a stock change
type SubLocationStock struct {
	CurrentStock int64 `json:"CurrentStock"`
}

// StockChange is the stock-change webhook payload
type StockChange struct {
	ProductID     int64              `json:"ProductID" binding:"required"`
	LocationID    int64              `json:"LocationID" binding:"required"`
	MinStock      int64              `json:"MinStock"`
	ProductStocks []SubLocationStock `json:"ProductStocks"`
}

// TotalStock sums the per-sub-location figures into one aggregate total
func (s *StockChange) TotalStock() int64 {
	var total int64
	for _, ps := range s.ProductStocks {
		total += ps.CurrentStock
	}
	return total
}

// StockListing is one item of the paginated full stock listing. Unlike the
// webhook payload it carries a flat per-location stock figure.
type StockListing struct {
	ProductID    int64 `json:"ProductID"`
	LocationID   int64 `json:"LocationID"`
	CurrentStock int64 `json:"CurrentStock"`
}
