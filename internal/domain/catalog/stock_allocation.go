package catalog

import (
	"github.com/erp/pos-bridge/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Allocation errors
var (
	ErrNoVariants           = shared.NewDomainError("NO_VARIANTS", "Product has no variants to allocate stock to")
	ErrInvalidVariantWeight = shared.NewDomainError("INVALID_VARIANT_WEIGHT", "Variant weight must be strictly positive")
	ErrNegativeStockTotal   = shared.NewDomainError("NEGATIVE_STOCK_TOTAL", "Stock total cannot be negative")
)

// AllocateStock distributes an aggregate stock total (in weight units) reported
// by the POS across the product's variants. Units are handed out one at a time
// in strict rotation over the variants in position order, until the cumulative
// allocated weight reaches the total. The result may overshoot the total but
// never undershoots it, and it uses whole units only.
//
// Allocation is a full reset: previous amounts are discarded, so re-running
// with the same total always converges to the same result.
func (p *Product) AllocateStock(total int64) error {
	if len(p.Variants) == 0 {
		return ErrNoVariants
	}
	for i := range p.Variants {
		if p.Variants[i].Weight.LessThanOrEqual(decimal.Zero) {
			return ErrInvalidVariantWeight
		}
	}
	if total < 0 {
		return ErrNegativeStockTotal
	}

	for i := range p.Variants {
		p.Variants[i].Amount = 0
	}

	target := decimal.NewFromInt(total)
	running := decimal.Zero
	cursor := 0
	for running.LessThan(target) {
		v := &p.Variants[cursor]
		v.Amount++
		running = running.Add(v.Weight)
		cursor++
		if cursor >= len(p.Variants) {
			cursor = 0
		}
	}

	return nil
}

// AllocatedWeight returns the total weight currently covered by the allocation
func (p *Product) AllocatedWeight() decimal.Decimal {
	sum := decimal.Zero
	for i := range p.Variants {
		sum = sum.Add(p.Variants[i].Weight.Mul(decimal.NewFromInt(p.Variants[i].Amount)))
	}
	return sum
}
