// Package pricing computes the discount owed on a cart from a promotion
// catalog snapshot. Evaluate is pure: it performs no I/O, holds no state,
// and is the single source of truth for both the live quote path and the
// authoritative order-placement path.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lavandry/laundry-pos/internal/domain/promo"
	"github.com/lavandry/laundry-pos/internal/domain/service"
)

// CartLine is one entry a customer is purchasing. Unit and UnitPrice are
// snapshotted from the service catalog at entry time and never re-fetched.
type CartLine struct {
	ServiceID   string
	ServiceName string
	Unit        service.Unit
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Subtotal returns quantity times unit price for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Applied records one promotion that contributed to the discount.
type Applied struct {
	PromotionID string
	Name        string
	Code        string
	Amount      decimal.Decimal
}

// Result is the outcome of a pricing evaluation.
type Result struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Applied  []Applied
}

// AppliedCode reports whether a promotion with the given voucher code
// contributed to the discount. Callers use it to surface "code not
// applicable" feedback without treating an ineligible voucher as an error.
func (r *Result) AppliedCode(code string) bool {
	norm := promo.NormalizeCode(code)
	if norm == "" {
		return false
	}
	for _, a := range r.Applied {
		if promo.NormalizeCode(a.Code) == norm {
			return true
		}
	}
	return false
}

// InvalidLineError indicates a cart line with a non-positive quantity or a
// negative unit price. This is an upstream data bug, not a normal
// ineligibility case, so evaluation fails loudly.
type InvalidLineError struct {
	ServiceID string
	Reason    string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("invalid cart line for service %s: %s", e.ServiceID, e.Reason)
}

var hundred = decimal.NewFromInt(100)

// Evaluate determines which promotions apply to the cart at asOf and
// computes the aggregate discount.
//
// Candidates are the voucher promotion matching voucherCode (if supplied;
// a code that matches nothing or an ineligible promotion silently
// contributes zero) plus every codeless promotion in catalog order.
// Automatic promotions always stack with the voucher. Each promotion's
// discount is computed against its base (service-scoped line subtotals, or
// the full subtotal) and rounded half-up to a whole currency unit; only the
// aggregate is clamped so the discount never exceeds the subtotal.
func Evaluate(lines []CartLine, catalog []promo.Promotion, voucherCode string, asOf time.Time) (*Result, error) {
	for _, l := range lines {
		if !l.Quantity.IsPositive() {
			return nil, &InvalidLineError{ServiceID: l.ServiceID, Reason: "quantity must be greater than 0"}
		}
		if l.UnitPrice.IsNegative() {
			return nil, &InvalidLineError{ServiceID: l.ServiceID, Reason: "unit price must not be negative"}
		}
	}

	res := &Result{
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}
	if len(lines) == 0 {
		return res, nil
	}

	subtotal := decimal.Zero
	totalWeight := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
		if l.Unit == service.UnitKg {
			totalWeight = totalWeight.Add(l.Quantity)
		}
	}

	candidates := collectCandidates(catalog, voucherCode)

	raw := decimal.Zero
	for _, p := range candidates {
		if !eligible(p, lines, subtotal, totalWeight, asOf) {
			continue
		}
		amount := discountAmount(p, lines, subtotal)
		if !amount.IsPositive() {
			continue
		}
		raw = raw.Add(amount)
		res.Applied = append(res.Applied, Applied{
			PromotionID: p.ID,
			Name:        p.Name,
			Code:        p.Code,
			Amount:      amount,
		})
	}

	discount := decimal.Min(raw, subtotal)

	res.Subtotal = subtotal
	res.Discount = discount
	res.Total = subtotal.Sub(discount)
	return res, nil
}

// collectCandidates picks the matching voucher (at most one) followed by
// every automatic promotion, preserving catalog order.
func collectCandidates(catalog []promo.Promotion, voucherCode string) []promo.Promotion {
	candidates := make([]promo.Promotion, 0, len(catalog))

	if code := promo.NormalizeCode(voucherCode); code != "" {
		for _, p := range catalog {
			if p.CodeMatches(code) {
				candidates = append(candidates, p)
				break
			}
		}
	}

	for _, p := range catalog {
		if !p.IsVoucher() {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

// eligible applies the activity, validity-window, threshold, and
// service-scope tests. Min-weight and min-amount are both required when
// both are present.
func eligible(p promo.Promotion, lines []CartLine, subtotal, totalWeight decimal.Decimal, asOf time.Time) bool {
	if !p.Active {
		return false
	}
	if p.StartDate != nil && asOf.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && asOf.After(*p.EndDate) {
		return false
	}
	if p.MinAmount != nil && subtotal.LessThan(*p.MinAmount) {
		return false
	}
	if p.MinWeightKg != nil && totalWeight.LessThan(*p.MinWeightKg) {
		return false
	}
	if p.ServiceID != "" && !cartContains(p.ServiceID, lines) {
		return false
	}
	return true
}

// discountAmount computes a single promotion's contribution. Malformed
// entries (negative value, unknown type) yield zero so pricing stays
// available on stale catalog data. The amount is rounded half-up to a whole
// currency unit and is not clamped against its own base.
func discountAmount(p promo.Promotion, lines []CartLine, subtotal decimal.Decimal) decimal.Decimal {
	if p.Value.IsNegative() {
		return decimal.Zero
	}

	base := subtotal
	if p.ServiceID != "" {
		base = scopedBase(p.ServiceID, lines)
	}

	switch p.DiscountType {
	case promo.DiscountPercentage:
		return base.Mul(p.Value).Div(hundred).Round(0)
	case promo.DiscountFixed:
		return p.Value.Round(0)
	default:
		return decimal.Zero
	}
}

// scopedBase sums the subtotals of lines matching the given service.
func scopedBase(serviceID string, lines []CartLine) decimal.Decimal {
	base := decimal.Zero
	for _, l := range lines {
		if l.ServiceID == serviceID {
			base = base.Add(l.Subtotal())
		}
	}
	return base
}

func cartContains(serviceID string, lines []CartLine) bool {
	for _, l := range lines {
		if l.ServiceID == serviceID {
			return true
		}
	}
	return false
}
