package promo

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promotion discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies value/100 of the promotion's base.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary amount.
	DiscountFixed DiscountType = "fixed"
)

// ErrNotFound is returned when a requested promotion does not exist.
var ErrNotFound = errors.New("promotion not found")

// Promotion is a discount rule from the catalog.
//
// A promotion with a non-empty Code is voucher-type: it only applies when the
// customer supplies the matching code. A promotion without a code is
// automatic-type and is evaluated against every cart.
type Promotion struct {
	ID   string
	Name string

	// Code gates the promotion behind an explicit voucher code.
	// Codes are stored upper-cased; matching is case-insensitive.
	Code string

	// ServiceID restricts the discount base to cart lines for that service.
	// Empty means the base is the full cart subtotal.
	ServiceID string

	DiscountType DiscountType
	Value        decimal.Decimal

	// MinWeightKg requires the cart's total weight (sum of kg-unit line
	// quantities) to reach the threshold. Nil means no weight requirement.
	MinWeightKg *decimal.Decimal

	// MinAmount requires the cart's total subtotal to reach the threshold.
	// Nil means no amount requirement.
	MinAmount *decimal.Decimal

	StartDate *time.Time
	EndDate   *time.Time
	Active    bool
}

// IsVoucher reports whether the promotion requires an explicit code.
func (p Promotion) IsVoucher() bool {
	return p.Code != ""
}

// CodeMatches reports whether the supplied voucher code matches the
// promotion's code, ignoring case.
func (p Promotion) CodeMatches(code string) bool {
	return p.Code != "" && strings.EqualFold(p.Code, code)
}

// Validate checks catalog invariants. It is called at catalog-admin
// boundaries; the pricing engine itself tolerates malformed entries by
// giving them a zero contribution.
func Validate(p Promotion) error {
	if p.Name == "" {
		return errors.New("promotion name required")
	}
	switch p.DiscountType {
	case DiscountPercentage, DiscountFixed:
	default:
		return errors.Errorf("unsupported discount type %q", p.DiscountType)
	}
	if p.Value.IsNegative() {
		return errors.New("discount value must not be negative")
	}
	if p.DiscountType == DiscountPercentage && p.Value.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("percentage discount must not exceed 100")
	}
	if p.MinWeightKg != nil && p.MinWeightKg.IsNegative() {
		return errors.New("minimum weight must not be negative")
	}
	if p.MinAmount != nil && p.MinAmount.IsNegative() {
		return errors.New("minimum amount must not be negative")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return errors.New("end date before start date")
	}
	return nil
}

// NormalizeCode upper-cases and trims a voucher code for storage or lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository defines persistence operations for the promotion catalog.
type Repository interface {
	// ListCurrent returns every active promotion, vouchers included.
	// Time-window and threshold eligibility is the engine's job, not a
	// storage concern.
	ListCurrent(ctx context.Context) ([]Promotion, error)
	Create(ctx context.Context, p *Promotion) error
	SetActive(ctx context.Context, id string, active bool) error
}
