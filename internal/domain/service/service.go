package service

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Unit is the unit of measure a laundry service is billed in.
type Unit string

const (
	// UnitKg is the weight-based unit. Quantities may be fractional and
	// contribute to the cart's total weight for promotion thresholds.
	UnitKg Unit = "kg"
	// UnitPcs is a per-piece unit (e.g. shoes, bags).
	UnitPcs Unit = "pcs"
	// UnitSet is a per-set unit (e.g. bed covers).
	UnitSet Unit = "set"
	// UnitMeter is a per-meter unit (e.g. carpets).
	UnitMeter Unit = "meter"
)

// Valid reports whether u is one of the supported units of measure.
func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitPcs, UnitSet, UnitMeter:
		return true
	}
	return false
}

// ErrNotFound is returned when a requested service does not exist.
var ErrNotFound = errors.New("service not found")

// Service is a sellable unit of laundry work.
type Service struct {
	ID     string
	Name   string
	Unit   Unit
	Price  decimal.Decimal
	Active bool
}

// Validate checks the catalog invariants for a service entry.
func (s Service) Validate() error {
	if s.Name == "" {
		return errors.New("service name required")
	}
	if !s.Unit.Valid() {
		return errors.Errorf("unsupported unit %q", s.Unit)
	}
	if s.Price.IsNegative() {
		return errors.New("service price must not be negative")
	}
	return nil
}

// Repository defines persistence operations for the service catalog.
type Repository interface {
	List(ctx context.Context) ([]Service, error)
	GetByIDs(ctx context.Context, ids []string) ([]Service, error)
	Create(ctx context.Context, s *Service) error
	Update(ctx context.Context, s *Service) error
}
