package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lavandry/laundry-pos/internal/domain/pricing"
	"github.com/lavandry/laundry-pos/internal/domain/service"
)

// Status tracks an order through the laundry workflow.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusWashing  Status = "washing"
	StatusIroning  Status = "ironing"
	StatusReady    Status = "ready"
	StatusPickedUp Status = "picked_up"
)

// nextStatus holds the single allowed forward transition for each status.
var nextStatus = map[Status]Status{
	StatusQueued:  StatusWashing,
	StatusWashing: StatusIroning,
	StatusIroning: StatusReady,
	StatusReady:   StatusPickedUp,
}

// CanTransition reports whether an order may move from one status to
// another. Only single forward steps are allowed.
func CanTransition(from, to Status) bool {
	return nextStatus[from] == to
}

// PaymentStatus tracks settlement of an order.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// paymentRank orders payment statuses along the settlement path. Paid and
// failed are terminal.
var paymentRank = map[PaymentStatus]int{
	PaymentUnpaid:  0,
	PaymentPending: 1,
	PaymentPaid:    2,
	PaymentFailed:  2,
}

// CanTransitionPayment reports whether a payment status change moves the
// order forward. Gateways retry and reorder notifications, so a late
// "pending" or "deny" must never downgrade an already-paid order.
func CanTransitionPayment(from, to PaymentStatus) bool {
	return paymentRank[to] > paymentRank[from]
}

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// ErrInvalidTransition is returned for a disallowed status change.
var ErrInvalidTransition = errors.New("invalid status transition")

// Line is a cart line snapshotted onto an order. It stays valid even if the
// service catalog changes later.
type Line struct {
	ServiceID   string          `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Unit        service.Unit    `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Order is a customer order with its pricing outcome and workflow state.
type Order struct {
	ID            string
	CustomerID    string
	Lines         []Line
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	VoucherCode   string
	Applied       []pricing.Applied
	Status        Status
	PaymentStatus PaymentStatus
	Note          string
	CreatedAt     time.Time
}

// DailySummary aggregates a day's intake for reporting.
type DailySummary struct {
	Date       time.Time
	OrderCount int
	Gross      decimal.Decimal
	Discount   decimal.Decimal
	Net        decimal.Decimal
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error
	DailySummary(ctx context.Context, date time.Time) (*DailySummary, error)
}
