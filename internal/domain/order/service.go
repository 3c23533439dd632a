package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lavandry/laundry-pos/internal/domain/pricing"
	"github.com/lavandry/laundry-pos/internal/domain/promo"
	"github.com/lavandry/laundry-pos/internal/domain/service"
)

// Sentinel errors for order intake validation.
var ErrEmptyItems = errors.New("items required")

// ServiceNotFoundError indicates a requested laundry service does not exist.
type ServiceNotFoundError struct {
	ServiceID string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("service %s not found", e.ServiceID)
}

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ServiceID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for service %s", e.ServiceID)
}

// Item is one requested entry in a quote or order request.
type Item struct {
	ServiceID string
	Quantity  decimal.Decimal
}

// Request holds the input shared by Quote and PlaceOrder.
type Request struct {
	CustomerID  string
	Items       []Item
	VoucherCode string
	Note        string
}

// Quote is the pricing preview for a cart, including whether the supplied
// voucher code actually contributed to the discount.
type Quote struct {
	Lines          []Line
	Pricing        *pricing.Result
	VoucherApplied bool
}

// PlaceResult holds the outcome of a successfully placed order.
type PlaceResult struct {
	Order          *Order
	VoucherApplied bool
}

// Service encapsulates the order workflow. Both the live quote path and the
// authoritative placement path price carts through the same
// pricing.Evaluate call, so preview and checkout can never drift.
type Service struct {
	services service.Repository
	promos   promo.Repository
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(services service.Repository, promos promo.Repository, orders Repository) *Service {
	return &Service{
		services: services,
		promos:   promos,
		orders:   orders,
		now:      time.Now,
	}
}

// Quote prices a cart without persisting anything.
func (s *Service) Quote(ctx context.Context, req Request) (*Quote, error) {
	lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, lines, req.VoucherCode)
}

// PlaceOrder prices the cart authoritatively and persists the order with
// its line and applied-promotion snapshots.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*PlaceResult, error) {
	lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	quote, err := s.price(ctx, lines, req.VoucherCode)
	if err != nil {
		return nil, err
	}

	voucherCode := ""
	if quote.VoucherApplied {
		voucherCode = promo.NormalizeCode(req.VoucherCode)
	}

	o := &Order{
		ID:            uuid.New().String(),
		CustomerID:    req.CustomerID,
		Lines:         quote.Lines,
		Subtotal:      quote.Pricing.Subtotal,
		Discount:      quote.Pricing.Discount,
		Total:         quote.Pricing.Total,
		VoucherCode:   voucherCode,
		Applied:       quote.Pricing.Applied,
		Status:        StatusQueued,
		PaymentStatus: PaymentUnpaid,
		Note:          req.Note,
		CreatedAt:     s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return &PlaceResult{
		Order:          o,
		VoucherApplied: quote.VoucherApplied,
	}, nil
}

// UpdateStatus advances an order through the laundry workflow, rejecting
// anything but the single allowed forward step.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, to) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, to)
	}

	if err := s.orders.UpdateStatus(ctx, id, to); err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	o.Status = to
	return o, nil
}

// ApplyPayment maps a gateway transaction status onto the order's payment
// status. Unknown gateway statuses and out-of-order deliveries are ignored
// so webhook retries and reordered notifications stay harmless.
func (s *Service) ApplyPayment(ctx context.Context, id, gatewayStatus string) (PaymentStatus, error) {
	var status PaymentStatus
	switch gatewayStatus {
	case "settlement", "capture":
		status = PaymentPaid
	case "pending":
		status = PaymentPending
	case "deny", "cancel", "expire":
		status = PaymentFailed
	default:
		return "", nil
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !CanTransitionPayment(o.PaymentStatus, status) {
		return "", nil
	}
	if err := s.orders.UpdatePaymentStatus(ctx, id, status); err != nil {
		return "", errors.Wrap(err, "update payment status")
	}
	return status, nil
}

// resolveLines validates quantities and snapshots unit and price from the
// service catalog in a single batch fetch.
func (s *Service) resolveLines(ctx context.Context, items []Item) ([]Line, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(items))
	for i, item := range items {
		if !item.Quantity.IsPositive() {
			return nil, &InvalidQuantityError{ServiceID: item.ServiceID}
		}
		ids[i] = item.ServiceID
	}

	fetched, err := s.services.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get services")
	}
	byID := make(map[string]service.Service, len(fetched))
	for _, svc := range fetched {
		byID[svc.ID] = svc
	}

	lines := make([]Line, len(items))
	for i, item := range items {
		svc, ok := byID[item.ServiceID]
		if !ok {
			return nil, &ServiceNotFoundError{ServiceID: item.ServiceID}
		}
		lines[i] = Line{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Unit:        svc.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   svc.Price,
			Subtotal:    item.Quantity.Mul(svc.Price),
		}
	}
	return lines, nil
}

// price fetches the current catalog and runs the engine over the lines.
func (s *Service) price(ctx context.Context, lines []Line, voucherCode string) (*Quote, error) {
	catalog, err := s.promos.ListCurrent(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list promotions")
	}

	cart := make([]pricing.CartLine, len(lines))
	for i, l := range lines {
		cart[i] = pricing.CartLine{
			ServiceID:   l.ServiceID,
			ServiceName: l.ServiceName,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}

	result, err := pricing.Evaluate(cart, catalog, voucherCode, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "evaluate pricing")
	}

	return &Quote{
		Lines:          lines,
		Pricing:        result,
		VoucherApplied: result.AppliedCode(voucherCode),
	}, nil
}
