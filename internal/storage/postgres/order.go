package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lavandry/laundry-pos/internal/domain/order"
	"github.com/lavandry/laundry-pos/internal/domain/pricing"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, customer_id, lines, subtotal, discount, total, voucher_code, applied_promos, status, payment_status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getOrderByIDSQL = `SELECT id, customer_id, lines, subtotal, discount, total,
		voucher_code, applied_promos, status, payment_status, note, created_at
		FROM orders WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	updateOrderPaymentSQL = `UPDATE orders SET payment_status = $2 WHERE id = $1`

	dailySummarySQL = `SELECT COUNT(*),
		COALESCE(SUM(subtotal), 0), COALESCE(SUM(discount), 0), COALESCE(SUM(total), 0)
		FROM orders WHERE created_at >= $1 AND created_at < $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order inside a transaction. Lines and applied
// promotions are serialized to JSON for the JSONB snapshot columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	appliedJSON, err := json.Marshal(appliedToRows(o.Applied))
	if err != nil {
		return fmt.Errorf("marshaling applied promotions: %w", err)
	}

	var customerID *string
	if o.CustomerID != "" {
		customerID = &o.CustomerID
	}

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createOrderSQL,
			o.ID, customerID, linesJSON, o.Subtotal, o.Discount, o.Total,
			o.VoucherCode, appliedJSON, string(o.Status), string(o.PaymentStatus),
			o.Note, o.CreatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus sets the laundry workflow status for an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// UpdatePaymentStatus sets the payment status for an order.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status order.PaymentStatus) error {
	tag, err := r.pool.Exec(ctx, updateOrderPaymentSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating payment of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// DailySummary aggregates order counts and amounts for the calendar day
// containing date, in the date's own location.
func (r *OrderRepository) DailySummary(ctx context.Context, date time.Time) (*order.DailySummary, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	to := from.AddDate(0, 0, 1)

	var (
		count                int
		gross, discount, net decimal.Decimal
	)
	err := r.pool.QueryRow(ctx, dailySummarySQL, from, to).
		Scan(&count, &gross, &discount, &net)
	if err != nil {
		return nil, fmt.Errorf("summarizing orders for %s: %w", from.Format("2006-01-02"), err)
	}

	return &order.DailySummary{
		Date:       from,
		OrderCount: count,
		Gross:      gross,
		Discount:   discount,
		Net:        net,
	}, nil
}

// appliedRow is the JSONB shape of one applied promotion on an order.
type appliedRow struct {
	PromotionID string          `json:"promotion_id"`
	Name        string          `json:"name"`
	Code        string          `json:"code,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

func appliedToRows(applied []pricing.Applied) []appliedRow {
	rows := make([]appliedRow, len(applied))
	for i, a := range applied {
		rows[i] = appliedRow(a)
	}
	return rows
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		customerID  *string
		linesJSON   []byte
		appliedJSON []byte
		status      string
		payStatus   string
	)
	err := row.Scan(
		&o.ID, &customerID, &linesJSON, &o.Subtotal, &o.Discount, &o.Total,
		&o.VoucherCode, &appliedJSON, &status, &payStatus, &o.Note, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	if customerID != nil {
		o.CustomerID = *customerID
	}
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(payStatus)

	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return o, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	var rows []appliedRow
	if err := json.Unmarshal(appliedJSON, &rows); err != nil {
		return o, fmt.Errorf("unmarshaling applied promotions: %w", err)
	}
	o.Applied = make([]pricing.Applied, len(rows))
	for i, a := range rows {
		o.Applied[i] = pricing.Applied(a)
	}
	return o, nil
}
