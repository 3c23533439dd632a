package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lavandry/laundry-pos/internal/domain/promo"
)

const (
	listCurrentPromosSQL = `SELECT id, name, code, service_id, discount_type, value,
		min_weight_kg, min_amount, start_date, end_date, active
		FROM promotions WHERE active = TRUE ORDER BY created_at`

	createPromoSQL = `INSERT INTO promotions
		(id, name, code, service_id, discount_type, value, min_weight_kg, min_amount, start_date, end_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	setPromoActiveSQL = `UPDATE promotions SET active = $2 WHERE id = $1`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// ListCurrent returns every active promotion, vouchers included. Window and
// threshold eligibility stays with the pricing engine.
func (r *PromoRepository) ListCurrent(ctx context.Context) ([]promo.Promotion, error) {
	rows, err := r.pool.Query(ctx, listCurrentPromosSQL)
	if err != nil {
		return nil, fmt.Errorf("listing promotions: %w", err)
	}

	promos, err := pgx.CollectRows(rows, scanPromotion)
	if err != nil {
		return nil, fmt.Errorf("listing promotions: %w", err)
	}
	return promos, nil
}

// Create persists a new promotion. The voucher code is stored upper-cased;
// empty code and service scope are stored as NULL.
func (r *PromoRepository) Create(ctx context.Context, p *promo.Promotion) error {
	if err := promo.Validate(*p); err != nil {
		return err
	}

	var code, serviceID *string
	if p.Code != "" {
		normalized := promo.NormalizeCode(p.Code)
		code = &normalized
	}
	if p.ServiceID != "" {
		serviceID = &p.ServiceID
	}

	_, err := r.pool.Exec(ctx, createPromoSQL,
		p.ID, p.Name, code, serviceID, string(p.DiscountType), p.Value,
		p.MinWeightKg, p.MinAmount, p.StartDate, p.EndDate, p.Active,
	)
	if err != nil {
		return fmt.Errorf("creating promotion %q: %w", p.ID, err)
	}
	return nil
}

// SetActive toggles a promotion's active flag.
func (r *PromoRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, setPromoActiveSQL, id, active)
	if err != nil {
		return fmt.Errorf("toggling promotion %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrNotFound
	}
	return nil
}

func scanPromotion(row pgx.CollectableRow) (promo.Promotion, error) {
	var (
		p            promo.Promotion
		code         *string
		serviceID    *string
		discountType string
		minWeight    *decimal.Decimal
		minAmount    *decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &code, &serviceID, &discountType, &p.Value,
		&minWeight, &minAmount, &p.StartDate, &p.EndDate, &p.Active,
	)
	if code != nil {
		p.Code = *code
	}
	if serviceID != nil {
		p.ServiceID = *serviceID
	}
	p.DiscountType = promo.DiscountType(discountType)
	p.MinWeightKg = minWeight
	p.MinAmount = minAmount
	return p, err
}
