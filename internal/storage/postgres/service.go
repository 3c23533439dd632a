package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lavandry/laundry-pos/internal/domain/service"
)

const (
	listServicesSQL = `SELECT id, name, unit, price, active
		FROM services WHERE active = TRUE ORDER BY name`

	getServicesByIDsSQL = `SELECT id, name, unit, price, active
		FROM services WHERE id = ANY($1) AND active = TRUE`

	createServiceSQL = `INSERT INTO services (id, name, unit, price, active)
		VALUES ($1, $2, $3, $4, $5)`

	updateServiceSQL = `UPDATE services SET name = $2, unit = $3, price = $4, active = $5
		WHERE id = $1`
)

var _ service.Repository = (*ServiceRepository)(nil)

// ServiceRepository implements service.Repository backed by PostgreSQL.
type ServiceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository returns a ServiceRepository that uses the given pool.
func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

// List returns all active services ordered by name.
func (r *ServiceRepository) List(ctx context.Context) ([]service.Service, error) {
	rows, err := r.pool.Query(ctx, listServicesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}

	services, err := pgx.CollectRows(rows, scanService)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	return services, nil
}

// GetByIDs returns the active services matching the given identifiers in a
// single query. Missing identifiers are simply absent from the result.
func (r *ServiceRepository) GetByIDs(ctx context.Context, ids []string) ([]service.Service, error) {
	rows, err := r.pool.Query(ctx, getServicesByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting services by ids: %w", err)
	}

	services, err := pgx.CollectRows(rows, scanService)
	if err != nil {
		return nil, fmt.Errorf("getting services by ids: %w", err)
	}
	return services, nil
}

// Create persists a new catalog service.
func (r *ServiceRepository) Create(ctx context.Context, s *service.Service) error {
	_, err := r.pool.Exec(ctx, createServiceSQL, s.ID, s.Name, string(s.Unit), s.Price, s.Active)
	if err != nil {
		return fmt.Errorf("creating service %q: %w", s.ID, err)
	}
	return nil
}

// Update overwrites an existing catalog service.
func (r *ServiceRepository) Update(ctx context.Context, s *service.Service) error {
	tag, err := r.pool.Exec(ctx, updateServiceSQL, s.ID, s.Name, string(s.Unit), s.Price, s.Active)
	if err != nil {
		return fmt.Errorf("updating service %q: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func scanService(row pgx.CollectableRow) (service.Service, error) {
	var (
		s    service.Service
		unit string
	)
	err := row.Scan(&s.ID, &s.Name, &unit, &s.Price, &s.Active)
	s.Unit = service.Unit(unit)
	return s, err
}
