package warranty

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starshield/warranty/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL warranty repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const warrantyColumns = `id, device_id, coverage_type, start_date, end_date, status, max_claims, used_claims,
	policy_number, insurance_provider, notes, is_active, created_at, updated_at`

// Get retrieves a warranty by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Warranty, error) {
	query := `SELECT ` + warrantyColumns + ` FROM warranties WHERE id = $1`

	return r.scanWarranty(ctx, query, id)
}

// GetActiveByDevice retrieves the ACTIVE warranty of a device.
func (r *PostgresRepository) GetActiveByDevice(ctx context.Context, deviceID string) (*Warranty, error) {
	query := `
		SELECT ` + warrantyColumns + `
		FROM warranties
		WHERE device_id = $1 AND status = $2 AND is_active
		ORDER BY created_at ASC
		LIMIT 1
	`

	return r.scanWarranty(ctx, query, deviceID, StatusActive)
}

// GetLatestByDevice retrieves the most recent warranty of a device.
func (r *PostgresRepository) GetLatestByDevice(ctx context.Context, deviceID string) (*Warranty, error) {
	query := `
		SELECT ` + warrantyColumns + `
		FROM warranties
		WHERE device_id = $1 AND is_active
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanWarranty(ctx, query, deviceID)
}

// Create creates a new warranty.
func (r *PostgresRepository) Create(ctx context.Context, w *Warranty) error {
	query := `
		INSERT INTO warranties (` + warrantyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		w.ID,
		w.DeviceID,
		w.CoverageType,
		w.StartDate,
		w.EndDate,
		w.Status,
		w.MaxClaims,
		w.UsedClaims,
		w.PolicyNumber,
		w.InsuranceProvider,
		w.Notes,
		w.IsActive,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if database.IsUniqueViolation(err, "warranties_policy_number_key") {
		return ErrDuplicatePolicyNumber
	}
	return err
}

// UpdateStatus sets the status of a warranty.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error {
	query := `UPDATE warranties SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, status, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrWarrantyNotFound
	}
	return nil
}

// IncrementUsedClaims adds one used claim while below quota. The guard and
// the increment run as a single statement.
func (r *PostgresRepository) IncrementUsedClaims(ctx context.Context, id string, at time.Time) (*Warranty, error) {
	query := `
		UPDATE warranties
		SET used_claims = used_claims + 1, updated_at = $2
		WHERE id = $1 AND used_claims < max_claims
		RETURNING ` + warrantyColumns

	w, err := r.scanWarranty(ctx, query, id, at)
	if !errors.Is(err, ErrWarrantyNotFound) {
		return w, err
	}

	// No row updated: either the warranty is missing or the guard rejected it.
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrQuotaExceeded
}

// scanWarranty scans a single warranty from a query.
func (r *PostgresRepository) scanWarranty(ctx context.Context, query string, args ...any) (*Warranty, error) {
	var w Warranty

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&w.ID,
		&w.DeviceID,
		&w.CoverageType,
		&w.StartDate,
		&w.EndDate,
		&w.Status,
		&w.MaxClaims,
		&w.UsedClaims,
		&w.PolicyNumber,
		&w.InsuranceProvider,
		&w.Notes,
		&w.IsActive,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWarrantyNotFound
		}
		return nil, err
	}

	return &w, nil
}

var _ Repository = (*PostgresRepository)(nil)
