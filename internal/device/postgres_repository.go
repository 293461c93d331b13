package device

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

// NewPostgresRepository creates a new PostgreSQL device repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const deviceColumns = `id, imei, fiscal_number, model, brand, purchase_date,
	owner_tax_id, owner_name, owner_email, owner_phone, photos, is_active, created_at, updated_at`

// Get retrieves a device by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	return r.scanDevice(ctx, query, id)
}

// FindActiveByIdentifier retrieves the active device holding either identifier.
func (r *PostgresRepository) FindActiveByIdentifier(ctx context.Context, imei, fiscalNumber string) (*Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE is_active AND ((imei = $1 AND $1 <> '') OR (fiscal_number = $2 AND $2 <> ''))
		ORDER BY created_at ASC
		LIMIT 1
	`

	return r.scanDevice(ctx, query, imei, fiscalNumber)
}

// FindActive retrieves the active device selected by a lookup.
func (r *PostgresRepository) FindActive(ctx context.Context, lookup Lookup) (*Device, error) {
	if lookup.IMEI != "" {
		query := `
			SELECT ` + deviceColumns + `
			FROM devices
			WHERE is_active AND imei = $1 AND model = $2 AND owner_tax_id = $3
		`
		return r.scanDevice(ctx, query, lookup.IMEI, lookup.Model, lookup.OwnerTaxID)
	}
	if lookup.FiscalNumber == "" {
		return nil, ErrDeviceNotFound
	}

	query := `
		SELECT ` + deviceColumns + `
		FROM devices
		WHERE is_active AND fiscal_number = $1 AND model = $2 AND owner_tax_id = $3
	`
	return r.scanDevice(ctx, query, lookup.FiscalNumber, lookup.Model, lookup.OwnerTaxID)
}

// Create creates a new device.
func (r *PostgresRepository) Create(ctx context.Context, device *Device) error {
	query := `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		device.ID,
		device.IMEI,
		device.FiscalNumber,
		device.Model,
		device.Brand,
		device.PurchaseDate,
		device.Owner.TaxID,
		device.Owner.Name,
		device.Owner.Email,
		device.Owner.Phone,
		device.Photos,
		device.IsActive,
		device.CreatedAt,
		device.UpdatedAt,
	)
	if database.IsUniqueViolation(err, "") {
		return ErrDuplicateDevice
	}
	return err
}

// Deactivate soft-deletes a device.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE devices SET is_active = FALSE, updated_at = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// scanDevice scans a single device from a query.
func (r *PostgresRepository) scanDevice(ctx context.Context, query string, args ...any) (*Device, error) {
	var device Device

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&device.ID,
		&device.IMEI,
		&device.FiscalNumber,
		&device.Model,
		&device.Brand,
		&device.PurchaseDate,
		&device.Owner.TaxID,
		&device.Owner.Name,
		&device.Owner.Email,
		&device.Owner.Phone,
		&device.Photos,
		&device.IsActive,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	return &device, nil
}

var _ Repository = (*PostgresRepository)(nil)
