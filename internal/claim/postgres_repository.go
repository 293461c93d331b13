package claim

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starshield/warranty/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL claim repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const claimColumns = `id, protocol_number, device_id, warranty_id, status, damage_type, damage_description,
	incident_date, customer_name, customer_cpf, customer_phone, customer_email, evidence_photos, documents,
	repair_shop, estimated_cost, actual_cost, repair_date, rejection_reason, admin_notes, completion_date,
	is_active, created_at, updated_at`

// Create creates a new claim.
func (r *PostgresRepository) Create(ctx context.Context, c *Claim) error {
	query := `
		INSERT INTO claims (` + claimColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.ProtocolNumber,
		c.DeviceID,
		c.WarrantyID,
		c.Status,
		c.DamageType,
		c.DamageDescription,
		c.IncidentDate,
		c.Customer.Name,
		c.Customer.CPF,
		c.Customer.Phone,
		c.Customer.Email,
		nonNil(c.EvidencePhotos),
		nonNil(c.Documents),
		c.RepairShop,
		c.EstimatedCost,
		c.ActualCost,
		c.RepairDate,
		c.RejectionReason,
		c.AdminNotes,
		c.CompletionDate,
		c.IsActive,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if database.IsUniqueViolation(err, "claims_protocol_number_key") {
		return ErrDuplicateProtocol
	}
	return err
}

// Get retrieves a claim by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`

	return r.scanClaim(r.pool.QueryRow(ctx, query, id))
}

// GetActiveByProtocol retrieves an active claim by its protocol number.
func (r *PostgresRepository) GetActiveByProtocol(ctx context.Context, protocolNumber string) (*Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE protocol_number = $1 AND is_active`

	return r.scanClaim(r.pool.QueryRow(ctx, query, protocolNumber))
}

// Update persists the mutable fields of an existing claim.
func (r *PostgresRepository) Update(ctx context.Context, c *Claim) error {
	query := `
		UPDATE claims
		SET status = $2, repair_shop = $3, estimated_cost = $4, actual_cost = $5, repair_date = $6,
			rejection_reason = $7, admin_notes = $8, completion_date = $9, is_active = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Status,
		c.RepairShop,
		c.EstimatedCost,
		c.ActualCost,
		c.RepairDate,
		c.RejectionReason,
		c.AdminNotes,
		c.CompletionDate,
		c.IsActive,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrClaimNotFound
	}
	return nil
}

// scanClaim scans a single claim from a row.
func (r *PostgresRepository) scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim

	err := row.Scan(
		&c.ID,
		&c.ProtocolNumber,
		&c.DeviceID,
		&c.WarrantyID,
		&c.Status,
		&c.DamageType,
		&c.DamageDescription,
		&c.IncidentDate,
		&c.Customer.Name,
		&c.Customer.CPF,
		&c.Customer.Phone,
		&c.Customer.Email,
		&c.EvidencePhotos,
		&c.Documents,
		&c.RepairShop,
		&c.EstimatedCost,
		&c.ActualCost,
		&c.RepairDate,
		&c.RejectionReason,
		&c.AdminNotes,
		&c.CompletionDate,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}

	return &c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Repository = (*PostgresRepository)(nil)
