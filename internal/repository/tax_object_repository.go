package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pesafrisma19/pbbkemang/internal/database"
	"github.com/pesafrisma19/pbbkemang/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TaxObjectRepository defines data access for tax objects.
type TaxObjectRepository interface {
	// Upsert inserts a tax object or updates the one with the same
	// (NOP, taxpayer) pair. A paid object that stays paid keeps its
	// original payment time.
	Upsert(ctx context.Context, in models.TaxObjectUpsert) (*models.TaxObject, error)

	// SetStatus writes the payment status and time.
	// Returns false if the tax object does not exist.
	SetStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, paidAt *time.Time) (bool, error)
}

type taxObjectRepository struct {
	db *database.Database
}

// NewTaxObjectRepository creates a new instance of TaxObjectRepository.
func NewTaxObjectRepository(db *database.Database) TaxObjectRepository {
	return &taxObjectRepository{
		db: db,
	}
}

const taxObjectColumns = `
	id,
	taxpayer_id,
	nop,
	location_name,
	amount_due,
	year,
	status,
	paid_at,
	original_name,
	persil,
	blok,
	created_at,
	updated_at`

func scanTaxObject(row pgx.Row, obj *models.TaxObject) error {
	return row.Scan(
		&obj.ID,
		&obj.TaxpayerID,
		&obj.NOP,
		&obj.LocationName,
		&obj.AmountDue,
		&obj.Year,
		&obj.Status,
		&obj.PaidAt,
		&obj.OriginalName,
		&obj.Persil,
		&obj.Blok,
		&obj.CreatedAt,
		&obj.UpdatedAt,
	)
}

func (r *taxObjectRepository) Upsert(ctx context.Context, in models.TaxObjectUpsert) (*models.TaxObject, error) {
	return upsertTaxObject(ctx, r.db.Pool, in)
}

func upsertTaxObject(ctx context.Context, q querier, in models.TaxObjectUpsert) (*models.TaxObject, error) {
	query := `
		INSERT INTO tax_objects (
			taxpayer_id, nop, location_name, amount_due, year,
			status, paid_at, original_name, persil, blok
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT tax_objects_nop_taxpayer_key DO UPDATE SET
			location_name = EXCLUDED.location_name,
			amount_due    = EXCLUDED.amount_due,
			year          = EXCLUDED.year,
			status        = EXCLUDED.status,
			paid_at       = CASE
				WHEN EXCLUDED.status = 'paid' AND tax_objects.status = 'paid'
				THEN tax_objects.paid_at
				ELSE EXCLUDED.paid_at
			END,
			original_name = EXCLUDED.original_name,
			persil        = EXCLUDED.persil,
			blok          = EXCLUDED.blok,
			updated_at    = NOW()
		RETURNING` + taxObjectColumns

	location := in.LocationName
	if location == "" {
		location = models.DefaultLocation
	}
	status := in.Status
	if status == "" {
		status = models.StatusUnpaid
	}
	paidAt := in.PaidAt
	if !status.IsPaid() {
		paidAt = nil
	} else if paidAt == nil {
		now := time.Now()
		paidAt = &now
	}

	var obj models.TaxObject
	row := q.QueryRow(ctx, query,
		in.TaxpayerID, in.NOP, location, in.AmountDue, in.Year,
		status, paidAt, in.OriginalName, in.Persil, in.Blok,
	)
	if err := scanTaxObject(row, &obj); err != nil {
		return nil, fmt.Errorf("failed to upsert tax object %s for taxpayer %s: %w", in.NOP, in.TaxpayerID, classify(err))
	}
	return &obj, nil
}

func (r *taxObjectRepository) SetStatus(
	ctx context.Context,
	id uuid.UUID,
	status models.PaymentStatus,
	paidAt *time.Time,
) (bool, error) {
	query := `
		UPDATE tax_objects
		SET status = $2, paid_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	if !status.IsPaid() {
		paidAt = nil
	}
	tag, err := r.db.Pool.Exec(ctx, query, id, status, paidAt)
	if err != nil {
		return false, fmt.Errorf("failed to set status of tax object %s: %w", id, classify(err))
	}
	return tag.RowsAffected() > 0, nil
}

// listTaxObjects runs a tax object query with an optional WHERE clause,
// ordered by NOP then creation time.
func listTaxObjects(ctx context.Context, q querier, where string, args ...any) ([]models.TaxObject, error) {
	query := `SELECT` + taxObjectColumns + ` FROM tax_objects ` + where + ` ORDER BY nop, created_at, id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax objects: %w", err)
	}
	defer rows.Close()

	objects := []models.TaxObject{}
	for rows.Next() {
		var obj models.TaxObject
		if err := scanTaxObject(rows, &obj); err != nil {
			return nil, fmt.Errorf("failed to scan tax object row: %w", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tax object rows: %w", err)
	}
	return objects, nil
}
