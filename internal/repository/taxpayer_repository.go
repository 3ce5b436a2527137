package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pesafrisma19/pbbkemang/internal/database"
	"github.com/pesafrisma19/pbbkemang/internal/models"
)

// TaxpayerRepository defines data access for taxpayers and their tax objects.
type TaxpayerRepository interface {
	// FindByNameAddress returns the oldest taxpayer whose trimmed name and
	// address match case-insensitively.
	// Returns nil, nil if no taxpayer matches.
	FindByNameAddress(ctx context.Context, name, address string) (*models.Taxpayer, error)

	// GetByID returns a taxpayer with its tax objects.
	// Returns nil, nil if the taxpayer does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Taxpayer, error)

	Create(ctx context.Context, in models.NewTaxpayer) (*models.Taxpayer, error)

	// Update replaces the taxpayer's own fields.
	// Returns nil, nil if the taxpayer does not exist.
	Update(ctx context.Context, id uuid.UUID, in models.NewTaxpayer) (*models.Taxpayer, error)

	// Delete removes a taxpayer; its tax objects are removed by cascade.
	// Returns false if nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// ListWithTaxObjects returns every taxpayer, newest first, with tax
	// objects ordered by NOP.
	ListWithTaxObjects(ctx context.Context) ([]models.Taxpayer, error)

	// ReplaceTaxObjects deletes all of a taxpayer's tax objects and inserts
	// objects in one transaction.
	ReplaceTaxObjects(ctx context.Context, taxpayerID uuid.UUID, objects []models.TaxObjectUpsert) ([]models.TaxObject, error)
}

type taxpayerRepository struct {
	db *database.Database
}

// NewTaxpayerRepository creates a new instance of TaxpayerRepository.
func NewTaxpayerRepository(db *database.Database) TaxpayerRepository {
	return &taxpayerRepository{
		db: db,
	}
}

const taxpayerColumns = `
	id,
	name,
	address,
	nik,
	whatsapp,
	group_id,
	rt,
	rw,
	created_at,
	updated_at`

func scanTaxpayer(row pgx.Row, tp *models.Taxpayer) error {
	return row.Scan(
		&tp.ID,
		&tp.Name,
		&tp.Address,
		&tp.NIK,
		&tp.WhatsApp,
		&tp.GroupID,
		&tp.RT,
		&tp.RW,
		&tp.CreatedAt,
		&tp.UpdatedAt,
	)
}

func (r *taxpayerRepository) FindByNameAddress(ctx context.Context, name, address string) (*models.Taxpayer, error) {
	query := `SELECT` + taxpayerColumns + `
		FROM taxpayers
		WHERE LOWER(TRIM(name)) = LOWER(TRIM($1))
		  AND LOWER(TRIM(address)) = LOWER(TRIM($2))
		ORDER BY created_at, id
		LIMIT 1
	`

	var tp models.Taxpayer
	if err := scanTaxpayer(r.db.Pool.QueryRow(ctx, query, name, address), &tp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find taxpayer (name=%q, address=%q): %w", name, address, err)
	}
	return &tp, nil
}

func (r *taxpayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Taxpayer, error) {
	query := `SELECT` + taxpayerColumns + ` FROM taxpayers WHERE id = $1`

	var tp models.Taxpayer
	if err := scanTaxpayer(r.db.Pool.QueryRow(ctx, query, id), &tp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get taxpayer %s: %w", id, err)
	}

	objects, err := listTaxObjects(ctx, r.db.Pool, `WHERE taxpayer_id = $1`, id)
	if err != nil {
		return nil, err
	}
	tp.TaxObjects = objects
	return &tp, nil
}

func (r *taxpayerRepository) Create(ctx context.Context, in models.NewTaxpayer) (*models.Taxpayer, error) {
	query := `
		INSERT INTO taxpayers (name, address, nik, whatsapp, group_id, rt, rw)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING` + taxpayerColumns

	var tp models.Taxpayer
	row := r.db.Pool.QueryRow(ctx, query, in.Name, in.Address, in.NIK, in.WhatsApp, in.GroupID, in.RT, in.RW)
	if err := scanTaxpayer(row, &tp); err != nil {
		return nil, fmt.Errorf("failed to create taxpayer %q: %w", in.Name, classify(err))
	}
	tp.TaxObjects = []models.TaxObject{}
	return &tp, nil
}

func (r *taxpayerRepository) Update(ctx context.Context, id uuid.UUID, in models.NewTaxpayer) (*models.Taxpayer, error) {
	query := `
		UPDATE taxpayers
		SET name = $2, address = $3, nik = $4, whatsapp = $5, group_id = $6,
		    rt = $7, rw = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING` + taxpayerColumns

	var tp models.Taxpayer
	row := r.db.Pool.QueryRow(ctx, query, id, in.Name, in.Address, in.NIK, in.WhatsApp, in.GroupID, in.RT, in.RW)
	if err := scanTaxpayer(row, &tp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update taxpayer %s: %w", id, classify(err))
	}
	return &tp, nil
}

func (r *taxpayerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM taxpayers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete taxpayer %s: %w", id, classify(err))
	}
	return tag.RowsAffected() > 0, nil
}

func (r *taxpayerRepository) ListWithTaxObjects(ctx context.Context) ([]models.Taxpayer, error) {
	query := `SELECT` + taxpayerColumns + ` FROM taxpayers ORDER BY created_at DESC, id`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list taxpayers: %w", err)
	}
	defer rows.Close()

	var taxpayers []models.Taxpayer
	positions := make(map[uuid.UUID]int)
	for rows.Next() {
		var tp models.Taxpayer
		if err := scanTaxpayer(rows, &tp); err != nil {
			return nil, fmt.Errorf("failed to scan taxpayer row: %w", err)
		}
		tp.TaxObjects = []models.TaxObject{}
		positions[tp.ID] = len(taxpayers)
		taxpayers = append(taxpayers, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating taxpayer rows: %w", err)
	}

	objects, err := listTaxObjects(ctx, r.db.Pool, ``)
	if err != nil {
		return nil, err
	}
	for _, obj := range objects {
		if pos, ok := positions[obj.TaxpayerID]; ok {
			taxpayers[pos].TaxObjects = append(taxpayers[pos].TaxObjects, obj)
		}
	}

	if taxpayers == nil {
		taxpayers = []models.Taxpayer{}
	}
	return taxpayers, nil
}

func (r *taxpayerRepository) ReplaceTaxObjects(
	ctx context.Context,
	taxpayerID uuid.UUID,
	objects []models.TaxObjectUpsert,
) ([]models.TaxObject, error) {
	saved := make([]models.TaxObject, 0, len(objects))
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tax_objects WHERE taxpayer_id = $1`, taxpayerID); err != nil {
			return fmt.Errorf("failed to clear tax objects of %s: %w", taxpayerID, err)
		}
		for _, in := range objects {
			in.TaxpayerID = taxpayerID
			obj, err := upsertTaxObject(ctx, tx, in)
			if err != nil {
				return err
			}
			saved = append(saved, *obj)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
