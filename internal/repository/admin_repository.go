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

// AdminRepository defines data access for admin accounts.
type AdminRepository interface {
	// FindByPhone returns nil, nil if no admin has the phone number.
	FindByPhone(ctx context.Context, phone string) (*models.Admin, error)
	// GetByID returns nil, nil if the admin does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	Create(ctx context.Context, phone string, name *string, passwordHash string) (*models.Admin, error)
	// UpdatePassword returns false if the admin does not exist.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error)
	List(ctx context.Context) ([]models.Admin, error)
}

type adminRepository struct {
	db *database.Database
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *database.Database) AdminRepository {
	return &adminRepository{
		db: db,
	}
}

const adminColumns = ` id, phone, password, name, created_at`

func scanAdmin(row pgx.Row, a *models.Admin) error {
	return row.Scan(&a.ID, &a.Phone, &a.PasswordHash, &a.Name, &a.CreatedAt)
}

func (r *adminRepository) FindByPhone(ctx context.Context, phone string) (*models.Admin, error) {
	var a models.Admin
	err := scanAdmin(r.db.Pool.QueryRow(ctx, `SELECT`+adminColumns+` FROM admins WHERE phone = $1`, phone), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find admin by phone: %w", err)
	}
	return &a, nil
}

func (r *adminRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	var a models.Admin
	err := scanAdmin(r.db.Pool.QueryRow(ctx, `SELECT`+adminColumns+` FROM admins WHERE id = $1`, id), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin %s: %w", id, err)
	}
	return &a, nil
}

func (r *adminRepository) Create(ctx context.Context, phone string, name *string, passwordHash string) (*models.Admin, error) {
	query := `INSERT INTO admins (phone, name, password) VALUES ($1, $2, $3) RETURNING` + adminColumns

	var a models.Admin
	if err := scanAdmin(r.db.Pool.QueryRow(ctx, query, phone, name, passwordHash), &a); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", classify(err))
	}
	return &a, nil
}

func (r *adminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE admins SET password = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return false, fmt.Errorf("failed to update password of admin %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *adminRepository) List(ctx context.Context) ([]models.Admin, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT`+adminColumns+` FROM admins ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	admins := []models.Admin{}
	for rows.Next() {
		var a models.Admin
		if err := scanAdmin(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan admin row: %w", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin rows: %w", err)
	}
	return admins, nil
}
