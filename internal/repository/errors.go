package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes handled by the repositories.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// nationalIDConstraint is the partial unique index on taxpayers.nik.
const nationalIDConstraint = "taxpayers_nik_key"

var (
	// ErrDuplicateNationalID is returned when a national id is already in use.
	ErrDuplicateNationalID = errors.New("national id already registered")
	// ErrDuplicateUnique is returned for any other unique violation.
	ErrDuplicateUnique = errors.New("duplicate unique value")
	// ErrConstraint is returned when a row breaks a check or foreign key.
	ErrConstraint = errors.New("constraint violation")
)

// classify maps constraint violations onto sentinel errors while keeping
// the driver error in the chain. Other errors are returned unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		if pgErr.ConstraintName == nationalIDConstraint {
			return errors.Join(ErrDuplicateNationalID, err)
		}
		return errors.Join(ErrDuplicateUnique, err)
	case foreignKeyViolation, checkViolation:
		return errors.Join(ErrConstraint, err)
	}
	return err
}

// Describe returns a user-facing title and message for a write failure.
func Describe(err error) (title, message string) {
	switch {
	case errors.Is(err, ErrDuplicateNationalID):
		return "NIK Sudah Terdaftar", "NIK ini sudah dipakai warga lain. Cari warga tersebut atau periksa kembali NIK yang dimasukkan."
	case errors.Is(err, ErrDuplicateUnique):
		return "Data Duplikat", "Data unik ini (NIK atau NOP) sudah ada di sistem."
	default:
		return "Gagal Menyimpan", err.Error()
	}
}

// Reason is the short form of Describe used in import row errors.
func Reason(err error) string {
	title, message := Describe(err)
	if errors.Is(err, ErrDuplicateNationalID) || errors.Is(err, ErrDuplicateUnique) {
		return title
	}
	return message
}
