// Package auth verifies admin credentials and manages login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pesafrisma19/pbbkemang/internal/config"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
	"github.com/pesafrisma19/pbbkemang/internal/session"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("phone and password are required")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrWrongPassword      = errors.New("wrong password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// MinPasswordLength is the shortest password accepted for new passwords.
const MinPasswordLength = 6

// Session is an issued login.
type Session struct {
	ExpiresAt time.Time    `json:"expires_at"`
	Token     string       `json:"-"`
	Admin     models.Admin `json:"admin"`
}

// RehashReport summarizes a plaintext password migration.
type RehashReport struct {
	Failed  []string `json:"failed"`
	Hashed  int      `json:"hashed"`
	Skipped int      `json:"skipped"`
}

// Service handles admin authentication.
type Service interface {
	Login(ctx context.Context, phone, password string) (*Session, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a session token to its admin.
	Authenticate(ctx context.Context, token string) (*models.Admin, error)
	// ChangePassword replaces the password after verifying the old one.
	ChangePassword(ctx context.Context, phone, oldPassword, newPassword string) error
	CreateAdmin(ctx context.Context, phone string, name *string, password string) (*models.Admin, error)
	// RehashPlaintext replaces every stored password that is not a bcrypt
	// hash with its hash.
	RehashPlaintext(ctx context.Context) (RehashReport, error)
}

type service struct {
	admins   repository.AdminRepository
	sessions session.Store
	cfg      config.AuthConfig
	log      *logger.Logger
}

// NewService creates an auth Service. sessions may be nil for callers that
// only manage accounts.
func NewService(admins repository.AdminRepository, sessions session.Store, cfg config.AuthConfig, log *logger.Logger) Service {
	return &service{
		admins:   admins,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

func (s *service) Login(ctx context.Context, phone, password string) (*Session, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	admin, err := s.admins.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil {
		s.log.Warn("Login for unknown phone", map[string]interface{}{"phone": phone})
		return nil, ErrAdminNotFound
	}

	if !CheckPassword(password, admin.PasswordHash) {
		s.log.Warn("Login with wrong password", map[string]interface{}{"admin_id": admin.ID.String()})
		return nil, ErrWrongPassword
	}

	token, err := s.sessions.Create(ctx, admin.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.Info("Admin logged in", map[string]interface{}{"admin_id": admin.ID.String()})
	return &Session{
		Token:     token,
		Admin:     *admin,
		ExpiresAt: time.Now().Add(s.cfg.SessionTTL),
	}, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

func (s *service) Authenticate(ctx context.Context, token string) (*models.Admin, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	adminID, ok, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if !ok {
		return nil, ErrInvalidSession
	}

	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil {
		// Account removed while the session was alive.
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrInvalidSession
	}
	return admin, nil
}

func (s *service) ChangePassword(ctx context.Context, phone, oldPassword, newPassword string) error {
	if strings.TrimSpace(phone) == "" || oldPassword == "" || newPassword == "" {
		return ErrMissingCredentials
	}
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	admin, err := s.admins.FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil {
		return ErrAdminNotFound
	}
	if !CheckPassword(oldPassword, admin.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	ok, err := s.admins.UpdatePassword(ctx, admin.ID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if !ok {
		return ErrAdminNotFound
	}

	s.log.Info("Admin password changed", map[string]interface{}{"admin_id": admin.ID.String()})
	return nil
}

func (s *service) CreateAdmin(ctx context.Context, phone string, name *string, password string) (*models.Admin, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	admin, err := s.admins.Create(ctx, phone, name, hash)
	if err != nil {
		return nil, err
	}

	s.log.Info("Admin created", map[string]interface{}{"admin_id": admin.ID.String()})
	return admin, nil
}

func (s *service) RehashPlaintext(ctx context.Context) (RehashReport, error) {
	report := RehashReport{Failed: []string{}}

	admins, err := s.admins.List(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list admins: %w", err)
	}

	for _, admin := range admins {
		if IsHash(admin.PasswordHash) {
			report.Skipped++
			continue
		}

		hash, err := HashPassword(admin.PasswordHash, s.cfg.BcryptCost)
		if err == nil {
			_, err = s.admins.UpdatePassword(ctx, admin.ID, hash)
		}
		if err != nil {
			s.log.Error("Failed to rehash password", err, map[string]interface{}{"phone": admin.Phone})
			report.Failed = append(report.Failed, admin.Phone)
			continue
		}
		report.Hashed++
	}

	s.log.Info("Password rehash finished", map[string]interface{}{
		"hashed":  report.Hashed,
		"skipped": report.Skipped,
		"failed":  len(report.Failed),
	})
	return report, nil
}

// HashPassword hashes a plain-text password with bcrypt at cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword compares a plain-text password with a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsHash reports whether s is a bcrypt hash.
func IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
