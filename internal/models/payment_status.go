package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentStatus is the payment state of a single tax object.
type PaymentStatus string

const (
	StatusUnpaid PaymentStatus = "unpaid"
	StatusPaid   PaymentStatus = "paid"
)

// ParsePaymentStatus converts a stored or submitted value into a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPaid:
		return StatusPaid, nil
	case StatusUnpaid:
		return StatusUnpaid, nil
	default:
		return "", fmt.Errorf("invalid payment status %q", s)
	}
}

// IsPaid reports whether the status is paid.
func (s PaymentStatus) IsPaid() bool {
	return s == StatusPaid
}

// Flip returns the opposite status.
func (s PaymentStatus) Flip() PaymentStatus {
	if s == StatusPaid {
		return StatusUnpaid
	}
	return StatusPaid
}

// Scan implements sql.Scanner for reading the status column.
func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = StatusUnpaid
		return nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("failed to scan PaymentStatus: expected string, got %T", value)
	}

	parsed, err := ParsePaymentStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer for writing the status column.
func (s PaymentStatus) Value() (driver.Value, error) {
	if s == "" {
		return string(StatusUnpaid), nil
	}
	if s != StatusPaid && s != StatusUnpaid {
		return nil, fmt.Errorf("invalid payment status %q", string(s))
	}
	return string(s), nil
}

// MarshalJSON implements json.Marshaler. An empty status renders as unpaid.
func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal(string(StatusUnpaid))
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler and rejects unknown values.
func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal payment status: %w", err)
	}

	parsed, err := ParsePaymentStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
