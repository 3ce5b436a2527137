package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Taxpayer is a person or household unit liable for one or more tax objects.
// Nullable columns use pointers to distinguish empty values from NULL.
type Taxpayer struct {
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	NIK        *string     `json:"nik,omitempty"`
	WhatsApp   *string     `json:"whatsapp,omitempty"`
	GroupID    *string     `json:"group_id,omitempty"`
	RT         *string     `json:"rt,omitempty"`
	RW         *string     `json:"rw,omitempty"`
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	TaxObjects []TaxObject `json:"tax_objects"`
	ID         uuid.UUID   `json:"id"`
}

// Group returns the trimmed group identifier, or "" when ungrouped.
func (t *Taxpayer) Group() string {
	if t.GroupID == nil {
		return ""
	}
	return strings.TrimSpace(*t.GroupID)
}

// FullyPaid reports whether the taxpayer owns at least one tax object
// and every one of them is paid.
func (t *Taxpayer) FullyPaid() bool {
	if len(t.TaxObjects) == 0 {
		return false
	}
	for i := range t.TaxObjects {
		if !t.TaxObjects[i].Status.IsPaid() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the taxpayer and its tax objects.
func (t Taxpayer) Clone() Taxpayer {
	out := t
	out.NIK = cloneString(t.NIK)
	out.WhatsApp = cloneString(t.WhatsApp)
	out.GroupID = cloneString(t.GroupID)
	out.RT = cloneString(t.RT)
	out.RW = cloneString(t.RW)
	if t.TaxObjects != nil {
		out.TaxObjects = make([]TaxObject, len(t.TaxObjects))
		for i := range t.TaxObjects {
			out.TaxObjects[i] = t.TaxObjects[i].Clone()
		}
	}
	return out
}

// NewTaxpayer holds the fields needed to create a taxpayer.
type NewTaxpayer struct {
	NIK      *string
	WhatsApp *string
	GroupID  *string
	RT       *string
	RW       *string
	Name     string
	Address  string
}

// OptionalString trims s and returns nil when the result is empty or "-".
func OptionalString(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "-" {
		return nil
	}
	return &trimmed
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
