package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLocation is used when a tax object has no location description.
const DefaultLocation = "Tanah/Bangunan"

// TaxObject is a single land or building parcel record (kikitir) owned by a
// taxpayer. The pair (NOP, TaxpayerID) is unique.
type TaxObject struct {
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	PaidAt       *time.Time    `json:"paid_at,omitempty"`
	OriginalName *string       `json:"original_name,omitempty"`
	Persil       *string       `json:"persil,omitempty"`
	Blok         *string       `json:"blok,omitempty"`
	NOP          string        `json:"nop"`
	LocationName string        `json:"location_name"`
	Status       PaymentStatus `json:"status"`
	AmountDue    int64         `json:"amount_due"`
	Year         int           `json:"year"`
	ID           uuid.UUID     `json:"id"`
	TaxpayerID   uuid.UUID     `json:"taxpayer_id"`
}

// MarkPaid sets the status to paid and stamps the payment time.
func (o *TaxObject) MarkPaid(at time.Time) {
	o.Status = StatusPaid
	o.PaidAt = &at
}

// MarkUnpaid sets the status to unpaid and clears the payment time.
func (o *TaxObject) MarkUnpaid() {
	o.Status = StatusUnpaid
	o.PaidAt = nil
}

// Toggle flips the payment status, stamping at when it becomes paid.
func (o *TaxObject) Toggle(at time.Time) {
	if o.Status.IsPaid() {
		o.MarkUnpaid()
		return
	}
	o.MarkPaid(at)
}

// Clone returns a deep copy of the tax object.
func (o TaxObject) Clone() TaxObject {
	out := o
	if o.PaidAt != nil {
		at := *o.PaidAt
		out.PaidAt = &at
	}
	out.OriginalName = cloneString(o.OriginalName)
	out.Persil = cloneString(o.Persil)
	out.Blok = cloneString(o.Blok)
	return out
}

// TaxObjectUpsert holds the fields written by an upsert keyed on
// (NOP, TaxpayerID). Every other field is replaced on conflict.
type TaxObjectUpsert struct {
	PaidAt       *time.Time
	OriginalName *string
	Persil       *string
	Blok         *string
	NOP          string
	LocationName string
	Status       PaymentStatus
	AmountDue    int64
	Year         int
	TaxpayerID   uuid.UUID
}
