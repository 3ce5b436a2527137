package spreadsheet

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/nop"
	"github.com/shopspring/decimal"
)

// Column names of the import template.
const (
	ColName         = "NAMA_WP"
	ColAddress      = "ALAMAT"
	ColNIK          = "NIK"
	ColWhatsApp     = "WHATSAPP"
	ColNOP          = "NOP"
	ColLocation     = "LOKASI_OBJEK"
	ColAmount       = "NOMINAL_PAJAK"
	ColYear         = "TAHUN_PAJAK"
	ColStatus       = "STATUS_BAYAR"
	ColOriginalName = "NAMA_ASAL"
	ColPersil       = "PERSIL"
	ColBlok         = "BLOK"
)

// Columns lists the template columns in order.
var Columns = []string{
	ColName, ColAddress, ColNIK, ColWhatsApp, ColNOP, ColLocation,
	ColAmount, ColYear, ColStatus, ColOriginalName, ColPersil, ColBlok,
}

// paidMarkers are the STATUS_BAYAR values, compared case-insensitively,
// that mark a tax object as paid.
var paidMarkers = map[string]bool{"LUNAS": true, "PAID": true}

// thousands matches Indonesian grouped integers such as 1.250.000.
var thousands = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// Row is a validated import row.
type Row struct {
	NIK          *string
	WhatsApp     *string
	OriginalName *string
	Persil       *string
	Blok         *string
	Name         string
	Address      string
	NOP          string
	Location     string
	Status       models.PaymentStatus
	Amount       int64
	Year         int
	Line         int
}

// RowErrorKind classifies a row validation failure.
type RowErrorKind int

const (
	MissingFields RowErrorKind = iota
	InvalidAmount
)

// RowError is a non-fatal validation failure for a single row.
type RowError struct {
	Missing []string
	Kind    RowErrorKind
	Line    int
}

func (e *RowError) Error() string {
	switch e.Kind {
	case MissingFields:
		return fmt.Sprintf("Baris %d: Data tidak lengkap (%s)", e.Line, strings.Join(e.Missing, ", "))
	default:
		return fmt.Sprintf("Baris %d: Nominal Pajak 0 atau invalid", e.Line)
	}
}

// Parser converts RawRows into Rows.
type Parser struct {
	expander nop.Expander
	now      func() time.Time
}

// NewParser creates a Parser. A nil now uses time.Now.
func NewParser(expander nop.Expander, now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{expander: expander, now: now}
}

// Parse validates raw and converts it into a typed Row.
func (p *Parser) Parse(raw RawRow) (Row, *RowError) {
	name := raw.Get(ColName)
	address := raw.Get(ColAddress)
	nopDigits := p.expander.Expand(raw.Get(ColNOP))
	amountRaw := raw.Get(ColAmount)

	var missing []string
	if name == "" {
		missing = append(missing, ColName)
	}
	if address == "" {
		missing = append(missing, ColAddress)
	}
	if nopDigits == "" {
		missing = append(missing, ColNOP)
	}
	if amountRaw == "" {
		missing = append(missing, ColAmount)
	}
	if len(missing) > 0 {
		return Row{}, &RowError{Kind: MissingFields, Missing: missing, Line: raw.Line}
	}

	amount, ok := ParseAmount(amountRaw)
	if !ok || amount <= 0 {
		return Row{}, &RowError{Kind: InvalidAmount, Line: raw.Line}
	}

	now := p.now()
	year := now.Year()
	if y, ok := parseYear(raw.Get(ColYear)); ok {
		year = y
	}

	status := models.StatusUnpaid
	if paidMarkers[strings.ToUpper(raw.Get(ColStatus))] {
		status = models.StatusPaid
	}

	location := raw.Get(ColLocation)
	if location == "" {
		location = models.DefaultLocation
	}

	return Row{
		Line:         raw.Line,
		Name:         name,
		Address:      address,
		NIK:          models.OptionalString(raw.Get(ColNIK)),
		WhatsApp:     models.OptionalString(nop.Clean(raw.Get(ColWhatsApp))),
		NOP:          nopDigits,
		Location:     location,
		Amount:       amount,
		Year:         year,
		Status:       status,
		OriginalName: models.OptionalString(raw.Get(ColOriginalName)),
		Persil:       models.OptionalString(raw.Get(ColPersil)),
		Blok:         models.OptionalString(raw.Get(ColBlok)),
	}, nil
}

// ParseAmount parses a rupiah amount cell. It accepts plain numbers,
// decimals rounded to whole rupiah, an optional "Rp" prefix and
// dot-grouped thousands.
func ParseAmount(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "RP")
	s = strings.ReplaceAll(s, " ", "")
	if thousands.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.Round(0).IntPart(), true
}

func parseYear(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	y := int(d.IntPart())
	if y <= 0 {
		return 0, false
	}
	return y, true
}
