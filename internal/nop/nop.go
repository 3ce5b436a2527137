// Package nop normalizes tax object identifiers (Nomor Objek Pajak).
//
// A canonical NOP is an 18-digit code. Officers may type a 1 to 4 digit
// short code during data entry, which expands with a fixed regional prefix
// and check suffix.
package nop

import (
	"fmt"
	"strings"
)

const (
	// CanonicalLength is the digit count of a full NOP.
	CanonicalLength = 18
	// PrefixLength is the digit count of the regional prefix.
	PrefixLength = 13
	// MaxShortLength is the longest digit string treated as a short code.
	MaxShortLength = 4

	DefaultPrefix = "3205130005000"
	DefaultSuffix = "7"
)

// Expander expands short codes into canonical NOPs.
type Expander struct {
	prefix string
	suffix string
}

// NewExpander validates prefix and suffix and returns an Expander.
func NewExpander(prefix, suffix string) (Expander, error) {
	if len(prefix) != PrefixLength || Clean(prefix) != prefix {
		return Expander{}, fmt.Errorf("nop prefix must be %d digits, got %q", PrefixLength, prefix)
	}
	if len(suffix) != 1 || Clean(suffix) != suffix {
		return Expander{}, fmt.Errorf("nop suffix must be a single digit, got %q", suffix)
	}
	return Expander{prefix: prefix, suffix: suffix}, nil
}

// Default returns the expander for the village's own region.
func Default() Expander {
	return Expander{prefix: DefaultPrefix, suffix: DefaultSuffix}
}

// Expand strips non-digits from raw and expands 1 to 4 digit short codes.
// Longer digit strings are returned unchanged. An input without digits
// yields "".
func (e Expander) Expand(raw string) string {
	digits := Clean(raw)
	if IsShort(digits) {
		return e.prefix + digits + e.suffix
	}
	return digits
}

// Clean removes every non-digit character.
func Clean(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// IsShort reports whether digits is a short code.
func IsShort(digits string) bool {
	return len(digits) >= 1 && len(digits) <= MaxShortLength
}

// Format renders an 18-digit NOP as 32.05.130.005.000-0001.7.
// Other lengths are returned as given.
func Format(nop string) string {
	if len(nop) != CanonicalLength || Clean(nop) != nop {
		return nop
	}
	return fmt.Sprintf("%s.%s.%s.%s.%s-%s.%s",
		nop[0:2], nop[2:4], nop[4:7], nop[7:10], nop[10:13], nop[13:17], nop[17:18])
}
