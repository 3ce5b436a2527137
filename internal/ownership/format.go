package ownership

import (
	"strings"

	"github.com/pesafrisma19/pbbkemang/internal/nop"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WhatsAppLink builds a wa.me link from a local or international phone
// number. A leading 0 is replaced by the Indonesian country code.
func WhatsAppLink(phone string) string {
	digits := nop.Clean(phone)
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	return "https://wa.me/" + digits
}

// Rupiah formats an amount with Indonesian digit grouping, e.g. "Rp 50.000".
func Rupiah(amount int64) string {
	return message.NewPrinter(language.Indonesian).Sprintf("Rp %d", amount)
}
