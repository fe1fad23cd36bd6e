package dto

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmountWhole renders an amount as a whole-unit string with thousands
// grouping, no decimal places. The stored amount keeps full precision; this
// is display only.
func FormatAmountWhole(amount decimal.Decimal) string {
	whole := amount.Round(0).StringFixed(0)

	negative := strings.HasPrefix(whole, "-")
	digits := strings.TrimPrefix(whole, "-")

	if len(digits) <= 3 {
		if negative {
			return "-" + digits
		}
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}
