package extraction

import (
	"strings"

	"github.com/shopspring/decimal"

	"scholar-score/formulas"
)

// numberCleaner strips thousands separators, currency symbols, percent and plus signs,
// whitespace, and normalizes the Unicode minus sign used by some PDF exports.
var numberCleaner = strings.NewReplacer(
	",", "",
	"%", "",
	"+", "",
	"$", "",
	"\u20ac", "",
	"\u00a3", "",
	" ", "",
	"\u00a0", "",
	"\t", "",
	"\u2212", "-",
)

// ParseNumber parses a report number such as "+4,500.00", "12.3%", "$1,234.50",
// "(120.50)" or "−310.5". Accounting parentheses mean a negative value.
// Returns nil when the text holds no number.
func ParseNumber(text string) *float64 {
	cleaned := numberCleaner.Replace(strings.TrimSpace(text))
	cleaned = strings.TrimSuffix(cleaned, ".")

	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.TrimLeft(cleaned[1:len(cleaned)-1], "-")
	}

	switch {
	case strings.HasPrefix(cleaned, "-."):
		cleaned = "-0" + cleaned[1:]
	case strings.HasPrefix(cleaned, "."):
		cleaned = "0" + cleaned
	}

	if cleaned == "" || cleaned == "-" {
		return nil
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}

	v := d.InexactFloat64()
	if !formulas.Finite(v) {
		return nil
	}
	return &v
}

// negative forces a stated loss to be signed negative.
func negative(v *float64) *float64 {
	if v == nil {
		return nil
	}
	n := -abs(*v)
	return &n
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
