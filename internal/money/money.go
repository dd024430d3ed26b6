// Package money formats currency amounts for user-facing messages.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const VNDSymbol = "₫"

type Formatter interface {
	Format(amount decimal.Decimal) string
}

// VNDFormatter renders Vietnamese dong: rounded to whole units, Vietnamese digit
// grouping, symbol appended ("1.000.000 ₫").
type VNDFormatter struct {
	printer *message.Printer
}

func NewVNDFormatter() *VNDFormatter {
	return &VNDFormatter{printer: message.NewPrinter(language.Vietnamese)}
}

func (f *VNDFormatter) Format(amount decimal.Decimal) string {
	whole := amount.Round(0).IntPart()
	return f.printer.Sprintf("%d", whole) + " " + VNDSymbol
}

// FromAny converts a decoded JSON amount (number or numeric string) into a decimal.
func FromAny(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case int32:
		return decimal.NewFromInt32(n), true
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case interface{ String() string }:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}
