package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestVNDFormatter(t *testing.T) {
	f := NewVNDFormatter()

	tests := []struct {
		name   string
		amount decimal.Decimal
		want   string
	}{
		{"zero", decimal.Zero, "0 ₫"},
		{"small", decimal.NewFromInt(500), "500 ₫"},
		{"grouped", decimal.NewFromInt(1_000_000), "1.000.000 ₫"},
		{"rounded up", decimal.RequireFromString("200000.6"), "200.001 ₫"},
		{"negative", decimal.NewFromInt(-25_000), "-25.000 ₫"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, f.Format(tt.amount))
		})
	}
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   string
		wantOk bool
	}{
		{"float", 1500.5, "1500.5", true},
		{"int", 42, "42", true},
		{"string", "250000", "250000", true},
		{"json number", json.Number("99.9"), "99.9", true},
		{"bad string", "abc", "0", false},
		{"nil", nil, "0", false},
		{"bool", true, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromAny(tt.input)
			require.Equal(t, tt.wantOk, ok)
			require.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}
