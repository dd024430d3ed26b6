package spending

import (
	"testing"

	"github.com/fatali-fataliyev/banking_portal/internal/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestEvaluate(t *testing.T) {
	formatter := money.NewVNDFormatter()

	tests := []struct {
		name       string
		limits     *Limits
		current    *Spending
		amount     decimal.Decimal
		wantPeriod Period
		wantMsg    string
	}{
		{
			name:       "missing limits never block",
			limits:     nil,
			current:    &Spending{Weekly: d(900_000)},
			amount:     d(10_000_000),
			wantPeriod: PeriodNone,
		},
		{
			name:       "missing spending never blocks",
			limits:     &Limits{Weekly: d(1)},
			current:    nil,
			amount:     d(10_000_000),
			wantPeriod: PeriodNone,
		},
		{
			name:       "weekly exceeded",
			limits:     &Limits{Weekly: d(1_000_000)},
			current:    &Spending{Weekly: d(900_000)},
			amount:     d(200_000),
			wantPeriod: PeriodWeekly,
			wantMsg:    "Weekly spending would exceed the limit of 1.000.000 ₫ (900.000 ₫ + 200.000 ₫). Do you want to continue?",
		},
		{
			name:       "exactly at the limit is allowed",
			limits:     &Limits{Weekly: d(1_000_000)},
			current:    &Spending{Weekly: d(800_000)},
			amount:     d(200_000),
			wantPeriod: PeriodNone,
		},
		{
			name:       "weekly wins over monthly",
			limits:     &Limits{Weekly: d(1_000_000), Monthly: d(2_000_000)},
			current:    &Spending{Weekly: d(900_000), Monthly: d(1_900_000)},
			amount:     d(200_000),
			wantPeriod: PeriodWeekly,
		},
		{
			name:       "monthly disabled by zero",
			limits:     &Limits{Monthly: decimal.Zero},
			current:    &Spending{Monthly: d(999_999_999)},
			amount:     d(999_999_999),
			wantPeriod: PeriodNone,
		},
		{
			name:       "monthly checked when weekly disabled",
			limits:     &Limits{Monthly: d(5_000_000)},
			current:    &Spending{Weekly: d(100), Monthly: d(4_900_000)},
			amount:     d(200_000),
			wantPeriod: PeriodMonthly,
			wantMsg:    "Monthly spending would exceed the limit of 5.000.000 ₫ (4.900.000 ₫ + 200.000 ₫). Do you want to continue?",
		},
		{
			name:       "yearly last",
			limits:     &Limits{Weekly: d(1_000_000), Monthly: d(3_000_000), Yearly: d(10_000_000)},
			current:    &Spending{Weekly: d(0), Monthly: d(0), Yearly: d(9_900_000)},
			amount:     d(200_000),
			wantPeriod: PeriodYearly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.limits, tt.current, tt.amount, formatter)

			require.Equal(t, tt.wantPeriod, got.Period)
			require.Equal(t, tt.wantPeriod != PeriodNone, got.IsExceeded)
			if tt.wantPeriod == PeriodNone {
				require.Empty(t, got.Message)
			}
			if tt.wantMsg != "" {
				require.Equal(t, tt.wantMsg, got.Message)
			}
		})
	}
}
