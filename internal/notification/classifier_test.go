package notification

import (
	"testing"

	"github.com/fatali-fataliyev/banking_portal/internal/money"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	classifier := NewClassifier(money.NewVNDFormatter())
	viewer := "1000123"

	tests := []struct {
		name        string
		tx          RawTransaction
		viewer      string
		want        Category
		wantMessage string
	}{
		{
			name:        "deposit",
			tx:          RawTransaction{"transactionType": "CASH_DEPOSIT", "amount": 500000.0},
			viewer:      viewer,
			want:        CategoryDeposit,
			wantMessage: "You deposited 500.000 ₫ into your account",
		},
		{
			name:   "withdrawal via type alias",
			tx:     RawTransaction{"type": "Withdrawal", "amount": 100000.0},
			viewer: viewer,
			want:   CategoryWithdrawal,
		},
		{
			name:   "deposit ignores viewer",
			tx:     RawTransaction{"type": "deposit", "amount": 1.0},
			viewer: "",
			want:   CategoryDeposit,
		},
		{
			name: "outgoing transfer",
			tx: RawTransaction{
				"transactionType":     "fund_transfer",
				"amount":              250000.0,
				"sourceAccountNumber": viewer,
				"targetAccountNumber": "2000456",
			},
			viewer:      viewer,
			want:        CategoryTransferOut,
			wantMessage: "You transferred 250.000 ₫ to account 2000456",
		},
		{
			name: "incoming transfer",
			tx: RawTransaction{
				"transactionType":     "Fund Transfer",
				"amount":              250000.0,
				"sourceAccountNumber": "2000456",
				"targetAccountNumber": viewer,
			},
			viewer:      viewer,
			want:        CategoryTransferIn,
			wantMessage: "You received 250.000 ₫ from account 2000456",
		},
		{
			name: "transfer seen by the other party",
			tx: RawTransaction{
				"transactionType":     "cash_transfer",
				"amount":              250000.0,
				"sourceAccountNumber": viewer,
				"targetAccountNumber": "2000456",
			},
			viewer: "2000456",
			want:   CategoryTransferIn,
		},
		{
			name: "transfer without viewer",
			tx: RawTransaction{
				"transactionType":     "transfer",
				"amount":              250000.0,
				"sourceAccountNumber": viewer,
			},
			viewer: "",
			want:   CategoryOther,
		},
		{
			name:        "unknown type",
			tx:          RawTransaction{"transactionType": "interest_payment", "amount": "1200"},
			viewer:      viewer,
			want:        CategoryOther,
			wantMessage: "Transaction of 1.200 ₫",
		},
		{
			name:   "missing type",
			tx:     RawTransaction{},
			viewer: viewer,
			want:   CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.tx, tt.viewer)
			require.Equal(t, tt.want, got.Category)
			require.NotEmpty(t, got.Title)
			if tt.wantMessage != "" {
				require.Equal(t, tt.wantMessage, got.Message)
			}
		})
	}
}
