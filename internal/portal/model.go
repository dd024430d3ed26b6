package portal

import (
	"context"

	"github.com/fatali-fataliyev/banking_portal/internal/notification"
)

type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Update(ctx context.Context, key string, fn func(current string, found bool) (string, error)) error
}

// BankClient is the per-token view of the bank backend.
type BankClient interface {
	notification.TransactionFeed
	notification.AccountResolver
}

// ClientFactory builds a BankClient that authenticates with token.
type ClientFactory func(token string) BankClient

func UnreadCountKey(accountNumber string) string {
	return "unreadNotificationCount_" + accountNumber
}

func BalanceVisibleKey(accountNumber string) string {
	return "balanceVisible_" + accountNumber
}
