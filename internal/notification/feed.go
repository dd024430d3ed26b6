package notification

import "context"

// TransactionFeed supplies the raw transaction history of the signed-in account.
type TransactionFeed interface {
	FetchTransactions(ctx context.Context) ([]RawTransaction, error)
}

// AccountResolver reports the viewer's account number.
type AccountResolver interface {
	ResolveAccountNumber(ctx context.Context) (string, error)
}
