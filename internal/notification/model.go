package notification

import (
	"strconv"
	"strings"
	"time"

	"github.com/fatali-fataliyev/banking_portal/internal/money"
	"github.com/fatali-fataliyev/banking_portal/internal/timestamp"
	"github.com/shopspring/decimal"
)

// MaxNotifications is how many of the most recent transactions are surfaced.
const MaxNotifications = 10

type Category string

const (
	CategoryDeposit     Category = "DEPOSIT"
	CategoryWithdrawal  Category = "WITHDRAWAL"
	CategoryTransferIn  Category = "TRANSFER_IN"
	CategoryTransferOut Category = "TRANSFER_OUT"
	CategoryOther       Category = "OTHER"
)

// RawTransaction is one decoded feed entry. Field names vary between backends,
// so values are read through the alias-tolerant accessors below.
type RawTransaction map[string]any

type Notification struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Message              string          `json:"message"`
	Category             Category        `json:"type"`
	IsRead               bool            `json:"isRead"`
	CreatedAt            time.Time       `json:"createdAt"`
	Amount               decimal.Decimal `json:"amount"`
	RelatedAccountNumber string          `json:"relatedAccountNumber"`
}

type Result struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

func (r Result) IDs() []string {
	ids := make([]string, 0, len(r.Notifications))
	for _, n := range r.Notifications {
		ids = append(ids, n.ID)
	}
	return ids
}

func (tx RawTransaction) ID() (string, bool) {
	return tx.firstString("id", "transactionId", "txId")
}

func (tx RawTransaction) Type() string {
	t, _ := tx.firstString("transactionType", "type")
	return t
}

func (tx RawTransaction) Amount() decimal.Decimal {
	amount, _ := money.FromAny(tx["amount"])
	return amount
}

func (tx RawTransaction) SourceAccount() string {
	s, _ := tx.firstString("sourceAccountNumber")
	return s
}

func (tx RawTransaction) TargetAccount() string {
	s, _ := tx.firstString("targetAccountNumber")
	return s
}

func (tx RawTransaction) RelatedAccount() string {
	s, _ := tx.firstString("relatedAccountNumber", "targetAccountNumber", "sourceAccountNumber")
	return s
}

func (tx RawTransaction) RawTimestamp() any {
	return timestamp.Extract(tx)
}

// firstString returns the first key holding a non-empty scalar, rendered as a string.
func (tx RawTransaction) firstString(keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := scalarString(tx[key]); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case interface{ String() string }:
		return val.String(), true
	}
	return "", false
}
