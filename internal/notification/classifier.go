package notification

import (
	"fmt"
	"strings"

	"github.com/fatali-fataliyev/banking_portal/internal/money"
)

type Classification struct {
	Category Category
	Title    string
	Message  string
}

type transactionKind int

const (
	kindUnknown transactionKind = iota
	kindDeposit
	kindWithdrawal
	kindTransfer
)

var kindAliases = map[string]transactionKind{
	"deposit":         kindDeposit,
	"cash_deposit":    kindDeposit,
	"withdrawal":      kindWithdrawal,
	"cash_withdrawal": kindWithdrawal,
	"transfer":        kindTransfer,
	"cash_transfer":   kindTransfer,
	"fund_transfer":   kindTransfer,
	"fund transfer":   kindTransfer,
}

type Classifier struct {
	formatter money.Formatter
}

func NewClassifier(formatter money.Formatter) *Classifier {
	return &Classifier{formatter: formatter}
}

// Classify describes tx from the viewer's side. Transfers need a resolved viewer
// account: without one their direction is unknown and they fall back to OTHER.
func (c *Classifier) Classify(tx RawTransaction, viewerAccountNumber string) Classification {
	amount := c.formatter.Format(tx.Amount())

	switch kindAliases[strings.ToLower(strings.TrimSpace(tx.Type()))] {
	case kindDeposit:
		return Classification{
			Category: CategoryDeposit,
			Title:    "Deposit successful",
			Message:  fmt.Sprintf("You deposited %s into your account", amount),
		}
	case kindWithdrawal:
		return Classification{
			Category: CategoryWithdrawal,
			Title:    "Withdrawal successful",
			Message:  fmt.Sprintf("You withdrew %s from your account", amount),
		}
	case kindTransfer:
		if viewerAccountNumber == "" {
			return other(amount)
		}
		if tx.SourceAccount() == viewerAccountNumber {
			return Classification{
				Category: CategoryTransferOut,
				Title:    "Transfer sent",
				Message:  fmt.Sprintf("You transferred %s to account %s", amount, tx.TargetAccount()),
			}
		}
		return Classification{
			Category: CategoryTransferIn,
			Title:    "Transfer received",
			Message:  fmt.Sprintf("You received %s from account %s", amount, tx.SourceAccount()),
		}
	}
	return other(amount)
}

func other(amount string) Classification {
	return Classification{
		Category: CategoryOther,
		Title:    "New transaction",
		Message:  fmt.Sprintf("Transaction of %s", amount),
	}
}
