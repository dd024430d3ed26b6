package spending

import (
	"context"
	"encoding/json"
	"fmt"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
	"github.com/fatali-fataliyev/banking_portal/internal/contextutil"
	"github.com/fatali-fataliyev/banking_portal/internal/money"
	"github.com/fatali-fataliyev/banking_portal/logging"
	"github.com/shopspring/decimal"
)

type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Update(ctx context.Context, key string, fn func(current string, found bool) (string, error)) error
}

func LimitsKey(accountNumber string) string {
	return "spendingLimits_" + accountNumber
}

func SpendingKey(accountNumber string) string {
	return "currentSpending_" + accountNumber
}

// Guard loads per-account limits and running totals on every check.
type Guard struct {
	store     Store
	formatter money.Formatter
}

func NewGuard(store Store, formatter money.Formatter) *Guard {
	return &Guard{store: store, formatter: formatter}
}

func (g *Guard) Check(ctx context.Context, accountNumber string, amount decimal.Decimal) Decision {
	limits := g.loadLimits(ctx, accountNumber)
	current := g.loadSpending(ctx, accountNumber)
	return Evaluate(limits, current, amount, g.formatter)
}

func (g *Guard) Limits(ctx context.Context, accountNumber string) (Limits, error) {
	if accountNumber == "" {
		return Limits{}, errNoAccount()
	}
	var limits Limits
	if err := g.load(ctx, LimitsKey(accountNumber), &limits); err != nil {
		return Limits{}, err
	}
	return limits, nil
}

func (g *Guard) Spending(ctx context.Context, accountNumber string) (Spending, error) {
	if accountNumber == "" {
		return Spending{}, errNoAccount()
	}
	var current Spending
	if err := g.load(ctx, SpendingKey(accountNumber), &current); err != nil {
		return Spending{}, err
	}
	return current, nil
}

func (g *Guard) SaveLimits(ctx context.Context, accountNumber string, limits Limits) error {
	if accountNumber == "" {
		return errNoAccount()
	}
	if limits.Weekly.IsNegative() || limits.Monthly.IsNegative() || limits.Yearly.IsNegative() {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Spending limits cannot be negative.",
		}
	}

	raw, err := json.Marshal(limits)
	if err != nil {
		return fmt.Errorf("failed to encode spending limits: %w", err)
	}
	if err := g.store.Set(ctx, LimitsKey(accountNumber), string(raw)); err != nil {
		return fmt.Errorf("failed to save spending limits: %w", err)
	}
	return nil
}

// RecordSpending adds a completed transaction to every period's running total.
func (g *Guard) RecordSpending(ctx context.Context, accountNumber string, amount decimal.Decimal) (Spending, error) {
	if accountNumber == "" {
		return Spending{}, errNoAccount()
	}
	if !amount.IsPositive() {
		return Spending{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Spending amount must be greater than zero.",
		}
	}

	var updated Spending
	err := g.store.Update(ctx, SpendingKey(accountNumber), func(current string, found bool) (string, error) {
		var existing Spending
		if found && current != "" {
			if err := json.Unmarshal([]byte(current), &existing); err != nil {
				logging.Logger.Warnf("[TraceID=%s] | corrupt spending data for account %s, starting from zero: %v",
					contextutil.TraceIDFromContext(ctx), accountNumber, err)
				existing = Spending{}
			}
		}
		updated = existing.Add(amount)
		raw, err := json.Marshal(updated)
		if err != nil {
			return "", fmt.Errorf("failed to encode spending: %w", err)
		}
		return string(raw), nil
	})
	if err != nil {
		return Spending{}, fmt.Errorf("failed to record spending: %w", err)
	}
	return updated, nil
}

func (g *Guard) loadLimits(ctx context.Context, accountNumber string) *Limits {
	limits, err := g.Limits(ctx, accountNumber)
	if err != nil {
		g.logUnavailable(ctx, "limits", accountNumber, err)
		return nil
	}
	return &limits
}

func (g *Guard) loadSpending(ctx context.Context, accountNumber string) *Spending {
	current, err := g.Spending(ctx, accountNumber)
	if err != nil {
		g.logUnavailable(ctx, "current spending", accountNumber, err)
		return nil
	}
	return &current
}

// load leaves dst at its zero value when the key is absent.
func (g *Guard) load(ctx context.Context, key string, dst any) error {
	raw, found, err := g.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: fmt.Sprintf("Stored value under %s is corrupt.", key),
		}
	}
	return nil
}

func (g *Guard) logUnavailable(ctx context.Context, what string, accountNumber string, err error) {
	if accountNumber == "" {
		return
	}
	logging.Logger.Warnf("[TraceID=%s] | spending %s unavailable for account %s, not blocking: %v",
		contextutil.TraceIDFromContext(ctx), what, accountNumber, err)
}

func errNoAccount() error {
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrAuth,
		Message: "Account number is not resolved yet.",
	}
}
