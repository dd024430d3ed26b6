package spending

import (
	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
	PeriodNone    Period = "none"
)

// Limits caps spending per period; a zero value disables that period.
type Limits struct {
	Weekly  decimal.Decimal `json:"weekly"`
	Monthly decimal.Decimal `json:"monthly"`
	Yearly  decimal.Decimal `json:"yearly"`
}

// Spending holds what has already been spent in each open period.
type Spending struct {
	Weekly  decimal.Decimal `json:"weekly"`
	Monthly decimal.Decimal `json:"monthly"`
	Yearly  decimal.Decimal `json:"yearly"`
}

type Decision struct {
	IsExceeded bool
	Period     Period
	Message    string
}

func (s Spending) Add(amount decimal.Decimal) Spending {
	return Spending{
		Weekly:  s.Weekly.Add(amount),
		Monthly: s.Monthly.Add(amount),
		Yearly:  s.Yearly.Add(amount),
	}
}
