package spending

import (
	"fmt"

	"github.com/fatali-fataliyev/banking_portal/internal/money"
	"github.com/shopspring/decimal"
)

var noDecision = Decision{IsExceeded: false, Period: PeriodNone, Message: ""}

type periodCheck struct {
	period  Period
	label   string
	limit   decimal.Decimal
	current decimal.Decimal
}

// Evaluate reports the first active period (weekly, monthly, yearly) whose cap the
// amount would push past. Missing limits or spending never block.
func Evaluate(limits *Limits, current *Spending, amount decimal.Decimal, f money.Formatter) Decision {
	if limits == nil || current == nil {
		return noDecision
	}

	checks := []periodCheck{
		{PeriodWeekly, "Weekly", limits.Weekly, current.Weekly},
		{PeriodMonthly, "Monthly", limits.Monthly, current.Monthly},
		{PeriodYearly, "Yearly", limits.Yearly, current.Yearly},
	}

	for _, c := range checks {
		if !c.limit.IsPositive() {
			continue
		}
		if c.current.Add(amount).GreaterThan(c.limit) {
			return Decision{
				IsExceeded: true,
				Period:     c.period,
				Message: fmt.Sprintf("%s spending would exceed the limit of %s (%s + %s). Do you want to continue?",
					c.label, f.Format(c.limit), f.Format(c.current), f.Format(amount)),
			}
		}
	}
	return noDecision
}
