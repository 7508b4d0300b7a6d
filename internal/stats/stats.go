// Package stats reduces a transaction ledger and the current savings and
// budget snapshots into a period summary with period-over-period deltas.
package stats

import (
	"sort"
	"time"

	"github.com/dvloznov/finance-insights/internal/change"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/period"
)

// Inputs is everything the aggregator reads. Nothing in it is modified.
type Inputs struct {
	Transactions  []domain.Transaction
	Goals         []domain.SavingsGoal
	Contributions []domain.GoalContribution
	Budgets       []domain.Budget
}

// Selection picks the reporting window. Custom, when set, takes precedence
// over Period. AsOf is the reference instant for Period.
type Selection struct {
	Period period.Period
	Custom *period.DateRange
	AsOf   time.Time
}

// Metric is one windowed figure with its comparison.
type Metric struct {
	Current  float64       `json:"current"`
	Previous float64       `json:"previous"`
	Change   change.Change `json:"change"`
}

// CategoryTotal is the expense total of one category in the current window.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Share    float64 `json:"share"`
	Count    int     `json:"count"`
}

// Windowed holds figures computed only from records inside the current and
// previous windows.
type Windowed struct {
	Income        Metric `json:"income"`
	Expenses      Metric `json:"expenses"`
	Balance       Metric `json:"balance"`
	Contributions Metric `json:"contributions"`

	CurrentCount  int `json:"current_count"`
	PreviousCount int `json:"previous_count"`

	// ExpensesByCategory is sorted by amount, largest first.
	ExpensesByCategory []CategoryTotal `json:"expenses_by_category"`
}

// PointInTime holds figures computed over the entire current state. They do
// not change with the selected window.
type PointInTime struct {
	TotalSavings float64 `json:"total_savings"`
	TotalBudget  float64 `json:"total_budget"`
	TotalSpent   float64 `json:"total_spent"`

	// BudgetUsed is TotalSpent as a percentage of TotalBudget, zero when
	// nothing is allocated.
	BudgetUsed float64 `json:"budget_used"`
}

// Summary is the result of Compute.
type Summary struct {
	CurrentRange  period.DateRange `json:"current_range"`
	PreviousRange period.DateRange `json:"previous_range"`
	Period        period.Period    `json:"period,omitempty"`

	Windowed    Windowed    `json:"windowed"`
	PointInTime PointInTime `json:"point_in_time"`
}

// Resolve returns the current and previous windows for a selection.
func Resolve(sel Selection) (current, previous period.DateRange) {
	if sel.Custom != nil {
		current = period.Custom(sel.Custom.Start, sel.Custom.End)
		return current, period.PreviousCustom(current)
	}
	return period.RangeFor(sel.Period, sel.AsOf), period.PreviousRangeFor(sel.Period, sel.AsOf)
}

// Compute builds the summary for sel. It is a pure function of its inputs.
func Compute(in Inputs, sel Selection) Summary {
	current, previous := Resolve(sel)

	s := Summary{
		CurrentRange:  current,
		PreviousRange: previous,
	}
	if sel.Custom == nil {
		s.Period = period.Parse(string(sel.Period))
	}

	var cur, prev ledgerTotals
	for _, tx := range in.Transactions {
		switch {
		case period.DateInRange(tx.Date, current):
			cur.add(tx)
		case period.DateInRange(tx.Date, previous):
			prev.add(tx)
		}
	}

	var curContrib, prevContrib float64
	for _, c := range in.Contributions {
		if c.AddedAmount <= 0 {
			continue
		}
		switch {
		case period.InRange(c.RecordedAt, current):
			curContrib += c.AddedAmount
		case period.InRange(c.RecordedAt, previous):
			prevContrib += c.AddedAmount
		}
	}

	s.Windowed = Windowed{
		Income:        metric(cur.income, prev.income),
		Expenses:      metric(cur.expenses, prev.expenses),
		Balance:       metric(cur.income-cur.expenses, prev.income-prev.expenses),
		Contributions: metric(curContrib, prevContrib),

		CurrentCount:       cur.count,
		PreviousCount:      prev.count,
		ExpensesByCategory: cur.categories(),
	}
	s.PointInTime = pointInTime(in.Goals, in.Budgets)

	return s
}

func metric(current, previous float64) Metric {
	return Metric{
		Current:  current,
		Previous: previous,
		Change:   change.Percent(current, previous),
	}
}

func pointInTime(goals []domain.SavingsGoal, budgets []domain.Budget) PointInTime {
	var p PointInTime
	for _, g := range goals {
		if g.IsActive() {
			p.TotalSavings += g.CurrentAmount
		}
	}
	for _, b := range budgets {
		p.TotalBudget += b.Allocated
		p.TotalSpent += b.Spent
	}
	if p.TotalBudget > 0 {
		p.BudgetUsed = p.TotalSpent / p.TotalBudget * 100
	}
	return p
}

type ledgerTotals struct {
	income   float64
	expenses float64
	count    int

	byCategory map[string]*CategoryTotal
}

func (l *ledgerTotals) add(tx domain.Transaction) {
	l.count++
	switch {
	case tx.IsIncome():
		l.income += tx.Amount
	case tx.IsExpense():
		l.expenses += tx.Amount
		if l.byCategory == nil {
			l.byCategory = make(map[string]*CategoryTotal)
		}
		ct, ok := l.byCategory[tx.Category]
		if !ok {
			ct = &CategoryTotal{Category: tx.Category}
			l.byCategory[tx.Category] = ct
		}
		ct.Amount += tx.Amount
		ct.Count++
	}
}

// categories flattens the per-category map into a deterministic order so
// repeated calls produce identical output.
func (l *ledgerTotals) categories() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(l.byCategory))
	for _, ct := range l.byCategory {
		c := *ct
		if l.expenses > 0 {
			c.Share = c.Amount / l.expenses * 100
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}
