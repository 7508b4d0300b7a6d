package stats

import (
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-insights/internal/change"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/period"
)

func day(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func income(date string, amount float64) domain.Transaction {
	return domain.Transaction{Type: domain.TransactionIncome, Amount: amount, Category: "salary", Date: day(date)}
}

func expense(date, category string, amount float64) domain.Transaction {
	return domain.Transaction{Type: domain.TransactionExpense, Amount: amount, Category: category, Date: day(date)}
}

func TestComputeMonthScenario(t *testing.T) {
	in := Inputs{
		Transactions: []domain.Transaction{
			expense("2024-01-15", "rent", 1000),
			income("2024-01-01", 1500),
		},
	}

	s := Compute(in, Selection{Period: period.Month, AsOf: at("2024-01-20T12:00:00Z")})

	if s.Windowed.Income.Current != 1500 {
		t.Errorf("current income = %v, want 1500", s.Windowed.Income.Current)
	}
	if s.Windowed.Expenses.Current != 1000 {
		t.Errorf("current expenses = %v, want 1000", s.Windowed.Expenses.Current)
	}
	if s.Windowed.Balance.Current != 500 {
		t.Errorf("balance = %v, want 500", s.Windowed.Balance.Current)
	}
	if s.Windowed.Income.Change.Text != "+100%" {
		t.Errorf("income change = %q, want +100%% against empty previous window", s.Windowed.Income.Change.Text)
	}
	if s.Period != period.Month {
		t.Errorf("period = %q, want month", s.Period)
	}
}

func TestComputePartitionsWindows(t *testing.T) {
	in := Inputs{
		Transactions: []domain.Transaction{
			income("2024-03-01", 2000),
			expense("2024-03-31", "food", 300),
			expense("2024-03-10", "rent", 900),
			income("2024-02-01", 2000),
			expense("2024-02-29", "food", 400),
			expense("2024-01-31", "food", 9999), // outside both windows
			income("2024-04-01", 9999),          // outside both windows
		},
	}

	s := Compute(in, Selection{Period: period.Month, AsOf: at("2024-03-15T09:00:00Z")})
	w := s.Windowed

	if w.Income.Current != 2000 || w.Income.Previous != 2000 {
		t.Errorf("income = %v/%v, want 2000/2000", w.Income.Current, w.Income.Previous)
	}
	if w.Income.Change.Type != change.Neutral {
		t.Errorf("income change = %+v, want neutral", w.Income.Change)
	}
	if w.Expenses.Current != 1200 || w.Expenses.Previous != 400 {
		t.Errorf("expenses = %v/%v, want 1200/400", w.Expenses.Current, w.Expenses.Previous)
	}
	if w.Expenses.Change.Text != "+200%" {
		t.Errorf("expenses change = %q, want +200%%", w.Expenses.Change.Text)
	}
	if w.Balance.Current != 800 || w.Balance.Previous != 1600 {
		t.Errorf("balance = %v/%v, want 800/1600", w.Balance.Current, w.Balance.Previous)
	}
	if w.Balance.Change.Text != "-50%" || w.Balance.Change.Type != change.Negative {
		t.Errorf("balance change = %+v, want -50%% negative", w.Balance.Change)
	}
	if w.CurrentCount != 3 || w.PreviousCount != 2 {
		t.Errorf("counts = %d/%d, want 3/2", w.CurrentCount, w.PreviousCount)
	}

	wantCategories := []CategoryTotal{
		{Category: "rent", Amount: 900, Share: 75, Count: 1},
		{Category: "food", Amount: 300, Share: 25, Count: 1},
	}
	if !reflect.DeepEqual(w.ExpensesByCategory, wantCategories) {
		t.Errorf("categories = %+v, want %+v", w.ExpensesByCategory, wantCategories)
	}
}

func TestComputeContributionsWindowed(t *testing.T) {
	in := Inputs{
		Contributions: []domain.GoalContribution{
			{GoalID: "g1", AddedAmount: 100, AddedBy: domain.AddedByUser, RecordedAt: at("2024-03-02T10:00:00Z")},
			{GoalID: "g1", AddedAmount: 50, AddedBy: domain.AddedByAI, RecordedAt: at("2024-03-31T23:30:00Z")},
			{GoalID: "g2", AddedAmount: 75, AddedBy: domain.AddedByUser, RecordedAt: at("2024-02-14T08:00:00Z")},
			{GoalID: "g2", AddedAmount: 0, AddedBy: domain.AddedByUser, RecordedAt: at("2024-03-05T08:00:00Z")},
		},
	}

	s := Compute(in, Selection{Period: period.Month, AsOf: at("2024-03-15T09:00:00Z")})
	c := s.Windowed.Contributions

	if c.Current != 150 || c.Previous != 75 {
		t.Errorf("contributions = %v/%v, want 150/75", c.Current, c.Previous)
	}
	if c.Change.Text != "+100%" {
		t.Errorf("contributions change = %q, want +100%%", c.Change.Text)
	}
}

func TestComputePointInTimeIgnoresWindow(t *testing.T) {
	in := Inputs{
		Goals: []domain.SavingsGoal{
			{ID: "g1", TargetAmount: 1000, CurrentAmount: 400, Status: domain.GoalActive},
			{ID: "g2", TargetAmount: 500, CurrentAmount: 500, Status: domain.GoalCompleted},
			{ID: "g3", TargetAmount: 2000, CurrentAmount: 250, Status: domain.GoalActive},
		},
		Budgets: []domain.Budget{
			{ID: "b1", Category: "food", Allocated: 300, Spent: 150},
			{ID: "b2", Category: "fun", Allocated: 100, Spent: 150},
		},
	}

	for _, p := range []period.Period{period.Week, period.Month, period.Semester, period.Year} {
		s := Compute(in, Selection{Period: p, AsOf: at("2024-06-01T00:00:00Z")})
		pt := s.PointInTime
		if pt.TotalSavings != 650 {
			t.Errorf("%s: total savings = %v, want 650", p, pt.TotalSavings)
		}
		if pt.TotalBudget != 400 || pt.TotalSpent != 300 {
			t.Errorf("%s: budget = %v/%v, want 400/300", p, pt.TotalBudget, pt.TotalSpent)
		}
		if pt.BudgetUsed != 75 {
			t.Errorf("%s: budget used = %v, want 75", p, pt.BudgetUsed)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(Inputs{}, Selection{Period: period.Year, AsOf: at("2024-06-01T00:00:00Z")})

	for name, m := range map[string]Metric{
		"income":        s.Windowed.Income,
		"expenses":      s.Windowed.Expenses,
		"balance":       s.Windowed.Balance,
		"contributions": s.Windowed.Contributions,
	} {
		if m.Current != 0 || m.Previous != 0 {
			t.Errorf("%s = %v/%v, want zeros", name, m.Current, m.Previous)
		}
		if m.Change.Type != change.Neutral || m.Change.Text != change.NoChangeText {
			t.Errorf("%s change = %+v, want neutral", name, m.Change)
		}
	}
	if s.PointInTime != (PointInTime{}) {
		t.Errorf("point in time = %+v, want zeros", s.PointInTime)
	}
	if len(s.Windowed.ExpensesByCategory) != 0 {
		t.Errorf("categories = %+v, want none", s.Windowed.ExpensesByCategory)
	}
}

func TestComputeCustomRangeWins(t *testing.T) {
	custom := period.Custom(at("2024-01-10T00:00:00Z"), at("2024-01-19T00:00:00Z"))
	in := Inputs{
		Transactions: []domain.Transaction{
			income("2024-01-10", 100),
			income("2024-01-19", 100),
			income("2024-01-20", 5000),
			income("2024-01-05", 50),
			income("2023-12-31", 50),
			income("2023-12-30", 5000),
		},
	}

	s := Compute(in, Selection{Period: period.Year, Custom: &custom, AsOf: at("2024-06-01T00:00:00Z")})

	if s.Period != "" {
		t.Errorf("period = %q, want empty for custom range", s.Period)
	}
	if s.Windowed.Income.Current != 200 || s.Windowed.Income.Previous != 100 {
		t.Errorf("income = %v/%v, want 200/100", s.Windowed.Income.Current, s.Windowed.Income.Previous)
	}
	if got := civil.DateOf(s.PreviousRange.Start); got != day("2023-12-31") {
		t.Errorf("previous start = %v, want 2023-12-31", got)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	in := Inputs{
		Transactions: []domain.Transaction{
			income("2024-05-01", 1234.56),
			expense("2024-05-03", "food", 12.34),
			expense("2024-05-04", "travel", 99.99),
			expense("2024-05-04", "food", 0.1),
			expense("2024-04-20", "food", 0.2),
		},
		Goals:   []domain.SavingsGoal{{ID: "g", TargetAmount: 10, CurrentAmount: 3, Status: domain.GoalActive}},
		Budgets: []domain.Budget{{ID: "b", Allocated: 10, Spent: 3}},
	}
	snapshot := append([]domain.Transaction(nil), in.Transactions...)
	sel := Selection{Period: period.Month, AsOf: at("2024-05-15T00:00:00Z")}

	first := Compute(in, sel)
	second := Compute(in, sel)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Compute differs:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(in.Transactions, snapshot) {
		t.Errorf("Compute mutated its inputs")
	}
}
