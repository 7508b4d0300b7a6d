package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/period"
	"github.com/dvloznov/finance-insights/internal/store/inmemory"
)

type brokenGoals struct {
	*inmemory.Store
}

func (brokenGoals) ListGoals(context.Context, string) ([]domain.SavingsGoal, error) {
	return nil, errors.New("goals table missing")
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	mem := inmemory.NewStore()
	_ = mem.InsertTransactions(ctx, []domain.Transaction{
		{UserID: "u1", Type: domain.TransactionExpense, Amount: 1000, Category: "Rent", Date: day("2024-01-15")},
		{UserID: "u1", Type: domain.TransactionIncome, Amount: 1500, Category: "Salary", Date: day("2024-01-01")},
		{UserID: "u2", Type: domain.TransactionIncome, Amount: 9999, Category: "Salary", Date: day("2024-01-02")},
	})
	_ = mem.InsertBudgets(ctx, []domain.Budget{{UserID: "u1", Category: "Rent", Allocated: 1200, Spent: 1000}})

	svc := NewService(mem)
	sum, err := svc.Summarize(ctx, "u1", Selection{
		Period: period.Month,
		AsOf:   time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if sum.Windowed.Income.Current != 1500 || sum.Windowed.Expenses.Current != 1000 || sum.Windowed.Balance.Current != 500 {
		t.Errorf("windowed = %+v", sum.Windowed)
	}
	if sum.PointInTime.TotalBudget != 1200 {
		t.Errorf("TotalBudget = %v, want 1200", sum.PointInTime.TotalBudget)
	}
}

func TestSummarize_Errors(t *testing.T) {
	ctx := context.Background()
	mem := inmemory.NewStore()

	if _, err := NewService(mem).Summarize(ctx, "", Selection{}); !errors.Is(err, ErrNoUser) {
		t.Errorf("Summarize() without user error = %v, want ErrNoUser", err)
	}
	if _, err := NewService(brokenGoals{mem}).Summarize(ctx, "u1", Selection{}); err == nil {
		t.Error("expected fetch error to propagate")
	}
}
