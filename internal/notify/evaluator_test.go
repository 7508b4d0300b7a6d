package notify

import (
	"math"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

func nan() float64 { return math.NaN() }

func TestEvaluate_NoUser(t *testing.T) {
	e := NewEvaluator(DefaultRules(usd)...)
	snap := Snapshot{Budgets: []domain.Budget{{ID: "b1", Allocated: 100, Spent: 100}}}

	if got := e.Evaluate("", asOf, snap); got != nil {
		t.Errorf("Evaluate() with no user = %+v, want nil", got)
	}
}

func TestEvaluate_BudgetScenario(t *testing.T) {
	e := NewEvaluator(DefaultRules(usd)...)

	got := e.Evaluate("u1", asOf, Snapshot{Budgets: []domain.Budget{
		{ID: "approaching", Category: "Food", Allocated: 200, Spent: 180},
		{ID: "exceeded", Category: "Fun", Allocated: 200, Spent: 200},
	}})

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ReferenceID != "approaching" || got[0].Priority != domain.PriorityHigh {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].ReferenceID != "exceeded" || got[1].Priority != domain.PriorityUrgent {
		t.Errorf("second = %+v", got[1])
	}
}

func TestEvaluate_GoalMilestoneAndAtRiskCoOccur(t *testing.T) {
	e := NewEvaluator(DefaultRules(usd)...)
	goal := domain.SavingsGoal{
		ID: "g1", Name: "Car", TargetAmount: 1000, CurrentAmount: 750,
		TargetDate: datePtr(today.AddDays(20)), Status: domain.GoalActive,
	}

	got := e.Evaluate("u1", asOf, Snapshot{Goals: []domain.SavingsGoal{goal}})

	if len(got) != 2 {
		t.Fatalf("expected milestone and at-risk candidates, got %+v", got)
	}
	if got[0].Type != domain.NotificationGoalMilestone || got[1].Type != domain.NotificationGoalAtRisk {
		t.Errorf("types = %s, %s", got[0].Type, got[1].Type)
	}
	for _, c := range got {
		if c.ReferenceID != "g1" {
			t.Errorf("reference = %q, want g1", c.ReferenceID)
		}
	}
}

func TestEvaluate_NinetyPercentGoalNotAtRisk(t *testing.T) {
	e := NewEvaluator(DefaultRules(usd)...)
	goal := domain.SavingsGoal{
		ID: "g1", Name: "Car", TargetAmount: 1000, CurrentAmount: 950,
		TargetDate: datePtr(today.AddDays(20)), Status: domain.GoalActive,
	}

	got := e.Evaluate("u1", asOf, Snapshot{Goals: []domain.SavingsGoal{goal}})

	if len(got) != 1 || got[0].Type != domain.NotificationGoalMilestone || got[0].Priority != domain.PriorityNormal {
		t.Fatalf("got %+v, want a single 90%% milestone", got)
	}
}

func TestEvaluate_UsesCalendarDayOfAsOf(t *testing.T) {
	e := NewEvaluator(SubscriptionReminderRule{LeadDays: 3, Currency: usd})
	loc := time.FixedZone("UTC-8", -8*3600)
	// 2024-01-21 03:00 UTC is still 2024-01-20 in UTC-8
	late := time.Date(2024, 1, 20, 19, 0, 0, 0, loc)
	sub := domain.Subscription{ID: "s1", Name: "Music", Status: domain.SubscriptionActive, ReminderDate: datePtr(today)}

	got := e.Evaluate("u1", late, Snapshot{Subscriptions: []domain.Subscription{sub}})
	if len(got) != 1 || got[0].Priority != domain.PriorityHigh {
		t.Fatalf("got %+v, want today reminder", got)
	}
}

func TestEvaluate_RuleOrder(t *testing.T) {
	e := NewEvaluator(DefaultRules(usd)...)
	snap := Snapshot{
		Subscriptions: []domain.Subscription{{ID: "s1", Name: "Music", Status: domain.SubscriptionActive, ReminderDate: datePtr(today)}},
		Budgets:       []domain.Budget{{ID: "b1", Category: "Food", Allocated: 100, Spent: 100}},
		Goals:         []domain.SavingsGoal{{ID: "g1", Name: "Trip", TargetAmount: 100, CurrentAmount: 100, Status: domain.GoalActive}},
		RecurringExpenses: []domain.Transaction{{
			ID: "t1", Type: domain.TransactionExpense, Category: "Rent", Date: today,
			IsRecurring: true, Status: domain.TransactionActive,
		}},
	}

	got := e.Evaluate("u1", asOf, snap)
	want := []domain.NotificationType{
		domain.NotificationSubscriptionReminder,
		domain.NotificationBudgetWarning,
		domain.NotificationGoalAchieved,
		domain.NotificationRecurringExpense,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Type != want[i] {
			t.Errorf("candidate %d type = %s, want %s", i, got[i].Type, want[i])
		}
	}
}
