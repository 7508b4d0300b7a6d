package pipeline

import (
	"fmt"
	"math"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

// Rejection describes a snapshot record that was not imported.
type Rejection struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (r Rejection) Error() string {
	return fmt.Sprintf("%s[%d] %s: %s", r.Kind, r.Index, r.ID, r.Reason)
}

// validate splits snap into importable records and rejections. It expects
// normalized input.
func validate(snap store.Snapshot) (store.Snapshot, []Rejection) {
	out := store.Snapshot{Notifications: snap.Notifications}
	var rejected []Rejection

	reject := func(kind string, i int, id, reason string) {
		rejected = append(rejected, Rejection{Kind: kind, Index: i, ID: id, Reason: reason})
	}

	seen := make(map[string]bool)
	for i, tx := range snap.Transactions {
		if reason := validateTransaction(tx); reason != "" {
			reject("transaction", i, tx.ID, reason)
			continue
		}
		if seen[tx.ID] {
			reject("transaction", i, tx.ID, "duplicate id")
			continue
		}
		seen[tx.ID] = true
		out.Transactions = append(out.Transactions, tx)
	}

	seen = make(map[string]bool)
	categories := make(map[string]bool)
	for i, b := range snap.Budgets {
		if reason := validateBudget(b); reason != "" {
			reject("budget", i, b.ID, reason)
			continue
		}
		key := categoryKey(b.UserID, b.Category)
		if seen[b.ID] || categories[key] {
			reject("budget", i, b.ID, "duplicate budget")
			continue
		}
		seen[b.ID] = true
		categories[key] = true
		out.Budgets = append(out.Budgets, b)
	}

	seen = make(map[string]bool)
	for i, g := range snap.Goals {
		if reason := validateGoal(g); reason != "" {
			reject("goal", i, g.ID, reason)
			continue
		}
		if seen[g.ID] {
			reject("goal", i, g.ID, "duplicate id")
			continue
		}
		seen[g.ID] = true
		out.Goals = append(out.Goals, g)
	}

	seen = make(map[string]bool)
	for i, c := range snap.Contributions {
		if reason := validateContribution(c); reason != "" {
			reject("contribution", i, c.ID, reason)
			continue
		}
		if seen[c.ID] {
			reject("contribution", i, c.ID, "duplicate id")
			continue
		}
		seen[c.ID] = true
		out.Contributions = append(out.Contributions, c)
	}

	seen = make(map[string]bool)
	for i, sub := range snap.Subscriptions {
		if reason := validateSubscription(sub); reason != "" {
			reject("subscription", i, sub.ID, reason)
			continue
		}
		if seen[sub.ID] {
			reject("subscription", i, sub.ID, "duplicate id")
			continue
		}
		seen[sub.ID] = true
		out.Subscriptions = append(out.Subscriptions, sub)
	}

	return out, rejected
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validateTransaction(tx domain.Transaction) string {
	switch {
	case tx.UserID == "":
		return "missing user_id"
	case tx.Type != domain.TransactionIncome && tx.Type != domain.TransactionExpense:
		return fmt.Sprintf("invalid type %q", tx.Type)
	case !finite(tx.Amount) || tx.Amount <= 0:
		return "amount must be positive"
	case tx.Category == "":
		return "missing category"
	case !tx.Date.IsValid():
		return "invalid date"
	}
	switch tx.Status {
	case "", domain.TransactionActive, domain.TransactionPaused, domain.TransactionCancelled:
		return ""
	default:
		return fmt.Sprintf("invalid status %q", tx.Status)
	}
}

func validateBudget(b domain.Budget) string {
	switch {
	case b.UserID == "":
		return "missing user_id"
	case b.Category == "":
		return "missing category"
	case !finite(b.Allocated) || b.Allocated < 0:
		return "allocated must not be negative"
	case !finite(b.Spent) || b.Spent < 0:
		return "spent must not be negative"
	}
	return ""
}

func validateGoal(g domain.SavingsGoal) string {
	switch {
	case g.UserID == "":
		return "missing user_id"
	case g.Name == "":
		return "missing name"
	case !finite(g.TargetAmount) || g.TargetAmount <= 0:
		return "target_amount must be positive"
	case !finite(g.CurrentAmount) || g.CurrentAmount < 0:
		return "current_amount must not be negative"
	case g.TargetDate != nil && !g.TargetDate.IsValid():
		return "invalid target_date"
	case g.Status != domain.GoalActive && g.Status != domain.GoalCompleted:
		return fmt.Sprintf("invalid status %q", g.Status)
	}
	return ""
}

func validateContribution(c domain.GoalContribution) string {
	switch {
	case c.GoalID == "":
		return "missing goal_id"
	case c.UserID == "":
		return "missing user_id"
	case !finite(c.AddedAmount) || c.AddedAmount == 0:
		return "added_amount must be non-zero"
	case c.RecordedAt.IsZero():
		return "missing recorded_at"
	case c.AddedBy != domain.AddedByUser && c.AddedBy != domain.AddedByAI:
		return fmt.Sprintf("invalid added_by %q", c.AddedBy)
	}
	return ""
}

func validateSubscription(sub domain.Subscription) string {
	switch {
	case sub.UserID == "":
		return "missing user_id"
	case sub.Name == "":
		return "missing name"
	case !finite(sub.Amount) || sub.Amount < 0:
		return "amount must not be negative"
	case sub.Frequency != domain.BillingMonthly && sub.Frequency != domain.BillingYearly:
		return fmt.Sprintf("invalid frequency %q", sub.Frequency)
	case sub.NextBillingDate != nil && !sub.NextBillingDate.IsValid():
		return "invalid next_billing_date"
	case sub.ReminderDate != nil && !sub.ReminderDate.IsValid():
		return "invalid reminder_date"
	}
	switch sub.Status {
	case domain.SubscriptionActive, domain.SubscriptionPaused, domain.SubscriptionCancelled:
		return ""
	default:
		return fmt.Sprintf("invalid status %q", sub.Status)
	}
}
