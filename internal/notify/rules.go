package notify

import (
	"fmt"
	"math"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/money"
)

// Snapshot is the pre-fetched data rules evaluate. A nil collection is
// treated the same as an empty one.
type Snapshot struct {
	Subscriptions     []domain.Subscription
	Budgets           []domain.Budget
	Goals             []domain.SavingsGoal
	RecurringExpenses []domain.Transaction
}

// Rule turns a snapshot into alert candidates. Rules are stateless and
// independent; each one may emit several candidates per entity.
type Rule interface {
	Name() string
	Evaluate(snap Snapshot, today civil.Date) []domain.Candidate
}

// Defaults used by DefaultRules.
const (
	ReminderLeadDays     = 3
	BudgetWarnPercent    = 80.0
	BudgetExceedPercent  = 100.0
	GoalAchievedPercent  = 100.0
	GoalNearPercent      = 90.0
	GoalProgressPercent  = 75.0
	GoalAtRiskWindowDays = 30
	GoalAtRiskPercent    = 80.0
	RecurringLeadDays    = 3
)

// DefaultRules returns the standard rule set with amounts formatted in cur.
func DefaultRules(cur money.Currency) []Rule {
	return []Rule{
		SubscriptionReminderRule{LeadDays: ReminderLeadDays, Currency: cur},
		BudgetWarningRule{WarnPercent: BudgetWarnPercent, ExceedPercent: BudgetExceedPercent, Currency: cur},
		GoalProgressRule{Currency: cur},
		GoalAtRiskRule{WindowDays: GoalAtRiskWindowDays, BelowPercent: GoalAtRiskPercent, Currency: cur},
		RecurringExpenseRule{LeadDays: RecurringLeadDays, Currency: cur},
	}
}

// SubscriptionReminderRule alerts when an active subscription's reminder
// date is at most LeadDays ahead, including reminders already past.
type SubscriptionReminderRule struct {
	LeadDays int
	Currency money.Currency
}

func (SubscriptionReminderRule) Name() string { return "subscription_reminder" }

func (r SubscriptionReminderRule) Evaluate(snap Snapshot, today civil.Date) []domain.Candidate {
	var out []domain.Candidate
	for _, sub := range snap.Subscriptions {
		if !sub.IsActive() || sub.ReminderDate == nil {
			continue
		}
		days := sub.ReminderDate.DaysSince(today)
		if days > r.LeadDays {
			continue
		}

		priority := domain.PriorityNormal
		var title string
		switch {
		case days < 0:
			priority = domain.PriorityHigh
			title = fmt.Sprintf("%s reminder is overdue", sub.Name)
		case days == 0:
			priority = domain.PriorityHigh
			title = fmt.Sprintf("%s renews today", sub.Name)
		case days == 1:
			title = fmt.Sprintf("%s renews tomorrow", sub.Name)
		default:
			title = fmt.Sprintf("%s renews in %d days", sub.Name, days)
		}

		msg := fmt.Sprintf("Your %s %s subscription costs %s.", sub.Frequency, sub.Name, r.Currency.Format(sub.Amount))
		if sub.NextBillingDate != nil {
			msg = fmt.Sprintf("Your %s %s subscription bills %s on %s.",
				sub.Frequency, sub.Name, r.Currency.Format(sub.Amount), sub.NextBillingDate)
		}

		out = append(out, domain.Candidate{
			Type:          domain.NotificationSubscriptionReminder,
			Title:         title,
			Message:       msg,
			ReferenceID:   sub.ID,
			ReferenceType: domain.ReferenceSubscription,
			Priority:      priority,
			LinkPath:      "/subscriptions",
			LinkLabel:     "View subscriptions",
		})
	}
	return out
}

// BudgetWarningRule alerts when spending reaches WarnPercent of an
// allocation, escalating once it reaches ExceedPercent. Budgets with no
// allocation are skipped.
type BudgetWarningRule struct {
	WarnPercent   float64
	ExceedPercent float64
	Currency      money.Currency
}

func (BudgetWarningRule) Name() string { return "budget_warning" }

func (r BudgetWarningRule) Evaluate(snap Snapshot, _ civil.Date) []domain.Candidate {
	var out []domain.Candidate
	for _, b := range snap.Budgets {
		if !(b.Allocated > 0) {
			continue
		}
		pct := b.PercentSpent()

		var priority domain.Priority
		var title, shown string
		switch {
		case pct >= r.ExceedPercent:
			priority = domain.PriorityUrgent
			title = fmt.Sprintf("%s budget exceeded", b.Category)
			shown = r.Currency.Percent(pct)
		case pct >= r.WarnPercent:
			priority = domain.PriorityHigh
			title = fmt.Sprintf("%s budget approaching its limit", b.Category)
			shown = percentBelow(r.Currency, pct, r.ExceedPercent)
		default:
			continue
		}

		out = append(out, domain.Candidate{
			Type:  domain.NotificationBudgetWarning,
			Title: title,
			Message: fmt.Sprintf("You have spent %s of your %s %s budget (%s).",
				r.Currency.Format(b.Spent), r.Currency.Format(b.Allocated), b.Category, shown),
			ReferenceID:   b.ID,
			ReferenceType: domain.ReferenceBudget,
			Priority:      priority,
			LinkPath:      "/budgets",
			LinkLabel:     "Review budget",
		})
	}
	return out
}

// GoalProgressRule reports the single most advanced progress tier an active
// goal has reached: achieved, then 90%, then 75%.
type GoalProgressRule struct {
	Currency money.Currency
}

func (GoalProgressRule) Name() string { return "goal_progress" }

func (r GoalProgressRule) Evaluate(snap Snapshot, _ civil.Date) []domain.Candidate {
	var out []domain.Candidate
	for _, g := range snap.Goals {
		if !g.IsActive() || !(g.TargetAmount > 0) {
			continue
		}
		pct := g.PercentComplete()

		c := domain.Candidate{
			ReferenceID:   g.ID,
			ReferenceType: domain.ReferenceGoal,
			LinkPath:      "/goals",
			LinkLabel:     "View goal",
		}
		switch {
		case pct >= GoalAchievedPercent:
			c.Type = domain.NotificationGoalAchieved
			c.Priority = domain.PriorityHigh
			c.Title = fmt.Sprintf("Goal achieved: %s", g.Name)
			c.Message = fmt.Sprintf("You saved %s and reached your %s target.",
				r.Currency.Format(g.CurrentAmount), r.Currency.Format(g.TargetAmount))
		case pct >= GoalNearPercent:
			c.Type = domain.NotificationGoalMilestone
			c.Priority = domain.PriorityNormal
			c.Title = fmt.Sprintf("%s is %s funded", g.Name, r.Currency.Percent(GoalNearPercent))
			c.Message = fmt.Sprintf("Only %s left to reach %s.",
				r.Currency.Format(g.TargetAmount-g.CurrentAmount), r.Currency.Format(g.TargetAmount))
		case pct >= GoalProgressPercent:
			c.Type = domain.NotificationGoalMilestone
			c.Priority = domain.PriorityLow
			c.Title = fmt.Sprintf("%s is %s funded", g.Name, r.Currency.Percent(GoalProgressPercent))
			c.Message = fmt.Sprintf("You have saved %s of %s.",
				r.Currency.Format(g.CurrentAmount), r.Currency.Format(g.TargetAmount))
		default:
			continue
		}
		out = append(out, c)
	}
	return out
}

// GoalAtRiskRule alerts when an active goal's target date is within
// WindowDays and progress is below BelowPercent. It fires independently of
// GoalProgressRule.
type GoalAtRiskRule struct {
	WindowDays   int
	BelowPercent float64
	Currency     money.Currency
}

func (GoalAtRiskRule) Name() string { return "goal_at_risk" }

func (r GoalAtRiskRule) Evaluate(snap Snapshot, today civil.Date) []domain.Candidate {
	var out []domain.Candidate
	for _, g := range snap.Goals {
		if !g.IsActive() || g.TargetDate == nil || !(g.TargetAmount > 0) {
			continue
		}
		days := g.TargetDate.DaysSince(today)
		if days <= 0 || days > r.WindowDays {
			continue
		}
		pct := g.PercentComplete()
		if !(pct < r.BelowPercent) {
			continue
		}

		out = append(out, domain.Candidate{
			Type:  domain.NotificationGoalAtRisk,
			Title: fmt.Sprintf("%s may miss its target date", g.Name),
			Message: fmt.Sprintf("%s is %s funded with %d days left; %s still to save.",
				g.Name, percentBelow(r.Currency, pct, r.BelowPercent), days, r.Currency.Format(g.TargetAmount-g.CurrentAmount)),
			ReferenceID:   g.ID,
			ReferenceType: domain.ReferenceGoal,
			Priority:      domain.PriorityHigh,
			LinkPath:      "/goals",
			LinkLabel:     "Add contribution",
		})
	}
	return out
}

// RecurringExpenseRule alerts for active recurring expenses dated between
// today and LeadDays ahead.
type RecurringExpenseRule struct {
	LeadDays int
	Currency money.Currency
}

func (RecurringExpenseRule) Name() string { return "recurring_expense" }

func (r RecurringExpenseRule) Evaluate(snap Snapshot, today civil.Date) []domain.Candidate {
	var out []domain.Candidate
	for _, tx := range snap.RecurringExpenses {
		if !tx.IsExpense() || !tx.IsRecurring || tx.Status != domain.TransactionActive {
			continue
		}
		days := tx.Date.DaysSince(today)
		if days < 0 || days > r.LeadDays {
			continue
		}

		label := tx.Description
		if label == "" {
			label = tx.Category
		}
		priority := domain.PriorityNormal
		title := fmt.Sprintf("%s due in %d days", label, days)
		switch days {
		case 0:
			priority = domain.PriorityHigh
			title = fmt.Sprintf("%s due today", label)
		case 1:
			title = fmt.Sprintf("%s due tomorrow", label)
		}

		out = append(out, domain.Candidate{
			Type:          domain.NotificationRecurringExpense,
			Title:         title,
			Message:       fmt.Sprintf("%s of %s is scheduled for %s.", r.Currency.Format(tx.Amount), tx.Category, tx.Date),
			ReferenceID:   tx.ID,
			ReferenceType: domain.ReferenceTransaction,
			Priority:      priority,
			LinkPath:      "/transactions",
			LinkLabel:     "View transaction",
		})
	}
	return out
}

// percentBelow formats pct for a value known to be under limit. Whole-percent
// rounding must not display the limit itself, so such values are truncated.
func percentBelow(cur money.Currency, pct, limit float64) string {
	if math.Round(pct) >= limit {
		return cur.Percent(math.Floor(pct))
	}
	return cur.Percent(pct)
}
