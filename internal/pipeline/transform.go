package pipeline

import (
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/money"
	"github.com/dvloznov/finance-insights/internal/store"
)

// normalize returns a copy of snap with ids assigned, enum values lowered,
// amounts rounded to cents and categories spelled like the user's budgets.
func normalize(snap store.Snapshot) store.Snapshot {
	out := store.Snapshot{Notifications: snap.Notifications}

	canonical := make(map[string]string)
	for _, b := range snap.Budgets {
		b.ID = ensureID(b.ID)
		b.UserID = strings.TrimSpace(b.UserID)
		b.Category = strings.TrimSpace(b.Category)
		b.Allocated = money.Round(b.Allocated)
		b.Spent = money.Round(b.Spent)
		if _, ok := canonical[categoryKey(b.UserID, b.Category)]; !ok {
			canonical[categoryKey(b.UserID, b.Category)] = b.Category
		}
		out.Budgets = append(out.Budgets, b)
	}

	for _, tx := range snap.Transactions {
		tx.ID = ensureID(tx.ID)
		tx.UserID = strings.TrimSpace(tx.UserID)
		tx.Type = domain.TransactionType(lower(string(tx.Type)))
		tx.Status = domain.TransactionStatus(lower(string(tx.Status)))
		tx.Amount = money.Round(tx.Amount)
		tx.Category = strings.TrimSpace(tx.Category)
		if name, ok := canonical[categoryKey(tx.UserID, tx.Category)]; ok {
			tx.Category = name
		}
		if tx.IsRecurring && tx.Status == "" {
			tx.Status = domain.TransactionActive
		}
		out.Transactions = append(out.Transactions, tx)
	}

	goalOwner := make(map[string]string)
	for _, g := range snap.Goals {
		g.ID = ensureID(g.ID)
		g.UserID = strings.TrimSpace(g.UserID)
		g.Name = strings.TrimSpace(g.Name)
		g.Status = domain.GoalStatus(lower(string(g.Status)))
		if g.Status == "" {
			g.Status = domain.GoalActive
		}
		g.TargetAmount = money.Round(g.TargetAmount)
		g.CurrentAmount = money.Round(g.CurrentAmount)
		goalOwner[g.ID] = g.UserID
		out.Goals = append(out.Goals, g)
	}

	for _, c := range snap.Contributions {
		c.ID = ensureID(c.ID)
		c.UserID = strings.TrimSpace(c.UserID)
		if c.UserID == "" {
			c.UserID = goalOwner[c.GoalID]
		}
		c.AddedBy = domain.ContributionSource(lower(string(c.AddedBy)))
		if c.AddedBy == "" {
			c.AddedBy = domain.AddedByUser
		}
		c.AddedAmount = money.Round(c.AddedAmount)
		out.Contributions = append(out.Contributions, c)
	}

	for _, sub := range snap.Subscriptions {
		sub.ID = ensureID(sub.ID)
		sub.UserID = strings.TrimSpace(sub.UserID)
		sub.Name = strings.TrimSpace(sub.Name)
		sub.Frequency = domain.BillingFrequency(lower(string(sub.Frequency)))
		if sub.Frequency == "" {
			sub.Frequency = domain.BillingMonthly
		}
		sub.Status = domain.SubscriptionStatus(lower(string(sub.Status)))
		if sub.Status == "" {
			sub.Status = domain.SubscriptionActive
		}
		sub.Amount = money.Round(sub.Amount)
		out.Subscriptions = append(out.Subscriptions, sub)
	}

	return out
}

func ensureID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.New().String()
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeCategory normalizes a category name for comparison.
// Converts to uppercase and trims whitespace for case-insensitive comparison.
func normalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func categoryKey(userID, category string) string {
	return userID + "\x00" + normalizeCategory(category)
}
