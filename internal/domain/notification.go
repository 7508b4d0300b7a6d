package domain

import "time"

// NotificationType identifies the rule that produced an alert.
// Together with ReferenceID it forms the deduplication key.
type NotificationType string

const (
	NotificationSubscriptionReminder NotificationType = "subscription_reminder"
	NotificationBudgetWarning        NotificationType = "budget_warning"
	NotificationGoalAchieved         NotificationType = "goal_achieved"
	NotificationGoalMilestone        NotificationType = "goal_milestone"
	NotificationGoalAtRisk           NotificationType = "goal_at_risk"
	NotificationRecurringExpense     NotificationType = "recurring_expense"
)

// ReferenceType names the kind of entity a notification points at.
type ReferenceType string

const (
	ReferenceSubscription ReferenceType = "subscription"
	ReferenceBudget       ReferenceType = "budget"
	ReferenceGoal         ReferenceType = "goal"
	ReferenceTransaction  ReferenceType = "transaction"
)

// Priority orders alerts in the inbox.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns a sortable weight, higher is more important.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// Candidate is an alert produced by rule evaluation that has not been
// persisted yet. It may still be discarded as a duplicate.
type Candidate struct {
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	ReferenceID   string           `json:"reference_id,omitempty"`
	ReferenceType ReferenceType    `json:"reference_type,omitempty"`
	Priority      Priority         `json:"priority"`
	LinkPath      string           `json:"link_path,omitempty"`
	LinkLabel     string           `json:"link_label,omitempty"`
}

// HasReference reports whether the candidate participates in deduplication.
func (c Candidate) HasReference() bool { return c.ReferenceID != "" }

// Notification is a persisted Candidate.
type Notification struct {
	Candidate
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	IsRead      bool      `json:"is_read"`
	IsDismissed bool      `json:"is_dismissed"`
	CreatedAt   time.Time `json:"created_at"`
}
