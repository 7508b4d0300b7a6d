package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

// SavingsGoal tracks progress toward a target amount.
// CurrentAmount is the running sum of contributions, maintained externally.
type SavingsGoal struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Name          string      `json:"name"`
	TargetAmount  float64     `json:"target_amount"`
	CurrentAmount float64     `json:"current_amount"`
	TargetDate    *civil.Date `json:"target_date,omitempty"`
	Status        GoalStatus  `json:"status"`
}

// IsActive reports whether the goal still accepts contributions.
func (g SavingsGoal) IsActive() bool { return g.Status == GoalActive }

// PercentComplete returns CurrentAmount as a percentage of TargetAmount.
func (g SavingsGoal) PercentComplete() float64 {
	return g.CurrentAmount / g.TargetAmount * 100
}

// ContributionSource records who moved money into a goal.
type ContributionSource string

const (
	AddedByUser ContributionSource = "user"
	AddedByAI   ContributionSource = "ai"
)

// GoalContribution is one entry of the append-only contribution log.
type GoalContribution struct {
	ID          string             `json:"id"`
	GoalID      string             `json:"goal_id"`
	UserID      string             `json:"user_id"`
	AddedAmount float64            `json:"added_amount"`
	AddedBy     ContributionSource `json:"added_by"`
	RecordedAt  time.Time          `json:"recorded_at"`
}
