package bigquery

import (
	"math"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-insights/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	TxType   string   `bigquery:"tx_type"`  // REQUIRED income|expense
	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Category string   `bigquery:"category"` // REQUIRED

	Description bigquery.NullString `bigquery:"description"` // NULLABLE

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	IsRecurring bool                `bigquery:"is_recurring"`
	Status      bigquery.NullString `bigquery:"status"` // NULLABLE active|paused|cancelled

	CreatedTS time.Time `bigquery:"created_ts"`
}

type BudgetRow struct {
	BudgetID  string   `bigquery:"budget_id"`
	UserID    string   `bigquery:"user_id"`
	Category  string   `bigquery:"category"`
	Allocated *big.Rat `bigquery:"allocated"` // NUMERIC
	Spent     *big.Rat `bigquery:"spent"`     // NUMERIC, maintained by ledger triggers
}

type GoalRow struct {
	GoalID        string            `bigquery:"goal_id"`
	UserID        string            `bigquery:"user_id"`
	Name          string            `bigquery:"name"`
	TargetAmount  *big.Rat          `bigquery:"target_amount"`
	CurrentAmount *big.Rat          `bigquery:"current_amount"`
	TargetDate    bigquery.NullDate `bigquery:"target_date"` // NULLABLE
	Status        string            `bigquery:"status"`
}

type ContributionRow struct {
	ContributionID string    `bigquery:"contribution_id"`
	GoalID         string    `bigquery:"goal_id"`
	UserID         string    `bigquery:"user_id"`
	AddedAmount    *big.Rat  `bigquery:"added_amount"`
	AddedBy        string    `bigquery:"added_by"`
	RecordedTS     time.Time `bigquery:"recorded_ts"`
}

type SubscriptionRow struct {
	SubscriptionID  string            `bigquery:"subscription_id"`
	UserID          string            `bigquery:"user_id"`
	Name            string            `bigquery:"name"`
	Amount          *big.Rat          `bigquery:"amount"`
	Frequency       string            `bigquery:"frequency"`
	NextBillingDate bigquery.NullDate `bigquery:"next_billing_date"` // NULLABLE
	ReminderDate    bigquery.NullDate `bigquery:"reminder_date"`     // NULLABLE
	Status          string            `bigquery:"status"`
}

type NotificationRow struct {
	NotificationID string              `bigquery:"notification_id"`
	UserID         string              `bigquery:"user_id"`
	Type           string              `bigquery:"type"`
	Title          string              `bigquery:"title"`
	Message        string              `bigquery:"message"`
	ReferenceID    bigquery.NullString `bigquery:"reference_id"`
	ReferenceType  bigquery.NullString `bigquery:"reference_type"`
	Priority       string              `bigquery:"priority"`
	LinkPath       bigquery.NullString `bigquery:"link_path"`
	LinkLabel      bigquery.NullString `bigquery:"link_label"`
	IsRead         bool                `bigquery:"is_read"`
	IsDismissed    bool                `bigquery:"is_dismissed"`
	CreatedTS      time.Time           `bigquery:"created_ts"`
}

// ratFromFloat converts an amount to NUMERIC, rounded to whole cents.
// Non-finite amounts become NULL.
func ratFromFloat(f float64) *big.Rat {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return decimal.NewFromFloat(f).Round(2).Rat()
}

func floatFromRat(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullDate(d *civil.Date) bigquery.NullDate {
	if d == nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: *d, Valid: true}
}

func datePtr(d bigquery.NullDate) *civil.Date {
	if !d.Valid {
		return nil
	}
	v := d.Date
	return &v
}

func transactionToRow(tx domain.Transaction, now time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		TxType:          string(tx.Type),
		Amount:          ratFromFloat(tx.Amount),
		Category:        tx.Category,
		Description:     nullString(tx.Description),
		TransactionDate: tx.Date,
		IsRecurring:     tx.IsRecurring,
		Status:          nullString(string(tx.Status)),
		CreatedTS:       now,
	}
}

func (r *TransactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		Type:        domain.TransactionType(r.TxType),
		Amount:      floatFromRat(r.Amount),
		Category:    r.Category,
		Description: r.Description.StringVal,
		Date:        r.TransactionDate,
		IsRecurring: r.IsRecurring,
		Status:      domain.TransactionStatus(r.Status.StringVal),
	}
}

func budgetToRow(b domain.Budget) *BudgetRow {
	return &BudgetRow{
		BudgetID:  b.ID,
		UserID:    b.UserID,
		Category:  b.Category,
		Allocated: ratFromFloat(b.Allocated),
		Spent:     ratFromFloat(b.Spent),
	}
}

func (r *BudgetRow) toDomain() domain.Budget {
	return domain.Budget{
		ID:        r.BudgetID,
		UserID:    r.UserID,
		Category:  r.Category,
		Allocated: floatFromRat(r.Allocated),
		Spent:     floatFromRat(r.Spent),
	}
}

func goalToRow(g domain.SavingsGoal) *GoalRow {
	return &GoalRow{
		GoalID:        g.ID,
		UserID:        g.UserID,
		Name:          g.Name,
		TargetAmount:  ratFromFloat(g.TargetAmount),
		CurrentAmount: ratFromFloat(g.CurrentAmount),
		TargetDate:    nullDate(g.TargetDate),
		Status:        string(g.Status),
	}
}

func (r *GoalRow) toDomain() domain.SavingsGoal {
	return domain.SavingsGoal{
		ID:            r.GoalID,
		UserID:        r.UserID,
		Name:          r.Name,
		TargetAmount:  floatFromRat(r.TargetAmount),
		CurrentAmount: floatFromRat(r.CurrentAmount),
		TargetDate:    datePtr(r.TargetDate),
		Status:        domain.GoalStatus(r.Status),
	}
}

func contributionToRow(c domain.GoalContribution) *ContributionRow {
	return &ContributionRow{
		ContributionID: c.ID,
		GoalID:         c.GoalID,
		UserID:         c.UserID,
		AddedAmount:    ratFromFloat(c.AddedAmount),
		AddedBy:        string(c.AddedBy),
		RecordedTS:     c.RecordedAt,
	}
}

func (r *ContributionRow) toDomain() domain.GoalContribution {
	return domain.GoalContribution{
		ID:          r.ContributionID,
		GoalID:      r.GoalID,
		UserID:      r.UserID,
		AddedAmount: floatFromRat(r.AddedAmount),
		AddedBy:     domain.ContributionSource(r.AddedBy),
		RecordedAt:  r.RecordedTS,
	}
}

func subscriptionToRow(s domain.Subscription) *SubscriptionRow {
	return &SubscriptionRow{
		SubscriptionID:  s.ID,
		UserID:          s.UserID,
		Name:            s.Name,
		Amount:          ratFromFloat(s.Amount),
		Frequency:       string(s.Frequency),
		NextBillingDate: nullDate(s.NextBillingDate),
		ReminderDate:    nullDate(s.ReminderDate),
		Status:          string(s.Status),
	}
}

func (r *SubscriptionRow) toDomain() domain.Subscription {
	return domain.Subscription{
		ID:              r.SubscriptionID,
		UserID:          r.UserID,
		Name:            r.Name,
		Amount:          floatFromRat(r.Amount),
		Frequency:       domain.BillingFrequency(r.Frequency),
		NextBillingDate: datePtr(r.NextBillingDate),
		ReminderDate:    datePtr(r.ReminderDate),
		Status:          domain.SubscriptionStatus(r.Status),
	}
}

func (r *NotificationRow) toDomain() domain.Notification {
	return domain.Notification{
		Candidate: domain.Candidate{
			Type:          domain.NotificationType(r.Type),
			Title:         r.Title,
			Message:       r.Message,
			ReferenceID:   r.ReferenceID.StringVal,
			ReferenceType: domain.ReferenceType(r.ReferenceType.StringVal),
			Priority:      domain.Priority(r.Priority),
			LinkPath:      r.LinkPath.StringVal,
			LinkLabel:     r.LinkLabel.StringVal,
		},
		ID:          r.NotificationID,
		UserID:      r.UserID,
		IsRead:      r.IsRead,
		IsDismissed: r.IsDismissed,
		CreatedAt:   r.CreatedTS,
	}
}
