package domain

import (
	"cloud.google.com/go/civil"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// TransactionStatus is only meaningful for recurring entries.
type TransactionStatus string

const (
	TransactionActive    TransactionStatus = "active"
	TransactionPaused    TransactionStatus = "paused"
	TransactionCancelled TransactionStatus = "cancelled"
)

// Transaction is one ledger entry owned by a single user.
// Amount is always positive; Type carries the direction.
// Date is a calendar day with no time-of-day component.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Type        TransactionType   `json:"type"`
	Amount      float64           `json:"amount"`
	Category    string            `json:"category"`
	Description string            `json:"description,omitempty"`
	Date        civil.Date        `json:"date"`
	IsRecurring bool              `json:"is_recurring,omitempty"`
	Status      TransactionStatus `json:"status,omitempty"`
}

// IsIncome reports whether the transaction adds money.
func (t Transaction) IsIncome() bool { return t.Type == TransactionIncome }

// IsExpense reports whether the transaction removes money.
func (t Transaction) IsExpense() bool { return t.Type == TransactionExpense }
