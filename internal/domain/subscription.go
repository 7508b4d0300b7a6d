package domain

import (
	"cloud.google.com/go/civil"
)

// BillingFrequency is how often a subscription charges.
type BillingFrequency string

const (
	BillingMonthly BillingFrequency = "monthly"
	BillingYearly  BillingFrequency = "yearly"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a recurring charge the user tracks manually.
type Subscription struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	Name            string             `json:"name"`
	Amount          float64            `json:"amount"`
	Frequency       BillingFrequency   `json:"frequency"`
	NextBillingDate *civil.Date        `json:"next_billing_date,omitempty"`
	ReminderDate    *civil.Date        `json:"reminder_date,omitempty"`
	Status          SubscriptionStatus `json:"status"`
}

// IsActive reports whether the subscription is still billing.
func (s Subscription) IsActive() bool { return s.Status == SubscriptionActive }
