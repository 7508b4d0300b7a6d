// Package notify evaluates alert rules against a user's finances and
// persists the resulting notifications without duplicates.
package notify

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// Evaluator runs a fixed registry of rules. It performs no I/O.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an evaluator over rules, evaluated in order.
func NewEvaluator(rules ...Rule) *Evaluator {
	return &Evaluator{rules: rules}
}

// Rules returns the registered rules.
func (e *Evaluator) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate returns every candidate the rules emit for userID as of asOf.
// Day arithmetic uses asOf's calendar day in its own location. An empty
// userID yields no candidates.
func (e *Evaluator) Evaluate(userID string, asOf time.Time, snap Snapshot) []domain.Candidate {
	if userID == "" {
		return nil
	}

	today := civil.DateOf(asOf)
	var out []domain.Candidate
	for _, r := range e.rules {
		out = append(out, r.Evaluate(snap, today)...)
	}
	return out
}
