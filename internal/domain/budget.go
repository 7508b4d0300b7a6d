package domain

// Budget is a per-category allocation. Spent is maintained by the storage
// layer whenever an expense is recorded and is read-only to this module.
type Budget struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Category  string  `json:"category"`
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
}

// PercentSpent returns Spent as a percentage of Allocated.
// Callers must check Allocated > 0 first.
func (b Budget) PercentSpent() float64 {
	return b.Spent / b.Allocated * 100
}
