package models

import "time"

// BudgetCounter tracks daily fetch quota usage for one upstream source.
// Exactly one live counter exists per (source_id, window_date); it is mutated
// only via atomic increment.
type BudgetCounter struct {
	SourceID   string `db:"source_id" json:"source_id"`
	WindowDate string `db:"window_date" json:"window_date"`
	CallsUsed  int    `db:"calls_used" json:"calls_used"`
	DailyLimit int    `db:"daily_limit" json:"daily_limit"`
}

// Remaining returns the number of calls left in the current window
func (c *BudgetCounter) Remaining() int {
	r := c.DailyLimit - c.CallsUsed
	if r < 0 {
		return 0
	}
	return r
}

// BudgetWindow formats a time as the canonical UTC window date
func BudgetWindow(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ConsumeOutcome is the result of a quota consumption attempt
type ConsumeOutcome int

const (
	// ConsumeGranted means the call was counted and may proceed
	ConsumeGranted ConsumeOutcome = iota
	// ConsumeDenied means the window quota is exhausted
	ConsumeDenied
)

// String returns string representation of the consume outcome
func (c ConsumeOutcome) String() string {
	if c == ConsumeGranted {
		return "granted"
	}
	return "denied"
}
