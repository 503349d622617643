package models

import (
	"time"
)

// ModelProbability is the externally produced win-probability estimate for an
// outcome. The engine treats it as opaque and never recomputes it.
type ModelProbability struct {
	EventID     string    `json:"event_id" validate:"required"`
	Outcome     string    `json:"outcome" validate:"required"`
	Probability float64   `json:"probability" validate:"required,gte=0,lte=1"`
	SampleSize  int       `json:"sample_size" validate:"gte=0"`
	AsOf        time.Time `json:"as_of" validate:"required"`
}

// MeetsSampleSize checks if the underlying sample meets the given minimum
func (m *ModelProbability) MeetsSampleSize(min int) bool {
	return m.SampleSize >= min
}

// Age returns how old the estimate is relative to now
func (m *ModelProbability) Age(now time.Time) time.Duration {
	return now.Sub(m.AsOf)
}
