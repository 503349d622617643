package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// OddsSnapshot is an append-only record of an observed price.
// ContentHash is derived from every field except ObservedAt so that
// re-ingesting an unchanged quote is idempotent.
type OddsSnapshot struct {
	EventID     string     `db:"event_id" json:"event_id"`
	SourceID    string     `db:"source_id" json:"source_id"`
	MarketType  MarketType `db:"market_type" json:"market_type"`
	Outcome     string     `db:"outcome" json:"outcome"`
	LineValue   *float64   `db:"line_value" json:"line_value"`
	Price       float64    `db:"price" json:"price"`
	ContentHash string     `db:"content_hash" json:"content_hash"`
	ObservedAt  time.Time  `db:"observed_at" json:"observed_at"`
}

// SnapshotContentHash computes the dedup key for a quote observation.
// The timestamp is deliberately excluded: the same price seen twice is one
// logical snapshot.
func SnapshotContentHash(eventID, sourceID string, marketType MarketType, outcome string, lineValue *float64, price float64) string {
	line := "nil"
	if lineValue != nil {
		line = fmt.Sprintf("%.4f", *lineValue)
	}
	payload := fmt.Sprintf("%s|%s|%s|%s|%s|%.6f", eventID, sourceID, marketType, outcome, line, price)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// SnapshotFromQuote builds a snapshot (with content hash) from a decimal-price quote
func SnapshotFromQuote(q *OddsQuote, decimalPrice float64) *OddsSnapshot {
	return &OddsSnapshot{
		EventID:     q.EventID,
		SourceID:    q.SourceID,
		MarketType:  q.MarketType,
		Outcome:     q.Outcome,
		LineValue:   q.LineValue,
		Price:       decimalPrice,
		ContentHash: SnapshotContentHash(q.EventID, q.SourceID, q.MarketType, q.Outcome, q.LineValue, decimalPrice),
		ObservedAt:  q.ObservedAt,
	}
}

// RecordOutcome is the result of attempting to store a snapshot
type RecordOutcome int

const (
	// RecordOK means a new snapshot was appended
	RecordOK RecordOutcome = iota
	// RecordDuplicate means an identical snapshot already existed
	RecordDuplicate
)

// String returns string representation of the record outcome
func (r RecordOutcome) String() string {
	switch r {
	case RecordOK:
		return "ok"
	case RecordDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// ClosingLine is the last snapshot observed strictly before event start,
// per (event, source, market, outcome). Derived, never stored separately.
type ClosingLine struct {
	Snapshot       *OddsSnapshot `json:"snapshot"`
	EventStartTime time.Time     `json:"event_start_time"`
}
