// Package snapshot records observed odds over time and derives closing lines.
package snapshot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
)

// Store is the append-only history of observed prices
type Store interface {
	// Record appends a snapshot unless an identical one (by content hash)
	// already exists. Duplicate suppression is atomic with the insert.
	Record(ctx context.Context, snap *models.OddsSnapshot) (models.RecordOutcome, error)

	// ClosingLine returns the last snapshot for the tuple observed strictly
	// before eventStart. Returns models.ErrNotFound when no snapshot
	// precedes the start time.
	ClosingLine(ctx context.Context, eventID, sourceID string, marketType models.MarketType, outcome string, eventStart time.Time) (*models.OddsSnapshot, error)

	// History returns all snapshots for a tuple across sources, oldest first
	History(ctx context.Context, eventID string, marketType models.MarketType, outcome string) ([]*models.OddsSnapshot, error)
}

// MemoryStore is an in-process Store. The hash index guards inserts; the
// per-tuple lists stay sorted by observation time for closing-line scans.
type MemoryStore struct {
	mu     sync.RWMutex
	byHash map[string]*models.OddsSnapshot
	byKey  map[string][]*models.OddsSnapshot
	logger *logrus.Logger
}

// NewMemoryStore creates an empty in-memory snapshot store
func NewMemoryStore(logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		byHash: make(map[string]*models.OddsSnapshot),
		byKey:  make(map[string][]*models.OddsSnapshot),
		logger: logger,
	}
}

func sourceKey(eventID, sourceID string, marketType models.MarketType, outcome string) string {
	return "src|" + eventID + "|" + sourceID + "|" + string(marketType) + "|" + outcome
}

func tupleKey(eventID string, marketType models.MarketType, outcome string) string {
	return "tup|" + eventID + "|" + string(marketType) + "|" + outcome
}

// Record inserts the snapshot if its content hash is unseen
func (s *MemoryStore) Record(ctx context.Context, snap *models.OddsSnapshot) (models.RecordOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[snap.ContentHash]; exists {
		metrics.SnapshotsDuplicateTotal.Inc()
		return models.RecordDuplicate, nil
	}

	s.byHash[snap.ContentHash] = snap

	key := sourceKey(snap.EventID, snap.SourceID, snap.MarketType, snap.Outcome)
	s.byKey[key] = insertSorted(s.byKey[key], snap)

	tkey := tupleKey(snap.EventID, snap.MarketType, snap.Outcome)
	s.byKey[tkey] = insertSorted(s.byKey[tkey], snap)

	metrics.SnapshotsRecordedTotal.Inc()
	return models.RecordOK, nil
}

func insertSorted(list []*models.OddsSnapshot, snap *models.OddsSnapshot) []*models.OddsSnapshot {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].ObservedAt.After(snap.ObservedAt)
	})
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = snap
	return list
}

// ClosingLine scans the source's history backwards for the last snapshot
// strictly before event start
func (s *MemoryStore) ClosingLine(ctx context.Context, eventID, sourceID string, marketType models.MarketType, outcome string, eventStart time.Time) (*models.OddsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byKey[sourceKey(eventID, sourceID, marketType, outcome)]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].ObservedAt.Before(eventStart) {
			return list[i], nil
		}
	}
	return nil, models.ErrNotFound
}

// History returns the tuple's snapshots across all sources, oldest first
func (s *MemoryStore) History(ctx context.Context, eventID string, marketType models.MarketType, outcome string) ([]*models.OddsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byKey[tupleKey(eventID, marketType, outcome)]
	out := make([]*models.OddsSnapshot, len(list))
	copy(out, list)
	return out, nil
}
