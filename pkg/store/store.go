// Package store holds the canonical, deduplicated set of meeting records
// and their revision history. Records are append-only at the revision
// level. Upserts for different identities proceed fully in parallel;
// upserts for the same identity are serialized, since the merge engine's
// precedence logic is not commutative across interleaved writers.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/opencivic/meetingfeed/pkg/errors"
	"github.com/opencivic/meetingfeed/pkg/meetings"
	"github.com/opencivic/meetingfeed/pkg/merge"
)

// Store is the record store contract the pipeline writes through.
type Store interface {
	// Upsert reconciles a normalized meeting into the record with the
	// same identity, creating it on first sight.
	Upsert(m *meetings.Meeting) (merge.Outcome, error)

	// Get returns a copy of the current record for an identity, or a
	// not-found error.
	Get(id string) (*meetings.MeetingRecord, error)

	// ListSince returns copies of all records touched at or after the
	// given instant, ordered by identity. It is a pure filter over a
	// snapshot, not a consuming queue: callers may re-invoke it with
	// the same timestamp safely.
	ListSince(ts time.Time) ([]*meetings.MeetingRecord, error)

	// Len returns the number of records held.
	Len() int
}

// Memory is the in-memory Store implementation.
type Memory struct {
	engine *merge.Engine

	mu      sync.RWMutex
	records map[string]*meetings.MeetingRecord

	// keyMu serializes writers per identity while leaving distinct
	// identities lock-free against each other.
	keyMuMu sync.Mutex
	keyMu   map[string]*sync.Mutex
}

// Option configures a Memory store.
type Option func(*Memory) error

// WithMergeEngine sets the merge engine upserts reconcile through.
func WithMergeEngine(engine *merge.Engine) Option {
	return func(s *Memory) error {
		if engine == nil {
			return errors.NewConfigError("store", "merge engine cannot be nil", nil)
		}
		s.engine = engine
		return nil
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) (*Memory, error) {
	engine, err := merge.New()
	if err != nil {
		return nil, err
	}
	s := &Memory{
		engine:  engine,
		records: make(map[string]*meetings.MeetingRecord),
		keyMu:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Upsert implements Store.
func (s *Memory) Upsert(m *meetings.Meeting) (merge.Outcome, error) {
	if m == nil || m.ID == "" {
		return merge.OutcomeUnchanged, errors.NewValidationError("id", "", "meeting has no identity key")
	}

	lock := s.lockFor(m.ID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	record, ok := s.records[m.ID]
	if !ok {
		record = &meetings.MeetingRecord{ID: m.ID}
		s.records[m.ID] = record
	}
	s.mu.Unlock()

	return s.engine.Apply(record, m)
}

// Get implements Store.
func (s *Memory) Get(id string) (*meetings.MeetingRecord, error) {
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFoundError("meeting record", id)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return record.Copy(), nil
}

// ListSince implements Store.
func (s *Memory) ListSince(ts time.Time) ([]*meetings.MeetingRecord, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	var out []*meetings.MeetingRecord
	for _, id := range ids {
		s.mu.RLock()
		record, ok := s.records[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		lock := s.lockFor(id)
		lock.Lock()
		if !record.UpdatedAt.Before(ts) {
			out = append(out, record.Copy())
		}
		lock.Unlock()
	}
	return out, nil
}

// Len implements Store.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// lockFor returns the per-identity writer lock, creating it on first use.
func (s *Memory) lockFor(id string) *sync.Mutex {
	s.keyMuMu.Lock()
	defer s.keyMuMu.Unlock()
	lock, ok := s.keyMu[id]
	if !ok {
		lock = &sync.Mutex{}
		s.keyMu[id] = lock
	}
	return lock
}
