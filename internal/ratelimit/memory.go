package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in a process-local map.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Hit(_ context.Context, identity string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok || now.Sub(rec.WindowStart) > window {
		rec = Record{Count: 1, WindowStart: now}
	} else {
		rec.Count++
	}
	s.records[identity] = rec

	return rec.Count, nil
}

func (s *MemoryStore) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.records {
		if rec.WindowStart.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Get returns the record for identity, if any.
func (s *MemoryStore) Get(identity string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	return rec, ok
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
