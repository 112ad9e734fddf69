package store

import (
	"errors"
	"sync"
	"time"

	"github.com/earthdata-action/pm25-predictor/internal/forecast"
)

var (
	// ErrNotFound is returned when no result is cached for a given key.
	ErrNotFound = errors.New("no cached result for key")
)

// resultHistory holds a time-ordered list of computed results for one
// city/date-range key.
type resultHistory struct {
	Results []forecast.Result
}

// MemoryStore is a concurrency-safe in-memory cache of forecast results.
// Retention is enforced per key by count and by age, so a cached entry for a
// given city and date range eventually expires and gets recomputed.
type MemoryStore struct {
	mu sync.RWMutex

	data map[string]*resultHistory

	maxHistory int           // max results per key (<= 0 means unlimited)
	maxAge     time.Duration // max age of results (0 means unlimited)
}

// NewMemoryStore creates a MemoryStore with optional retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*resultHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveResult appends a computed result under the key and enforces retention.
func (s *MemoryStore) SaveResult(key string, r forecast.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &resultHistory{}
		s.data[key] = history
	}

	history.Results = append(history.Results, r)

	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = history.Results[over:]
	}

	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Results); i++ {
			if !history.Results[i].GeneratedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			history.Results = history.Results[i:]
		}
	}
}

// GetLatest returns the most recent unexpired result for the key.
func (s *MemoryStore) GetLatest(key string) (forecast.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Results) == 0 {
		return forecast.Result{}, ErrNotFound
	}

	latest := history.Results[len(history.Results)-1]
	if s.maxAge > 0 && latest.GeneratedAt.Before(time.Now().Add(-s.maxAge)) {
		return forecast.Result{}, ErrNotFound
	}
	return latest, nil
}

// GetRange returns all results for the key generated between from and to
// (inclusive), oldest first.
func (s *MemoryStore) GetRange(key string, from, to time.Time) ([]forecast.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}

	var result []forecast.Result
	for _, r := range history.Results {
		if !r.GeneratedAt.Before(from) && !r.GeneratedAt.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
