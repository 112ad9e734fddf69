package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earthdata-action/pm25-predictor/internal/forecast"
)

func resultAt(ts time.Time) forecast.Result {
	return forecast.Result{City: "Delhi", GeneratedAt: ts}
}

func TestGetLatestReturnsNewestResult(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)

	now := time.Now().UTC()
	s.SaveResult("delhi|a|b", resultAt(now.Add(-2*time.Minute)))
	s.SaveResult("delhi|a|b", resultAt(now))

	latest, err := s.GetLatest("delhi|a|b")
	require.NoError(t, err)
	assert.Equal(t, now, latest.GeneratedAt)
}

func TestGetLatestUnknownKey(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)

	_, err := s.GetLatest("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLatestExpiredResult(t *testing.T) {
	s := NewMemoryStore(10, time.Minute)

	s.SaveResult("k", resultAt(time.Now().UTC().Add(-2*time.Minute)))

	_, err := s.GetLatest("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		s.SaveResult("k", resultAt(now.Add(time.Duration(i)*time.Second)))
	}

	results, err := s.GetRange("k", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, now.Add(4*time.Second), results[1].GeneratedAt)
}

func TestGetRangeFiltersByGeneratedAt(t *testing.T) {
	s := NewMemoryStore(10, 0)

	now := time.Now().UTC()
	s.SaveResult("k", resultAt(now.Add(-3*time.Hour)))
	s.SaveResult("k", resultAt(now.Add(-1*time.Hour)))
	s.SaveResult("k", resultAt(now))

	results, err := s.GetRange("k", now.Add(-90*time.Minute), now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, now.Add(-1*time.Hour), results[0].GeneratedAt)

	_, err = s.GetRange("k", now.Add(-10*time.Hour), now.Add(-5*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}
