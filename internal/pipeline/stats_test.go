package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendStatsSuccessRate(t *testing.T) {
	s := NewBackendStats()

	_, ok := s.SuccessRate("primary")
	assert.False(t, ok, "no history means no rate")

	s.Record("primary", true)
	s.Record("primary", true)
	s.Record("primary", false)

	rate, ok := s.SuccessRate("primary")
	assert.True(t, ok)
	assert.InDelta(t, 2.0/3.0, rate, 1e-9)
}

func TestBackendStatsUnreachableAfterConsecutiveFailures(t *testing.T) {
	s := NewBackendStats()

	s.Record("primary", false)
	s.Record("primary", false)
	assert.False(t, s.Unreachable("primary"))

	s.Record("primary", false)
	assert.True(t, s.Unreachable("primary"))
}

func TestBackendStatsSuccessResetsConsecutiveFailures(t *testing.T) {
	s := NewBackendStats()

	s.Record("primary", false)
	s.Record("primary", false)
	s.Record("primary", true)
	s.Record("primary", false)
	s.Record("primary", false)

	assert.False(t, s.Unreachable("primary"))
}

func TestBackendStatsIndependentBackends(t *testing.T) {
	s := NewBackendStats()

	s.Record("primary", false)
	s.Record("primary", false)
	s.Record("primary", false)
	s.Record("secondary", true)

	assert.True(t, s.Unreachable("primary"))
	assert.False(t, s.Unreachable("secondary"))

	rate, ok := s.SuccessRate("secondary")
	assert.True(t, ok)
	assert.Equal(t, 1.0, rate)
}
