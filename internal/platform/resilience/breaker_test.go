package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ at time.Time }

func (c *fakeClock) now() time.Time { return c.at }

func newTestBreaker(cfg Config) (*Breaker, *fakeClock) {
	clock := &fakeClock{at: time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)}
	b := NewBreaker(cfg)
	b.now = clock.now
	return b, clock
}

func TestBreaker_OpensAfterThresholdAndRecoversThroughHalfOpen(t *testing.T) {
	b, clock := newTestBreaker(Config{Enabled: true, FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenProbes: 1})

	require.NoError(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	clock.at = clock.at.Add(6 * time.Second)
	require.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen, "only one probe admitted")

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(Config{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Second, HalfOpenProbes: 1})

	b.RecordFailure()
	clock.at = clock.at.Add(2 * time.Second)
	require.NoError(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreaker_DoClassifiesErrors(t *testing.T) {
	b, _ := newTestBreaker(Config{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute})
	permanent := errors.New("rejected payload")
	transient := errors.New("sink unavailable")
	onlyTransient := func(err error) bool { return errors.Is(err, transient) }

	err := b.Do(func() error { return permanent }, onlyTransient)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, StateClosed, b.State())

	err = b.Do(func() error { return transient }, onlyTransient)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, StateOpen, b.State())

	calls := 0
	err = b.Do(func() error { calls++; return nil }, onlyTransient)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls)
}

func TestBreaker_DisabledAdmitsEverything(t *testing.T) {
	b, _ := newTestBreaker(Config{Enabled: false, FailureThreshold: 1})

	for i := 0; i < 5; i++ {
		b.RecordFailure()
		require.NoError(t, b.Allow())
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestConfig_NormalizeFillsDefaults(t *testing.T) {
	got := Config{Enabled: true}.normalize()
	want := DefaultConfig()
	assert.Equal(t, want, got)
}
