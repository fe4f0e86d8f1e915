package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestBreaker_OpensAfterConsecutiveSlowCalls(t *testing.T) {
	b := New(DefaultConfig())
	assert.Equal(t, StateClosed, b.State())

	b.Record(ms(600))
	b.Record(ms(700))
	assert.Equal(t, StateClosed, b.State())

	b.Record(ms(800))
	assert.Equal(t, StateOpen, b.State())
	assert.True(t, b.Open())
}

func TestBreaker_ClosesAfterConsecutiveFastCalls(t *testing.T) {
	b := New(DefaultConfig())
	for i := 0; i < 3; i++ {
		b.Record(ms(600))
	}
	assert.Equal(t, StateOpen, b.State())

	for i := 0; i < 4; i++ {
		b.Record(ms(100))
		assert.Equal(t, StateOpen, b.State(), "should stay open until the fifth fast call")
	}
	b.Record(ms(100))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_MidBandResetsCountersWithoutStateChange(t *testing.T) {
	b := New(DefaultConfig())

	b.Record(ms(600))
	b.Record(ms(700))
	// Inconclusive sample wipes the slow streak.
	b.Record(ms(350))
	assert.Equal(t, StateClosed, b.State())

	// Two more slow calls alone must not open the circuit.
	b.Record(ms(600))
	b.Record(ms(700))
	assert.Equal(t, StateClosed, b.State())

	b.Record(ms(800))
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_SlowSampleResetsFastStreak(t *testing.T) {
	b := New(DefaultConfig())
	for i := 0; i < 3; i++ {
		b.Record(ms(600))
	}

	b.Record(ms(100))
	b.Record(ms(100))
	b.Record(ms(600)) // resets the fast streak
	for i := 0; i < 4; i++ {
		b.Record(ms(100))
	}
	assert.Equal(t, StateOpen, b.State())

	b.Record(ms(100))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_RecordFailureCountsAsSlowSample(t *testing.T) {
	b := New(DefaultConfig())

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_OnTransition(t *testing.T) {
	b := New(DefaultConfig())

	var transitions []State
	b.OnTransition(func(s State) { transitions = append(transitions, s) })

	for i := 0; i < 3; i++ {
		b.Record(ms(600))
	}
	for i := 0; i < 5; i++ {
		b.Record(ms(100))
	}

	assert.Equal(t, []State{StateOpen, StateClosed}, transitions)
}

func TestBreaker_BoundaryLatenciesAreInconclusive(t *testing.T) {
	b := New(DefaultConfig())

	// Exactly at the thresholds counts as mid-band.
	for i := 0; i < 10; i++ {
		b.Record(ms(500))
		b.Record(ms(200))
	}
	assert.Equal(t, StateClosed, b.State())
}
