package clock_test

import (
	"testing"
	"time"

	"github.com/artpar/shapegen/adapters/clock"
)

func TestReal_Now(t *testing.T) {
	c := clock.Real{}

	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", got, before, after)
	}
	if got.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", got.Location())
	}
}

func TestFake_Frozen(t *testing.T) {
	fixedTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := clock.NewFake(fixedTime)

	for i := 0; i < 10; i++ {
		if got := c.Now(); !got.Equal(fixedTime) {
			t.Errorf("call %d: Now() = %v, want %v", i, got, fixedTime)
		}
	}
}

func TestFake_SetAndAdvance(t *testing.T) {
	c := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	newTime := time.Date(2025, 12, 25, 10, 30, 0, 0, time.UTC)
	c.Set(newTime)
	if got := c.Now(); !got.Equal(newTime) {
		t.Errorf("Now() = %v, want %v", got, newTime)
	}

	c.Advance(time.Hour)
	if got := c.Now(); !got.Equal(newTime.Add(time.Hour)) {
		t.Errorf("Now() = %v, want %v", got, newTime.Add(time.Hour))
	}
}

func TestStepping(t *testing.T) {
	start := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := clock.NewStepping(start, time.Second)

	first := c.Now()
	second := c.Now()
	if !first.Equal(start) {
		t.Errorf("first reading = %v, want %v", first, start)
	}
	if got := second.Sub(first); got != time.Second {
		t.Errorf("expected 1s step, got %v", got)
	}
}
