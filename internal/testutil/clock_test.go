package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_StartsAtEpoch(t *testing.T) {
	clock := NewFakeClock(time.Time{})
	assert.Equal(t, Epoch, clock.Now())
}

func TestFakeClock_Advance(t *testing.T) {
	clock := NewFakeClock(time.Time{})

	got := clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, Epoch.Add(1500*time.Millisecond), got)
	assert.Equal(t, got, clock.Now())
}

func TestFakeClock_Set(t *testing.T) {
	clock := NewFakeClock(time.Time{})
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(at)
	assert.Equal(t, at, clock.Now())
}

func TestFakeClock_Stepper(t *testing.T) {
	clock := NewFakeClock(time.Time{})
	now := clock.Stepper(10 * time.Millisecond)

	first := now()
	second := now()
	assert.Equal(t, Epoch, first)
	assert.Equal(t, 10*time.Millisecond, second.Sub(first))
	assert.Equal(t, Epoch.Add(20*time.Millisecond), clock.Now())
}

func TestFakeClock_ConcurrentAdvance(t *testing.T) {
	clock := NewFakeClock(time.Time{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, Epoch.Add(50*time.Millisecond), clock.Now())
}
