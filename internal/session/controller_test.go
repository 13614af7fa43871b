package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestControllerExpiresAfterIdleTimeout(t *testing.T) {
	clock := newFakeClock()
	expired := make(chan struct{})
	ctrl := NewController(clock, 30*time.Minute, func() { close(expired) })
	defer ctrl.Stop()

	assert.False(t, ctrl.Expired())
	assert.False(t, ctrl.checkExpired())

	clock.Advance(31 * time.Minute)
	assert.True(t, ctrl.checkExpired())
	assert.True(t, ctrl.Expired())

	select {
	case <-expired:
	default:
		t.Fatal("expiry callback did not fire")
	}
}

func TestControllerActivityResetsDeadline(t *testing.T) {
	clock := newFakeClock()
	ctrl := NewController(clock, 30*time.Minute, nil)
	defer ctrl.Stop()

	clock.Advance(20 * time.Minute)
	ctrl.Touch()
	clock.Advance(20 * time.Minute)

	// 40 minutes since construction, but only 20 since last activity
	assert.False(t, ctrl.checkExpired())

	clock.Advance(11 * time.Minute)
	assert.True(t, ctrl.checkExpired())
}

func TestControllerCallbackFiresOnce(t *testing.T) {
	clock := newFakeClock()
	fired := 0
	ctrl := NewController(clock, time.Minute, func() { fired++ })
	defer ctrl.Stop()

	clock.Advance(2 * time.Minute)
	assert.True(t, ctrl.checkExpired())
	assert.True(t, ctrl.checkExpired())
	assert.Equal(t, 1, fired)
}

func TestControllerRunLoopStops(t *testing.T) {
	clock := newFakeClock()
	ctrl := NewController(clock, time.Hour, nil)

	done := make(chan struct{})
	go func() {
		ctrl.run(time.Millisecond)
		close(done)
	}()

	ctrl.Touch()
	ctrl.Stop()
	ctrl.Stop() // idempotent

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run loop did not stop")
	}
	assert.False(t, ctrl.Expired())
}

func TestControllerRunLoopFiresExpiry(t *testing.T) {
	clock := newFakeClock()
	expired := make(chan struct{})
	ctrl := NewController(clock, time.Minute, func() { close(expired) })

	ctrl.Start(time.Millisecond)
	defer ctrl.Stop()

	clock.Advance(2 * time.Minute)

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("expiry callback did not fire from run loop")
	}
}
