// Package session provides an idle-timeout controller for an
// authenticated client session. One Controller is constructed per
// session and torn down on logout; the clock and activity source are
// injected, so nothing global keeps timers alive.
package session

import (
	"sync"
	"time"
)

// Clock abstracts time for testability
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now
func SystemClock() Clock { return realClock{} }

// Controller watches an activity event stream and fires the expiry
// callback once the session has been idle longer than the timeout.
type Controller struct {
	clock    Clock
	timeout  time.Duration
	onExpire func()

	mu           sync.Mutex
	lastActivity time.Time
	expired      bool

	activity chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// NewController builds a controller; Start must be called to begin
// watching. onExpire fires at most once.
func NewController(clock Clock, timeout time.Duration, onExpire func()) *Controller {
	return &Controller{
		clock:        clock,
		timeout:      timeout,
		onExpire:     onExpire,
		lastActivity: clock.Now(),
		activity:     make(chan struct{}, 1),
		stop:         make(chan struct{}),
	}
}

// Touch records session activity, pushing the expiry deadline out
func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastActivity = c.clock.Now()
	c.mu.Unlock()

	select {
	case c.activity <- struct{}{}:
	default:
	}
}

// Expired reports whether the session has timed out
func (c *Controller) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Start runs the watch loop until Stop is called or the session expires.
// The poll interval bounds how late after the deadline the callback can
// fire.
func (c *Controller) Start(pollInterval time.Duration) {
	go c.run(pollInterval)
}

func (c *Controller) run(pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-c.activity:
			// Deadline already refreshed in Touch
		case <-ticker.C:
			if c.checkExpired() {
				return
			}
		}
	}
}

// checkExpired flips the session to expired when the idle deadline has
// passed, firing the callback exactly once
func (c *Controller) checkExpired() bool {
	c.mu.Lock()
	if c.expired {
		c.mu.Unlock()
		return true
	}
	if c.clock.Now().Sub(c.lastActivity) < c.timeout {
		c.mu.Unlock()
		return false
	}
	c.expired = true
	c.mu.Unlock()

	if c.onExpire != nil {
		c.onExpire()
	}
	return true
}

// Stop tears the controller down; safe to call more than once
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
