package model

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Clock is one side's time control. It runs while that side is to move and
// gains the increment when stopped after a move.
type Clock struct {
	mu          sync.Mutex
	timeLeft    time.Duration
	increment   time.Duration
	lastStarted time.Time // When the clock was last started
	isRunning   bool
	now         func() time.Time
	log         zerolog.Logger
}

// ClientClock is the remaining time as sent to clients, in milliseconds.
type ClientClock struct {
	TimeLeft int64 `json:"timeLeft"`
	Running  bool  `json:"running"`
}

func NewClock(initialTime, increment time.Duration, log zerolog.Logger) *Clock {
	return &Clock{
		timeLeft:  initialTime,
		increment: increment,
		now:       time.Now,
		log:       log,
	}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		c.lastStarted = c.now()
		c.isRunning = true
		c.log.Debug().Dur("left", c.timeLeft).Msg("clock started")
	}
}

// Stop halts the clock. After a completed move the increment is added,
// unless the flag had already fallen.
func (c *Clock) Stop(moved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		return
	}
	c.timeLeft -= c.now().Sub(c.lastStarted)
	c.isRunning = false
	if moved && c.timeLeft > 0 {
		c.timeLeft += c.increment
	}
	c.log.Debug().Dur("left", c.timeLeft).Msg("clock stopped")
}

func (c *Clock) GetTimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.timeLeftLocked()
}

func (c *Clock) timeLeftLocked() time.Duration {
	left := c.timeLeft
	if c.isRunning {
		left -= c.now().Sub(c.lastStarted)
	}
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the flag has fallen.
func (c *Clock) Expired() bool {
	return c.GetTimeLeft() <= 0
}

func (c *Clock) Client() ClientClock {
	c.mu.Lock()
	defer c.mu.Unlock()

	return ClientClock{
		TimeLeft: c.timeLeftLocked().Milliseconds(),
		Running:  c.isRunning,
	}
}
