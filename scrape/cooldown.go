// Package scrape provides the crawl orchestration: the listing
// harvester, the detail fetch engine, and the anti-bot cooldown state
// machine they share.
package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/propwatch/propwatch"
)

// CooldownState identifies which state the cooldown machine is in.
type CooldownState int

// Cooldown states.
const (
	StateNormal CooldownState = iota
	StateCooldown
)

// Cooldown defaults. The concurrent engine uses a higher challenge
// threshold because several in-flight requests may be classified before
// the signal is acted on.
const (
	DefaultSequentialChallengeThreshold = 3
	DefaultConcurrentChallengeThreshold = 5
	DefaultInitialCooldown              = 15 * time.Minute
	DefaultCooldownMultiplier           = 1.5
)

// Cooldown tracks consecutive bot challenges and enforces an escalating
// pause on request issuance. The cycle never terminates on its own:
// each expiry multiplies the next pause, and only external cancellation
// cuts a wait short.
//
// Counters are mutated from concurrent completions, so every access is
// serialized through one mutex.
type Cooldown struct {
	mu          sync.Mutex
	threshold   int
	duration    time.Duration
	multiplier  float64
	consecutive int
	cycles      int
	pending     bool
	state       CooldownState
}

// NewCooldown creates a cooldown machine. The threshold is the number of
// consecutive challenges that triggers a pause, initial is the first
// pause duration, and multiplier scales the duration after each cycle.
func NewCooldown(threshold int, initial time.Duration, multiplier float64) *Cooldown {
	return &Cooldown{
		threshold:  threshold,
		duration:   initial,
		multiplier: multiplier,
	}
}

// Observe feeds one classification into the machine. A challenge
// increments the consecutive counter; normal content resets it. The
// return value reports whether a pause is now due; it stays true until
// Wait completes.
func (c *Cooldown) Observe(class propwatch.Classification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if class == propwatch.ClassChallenge {
		c.consecutive++
		if c.consecutive >= c.threshold {
			c.pending = true
		}
	} else {
		c.consecutive = 0
	}
	return c.pending
}

// Wait blocks for the current cooldown duration if a pause is due,
// otherwise returns immediately. On normal expiry the duration is
// multiplied for next time, the consecutive counter resets, and the
// cycle count increments. Cancelling the context cuts the wait short
// without consuming the pending pause.
func (c *Cooldown) Wait(ctx context.Context) error {
	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return nil
	}
	d := c.duration
	c.state = StateCooldown
	c.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		c.mu.Lock()
		c.state = StateNormal
		c.mu.Unlock()
		return ctx.Err()
	case <-timer.C:
	}

	c.mu.Lock()
	c.duration = time.Duration(float64(c.duration) * c.multiplier)
	c.consecutive = 0
	c.cycles++
	c.pending = false
	c.state = StateNormal
	c.mu.Unlock()
	return nil
}

// Pending reports whether a pause is due but has not yet been served.
func (c *Cooldown) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// State returns the current machine state.
func (c *Cooldown) State() CooldownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Consecutive returns the current consecutive-challenge count.
func (c *Cooldown) Consecutive() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecutive
}

// Cycles returns how many cooldown pauses have completed.
func (c *Cooldown) Cycles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycles
}

// Duration returns the duration the next pause will last.
func (c *Cooldown) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}
