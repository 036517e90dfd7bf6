// Package blink drives the attention blink on stale chart series. Each
// series owns at most one repeating tick; the driver schedules ticks and
// feeds them back through Advance.
package blink

import "time"

// DefaultPeriod is the interval between fill flips.
const DefaultPeriod = 500 * time.Millisecond

// Phase is the fill a series should show.
type Phase int

const (
	Baseline Phase = iota // not blinking
	Dim
	Bright
)

func (p Phase) String() string {
	switch p {
	case Dim:
		return "dim"
	case Bright:
		return "bright"
	}
	return "baseline"
}

// Target receives fill changes.
type Target interface {
	SetBlink(series string, p Phase)
}

// Tick is a scheduled flip. Gen ties it to one Start; ticks from a stopped
// run are ignored.
type Tick struct {
	Series string
	Gen    uint64
}

type handle struct {
	active bool
	on     bool
	gen    uint64
}

// Controller owns one blink handle per series.
type Controller struct {
	period  time.Duration
	target  Target
	handles map[string]*handle
}

// New creates a controller that paints onto target every period.
func New(period time.Duration, target Target) *Controller {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Controller{period: period, target: target, handles: make(map[string]*handle)}
}

// Period returns the flip interval.
func (c *Controller) Period() time.Duration { return c.period }

// Start begins blinking series and returns the first tick to schedule. It
// returns false, scheduling nothing, if series is already blinking.
func (c *Controller) Start(series string) (Tick, bool) {
	h, ok := c.handles[series]
	if !ok {
		h = &handle{}
		c.handles[series] = h
	}
	if h.active {
		return Tick{}, false
	}
	h.active = true
	h.on = false
	h.gen++
	return Tick{Series: series, Gen: h.gen}, true
}

// Advance handles a due tick: it flips the fill and returns the next tick.
// It returns false for a tick whose run was stopped.
func (c *Controller) Advance(t Tick) (Tick, bool) {
	h, ok := c.handles[t.Series]
	if !ok || !h.active || h.gen != t.Gen {
		return Tick{}, false
	}
	if h.on {
		c.target.SetBlink(t.Series, Bright)
	} else {
		c.target.SetBlink(t.Series, Dim)
	}
	h.on = !h.on
	return t, true
}

// Stop cancels blinking and restores the baseline fill. It returns false
// if series was not blinking.
func (c *Controller) Stop(series string) bool {
	h, ok := c.handles[series]
	if !ok || !h.active {
		return false
	}
	h.active = false
	h.on = false
	h.gen++
	c.target.SetBlink(series, Baseline)
	return true
}

// Active reports whether series is blinking.
func (c *Controller) Active(series string) bool {
	h, ok := c.handles[series]
	return ok && h.active
}
