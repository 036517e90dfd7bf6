// Package staleness decides whether the polled feed is live and reports
// stale episodes exactly once each.
package staleness

import (
	"time"

	"github.com/luki/aquadash/internal/sensor"
)

// DefaultAfter is how long the feed may go without new data before it
// counts as stale.
const DefaultAfter = 15 * time.Second

// Transition is the outcome of observing one sample.
type Transition int

const (
	Steady  Transition = iota // no change in staleness
	Entered                   // first stale sample of an episode
	Left                      // first fresh sample after an episode
)

func (t Transition) String() string {
	switch t {
	case Entered:
		return "entered"
	case Left:
		return "left"
	}
	return "steady"
}

// Detector tracks the last fresh sample and whether the current stale
// episode has been reported. Ages are measured on the local clock only;
// the source timestamp is compared to itself, never to local time, so
// clock skew or a zone mismatch cannot make live data look stale. The
// zero value is not usable; call New.
type Detector struct {
	after     time.Duration
	lastFresh time.Time
	stale     bool
	notified  bool

	// sourceTS is the last source timestamp seen and advancedAt the local
	// time it last moved.
	sourceTS   time.Time
	advancedAt time.Time
}

// New creates a detector that treats a feed as stale once its timestamp
// has not moved for longer than after.
func New(after time.Duration) *Detector {
	if after <= 0 {
		after = DefaultAfter
	}
	return &Detector{after: after}
}

// After returns the configured staleness threshold.
func (d *Detector) After() time.Duration { return d.after }

// IsStale classifies a sample without changing detector state. A sample is
// stale when the source flags it, or when it repeats the previous source
// timestamp and that timestamp was first seen more than the threshold ago.
func (d *Detector) IsStale(s sensor.Sample, now time.Time) bool {
	if s.Stale {
		return true
	}
	if s.Timestamp.IsZero() || d.advancedAt.IsZero() || !s.Timestamp.Equal(d.sourceTS) {
		return false
	}
	return now.Sub(d.advancedAt) > d.after
}

// Observe records a sample and reports the staleness edge it caused.
func (d *Detector) Observe(s sensor.Sample, now time.Time) Transition {
	stale := d.IsStale(s, now)
	if !s.Timestamp.IsZero() && !s.Timestamp.Equal(d.sourceTS) {
		d.sourceTS = s.Timestamp
		d.advancedAt = now
	}

	if stale {
		d.stale = true
		if d.notified {
			return Steady
		}
		d.notified = true
		return Entered
	}

	d.lastFresh = now
	wasStale := d.stale
	d.stale = false
	d.notified = false
	if wasStale {
		return Left
	}
	return Steady
}

// Stale reports whether the most recent sample was stale.
func (d *Detector) Stale() bool { return d.stale }

// LastFresh returns when the last fresh sample was observed (zero if never).
func (d *Detector) LastFresh() time.Time { return d.lastFresh }

// Elapsed returns the time since the last fresh sample, or 0 if none yet.
func (d *Detector) Elapsed(now time.Time) time.Duration {
	if d.lastFresh.IsZero() {
		return 0
	}
	return now.Sub(d.lastFresh)
}
