package session

import (
	"time"

	"github.com/luki/aquadash/internal/classify"
	"github.com/luki/aquadash/internal/notify"
	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/state"
	"github.com/luki/aquadash/internal/threshold"
)

// Snapshot is a read-only copy of the session for rendering and tests.
type Snapshot struct {
	State         state.State
	Previous      state.State
	Stale         bool
	LastFresh     time.Time
	LastSample    sensor.Sample
	HaveSample    bool
	Verdicts      []classify.Verdict
	Notifications []notify.Entry
	Blinking      map[sensor.ID]bool
}

// Snapshot copies the current session state.
func (s *Session) Snapshot() Snapshot {
	verdicts := make([]classify.Verdict, len(s.verdicts))
	copy(verdicts, s.verdicts)

	blinking := make(map[sensor.ID]bool)
	for _, id := range sensor.IDs() {
		blinking[id] = s.blinker.Active(string(id))
	}

	return Snapshot{
		State:         s.machine.Current(),
		Previous:      s.machine.Previous(),
		Stale:         s.detector.Stale(),
		LastFresh:     s.detector.LastFresh(),
		LastSample:    s.last,
		HaveSample:    s.haveSample,
		Verdicts:      verdicts,
		Notifications: s.queue.Visible(),
		Blinking:      blinking,
	}
}

// State returns the current system state.
func (s *Session) State() state.State { return s.machine.Current() }

// Policy returns the notification policy.
func (s *Session) Policy() state.Policy { return s.policy }

// Thresholds returns the table readings are graded against.
func (s *Session) Thresholds() threshold.Table { return s.table }

// Notifications returns the visible notifications, newest first.
func (s *Session) Notifications() []notify.Entry { return s.queue.Visible() }

// StaleAfter returns the staleness threshold.
func (s *Session) StaleAfter() time.Duration { return s.detector.After() }
