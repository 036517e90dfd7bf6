// Package state implements the system-wide severity state machine and the
// badge and notification tables derived from it.
package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/aquadash/internal/classify"
)

// State is the system-wide condition. Offline sits outside the severity
// ordering and preempts it for display.
type State int

const (
	Offline State = iota
	Normal
	Warning
	Danger
	Critical
)

func (s State) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case Warning:
		return "WARNING"
	case Danger:
		return "DANGER"
	case Critical:
		return "CRITICAL"
	case Offline:
		return "OFFLINE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FromSeverity lifts a classifier severity into a system state.
func FromSeverity(s classify.Severity) State {
	switch s {
	case classify.Warning:
		return Warning
	case classify.Danger:
		return Danger
	case classify.Critical:
		return Critical
	}
	return Normal
}

// Policy selects which input drives the machine and how alerts are raised.
type Policy int

const (
	// Transition trusts the upstream state label and notifies only on changes.
	Transition Policy = iota
	// PerSensor derives the state locally and raises one alert per sensor.
	PerSensor
)

func (p Policy) String() string {
	if p == PerSensor {
		return "per-sensor"
	}
	return "transition"
}

// ParsePolicy accepts "transition" or "per-sensor".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transition", "":
		return Transition, nil
	case "per-sensor", "persensor", "sensor":
		return PerSensor, nil
	}
	return Transition, fmt.Errorf("unknown policy %q", s)
}

// Change records an edge between two distinct states.
type Change struct {
	From, To State
}

// Machine holds the current and previous state. Side effects fire only on
// an edge, never while a state persists.
type Machine struct {
	policy   Policy
	current  State
	previous State
}

// NewMachine returns a machine in the Offline state.
func NewMachine(p Policy) *Machine {
	return &Machine{policy: p, current: Offline, previous: Offline}
}

// Policy returns the policy chosen at construction.
func (m *Machine) Policy() Policy { return m.policy }

// Current returns the present state.
func (m *Machine) Current() State { return m.current }

// Previous returns the state before the last change.
func (m *Machine) Previous() State { return m.previous }

// Set moves the machine to next. It reports the change, or false when next
// equals the current state.
func (m *Machine) Set(next State) (Change, bool) {
	if next == m.current {
		return Change{}, false
	}
	c := Change{From: m.current, To: next}
	m.previous, m.current = m.current, next
	return c, true
}

// Resolve picks the next state for a fresh sample. Under Transition the
// upstream label wins when present; otherwise the local aggregate is used.
func (m *Machine) Resolve(upstream string, hasUpstream bool, local classify.Severity) State {
	if m.policy == Transition && hasUpstream {
		if sev, err := classify.ParseSeverity(upstream); err == nil {
			return FromSeverity(sev)
		}
	}
	return FromSeverity(local)
}

// Alert describes the notification raised on entering a state.
type Alert struct {
	Title    string
	Message  string
	Class    classify.Severity
	Duration time.Duration
	Desktop  bool // also push an OS notification
}

// durations for in-page notifications by class.
const (
	WarningDuration  = 5 * time.Second
	DangerDuration   = 15 * time.Second
	CriticalDuration = 30 * time.Second
)

// AlertFor returns the notification for entering s, or false when entering
// s is silent (Normal, Offline).
func AlertFor(s State) (Alert, bool) {
	switch s {
	case Warning:
		return Alert{
			Title:    "Tank warning",
			Message:  "⚠️ System state: WARNING",
			Class:    classify.Warning,
			Duration: WarningDuration,
		}, true
	case Danger:
		return Alert{
			Title:    "Tank danger",
			Message:  "🚨 System state: DANGER",
			Class:    classify.Danger,
			Duration: DangerDuration,
			Desktop:  true,
		}, true
	case Critical:
		return Alert{
			Title:    "Tank CRITICAL",
			Message:  "🔥 System state: CRITICAL",
			Class:    classify.Critical,
			Duration: CriticalDuration,
			Desktop:  true,
		}, true
	}
	return Alert{}, false
}

// Badge colors per state.
var (
	ColorNormal   = lipgloss.Color("78")  // green
	ColorWarning  = lipgloss.Color("208") // orange
	ColorDanger   = lipgloss.Color("196") // red
	ColorCritical = lipgloss.Color("88")  // dark red
	ColorOffline  = lipgloss.Color("244") // gray
)

// BadgeColor returns the badge color for s; unknown states render gray.
func BadgeColor(s State) lipgloss.Color {
	switch s {
	case Normal:
		return ColorNormal
	case Warning:
		return ColorWarning
	case Danger:
		return ColorDanger
	case Critical:
		return ColorCritical
	}
	return ColorOffline
}

// RenderBadge renders s as a colored pill.
func RenderBadge(s State) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("231")).
		Background(BadgeColor(s)).
		Padding(0, 1).
		Render(s.String())
}
