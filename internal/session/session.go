// Package session wires the staleness detector, classifier, state machine,
// notification queue and blink controller into one explicit session
// object. A Session never blocks and never starts goroutines: it returns
// Timers that its driver schedules and later feeds back through Fire.
package session

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/luki/aquadash/internal/blink"
	"github.com/luki/aquadash/internal/chart"
	"github.com/luki/aquadash/internal/classify"
	"github.com/luki/aquadash/internal/notify"
	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/staleness"
	"github.com/luki/aquadash/internal/state"
	"github.com/luki/aquadash/internal/threshold"
)

// LabelLayout formats the x-axis label of each chart point.
const LabelLayout = "15:04:05"

// SeriesSink is the render-side capability of one sensor chart.
type SeriesSink interface {
	AppendPoint(label string, v float64, t time.Time)
	Clear()
	SetStyle(st chart.Style)
	SetDisplay(text string)
	SetBlink(p blink.Phase)
}

// Config selects the session policies.
type Config struct {
	Policy           state.Policy
	Thresholds       threshold.Table
	StaleAfter       time.Duration
	BlinkPeriod      time.Duration
	MaxNotifications int
	Logger           *log.Logger
}

// Event is a due timer handed back to Fire.
type Event interface{ event() }

// BlinkTick flips the fill of one blinking series.
type BlinkTick struct{ blink.Tick }

// FadeNotification starts the fade-out of an expired notification.
type FadeNotification struct{ ID string }

// RemoveNotification drops a notification once its fade is done.
type RemoveNotification struct{ ID string }

func (BlinkTick) event()          {}
func (FadeNotification) event()   {}
func (RemoveNotification) event() {}

// Timer asks the driver to deliver Event after the given delay.
type Timer struct {
	After time.Duration
	Event Event
}

// Session is the single in-memory monitoring session. It is created at
// startup and lives for the life of the process; all methods must be
// called from one goroutine.
type Session struct {
	policy   state.Policy
	table    threshold.Table
	detector *staleness.Detector
	machine  *state.Machine
	queue    *notify.Queue
	blinker  *blink.Controller
	series   map[sensor.ID]SeriesSink
	desktop  notify.Sink
	logger   *log.Logger

	verdicts   []classify.Verdict
	last       sensor.Sample
	haveSample bool
}

// New builds a session. Every known sensor must have a sink.
func New(cfg Config, series map[sensor.ID]SeriesSink, desktop notify.Sink) (*Session, error) {
	table := cfg.Thresholds
	if table == nil {
		table = threshold.Default()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	for _, id := range sensor.IDs() {
		if series[id] == nil {
			return nil, fmt.Errorf("session: no series sink for %s", id)
		}
	}
	if desktop == nil {
		desktop = notify.Nop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Session{
		policy:   cfg.Policy,
		table:    table,
		detector: staleness.New(cfg.StaleAfter),
		machine:  state.NewMachine(cfg.Policy),
		queue:    notify.NewQueue(cfg.MaxNotifications),
		series:   series,
		desktop:  desktop,
		logger:   logger,
	}
	s.blinker = blink.New(cfg.BlinkPeriod, blinkTarget(series))
	return s, nil
}

type blinkTarget map[sensor.ID]SeriesSink

func (t blinkTarget) SetBlink(series string, p blink.Phase) {
	if sink, ok := t[sensor.ID(series)]; ok {
		sink.SetBlink(p)
	}
}

// Observe feeds one successfully fetched sample through the pipeline and
// returns the timers it started.
func (s *Session) Observe(sample sensor.Sample, now time.Time) []Timer {
	s.last = sample
	s.haveSample = true

	tr := s.detector.Observe(sample, now)
	if s.detector.Stale() {
		if tr == staleness.Entered {
			return s.enterStale(now)
		}
		return nil
	}
	if tr == staleness.Left {
		s.leaveStale()
	}
	return s.applyFresh(sample, now)
}

// Fire handles a due timer and returns any follow-up timers.
func (s *Session) Fire(ev Event) []Timer {
	switch ev := ev.(type) {
	case BlinkTick:
		if next, ok := s.blinker.Advance(ev.Tick); ok {
			return []Timer{{After: s.blinker.Period(), Event: BlinkTick{next}}}
		}
	case FadeNotification:
		if s.queue.Fade(ev.ID) {
			return []Timer{{After: notify.FadeDuration, Event: RemoveNotification{ID: ev.ID}}}
		}
	case RemoveNotification:
		s.queue.Remove(ev.ID)
	}
	return nil
}

func (s *Session) enterStale(now time.Time) []Timer {
	s.machine.Set(state.Offline)
	s.verdicts = nil

	secs := int(s.detector.After().Round(time.Second) / time.Second)
	msg := fmt.Sprintf("🚨 No new sensor data received for %d seconds!", secs)
	timers := s.post(s.key("feed", classify.Danger, msg), msg, classify.Danger, state.DangerDuration, now)
	s.desktop.Notify("Sensor feed stale", msg)

	for _, id := range sensor.IDs() {
		sink := s.series[id]
		sink.SetDisplay(chart.Placeholder)
		sink.Clear()
		if tick, ok := s.blinker.Start(string(id)); ok {
			timers = append(timers, Timer{After: s.blinker.Period(), Event: BlinkTick{tick}})
		}
	}
	if el := s.detector.Elapsed(now); el > 0 {
		s.logger.Printf("[session] feed stale, last fresh data %s ago", el.Round(time.Second))
	} else {
		s.logger.Printf("[session] feed stale before any fresh data")
	}
	return timers
}

func (s *Session) leaveStale() {
	for _, id := range sensor.IDs() {
		s.blinker.Stop(string(id))
	}
	s.logger.Printf("[session] feed recovered")
}

func (s *Session) applyFresh(sample sensor.Sample, now time.Time) []Timer {
	s.verdicts = classify.Sample(sample, s.table)

	label := now.Format(LabelLayout)
	for _, v := range s.verdicts {
		sink := s.series[v.Sensor]
		sink.SetDisplay(sensor.FormatValue(v.Sensor, v.Value))
		sink.AppendPoint(label, v.Value, now)
		sink.SetStyle(chart.StyleFor(v.Severity))
	}

	next := s.machine.Resolve(sample.State, sample.HasState, classify.Aggregate(s.verdicts))
	change, changed := s.machine.Set(next)

	var timers []Timer
	switch s.policy {
	case state.PerSensor:
		for _, v := range s.verdicts {
			if v.Severity == classify.Normal {
				continue
			}
			d := state.WarningDuration
			if v.Severity >= classify.Danger {
				d = state.DangerDuration
			}
			posted := s.post(notify.MessageKey(v.Message), v.Message, v.Severity, d, now)
			if len(posted) > 0 && v.Severity >= classify.Danger {
				s.desktop.Notify(v.Sensor.Name()+" danger", v.Message)
			}
			timers = append(timers, posted...)
		}
	default:
		if !changed {
			break
		}
		s.logger.Printf("[session] state %s -> %s", change.From, change.To)
		alert, ok := state.AlertFor(change.To)
		if !ok {
			break
		}
		// The queue dedups the in-page copy only; every edge pushes.
		timers = append(timers, s.post(notify.SourceKey("system", alert.Class), alert.Message, alert.Class, alert.Duration, now)...)
		if alert.Desktop {
			s.desktop.Notify(alert.Title, s.alertBody(alert))
		}
	}
	return timers
}

// alertBody lists the offending readings, falling back to the state text.
func (s *Session) alertBody(a state.Alert) string {
	var msgs []string
	for _, v := range s.verdicts {
		if v.Message != "" {
			msgs = append(msgs, v.Message)
		}
	}
	if len(msgs) == 0 {
		return a.Message
	}
	return strings.Join(msgs, "\n")
}

// key picks the dedup identity for an alert under the session policy.
func (s *Session) key(source string, sev classify.Severity, message string) notify.Key {
	if s.policy == state.PerSensor {
		return notify.MessageKey(message)
	}
	return notify.SourceKey(source, sev)
}

// post shows a notification and returns its expiry timer, or nil when the
// queue dropped it as a duplicate.
func (s *Session) post(key notify.Key, msg string, class classify.Severity, d time.Duration, now time.Time) []Timer {
	e, ok := s.queue.PostKey(key, msg, class, d, now)
	if !ok {
		return nil
	}
	s.logger.Printf("[notify] %s: %s", class, msg)
	return []Timer{{After: e.Duration, Event: FadeNotification{ID: e.ID}}}
}
