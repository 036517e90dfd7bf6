package monitor

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/aquadash/internal/notify"
	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/session"
	"github.com/luki/aquadash/internal/state"
	"github.com/luki/aquadash/internal/threshold"
)

type nopFetcher struct{}

func (nopFetcher) Fetch(context.Context) (sensor.Sample, error) {
	return sensor.Sample{}, errors.New("not used")
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, err := New(nopFetcher{}, time.Second, session.Config{
		Policy:           state.Transition,
		Thresholds:       threshold.Default(),
		StaleAfter:       15 * time.Second,
		BlinkPeriod:      500 * time.Millisecond,
		MaxNotifications: notify.DefaultMax,
		Logger:           log.New(io.Discard, "", 0),
	}, notify.Nop{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 200})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestViewBeforeResize(t *testing.T) {
	m, err := New(nopFetcher{}, time.Second, session.Config{
		StaleAfter:       15 * time.Second,
		BlinkPeriod:      500 * time.Millisecond,
		MaxNotifications: notify.DefaultMax,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.View(); !strings.Contains(got, "Initializing") {
		t.Errorf("View before size: %q", got)
	}
}

func TestFreshSampleRendersReadings(t *testing.T) {
	m := newTestModel(t)
	now := time.Now()
	m, _ = update(t, m, sampleMsg{
		sample: sensor.Sample{Timestamp: now, Level: 50, Temp: 25, PH: 7, TDS: 400},
		time:   now,
	})

	view := m.View()
	for _, want := range []string{"NORMAL", "50 cm", "25 °C", "400 ppm", "Water Level"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if len(m.Session().Notifications()) != 0 {
		t.Errorf("normal sample should be quiet, got %v", m.Session().Notifications())
	}
}

func TestStaleSampleShowsPlaceholder(t *testing.T) {
	m := newTestModel(t)
	now := time.Now()
	m, cmd := update(t, m, sampleMsg{
		sample: sensor.Sample{Timestamp: now, Level: 50, Temp: 25, PH: 7, TDS: 400, Stale: true},
		time:   now,
	})
	if cmd == nil {
		t.Fatal("entering stale should schedule blink and fade timers")
	}

	view := m.View()
	for _, want := range []string{"OFFLINE", "No Data", "No new sensor data received for 15 seconds!"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.Session().State() != state.Offline {
		t.Errorf("state: got %v, want OFFLINE", m.Session().State())
	}
}

func TestFetchErrorKeepsState(t *testing.T) {
	m := newTestModel(t)
	now := time.Now()
	m, _ = update(t, m, sampleMsg{
		sample: sensor.Sample{Timestamp: now, Level: 50, Temp: 25, PH: 7, TDS: 400},
		time:   now,
	})
	before := m.Session().Snapshot()

	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)
	m, cmd := update(t, m, fetchErrMsg{errors.New("connection refused")})
	if cmd != nil {
		t.Error("fetch error should not schedule anything")
	}
	after := m.Session().Snapshot()
	if after.State != before.State || !after.LastFresh.Equal(before.LastFresh) {
		t.Errorf("fetch error changed session: before %v, after %v", before.State, after.State)
	}
	if !strings.Contains(m.View(), "1 failed polls") {
		t.Error("failed poll count not shown")
	}
}

func TestPauseToggle(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if !m.paused || !strings.Contains(m.View(), "PAUSED") {
		t.Fatal("p should pause")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if m.paused {
		t.Error("second p should resume")
	}
}

func TestTickSkipsWhileInFlight(t *testing.T) {
	m := newTestModel(t)
	if !m.inFlight {
		t.Fatal("initial fetch should be in flight")
	}
	m, _ = update(t, m, tickMsg(time.Now()))
	if !m.inFlight {
		t.Error("tick should leave the pending fetch in flight")
	}
	m, _ = update(t, m, fetchErrMsg{errors.New("timeout")})
	if m.inFlight {
		t.Error("fetch result should clear in flight")
	}
	m, _ = update(t, m, tickMsg(time.Now()))
	if !m.inFlight {
		t.Error("tick should start a new fetch")
	}
}
