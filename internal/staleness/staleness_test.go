package staleness

import (
	"testing"
	"time"

	"github.com/luki/aquadash/internal/sensor"
)

func TestSustainedStaleNotifiesOnce(t *testing.T) {
	d := New(15 * time.Second)
	now := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)

	var entered int
	for i := 0; i < 3; i++ {
		if d.Observe(sensor.Sample{Stale: true}, now.Add(time.Duration(i)*1500*time.Millisecond)) == Entered {
			entered++
		}
	}
	if entered != 1 {
		t.Errorf("expected 1 Entered over 3 stale polls, got %d", entered)
	}
	if !d.Stale() {
		t.Error("detector should be stale")
	}
}

func TestStaleFreshStaleRoundTrip(t *testing.T) {
	d := New(15 * time.Second)
	now := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)

	seq := []struct {
		stale bool
		want  Transition
	}{
		{false, Steady},
		{true, Entered},
		{true, Steady},
		{false, Left},
		{false, Steady},
		{true, Entered},
	}
	for i, step := range seq {
		got := d.Observe(sensor.Sample{Stale: step.stale}, now.Add(time.Duration(i)*time.Second))
		if got != step.want {
			t.Errorf("step %d (stale=%v): got %v, want %v", i, step.stale, got, step.want)
		}
	}
}

func TestSkewedSourceClockStaysFresh(t *testing.T) {
	d := New(15 * time.Second)
	now := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)
	source := now.Add(-time.Hour)

	for i := 0; i < 20; i++ {
		step := time.Duration(i) * 1500 * time.Millisecond
		s := sensor.Sample{Timestamp: source.Add(step)}
		if got := d.Observe(s, now.Add(step)); got != Steady {
			t.Fatalf("poll %d: got %v, want steady", i, got)
		}
	}
	if d.Stale() {
		t.Error("advancing source timestamps an hour behind local time should be fresh")
	}
}

func TestFrozenTimestamp(t *testing.T) {
	d := New(15 * time.Second)
	now := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)
	frozen := sensor.Sample{Timestamp: now.Add(3 * time.Hour)}

	seq := []struct {
		at   time.Duration
		want Transition
	}{
		{0, Steady},
		{10 * time.Second, Steady},
		{15 * time.Second, Steady}, // exactly at threshold is fresh
		{16 * time.Second, Entered},
		{20 * time.Second, Steady},
	}
	for _, step := range seq {
		if got := d.Observe(frozen, now.Add(step.at)); got != step.want {
			t.Errorf("at %v: got %v, want %v", step.at, got, step.want)
		}
	}

	moved := sensor.Sample{Timestamp: frozen.Timestamp.Add(time.Second)}
	if got := d.Observe(moved, now.Add(21*time.Second)); got != Left {
		t.Errorf("timestamp moved: got %v, want left", got)
	}
	if d.IsStale(sensor.Sample{}, now.Add(time.Hour)) {
		t.Error("sample without timestamp or flag should be fresh")
	}
}

func TestElapsed(t *testing.T) {
	d := New(0)
	if d.After() != DefaultAfter {
		t.Errorf("After: got %v, want default %v", d.After(), DefaultAfter)
	}
	now := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)
	if d.Elapsed(now) != 0 {
		t.Error("Elapsed before any sample should be 0")
	}
	d.Observe(sensor.Sample{}, now)
	d.Observe(sensor.Sample{Stale: true}, now.Add(5*time.Second))
	if got := d.Elapsed(now.Add(7 * time.Second)); got != 7*time.Second {
		t.Errorf("Elapsed: got %v, want 7s", got)
	}
	if !d.LastFresh().Equal(now) {
		t.Errorf("LastFresh: got %v", d.LastFresh())
	}
}
