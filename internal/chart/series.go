package chart

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/aquadash/internal/blink"
	"github.com/luki/aquadash/internal/classify"
	"github.com/luki/aquadash/internal/history"
	"github.com/luki/aquadash/internal/sensor"
)

// Style is the mutable look of a series: line and fill colors.
type Style struct {
	Line lipgloss.Color
	Fill lipgloss.Color
}

var (
	// Baseline is the look of a healthy series.
	Baseline = Style{Line: lipgloss.Color("33"), Fill: lipgloss.Color("17")}
	// WarningStyle marks a reading outside the ok range.
	WarningStyle = Style{Line: lipgloss.Color("208"), Fill: lipgloss.Color("94")}
	// DangerStyle marks a reading outside the danger range.
	DangerStyle = Style{Line: lipgloss.Color("196"), Fill: lipgloss.Color("52")}

	blinkBright = lipgloss.Color("124")
	blinkDim    = lipgloss.Color("233")
)

// StyleFor maps a verdict severity to its series look.
func StyleFor(s classify.Severity) Style {
	switch {
	case s >= classify.Danger:
		return DangerStyle
	case s == classify.Warning:
		return WarningStyle
	}
	return Baseline
}

// Placeholder is shown in place of a value while data is stale.
const Placeholder = "No Data"

// Series is the render-side state of one sensor chart.
type Series struct {
	ID      sensor.ID
	window  *history.Buffer
	style   Style
	blink   blink.Phase
	display string
}

// NewSeries creates an empty series with the default 10-point window.
func NewSeries(id sensor.ID) *Series {
	return &Series{
		ID:      id,
		window:  history.NewBuffer(history.DefaultCapacity),
		style:   Baseline,
		display: "--",
	}
}

// AppendPoint adds one (label, value) pair; the oldest drops past capacity.
func (s *Series) AppendPoint(label string, v float64, t time.Time) {
	s.window.Push(label, v, t)
}

// Clear empties the window.
func (s *Series) Clear() { s.window.Clear() }

// SetStyle replaces the line and fill colors.
func (s *Series) SetStyle(st Style) { s.style = st }

// SetDisplay sets the value readout text.
func (s *Series) SetDisplay(text string) { s.display = text }

// SetBlink sets the blink phase; Baseline restores the style fill.
func (s *Series) SetBlink(p blink.Phase) { s.blink = p }

// Window returns the retained points.
func (s *Series) Window() *history.Buffer { return s.window }

// Style returns the current line and fill colors, ignoring blink.
func (s *Series) Style() Style { return s.style }

// Blink returns the current blink phase.
func (s *Series) Blink() blink.Phase { return s.blink }

// Display returns the value readout text.
func (s *Series) Display() string { return s.display }

// Fill returns the effective fill: the blink color while blinking,
// otherwise the style fill.
func (s *Series) Fill() lipgloss.Color {
	switch s.blink {
	case blink.Bright:
		return blinkBright
	case blink.Dim:
		return blinkDim
	}
	return s.style.Fill
}
