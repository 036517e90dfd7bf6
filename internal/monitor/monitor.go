// Package monitor implements the live tank dashboard TUI using BubbleTea.
// Update is the only place session state changes: poll ticks, fetch
// results and session timers all arrive as messages.
package monitor

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/luki/aquadash/internal/chart"
	"github.com/luki/aquadash/internal/classify"
	"github.com/luki/aquadash/internal/history"
	"github.com/luki/aquadash/internal/notify"
	"github.com/luki/aquadash/internal/poll"
	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/session"
	"github.com/luki/aquadash/internal/state"
)

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

type sampleMsg struct {
	sample sensor.Sample
	time   time.Time
}

type fetchErrMsg struct{ err error }

type timerMsg struct{ event session.Event }

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the dashboard.
type Model struct {
	sess      *session.Session
	series    map[sensor.ID]*chart.Series
	fetcher   poll.Fetcher
	interval  time.Duration
	now       func() time.Time
	inFlight  bool
	failures  int
	lastPoll  time.Time
	startTime time.Time
	width     int
	height    int
	scroll    int
	paused    bool
}

// New creates the dashboard model and its session.
func New(fetcher poll.Fetcher, interval time.Duration, cfg session.Config, desktop notify.Sink) (Model, error) {
	series := make(map[sensor.ID]*chart.Series)
	sinks := make(map[sensor.ID]session.SeriesSink)
	for _, id := range sensor.IDs() {
		s := chart.NewSeries(id)
		series[id] = s
		sinks[id] = s
	}
	sess, err := session.New(cfg, sinks, desktop)
	if err != nil {
		return Model{}, err
	}
	if interval <= 0 {
		interval = poll.DefaultInterval
	}
	return Model{
		sess:      sess,
		series:    series,
		fetcher:   fetcher,
		interval:  interval,
		now:       time.Now,
		startTime: time.Now(),
		inFlight:  true,
	}, nil
}

// Session exposes the underlying session for inspection.
func (m Model) Session() *session.Session { return m.sess }

// ── Commands ─────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchCmd() tea.Cmd {
	fetcher, now := m.fetcher, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := fetcher.Fetch(ctx)
		if err != nil {
			return fetchErrMsg{err}
		}
		return sampleMsg{sample: s, time: now()}
	}
}

// timerCmds turns session timers into delayed messages.
func timerCmds(timers []session.Timer) tea.Cmd {
	if len(timers) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(timers))
	for _, t := range timers {
		ev := t.Event
		cmds = append(cmds, tea.Tick(t.After, func(time.Time) tea.Msg {
			return timerMsg{ev}
		}))
	}
	return tea.Batch(cmds...)
}

// ── Init / Update ────────────────────────────────────────────────────

// Init starts the first fetch right away; New already marks it in flight.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		case "home":
			m.scroll = 0
		case " ", "p":
			m.paused = !m.paused
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.paused || m.inFlight {
			return m, m.tickCmd()
		}
		m.inFlight = true
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case sampleMsg:
		m.inFlight = false
		m.lastPoll = msg.time
		return m, timerCmds(m.observe(msg.sample, msg.time))

	case fetchErrMsg:
		m.inFlight = false
		m.failures++
		log.Printf("[poll] fetch failed: %v", msg.err)

	case timerMsg:
		return m, timerCmds(m.sess.Fire(msg.event))
	}

	return m, nil
}

// observe shields the event loop from a panicking pipeline step.
func (m Model) observe(s sensor.Sample, now time.Time) (timers []session.Timer) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[poll] observe panicked: %v", r)
			timers = nil
		}
	}()
	return m.sess.Observe(s, now)
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorName     = lipgloss.Color("147")
	colorID       = lipgloss.Color("238")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOk       = lipgloss.Color("78")
	colorWarn     = lipgloss.Color("208")
	colorCrit     = lipgloss.Color("196")
	colorPaused   = lipgloss.Color("196")
)

func classColor(s classify.Severity) lipgloss.Color {
	switch s {
	case classify.Warning:
		return state.ColorWarning
	case classify.Danger:
		return state.ColorDanger
	case classify.Critical:
		return state.ColorCritical
	}
	return colorOk
}

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string
	sections = append(sections, m.renderTitleBar(contentWidth))
	if n := m.renderNotifications(contentWidth); n != "" {
		sections = append(sections, n)
	}
	sections = append(sections, m.renderSensorPanels(contentWidth)...)
	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visibleLines := m.height
	if visibleLines < 5 {
		visibleLines = 5
	}
	maxScroll := len(lines) - visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	start := m.scroll
	if start > maxScroll {
		start = maxScroll
	}
	end := start + visibleLines
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("AQUADASH")

	snap := m.sess.Snapshot()
	dimS := lipgloss.NewStyle().Foreground(colorDim)

	statusParts := []string{state.RenderBadge(snap.State)}

	if !snap.LastFresh.IsZero() {
		statusParts = append(statusParts, dimS.Render("data "+humanize.Time(snap.LastFresh)))
	} else {
		statusParts = append(statusParts, dimS.Render("waiting for data"))
	}
	if m.failures > 0 {
		statusParts = append(statusParts, dimS.Render(humanize.Comma(int64(m.failures))+" failed polls"))
	}
	statusParts = append(statusParts, dimS.Render("up "+fmtDuration(m.now().Sub(m.startTime))))

	if m.paused {
		p := lipgloss.NewStyle().
			Foreground(colorPaused).
			Bold(true).
			Render("PAUSED")
		statusParts = append(statusParts, p)
	}

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m Model) renderNotifications(width int) string {
	entries := m.sess.Notifications()
	if len(entries) == 0 {
		return ""
	}
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		color := classColor(e.Class)
		if e.Fading {
			color = colorDim
		}
		tag := lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("%-8s", e.Class))
		msg := lipgloss.NewStyle().Foreground(colorLabel).Faint(e.Fading).Render(e.Message)
		rows = append(rows, tag+" "+msg)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderSensorPanels(totalWidth int) []string {
	innerWidth := totalWidth - 4
	if innerWidth < 30 {
		innerWidth = 30
	}

	const valueW = 10
	slots := history.DefaultCapacity
	cell := (innerWidth - valueW - 30) / slots
	if cell < 1 {
		cell = 1
	}
	if cell > 12 {
		cell = 12
	}

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")
	table := m.sess.Thresholds()

	var panels []string
	for _, id := range sensor.IDs() {
		s := m.series[id]
		th := table.Lookup(id)
		win := s.Window()
		st := s.Style()

		header := lipgloss.NewStyle().Bold(true).Foreground(colorName).Render(sensor.FriendlyName(id)) +
			"  " + lipgloss.NewStyle().Foreground(colorID).Render(id.Name())
		if u := id.Unit(); u != "" {
			header += "  " + dimS.Render(u)
		}

		readColor := st.Line
		if s.Display() == chart.Placeholder {
			readColor = colorDim
		}
		value := lipgloss.NewStyle().
			Width(valueW).
			Align(lipgloss.Right).
			Render(chart.RenderValue(s.Display(), readColor))

		lo, hi := chart.Range(th, win.Values())
		points := win.LastNPoints(slots)
		spark := chart.RenderSparkline(points, slots, cell, lo, hi, st.Line, s.Fill())

		var stats string
		if win.Len() > 0 {
			stats = dimS.Render(" avg") + valS.Render(" "+sensor.FormatNumber(round1(win.Avg()))) +
				dimS.Render(" lo") + valS.Render(" "+sensor.FormatNumber(win.Min)) +
				dimS.Render(" pk") + valS.Render(" "+sensor.FormatNumber(win.Peak))
		}

		rows := []string{header, value + " " + frameL + spark + frameR + stats}

		pad := strings.Repeat(" ", valueW+2)
		if win.Len() > 0 {
			scale := chart.RenderThresholdScale(win.Last(), th, lo, hi, slots*cell, st.Line)
			rows = append(rows, pad+scale)
			if tl := chart.RenderTimeline(points, slots, cell); strings.TrimSpace(tl) != "" {
				rows = append(rows, pad+tl)
			}
		}

		panels = append(panels, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(totalWidth).
			Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	}
	return panels
}

func (m Model) renderFooter(width int) string {
	okS := lipgloss.NewStyle().Foreground(colorOk).Render("██")
	warnS := lipgloss.NewStyle().Foreground(colorWarn).Render("██")
	critS := lipgloss.NewStyle().Foreground(colorCrit).Render("██")
	markS := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Render("▪")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	legend := okS + dimS.Render(" ok ") +
		warnS + dimS.Render(" warn ") +
		critS + dimS.Render(" danger ") +
		markS + dimS.Render(" bound")

	keyS := lipgloss.NewStyle().Foreground(colorLabel)
	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  j/k") + keyS.Render(":scroll") +
		dimS.Render("  p") + keyS.Render(":pause")

	gap := width - lipgloss.Width(legend) - lipgloss.Width(keys) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(legend + strings.Repeat(" ", gap) + keys)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
