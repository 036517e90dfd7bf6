// Package chart renders sensor series as colored sparklines with a
// threshold scale bar, and holds the per-series sink state the renderer
// draws from.
package chart

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/aquadash/internal/history"
	"github.com/luki/aquadash/internal/threshold"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Range returns the value span to chart for th. It covers the danger
// bounds with a margin and stretches to include any out-of-range values.
func Range(th threshold.Threshold, values []float64) (lo, hi float64) {
	margin := (th.DangerMax - th.DangerMin) * 0.1
	lo, hi = th.DangerMin-margin, th.DangerMax+margin
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// RenderSparkline draws slots columns of cell characters each, one slot
// per point, right-aligned. Empty slots are drawn as a dim dashed line.
func RenderSparkline(points []history.Point, slots, cell int, lo, hi float64, line, fill lipgloss.Color) string {
	if slots <= 0 || cell <= 0 {
		return ""
	}
	if len(points) > slots {
		points = points[len(points)-slots:]
	}

	span := hi - lo
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Background(fill)
	padLen := slots - len(points)
	if padLen > 0 {
		sb.WriteString(dim.Render(strings.Repeat("╌", padLen*cell)))
	}

	style := lipgloss.NewStyle().Foreground(line).Background(fill)
	for _, p := range points {
		norm := (p.Value - lo) / span
		norm = math.Max(0, math.Min(1, norm))

		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}
		sb.WriteString(style.Render(strings.Repeat(string(sparkBlocks[idx]), cell)))
	}

	return sb.String()
}

// RenderTimeline renders the first and last point labels under a sparkline
// of the same geometry.
func RenderTimeline(points []history.Point, slots, cell int) string {
	width := slots * cell
	if len(points) == 0 || width <= 0 {
		return ""
	}
	if len(points) > slots {
		points = points[len(points)-slots:]
	}

	line := []rune(strings.Repeat(" ", width))
	place := func(pos int, label string) {
		r := []rune(label)
		if pos+len(r) > width {
			pos = width - len(r)
		}
		if pos < 0 {
			return
		}
		copy(line[pos:], r)
	}

	first := points[0]
	last := points[len(points)-1]
	start := (slots - len(points)) * cell
	place(start, first.Label)
	if len(points) > 1 && start+len([]rune(first.Label))+1 <= width-len([]rune(last.Label)) {
		place(width-len([]rune(last.Label)), last.Label)
	}

	return lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render(string(line))
}

// RenderThresholdScale renders a bar with the ok and danger bounds marked
// and a diamond at the current value.
func RenderThresholdScale(current float64, th threshold.Threshold, lo, hi float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}

	span := hi - lo
	if span <= 0 {
		span = 1
	}
	pos := func(v float64) int {
		p := int(float64(width-1) * (v - lo) / span)
		if p < 0 {
			return 0
		}
		if p >= width {
			return width - 1
		}
		return p
	}

	okPos := map[int]bool{pos(th.Min): true, pos(th.Max): true}
	dangerPos := map[int]bool{pos(th.DangerMin): true, pos(th.DangerMax): true}
	curPos := pos(current)

	dot := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	okMark := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dangerMark := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cur := lipgloss.NewStyle().Foreground(color).Bold(true)

	var sb strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == curPos:
			sb.WriteString(cur.Render("◆"))
		case dangerPos[i]:
			sb.WriteString(dangerMark.Render("▪"))
		case okPos[i]:
			sb.WriteString(okMark.Render("▪"))
		default:
			sb.WriteString(dot.Render("·"))
		}
	}
	return sb.String()
}

// RenderValue renders the readout text in the series line color.
func RenderValue(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(text)
}
