// Package history provides the bounded trailing window of points kept per
// chart series, with min/peak/avg statistics over the window.
package history

import (
	"math"
	"time"
)

// DefaultCapacity is the number of points a chart series retains.
const DefaultCapacity = 10

// Point is a single labelled value in a series window.
type Point struct {
	Label string // x-axis label, e.g. "14:30:05"
	Value float64
	Time  time.Time
}

// Buffer stores the most recent points for one series; oldest drop first.
type Buffer struct {
	Points []Point
	Max    int // capacity
	Min    float64
	Peak   float64
}

// NewBuffer creates a window with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		Points: make([]Point, 0, capacity),
		Max:    capacity,
		Min:    math.MaxFloat64,
		Peak:   -math.MaxFloat64,
	}
}

// Push appends a point, evicting the oldest when full. Min and Peak are
// recomputed over the retained window.
func (b *Buffer) Push(label string, v float64, t time.Time) {
	p := Point{Label: label, Value: v, Time: t}
	if len(b.Points) >= b.Max {
		copy(b.Points, b.Points[1:])
		b.Points[len(b.Points)-1] = p
	} else {
		b.Points = append(b.Points, p)
	}
	b.recompute()
}

func (b *Buffer) recompute() {
	b.Min = math.MaxFloat64
	b.Peak = -math.MaxFloat64
	for _, p := range b.Points {
		if p.Value < b.Min {
			b.Min = p.Value
		}
		if p.Value > b.Peak {
			b.Peak = p.Value
		}
	}
}

// Clear empties the window.
func (b *Buffer) Clear() {
	b.Points = b.Points[:0]
	b.Min = math.MaxFloat64
	b.Peak = -math.MaxFloat64
}

// Len returns the number of retained points.
func (b *Buffer) Len() int { return len(b.Points) }

// Last returns the most recent value, or 0 if empty.
func (b *Buffer) Last() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	return b.Points[len(b.Points)-1].Value
}

// Avg returns the average value across the window.
func (b *Buffer) Avg() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range b.Points {
		sum += p.Value
	}
	return sum / float64(len(b.Points))
}

// Values returns the retained values, oldest first.
func (b *Buffer) Values() []float64 {
	vals := make([]float64, 0, len(b.Points))
	for _, p := range b.Points {
		vals = append(vals, p.Value)
	}
	return vals
}

// Labels returns the retained labels, oldest first.
func (b *Buffer) Labels() []string {
	labels := make([]string, 0, len(b.Points))
	for _, p := range b.Points {
		labels = append(labels, p.Label)
	}
	return labels
}

// LastNPoints returns a copy of the last n points.
func (b *Buffer) LastNPoints(n int) []Point {
	if n <= 0 || len(b.Points) == 0 {
		return nil
	}
	start := len(b.Points) - n
	if start < 0 {
		start = 0
	}
	out := make([]Point, len(b.Points[start:]))
	copy(out, b.Points[start:])
	return out
}
