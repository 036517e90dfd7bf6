// Package sensor defines the polled water-quality sample and its wire
// format: four readings (level, temp, ph, tds) plus staleness and an
// optional upstream state label.
package sensor

import (
	"fmt"
	"strconv"
	"time"
)

// Sample is one polled snapshot of all sensor readings.
type Sample struct {
	Timestamp time.Time // source-side receive time (zero if the source has none)
	Level     float64   // water level in cm
	Temp      float64   // water temperature in Celsius
	PH        float64
	TDS       float64 // total dissolved solids in ppm
	State     string  // upstream aggregate label, e.g. "DANGER" (empty if absent)
	HasState  bool
	Stale     bool
}

// Value returns the reading for id. Asking for an unknown id is a
// programming error and panics.
func (s Sample) Value(id ID) float64 {
	switch id {
	case Level:
		return s.Level
	case Temp:
		return s.Temp
	case PH:
		return s.PH
	case TDS:
		return s.TDS
	}
	panic(fmt.Sprintf("sensor: unknown id %q", string(id)))
}

// FormatNumber renders v in its shortest form, so 7.0 prints as "7".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatValue renders a reading with its unit, e.g. "50 cm".
func FormatValue(id ID, v float64) string {
	if u := id.Unit(); u != "" {
		return FormatNumber(v) + " " + u
	}
	return FormatNumber(v)
}
