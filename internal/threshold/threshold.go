// Package threshold holds the static safety bounds for each sensor.
package threshold

import (
	"fmt"

	"github.com/luki/aquadash/internal/sensor"
)

// Threshold bounds one sensor. Readings inside [Min, Max] are ok, readings
// outside [DangerMin, DangerMax] are dangerous.
type Threshold struct {
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	DangerMin float64 `yaml:"danger_min"`
	DangerMax float64 `yaml:"danger_max"`
}

// Validate checks DangerMin < Min < Max < DangerMax.
func (t Threshold) Validate() error {
	if !(t.DangerMin < t.Min && t.Min < t.Max && t.Max < t.DangerMax) {
		return fmt.Errorf("want danger_min < min < max < danger_max, got %g < %g < %g < %g",
			t.DangerMin, t.Min, t.Max, t.DangerMax)
	}
	return nil
}

// Table maps every sensor id to its bounds.
type Table map[sensor.ID]Threshold

// Default returns the factory bounds for a freshwater tank.
func Default() Table {
	return Table{
		sensor.Level: {Min: 30, Max: 80, DangerMin: 25, DangerMax: 90},
		sensor.Temp:  {Min: 20, Max: 30, DangerMin: 18, DangerMax: 35},
		sensor.PH:    {Min: 6.5, Max: 8.0, DangerMin: 6.0, DangerMax: 8.5},
		sensor.TDS:   {Min: 300, Max: 600, DangerMin: 200, DangerMax: 1000},
	}
}

// Lookup returns the bounds for id. The table is total over the fixed
// sensor set, so a missing id is a programming error and panics.
func (t Table) Lookup(id sensor.ID) Threshold {
	th, ok := t[id]
	if !ok {
		panic(fmt.Sprintf("threshold: no bounds for sensor %q", string(id)))
	}
	return th
}

// Validate checks that every known sensor has valid bounds and that no
// unknown sensor is configured.
func (t Table) Validate() error {
	for _, id := range sensor.IDs() {
		th, ok := t[id]
		if !ok {
			return fmt.Errorf("threshold %s: missing", id)
		}
		if err := th.Validate(); err != nil {
			return fmt.Errorf("threshold %s: %w", id, err)
		}
	}
	for id := range t {
		if !sensor.Known(id) {
			return fmt.Errorf("threshold %s: unknown sensor", id)
		}
	}
	return nil
}

// Override sets some bounds of one sensor. Nil fields keep the base value.
type Override struct {
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	DangerMin *float64 `yaml:"danger_min"`
	DangerMax *float64 `yaml:"danger_max"`
}

// Overrides maps sensor ids to partial bounds, as read from a config file.
type Overrides map[sensor.ID]Override

// Merge returns a copy of t with each override applied field by field.
// An override for a sensor t lacks starts from zero bounds, so Validate
// still rejects it.
func (t Table) Merge(o Overrides) Table {
	out := make(Table, len(t))
	for id, th := range t {
		out[id] = th
	}
	for id, ov := range o {
		th := out[id]
		set(&th.Min, ov.Min)
		set(&th.Max, ov.Max)
		set(&th.DangerMin, ov.DangerMin)
		set(&th.DangerMax, ov.DangerMax)
		out[id] = th
	}
	return out
}

func set(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
