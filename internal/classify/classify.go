// Package classify turns a single reading into a severity verdict and the
// alert text shown to the operator.
package classify

import (
	"fmt"
	"strings"

	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/threshold"
)

// Severity is an ordered deviation class: Normal < Warning < Danger < Critical.
type Severity int

const (
	Normal Severity = iota
	Warning
	Danger
	Critical
)

var severityNames = [...]string{"NORMAL", "WARNING", "DANGER", "CRITICAL"}

func (s Severity) String() string {
	if s < Normal || s > Critical {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity maps an upstream label such as "DANGER" to a Severity.
func ParseSeverity(label string) (Severity, error) {
	upper := strings.ToUpper(strings.TrimSpace(label))
	for i, name := range severityNames {
		if name == upper {
			return Severity(i), nil
		}
	}
	return Normal, fmt.Errorf("unknown severity %q", label)
}

// Worst returns the highest severity among s, or Normal for none.
func Worst(s ...Severity) Severity {
	worst := Normal
	for _, v := range s {
		if v > worst {
			worst = v
		}
	}
	return worst
}

// Direction tells which side of the safe range a reading fell on.
type Direction int

const (
	Inside Direction = iota
	Low
	High
)

// Verdict is the classification of one reading.
type Verdict struct {
	Sensor    sensor.ID
	Value     float64
	Severity  Severity
	Direction Direction
	Message   string // empty when Severity is Normal
}

// Classify grades value against th. Bounds themselves count as inside:
// only strict crossings escalate.
func Classify(id sensor.ID, value float64, th threshold.Threshold) Verdict {
	v := Verdict{Sensor: id, Value: value}
	num := sensor.FormatNumber(value)

	switch {
	case value < th.DangerMin:
		v.Severity, v.Direction = Danger, Low
		v.Message = fmt.Sprintf("%s ⚠️ DANGER LOW: %s", id.Name(), num)
	case value > th.DangerMax:
		v.Severity, v.Direction = Danger, High
		v.Message = fmt.Sprintf("%s ⚠️ DANGER HIGH: %s", id.Name(), num)
	case value < th.Min:
		v.Severity, v.Direction = Warning, Low
		v.Message = fmt.Sprintf("%s LOW: %s", id.Name(), num)
	case value > th.Max:
		v.Severity, v.Direction = Warning, High
		v.Message = fmt.Sprintf("%s HIGH: %s", id.Name(), num)
	}
	return v
}

// Sample classifies every reading of s in sensor display order.
func Sample(s sensor.Sample, table threshold.Table) []Verdict {
	ids := sensor.IDs()
	out := make([]Verdict, 0, len(ids))
	for _, id := range ids {
		out = append(out, Classify(id, s.Value(id), table.Lookup(id)))
	}
	return out
}

// Aggregate returns the worst severity across verdicts.
func Aggregate(verdicts []Verdict) Severity {
	worst := Normal
	for _, v := range verdicts {
		worst = Worst(worst, v.Severity)
	}
	return worst
}
