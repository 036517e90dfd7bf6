package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the timestamp format emitted by the data source.
const TimeLayout = "2006-01-02 15:04:05"

// wireSample mirrors the data source JSON. Pointers distinguish a missing
// field from a zero reading.
type wireSample struct {
	Level     *float64 `json:"level"`
	Temp      *float64 `json:"temp"`
	PH        *float64 `json:"ph"`
	TDS       *float64 `json:"tds"`
	Stale     bool     `json:"stale"`
	State     *string  `json:"state"`
	Timestamp *string  `json:"timestamp"`
}

// validStates lists the accepted upstream state labels.
var validStates = []string{"NORMAL", "WARNING", "DANGER", "CRITICAL"}

// Decode parses a data source response body into a Sample. A body that is
// not a JSON object, lacks a reading, or carries an unknown state label is
// rejected.
func Decode(data []byte) (Sample, error) {
	var w wireSample
	if err := json.Unmarshal(data, &w); err != nil {
		return Sample{}, fmt.Errorf("decode sample: %w", err)
	}

	var missing []string
	if w.Level == nil {
		missing = append(missing, string(Level))
	}
	if w.Temp == nil {
		missing = append(missing, string(Temp))
	}
	if w.PH == nil {
		missing = append(missing, string(PH))
	}
	if w.TDS == nil {
		missing = append(missing, string(TDS))
	}
	if len(missing) > 0 {
		return Sample{}, fmt.Errorf("decode sample: missing %s", strings.Join(missing, ", "))
	}

	s := Sample{
		Level: *w.Level,
		Temp:  *w.Temp,
		PH:    *w.PH,
		TDS:   *w.TDS,
		Stale: w.Stale,
	}

	if w.State != nil && *w.State != "" {
		label := strings.ToUpper(strings.TrimSpace(*w.State))
		if !validState(label) {
			return Sample{}, fmt.Errorf("decode sample: unknown state %q", *w.State)
		}
		s.State = label
		s.HasState = true
	}

	if w.Timestamp != nil && *w.Timestamp != "" {
		t, err := parseTimestamp(*w.Timestamp)
		if err != nil {
			return Sample{}, fmt.Errorf("decode sample: %w", err)
		}
		s.Timestamp = t
	}

	return s, nil
}

// Encode renders s in the data source wire format.
func Encode(s Sample) ([]byte, error) {
	w := wireSample{
		Level: &s.Level,
		Temp:  &s.Temp,
		PH:    &s.PH,
		TDS:   &s.TDS,
		Stale: s.Stale,
	}
	if s.HasState {
		w.State = &s.State
	}
	if !s.Timestamp.IsZero() {
		ts := s.Timestamp.Format(TimeLayout)
		w.Timestamp = &ts
	}
	return json.Marshal(w)
}

func validState(label string) bool {
	for _, v := range validStates {
		if v == label {
			return true
		}
	}
	return false
}

func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(TimeLayout, raw, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("unrecognized timestamp " + raw)
}
