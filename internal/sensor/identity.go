package sensor

import "strings"

// ID identifies one of the fixed water-quality sensors.
type ID string

const (
	Level ID = "level"
	Temp  ID = "temp"
	PH    ID = "ph"
	TDS   ID = "tds"
)

// sensorIdentityMap holds per-sensor display metadata in dashboard order.
var sensorIdentityMap = []struct {
	id       ID
	unit     string
	friendly string
}{
	{Level, "cm", "Water Level"},
	{Temp, "°C", "Temperature"},
	{PH, "", "pH"},
	{TDS, "ppm", "Dissolved Solids"},
}

// IDs returns every known sensor id in display order.
func IDs() []ID {
	ids := make([]ID, len(sensorIdentityMap))
	for i, entry := range sensorIdentityMap {
		ids[i] = entry.id
	}
	return ids
}

// Known reports whether id is one of the fixed sensors.
func Known(id ID) bool {
	for _, entry := range sensorIdentityMap {
		if entry.id == id {
			return true
		}
	}
	return false
}

// Name returns the upper-case label used in alert messages, e.g. "TDS".
func (id ID) Name() string {
	return strings.ToUpper(string(id))
}

// Unit returns the measurement unit suffix, or "" for unitless readings.
func (id ID) Unit() string {
	for _, entry := range sensorIdentityMap {
		if entry.id == id {
			return entry.unit
		}
	}
	return ""
}

// FriendlyName returns a human-readable name for a sensor id.
func FriendlyName(id ID) string {
	for _, entry := range sensorIdentityMap {
		if entry.id == id {
			return entry.friendly
		}
	}
	return "Sensor"
}
