package classify

import (
	"testing"

	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/threshold"
)

func TestClassify(t *testing.T) {
	table := threshold.Default()
	tests := []struct {
		id      sensor.ID
		value   float64
		sev     Severity
		dir     Direction
		message string
	}{
		{sensor.Level, 50, Normal, Inside, ""},
		{sensor.Level, 28, Warning, Low, "LEVEL LOW: 28"},
		{sensor.Level, 85, Warning, High, "LEVEL HIGH: 85"},
		{sensor.Level, 20, Danger, Low, "LEVEL ⚠️ DANGER LOW: 20"},
		{sensor.Temp, 36.5, Danger, High, "TEMP ⚠️ DANGER HIGH: 36.5"},
		{sensor.PH, 6.2, Warning, Low, "PH LOW: 6.2"},
		{sensor.TDS, 150, Danger, Low, "TDS ⚠️ DANGER LOW: 150"},
		{sensor.TDS, 1200, Danger, High, "TDS ⚠️ DANGER HIGH: 1200"},
	}
	for _, tt := range tests {
		got := Classify(tt.id, tt.value, table.Lookup(tt.id))
		if got.Severity != tt.sev || got.Direction != tt.dir || got.Message != tt.message {
			t.Errorf("Classify(%s, %v) = {%v %v %q}, want {%v %v %q}",
				tt.id, tt.value, got.Severity, got.Direction, got.Message, tt.sev, tt.dir, tt.message)
		}
	}
}

func TestClassifyBoundsAreInside(t *testing.T) {
	for id, th := range threshold.Default() {
		for _, v := range []float64{th.Min, th.Max} {
			if got := Classify(id, v, th); got.Severity != Normal {
				t.Errorf("%s at ok bound %v: got %v, want NORMAL", id, v, got.Severity)
			}
		}
		for _, v := range []float64{th.DangerMin, th.DangerMax} {
			if got := Classify(id, v, th); got.Severity != Warning {
				t.Errorf("%s at danger bound %v: got %v, want WARNING", id, v, got.Severity)
			}
		}
	}
}

func TestClassifyBands(t *testing.T) {
	th := threshold.Threshold{Min: 30, Max: 80, DangerMin: 25, DangerMax: 90}
	for v := 0.0; v <= 120; v += 0.5 {
		got := Classify(sensor.Level, v, th)
		var want Severity
		switch {
		case v < th.DangerMin || v > th.DangerMax:
			want = Danger
		case v < th.Min || v > th.Max:
			want = Warning
		default:
			want = Normal
		}
		if got.Severity != want {
			t.Errorf("v=%v: got %v, want %v", v, got.Severity, want)
		}
		if (want == Normal) != (got.Message == "") {
			t.Errorf("v=%v: message %q inconsistent with %v", v, got.Message, want)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	th := threshold.Default().Lookup(sensor.PH)
	a := Classify(sensor.PH, 9.1, th)
	b := Classify(sensor.PH, 9.1, th)
	if a != b {
		t.Errorf("repeat classification differs: %+v vs %+v", a, b)
	}
}

func TestSampleAllNormal(t *testing.T) {
	s := sensor.Sample{Level: 50, Temp: 25, PH: 7.0, TDS: 400}
	verdicts := Sample(s, threshold.Default())
	if len(verdicts) != 4 {
		t.Fatalf("expected 4 verdicts, got %d", len(verdicts))
	}
	for _, v := range verdicts {
		if v.Severity != Normal || v.Message != "" {
			t.Errorf("%s: got %v %q", v.Sensor, v.Severity, v.Message)
		}
	}
	if Aggregate(verdicts) != Normal {
		t.Errorf("Aggregate: got %v", Aggregate(verdicts))
	}
}

func TestAggregateWorst(t *testing.T) {
	s := sensor.Sample{Level: 28, Temp: 25, PH: 7.0, TDS: 150}
	if got := Aggregate(Sample(s, threshold.Default())); got != Danger {
		t.Errorf("Aggregate: got %v, want DANGER", got)
	}
}

func TestParseSeverity(t *testing.T) {
	for i, label := range []string{"normal", "WARNING", " Danger ", "CRITICAL"} {
		got, err := ParseSeverity(label)
		if err != nil || got != Severity(i) {
			t.Errorf("ParseSeverity(%q) = %v, %v", label, got, err)
		}
	}
	if _, err := ParseSeverity("OFFLINE"); err == nil {
		t.Error("OFFLINE is not a severity")
	}
	if Worst() != Normal || Worst(Warning, Critical, Danger) != Critical {
		t.Error("Worst ordering broken")
	}
}
