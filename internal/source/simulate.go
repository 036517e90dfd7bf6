package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/threshold"
)

// Simulator posts random-walk readings to a data source endpoint.
type Simulator struct {
	Endpoint string
	Interval time.Duration
	Client   *http.Client

	// Excursion is the chance per step that one reading jumps outside its
	// ok range.
	Excursion float64

	table threshold.Table
	rng   *rand.Rand
	cur   map[sensor.ID]float64
}

// NewSimulator starts every reading in the middle of its ok range.
func NewSimulator(endpoint string, interval time.Duration, table threshold.Table, seed uint64) *Simulator {
	if table == nil {
		table = threshold.Default()
	}
	sim := &Simulator{
		Endpoint:  endpoint,
		Interval:  interval,
		Client:    &http.Client{Timeout: 5 * time.Second},
		Excursion: 0.05,
		table:     table,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		cur:       make(map[sensor.ID]float64),
	}
	for _, id := range sensor.IDs() {
		th := table.Lookup(id)
		sim.cur[id] = (th.Min + th.Max) / 2
	}
	return sim
}

// Step advances the walk and returns the next sample.
func (sim *Simulator) Step() sensor.Sample {
	for _, id := range sensor.IDs() {
		th := sim.table.Lookup(id)
		span := th.DangerMax - th.DangerMin
		v := sim.cur[id] + (sim.rng.Float64()-0.5)*span*0.04

		// Pull back toward the middle of the ok range.
		mid := (th.Min + th.Max) / 2
		v += (mid - v) * 0.05

		if sim.rng.Float64() < sim.Excursion {
			if sim.rng.IntN(2) == 0 {
				v = th.DangerMin - span*0.05*sim.rng.Float64()
			} else {
				v = th.DangerMax + span*0.05*sim.rng.Float64()
			}
		}
		sim.cur[id] = round(v, 2)
	}
	return sensor.Sample{
		Level: sim.cur[sensor.Level],
		Temp:  sim.cur[sensor.Temp],
		PH:    sim.cur[sensor.PH],
		TDS:   sim.cur[sensor.TDS],
	}
}

// Post sends one sample to the endpoint.
func (sim *Simulator) Post(ctx context.Context, s sensor.Sample) error {
	data, err := sensor.Encode(s)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sim.Endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := sim.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post %s: %s", sim.Endpoint, resp.Status)
	}
	return nil
}

// Run posts a sample every Interval until ctx is cancelled. Post failures
// are logged and the walk continues.
func (sim *Simulator) Run(ctx context.Context) error {
	interval := sim.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s := sim.Step()
		if err := sim.Post(ctx, s); err != nil {
			log.Printf("[simulate] %v", err)
		} else {
			log.Printf("[simulate] level=%g temp=%g ph=%g tds=%g", s.Level, s.Temp, s.PH, s.TDS)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
