package poll

import (
	"context"
	"log"
	"time"

	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/session"
)

// Handler consumes samples and due timers. It is only ever called from the
// loop goroutine.
type Handler interface {
	Observe(s sensor.Sample, now time.Time) []session.Timer
	Fire(ev session.Event) []session.Timer
}

// Loop polls Fetcher every Interval and feeds Handler. Fetches run on their
// own goroutine so a slow data source never delays blink or expiry timers.
type Loop struct {
	Fetcher  Fetcher
	Handler  Handler
	Interval time.Duration
	Logger   *log.Logger
	Now      func() time.Time

	// AfterPoll, if set, runs on the loop goroutine after every completed
	// fetch, with the fetch error (nil on success).
	AfterPoll func(err error)
}

type result struct {
	sample sensor.Sample
	err    error
}

// Run polls until ctx is cancelled. A failed fetch is logged and the tick
// skipped with no state change; the next tick retries. At most one fetch
// is in flight.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	results := make(chan result, 1)
	events := make(chan session.Event, 16)
	inFlight := false

	schedule := func(timers []session.Timer) {
		for _, tm := range timers {
			ev := tm.Event
			time.AfterFunc(tm.After, func() {
				select {
				case events <- ev:
				case <-ctx.Done():
				}
			})
		}
	}

	fetch := func() {
		inFlight = true
		go func() {
			s, err := l.Fetcher.Fetch(ctx)
			select {
			case results <- result{sample: s, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	fetch()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if inFlight {
				l.logf("[poll] previous fetch still running, skipping tick")
				continue
			}
			fetch()

		case r := <-results:
			inFlight = false
			if r.err != nil {
				l.logf("[poll] fetch error: %v", r.err)
			} else {
				schedule(l.observe(r.sample))
			}
			if l.AfterPoll != nil {
				l.AfterPoll(r.err)
			}

		case ev := <-events:
			schedule(l.fire(ev))
		}
	}
}

// observe isolates the handler so a defect in one sample never stops the
// loop.
func (l *Loop) observe(s sensor.Sample) (timers []session.Timer) {
	defer func() {
		if r := recover(); r != nil {
			l.logf("[poll] sample handler panic: %v", r)
			timers = nil
		}
	}()
	return l.Handler.Observe(s, l.now())
}

func (l *Loop) fire(ev session.Event) (timers []session.Timer) {
	defer func() {
		if r := recover(); r != nil {
			l.logf("[poll] timer handler panic: %v", r)
			timers = nil
		}
	}()
	return l.Handler.Fire(ev)
}

func (l *Loop) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Loop) logf(format string, args ...interface{}) {
	if l.Logger != nil {
		l.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
