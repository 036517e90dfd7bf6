// Package notify owns the stack of transient on-screen notifications and
// the OS push notification sink.
package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/luki/aquadash/internal/classify"
)

const (
	// DefaultMax is the most notifications visible at once.
	DefaultMax = 7
	// FadeDuration is how long an expired entry fades before removal.
	FadeDuration = time.Second
	// DefaultDuration applies to normal and warning notices.
	DefaultDuration = 5 * time.Second
)

// Key identifies an alert for deduplication.
type Key string

// MessageKey dedups on the exact rendered text.
func MessageKey(message string) Key { return Key(message) }

// SourceKey dedups on where an alert came from and how bad it is, so two
// renderings of the same condition collapse into one.
func SourceKey(source string, sev classify.Severity) Key {
	return Key(source + "|" + sev.String())
}

// Entry is one visible notification.
type Entry struct {
	ID       string
	Key      Key
	Message  string
	Class    classify.Severity
	Duration time.Duration
	Posted   time.Time
	Fading   bool
}

// Queue is the bounded newest-first set of visible entries.
type Queue struct {
	max     int
	entries []Entry // newest first
}

// NewQueue creates a queue that shows at most max entries.
func NewQueue(max int) *Queue {
	if max <= 0 {
		max = DefaultMax
	}
	return &Queue{max: max, entries: make([]Entry, 0, max+1)}
}

// Post shows message keyed by its own text.
func (q *Queue) Post(message string, class classify.Severity, d time.Duration, now time.Time) (Entry, bool) {
	return q.PostKey(MessageKey(message), message, class, d, now)
}

// PostKey inserts a new entry at the head. It returns false, and changes
// nothing, when an entry with the same key is still visible. When the queue
// is full the oldest entry is evicted immediately.
func (q *Queue) PostKey(key Key, message string, class classify.Severity, d time.Duration, now time.Time) (Entry, bool) {
	if q.Has(key) {
		return Entry{}, false
	}
	if d <= 0 {
		d = DefaultDuration
	}
	e := Entry{
		ID:       uuid.NewString(),
		Key:      key,
		Message:  message,
		Class:    class,
		Duration: d,
		Posted:   now,
	}
	q.entries = append(q.entries, Entry{})
	copy(q.entries[1:], q.entries)
	q.entries[0] = e
	if len(q.entries) > q.max {
		q.entries = q.entries[:q.max]
	}
	return e, true
}

// Has reports whether an entry with key is visible, fading ones included.
func (q *Queue) Has(key Key) bool {
	for _, e := range q.entries {
		if e.Key == key {
			return true
		}
	}
	return false
}

// Fade marks the entry as fading. It returns false if id is gone.
func (q *Queue) Fade(id string) bool {
	for i := range q.entries {
		if q.entries[i].ID == id {
			q.entries[i].Fading = true
			return true
		}
	}
	return false
}

// Remove drops the entry with id. Removing an evicted or unknown id is a
// no-op that returns false.
func (q *Queue) Remove(id string) bool {
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Visible returns a copy of the visible entries, newest first.
func (q *Queue) Visible() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of visible entries.
func (q *Queue) Len() int { return len(q.entries) }
