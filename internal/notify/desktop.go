package notify

import (
	"context"
	"log"
	"time"

	"github.com/gen2brain/beeep"
)

// Sink receives OS-level push notifications. Implementations must not
// block the caller.
type Sink interface {
	Notify(title, body string)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(_, _ string) {}

// Desktop pushes notifications to the OS notification center (libnotify,
// macOS Notification Center or Windows toasts). It is a silent no-op
// unless the user enabled it.
type Desktop struct {
	granted bool
	timeout time.Duration
	send    func(title, body string) error
}

// NewDesktop returns a sink that delivers only when enabled is true.
func NewDesktop(enabled bool) *Desktop {
	return &Desktop{granted: enabled, timeout: 5 * time.Second, send: beeepSend}
}

// Granted reports whether notifications will actually be delivered.
func (d *Desktop) Granted() bool { return d.granted }

// Notify fires the notification on its own goroutine and returns at once.
// A delivery slower than the timeout is logged and abandoned.
func (d *Desktop) Notify(title, body string) {
	if !d.granted {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[notify] desktop notification panic: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- d.send(title, body) }()
		select {
		case err := <-done:
			if err != nil {
				log.Printf("[notify] desktop notification: %v", err)
			}
		case <-ctx.Done():
			log.Printf("[notify] desktop notification: %v", ctx.Err())
		}
	}()
}

func beeepSend(title, body string) error {
	return beeep.Notify(title, body, "")
}
