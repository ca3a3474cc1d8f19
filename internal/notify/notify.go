// Package notify routes monitor alerts to configured adapters.
package notify

import (
	"fmt"
	"log"
	"time"
)

// Sender can send a plain text message.
type Sender interface {
	Send(msg string) error
}

// Dispatcher fans a message out to all configured senders. Send failures
// are logged and swallowed — a dead notification channel must never block
// a switch or restore.
type Dispatcher struct {
	senders []Sender
}

// New creates a Dispatcher. Nil senders are skipped, so disabled adapters
// can be passed straight in. With no senders the Dispatcher only logs,
// which is a valid configuration.
func New(senders ...Sender) *Dispatcher {
	d := &Dispatcher{}
	for _, s := range senders {
		if s != nil {
			d.senders = append(d.senders, s)
		}
	}
	return d
}

// Send dispatches msg to every configured adapter.
func (d *Dispatcher) Send(msg string) {
	log.Printf("notify: %s", msg)
	for _, s := range d.senders {
		if err := s.Send(msg); err != nil {
			log.Printf("notify: send: %v", err)
		}
	}
}

// Switched sends the fallback-activation alert. resetAt may be nil when the
// reset time is unknown.
func (d *Dispatcher) Switched(primary, fallback string, resetAt *time.Time) {
	resetStr := "unknown"
	if resetAt != nil {
		resetStr = resetAt.UTC().Format("2006-01-02 15:04 UTC")
	}
	d.Send(fmt.Sprintf(
		"⚠️ *Rate Limit Detected*\n\nSwitched from %s to %s\nWill restore at: %s",
		primary, fallback, resetStr,
	))
}

// Restored sends the primary-restoration alert.
func (d *Dispatcher) Restored(primary string) {
	d.Send(fmt.Sprintf("✅ *Rate Limit Expired*\n\nRestored to %s", primary))
}
