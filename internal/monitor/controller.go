// Package monitor implements the rate limit check cycle and the
// switch/restore state machine.
package monitor

import (
	"context"
	"log"
	"time"

	"github.com/Manjussha/clawmonitor/internal/config"
	"github.com/Manjussha/clawmonitor/internal/gateway"
	"github.com/Manjussha/clawmonitor/internal/notify"
	"github.com/Manjussha/clawmonitor/internal/scanner"
	"github.com/Manjussha/clawmonitor/internal/schedule"
	"github.com/Manjussha/clawmonitor/internal/state"
)

// EventRecorder records monitor events in the history store.
// May be nil when history is disabled.
type EventRecorder interface {
	RecordEvent(kind, model, detail string)
}

// Event kinds recorded by the controller. Mirrors db's constants without
// importing the store.
const (
	eventDetect        = "detect"
	eventSwitch        = "switch"
	eventSwitchFailed  = "switch_failed"
	eventRestore       = "restore"
	eventRestoreFailed = "restore_failed"
)

// Controller performs the NORMAL→FALLBACK and FALLBACK→NORMAL transitions.
// Each transition is all-or-nothing from the caller's perspective: a failed
// gateway patch aborts it with the state untouched.
type Controller struct {
	cfg     *config.Config
	store   *state.Store
	gateway *gateway.Client
	notify  *notify.Dispatcher
	sched   *schedule.Adapter
	events  EventRecorder
}

// NewController wires the controller's collaborators.
func NewController(
	cfg *config.Config,
	store *state.Store,
	gw *gateway.Client,
	notifier *notify.Dispatcher,
	sched *schedule.Adapter,
	events EventRecorder,
) *Controller {
	return &Controller{
		cfg:     cfg,
		store:   store,
		gateway: gw,
		notify:  notifier,
		sched:   sched,
		events:  events,
	}
}

// Switch moves the gateway to the fallback model in response to sig,
// mutating and persisting the caller's state record. Returns false — with
// the state unchanged — when the gateway patch fails.
func (c *Controller) Switch(ctx context.Context, s *state.State, sig *scanner.Signal) bool {
	log.Printf("=== SWITCHING TO FALLBACK ===")
	log.Printf("From: %s", c.cfg.PrimaryModel)
	log.Printf("To: %s", c.cfg.FallbackModel)

	if err := c.gateway.PatchModel(ctx, c.cfg.FallbackModel); err != nil {
		log.Printf("ERROR: gateway patch failed: %v", err)
		c.record(eventSwitchFailed, c.cfg.FallbackModel, err.Error())
		return false
	}
	log.Printf("Gateway config updated successfully")

	now := time.Now()
	s.RateLimited = true
	s.CurrentModel = c.cfg.FallbackModel
	s.SwitchedAt = &now
	if sig != nil {
		s.ResetAt = &sig.ResetAt
	}
	if err := c.store.Save(s); err != nil {
		log.Printf("ERROR: save state: %v", err)
	}

	c.notify.Switched(c.cfg.PrimaryModel, c.cfg.FallbackModel, s.ResetAt)

	var resetAt time.Time
	if s.ResetAt != nil {
		resetAt = *s.ResetAt
	}
	if err := c.sched.Schedule(resetAt); err != nil {
		log.Printf("ERROR: schedule restoration: %v", err)
	}

	c.record(eventSwitch, c.cfg.FallbackModel, "")
	return true
}

// Restore moves the gateway back to the primary model. Safe to call from
// any state: restoring an already-normal deployment re-issues the patch and
// ends in the same place.
func (c *Controller) Restore(ctx context.Context) bool {
	log.Printf("=== RESTORING PRIMARY MODEL ===")
	log.Printf("From: %s", c.cfg.FallbackModel)
	log.Printf("To: %s", c.cfg.PrimaryModel)

	if err := c.gateway.PatchModel(ctx, c.cfg.PrimaryModel); err != nil {
		log.Printf("ERROR: gateway patch failed: %v", err)
		c.record(eventRestoreFailed, c.cfg.PrimaryModel, err.Error())
		return false
	}
	log.Printf("Gateway config restored successfully")

	s := c.store.Load()
	s.RateLimited = false
	s.CurrentModel = c.cfg.PrimaryModel
	s.ResetAt = nil
	s.SwitchedAt = nil
	if err := c.store.Save(s); err != nil {
		log.Printf("ERROR: save state: %v", err)
	}

	c.notify.Restored(c.cfg.PrimaryModel)
	c.sched.Remove()

	c.record(eventRestore, c.cfg.PrimaryModel, "")
	return true
}

func (c *Controller) record(kind, model, detail string) {
	if c.events != nil {
		c.events.RecordEvent(kind, model, detail)
	}
}
