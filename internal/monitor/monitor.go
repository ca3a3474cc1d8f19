package monitor

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Manjussha/clawmonitor/internal/config"
	"github.com/Manjussha/clawmonitor/internal/scanner"
	"github.com/Manjussha/clawmonitor/internal/state"
)

// Driver runs one check cycle per process invocation. It only ever moves
// the deployment NORMAL→FALLBACK; the reverse transition happens solely via
// ForceRestore, which the scheduled cron entry invokes.
type Driver struct {
	cfg      *config.Config
	store    *state.Store
	scanner  *scanner.Scanner
	ctrl     *Controller
	events   EventRecorder
	testMode bool
}

// NewDriver creates a Driver. testMode synthesizes a detection instead of
// scanning, to exercise the switch path deterministically.
func NewDriver(
	cfg *config.Config,
	store *state.Store,
	sc *scanner.Scanner,
	ctrl *Controller,
	events EventRecorder,
	testMode bool,
) *Driver {
	return &Driver{
		cfg:      cfg,
		store:    store,
		scanner:  sc,
		ctrl:     ctrl,
		events:   events,
		testMode: testMode,
	}
}

// RunCheck runs a single monitoring check cycle.
func (d *Driver) RunCheck(ctx context.Context) {
	log.Printf("%s", strings.Repeat("=", 60))
	log.Printf("Starting rate limit check")

	var sig *scanner.Signal

	if d.testMode {
		log.Printf("TEST MODE: simulating rate limit detection")
		now := time.Now()
		sig = &scanner.Signal{
			DetectedAt: now,
			ResetAt:    now.Add(time.Hour),
			Line:       "TEST: Simulated 429 rate limit error",
		}
	} else {
		s := d.store.Load()
		if s.Mode() == state.ModeFallback {
			d.reportFallback(s)
			return
		}
		sig = d.scanner.Scan(d.cfg.GatewayLogFile)
	}

	if sig == nil {
		log.Printf("No rate limit detected - all clear")
		log.Printf("Check complete")
		return
	}

	log.Printf("RATE LIMIT DETECTED!")
	log.Printf("Details: reset_at=%s line=%q", sig.ResetAt.Format(time.RFC3339), sig.Line)
	if d.events != nil {
		d.events.RecordEvent(eventDetect, "", sig.Line)
	}

	// Persist the reset estimate before attempting the switch, so a failed
	// patch still leaves the detection on record for the next cycle. The
	// same in-memory record flows into Switch; the file is not re-read
	// mid-transition.
	s := d.store.Load()
	s.ResetAt = &sig.ResetAt
	if err := d.store.Save(s); err != nil {
		log.Printf("ERROR: save state: %v", err)
	}

	if d.ctrl.Switch(ctx, s, sig) {
		log.Printf("Successfully switched to fallback model")
	} else {
		log.Printf("ERROR: failed to switch to fallback model")
	}
	log.Printf("Check complete")
}

// reportFallback logs the current fallback status without acting on it.
// Restoration is the scheduled cron entry's job, not this path's.
func (d *Driver) reportFallback(s *state.State) {
	if s.ResetAt == nil {
		log.Printf("ERROR: invalid reset time in state")
		return
	}
	if time.Now().After(*s.ResetAt) || time.Now().Equal(*s.ResetAt) {
		log.Printf("Rate limit should be expired, checking for restoration...")
		log.Printf("Waiting for scheduled restoration cron job")
		return
	}
	log.Printf("Still rate limited, %s remaining until restoration",
		time.Until(*s.ResetAt).Round(time.Second))
}

// ForceRestore runs the restore transition unconditionally, bypassing
// detection and the fallback deferral.
func (d *Driver) ForceRestore(ctx context.Context) bool {
	log.Printf("FORCE RESTORE requested")
	return d.ctrl.Restore(ctx)
}
