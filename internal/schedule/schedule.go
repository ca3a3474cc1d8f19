// Package schedule materializes the restoration cron entry as a reference
// artifact for the operator to install.
package schedule

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Adapter computes the restoration time and writes the cron reference file.
// It does not install anything into the real crontab — registration stays a
// manual step, and the artifact's presence is the operator's signal that a
// restoration is pending.
type Adapter struct {
	cronFile string
	buffer   time.Duration
}

// New creates an Adapter writing to cronFile. buffer is added on top of the
// rate limit reset time so the limit has definitely expired when the restore
// fires.
func New(cronFile string, buffer time.Duration) *Adapter {
	return &Adapter{cronFile: cronFile, buffer: buffer}
}

// Schedule writes the reference artifact for a restore at resetAt + buffer.
// A zero resetAt is logged and skipped.
func (a *Adapter) Schedule(resetAt time.Time) error {
	if resetAt.IsZero() {
		log.Printf("schedule: no reset time available, cannot schedule restoration")
		return nil
	}

	restoreTime := resetAt.Add(a.buffer)

	// Standard 5-field cron line: minute hour day-of-month month weekday.
	spec := fmt.Sprintf("%d %d %d %d *",
		restoreTime.Minute(), restoreTime.Hour(), restoreTime.Day(), int(restoreTime.Month()))

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("schedule.Schedule: parse cron spec %q: %w", spec, err)
	}
	log.Printf("schedule: restoration scheduled for %s (next cron activation %s)",
		restoreTime.UTC().Format("2006-01-02 15:04 UTC"), sched.Next(time.Now()).Format(time.RFC3339))

	exe, err := os.Executable()
	if err != nil {
		exe = "clawmonitor"
	}
	line := fmt.Sprintf("%s %s --restore", spec, exe)
	log.Printf("schedule: add this to crontab: %s", line)

	content := fmt.Sprintf("# Scheduled restoration at %s\n%s\n", restoreTime.Format(time.RFC3339), line)
	if err := os.MkdirAll(filepath.Dir(a.cronFile), 0755); err != nil {
		return fmt.Errorf("schedule.Schedule: mkdir: %w", err)
	}
	if err := os.WriteFile(a.cronFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("schedule.Schedule: write %s: %w", a.cronFile, err)
	}
	return nil
}

// Remove deletes the reference artifact. A missing file is fine.
func (a *Adapter) Remove() {
	if err := os.Remove(a.cronFile); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("schedule: remove %s: %v", a.cronFile, err)
		}
		return
	}
	log.Printf("schedule: restoration cron reference removed")
}

// Pending reports whether a restoration artifact exists.
func (a *Adapter) Pending() bool {
	_, err := os.Stat(a.cronFile)
	return err == nil
}
