// ClawMonitor — rate limit auto-switch monitor for the OpenClaw gateway.
// Detects upstream rate limiting in the gateway log and toggles the default
// model between primary and fallback, restoring once the limit expires.
//
// Usage:
//
//	clawmonitor            # run one check cycle
//	clawmonitor --test     # simulate a detection, exercise the switch path
//	clawmonitor --restore  # force restore the primary model
//	clawmonitor --history  # print recent monitor events
//
// Designed to be invoked every minute from cron; one cycle per process run.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Manjussha/clawmonitor/internal/config"
	"github.com/Manjussha/clawmonitor/internal/db"
	"github.com/Manjussha/clawmonitor/internal/gateway"
	"github.com/Manjussha/clawmonitor/internal/monitor"
	"github.com/Manjussha/clawmonitor/internal/notify"
	"github.com/Manjussha/clawmonitor/internal/platform"
	"github.com/Manjussha/clawmonitor/internal/scanner"
	"github.com/Manjussha/clawmonitor/internal/schedule"
	"github.com/Manjussha/clawmonitor/internal/state"
	"github.com/Manjussha/clawmonitor/internal/telegram"
	"github.com/Manjussha/clawmonitor/internal/webhook"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	testMode := hasArg("--test")
	forceRestore := hasArg("--restore")
	history := hasArg("--history")

	cfg := config.Load()

	if err := platform.EnsureDir(cfg.WorkDir); err != nil {
		log.Fatalf("EnsureDir %s: %v", cfg.WorkDir, err)
	}

	// Tee the monitor log to stderr and the log file, like the gateway does.
	if f, err := os.OpenFile(cfg.MonitorLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err != nil {
		log.Printf("open monitor log %s: %v (console only)", cfg.MonitorLogFile, err)
	} else {
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	log.Printf("ClawMonitor %s", Version)

	// Event history is best-effort: a broken DB downgrades to log-only.
	var events *db.DB
	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Printf("db.New: %v (continuing without event history)", err)
	} else {
		defer database.Close()
		if err := database.Migrate(); err != nil {
			log.Printf("db.Migrate: %v (continuing without event history)", err)
		} else {
			events = database
		}
	}

	if history {
		printHistory(events)
		return
	}

	// Surface a missing gateway binary up front rather than as a late exec
	// failure inside the first patch call.
	if _, ok := platform.LookupCLI(cfg.GatewayBin); !ok {
		log.Printf("WARNING: %s not found in PATH — gateway patches will fail until it is installed", cfg.GatewayBin)
	}

	bot, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID, cfg.NotifyTimeout)
	if err != nil {
		log.Printf("Telegram init error (continuing without Telegram): %v", err)
	}
	notifier := notify.New(telegramSender(bot), webhookSender(webhook.New(cfg.WebhookURL, cfg.NotifyTimeout)))

	store := state.NewStore(cfg.StateFile, cfg.PrimaryModel, cfg.FallbackModel)
	sc := scanner.New(cfg.LookbackLines, cfg.DefaultCooldown)
	gw := gateway.NewClient(cfg.GatewayBin, &gateway.ExecRunner{Timeout: cfg.PatchTimeout})
	sched := schedule.New(cfg.CronFile, cfg.RestoreBuffer)

	ctrl := monitor.NewController(cfg, store, gw, notifier, sched, eventRecorder(events))
	driver := monitor.NewDriver(cfg, store, sc, ctrl, eventRecorder(events), testMode)

	ctx := context.Background()
	if forceRestore {
		driver.ForceRestore(ctx)
		return
	}
	driver.RunCheck(ctx)
}

func hasArg(name string) bool {
	for _, a := range os.Args[1:] {
		if a == name {
			return true
		}
	}
	return false
}

func printHistory(events *db.DB) {
	if events == nil {
		log.Printf("event history unavailable")
		return
	}
	list, err := events.RecentEvents(50)
	if err != nil {
		log.Printf("history: %v", err)
		return
	}
	if len(list) == 0 {
		fmt.Println("no events recorded yet")
		return
	}
	for _, e := range list {
		line := fmt.Sprintf("%s  %-14s %s", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Kind, e.Model)
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		fmt.Println(line)
	}
}

// telegramSender wraps *telegram.Bot to implement notify.Sender.
// Returns nil if bot is nil (Telegram disabled).
func telegramSender(bot *telegram.Bot) notify.Sender {
	if bot == nil {
		return nil
	}
	return bot
}

// webhookSender wraps *webhook.Sender to implement notify.Sender.
// Returns nil if the sender is nil (webhooks disabled).
func webhookSender(s *webhook.Sender) notify.Sender {
	if s == nil {
		return nil
	}
	return s
}

// eventRecorder converts a possibly-nil *db.DB into a monitor.EventRecorder
// without smuggling a typed nil into the interface.
func eventRecorder(d *db.DB) monitor.EventRecorder {
	if d == nil {
		return nil
	}
	return d
}
