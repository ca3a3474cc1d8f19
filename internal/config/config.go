// Package config loads monitor configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/Manjussha/clawmonitor/internal/platform"
)

// Config holds all runtime configuration for ClawMonitor.
// Constructed once in main and passed into the components that need it —
// nothing reads the environment after Load returns.
type Config struct {
	PrimaryModel  string
	FallbackModel string

	WorkDir        string
	StateFile      string
	DBPath         string
	MonitorLogFile string
	GatewayLogFile string
	CronFile       string

	GatewayBin string

	LookbackLines   int
	DefaultCooldown time.Duration
	RestoreBuffer   time.Duration
	PatchTimeout    time.Duration
	NotifyTimeout   time.Duration

	TelegramToken  string
	TelegramChatID int64

	WebhookURL string
}

// Load reads environment variables and returns a Config.
// Uses sensible defaults for optional fields.
func Load() *Config {
	workDir := getEnv("WORK_DIR", platform.DefaultWorkDir())

	chatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)

	return &Config{
		PrimaryModel:  getEnv("PRIMARY_MODEL", "anthropic/claude-sonnet-4-5"),
		FallbackModel: getEnv("FALLBACK_MODEL", "openai/gpt-4o"),

		WorkDir:        workDir,
		StateFile:      getEnv("STATE_FILE", platform.DataPath("rate-limit-state.json")),
		DBPath:         getEnv("DB_PATH", platform.DataPath("clawmonitor.db")),
		MonitorLogFile: getEnv("MONITOR_LOG_FILE", platform.DataPath("rate-limit-monitor.log")),
		GatewayLogFile: getEnv("GATEWAY_LOG_FILE", platform.DefaultGatewayLog()),
		CronFile:       getEnv("CRON_FILE", platform.DataPath("restoration-cron.txt")),

		GatewayBin: getEnv("GATEWAY_BIN", "openclaw"),

		LookbackLines:   getEnvInt("LOOKBACK_LINES", 500),
		DefaultCooldown: getEnvDuration("DEFAULT_COOLDOWN", 60*time.Minute),
		RestoreBuffer:   getEnvDuration("RESTORE_BUFFER", 5*time.Minute),
		PatchTimeout:    getEnvDuration("PATCH_TIMEOUT", 30*time.Second),
		NotifyTimeout:   getEnvDuration("NOTIFY_TIMEOUT", 60*time.Second),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: chatID,

		WebhookURL: os.Getenv("WEBHOOK_URL"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
