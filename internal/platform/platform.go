// Package platform provides OS-aware helpers for paths.
// All code that needs to behave differently per OS must use this package.
// Never use runtime.GOOS checks scattered across the codebase — put them here.
package platform

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// IsWindows returns true when running on Windows.
func IsWindows() bool { return runtime.GOOS == "windows" }

// DefaultWorkDir returns the OS-appropriate data directory for ClawMonitor.
//
//	Linux:   ~/.local/share/clawmonitor
//	macOS:   ~/Library/Application Support/ClawMonitor
//	Windows: %APPDATA%\ClawMonitor
//
// If WORK_DIR env var is set, that takes priority (used in Docker).
func DefaultWorkDir() string {
	if env := os.Getenv("WORK_DIR"); env != "" {
		return env
	}
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "ClawMonitor")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "ClawMonitor")
	default: // linux
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "clawmonitor")
	}
}

// DefaultGatewayLog returns the usual location of the OpenClaw gateway log:
// ~/.openclaw/logs/gateway.log
func DefaultGatewayLog() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".openclaw", "logs", "gateway.log")
}

// DataPath returns a path inside the work directory.
// Uses filepath.Join so it is correct on all platforms.
func DataPath(parts ...string) string {
	base := DefaultWorkDir()
	return filepath.Join(append([]string{base}, parts...)...)
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// LookupCLI finds a CLI tool by name in PATH.
// On Windows it also tries the .exe variant automatically.
func LookupCLI(name string) (string, bool) {
	path, err := exec.LookPath(name)
	if err == nil {
		return path, true
	}
	if IsWindows() {
		path, err = exec.LookPath(name + ".exe")
		if err == nil {
			return path, true
		}
	}
	return "", false
}
