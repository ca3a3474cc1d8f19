// Package scanner detects rate limit signals in the gateway log.
package scanner

import (
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rate limit indicators searched for in log lines, case-insensitive.
var patterns = []string{
	"rate limit",
	"rate_limit",
	"ratelimit",
	"429",
	"too many requests",
	"quota exceeded",
}

var (
	retryAfterRe = regexp.MustCompile(`(?i)retry[-_]after["\s:]+(\d+)`)
	resetEpochRe = regexp.MustCompile(`(?i)x-ratelimit-reset["\s:]+(\d{10})`)
)

// Signal is one detected rate limit occurrence.
type Signal struct {
	DetectedAt time.Time
	ResetAt    time.Time
	Line       string
}

// Scanner searches a bounded tail of the gateway log for rate limit signals.
type Scanner struct {
	lookbackLines int
	cooldown      time.Duration
}

// New creates a Scanner. lookbackLines bounds how many trailing log lines
// are inspected; cooldown is the reset estimate used when the matched line
// carries no parseable reset information.
func New(lookbackLines int, cooldown time.Duration) *Scanner {
	return &Scanner{lookbackLines: lookbackLines, cooldown: cooldown}
}

// Scan reads the last lookbackLines lines of the log at path and returns the
// newest line containing a rate limit indicator, or nil when there is none.
// A missing or unreadable log is "no signal", not an error — the gateway may
// simply not have written anything yet.
func (sc *Scanner) Scan(path string) *Signal {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("scanner: gateway log %s: %v", path, err)
		return nil
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) > sc.lookbackLines {
		lines = lines[len(lines)-sc.lookbackLines:]
	}

	// Newest first, stop at the first match.
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !matches(line) {
			continue
		}
		trimmed := strings.TrimSpace(line)
		log.Printf("scanner: rate limit pattern found: %s", trimmed)
		now := time.Now()
		return &Signal{
			DetectedAt: now,
			ResetAt:    sc.extractResetTime(line, now),
			Line:       trimmed,
		}
	}
	return nil
}

func matches(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// extractResetTime pulls a reset instant out of a matched line.
// Tries retry-after seconds, then a 10-digit x-ratelimit-reset epoch,
// then falls back to the configured cooldown. Malformed numbers fall
// through to the next rule.
func (sc *Scanner) extractResetTime(line string, now time.Time) time.Time {
	if m := retryAfterRe.FindStringSubmatch(line); m != nil {
		if secs, err := strconv.Atoi(m[1]); err == nil {
			log.Printf("scanner: found retry-after: %d seconds", secs)
			return now.Add(time.Duration(secs) * time.Second)
		}
	}

	if m := resetEpochRe.FindStringSubmatch(line); m != nil {
		if epoch, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			log.Printf("scanner: found x-ratelimit-reset: %d", epoch)
			return time.Unix(epoch, 0)
		}
	}

	log.Printf("scanner: using default cooldown: %s", sc.cooldown)
	return now.Add(sc.cooldown)
}
