package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func TestScan_NoSignal(t *testing.T) {
	sc := New(500, time.Hour)
	path := writeLog(t,
		"request completed in 120ms",
		"agent session started",
		"response streamed ok",
	)
	assert.Nil(t, sc.Scan(path))
}

func TestScan_MissingLog(t *testing.T) {
	sc := New(500, time.Hour)
	assert.Nil(t, sc.Scan(filepath.Join(t.TempDir(), "nope.log")))
}

func TestScan_MatchesKnownPatterns(t *testing.T) {
	sc := New(500, time.Hour)
	for _, line := range []string{
		"error: Rate Limit exceeded",
		"upstream returned 429",
		"too many requests, slow down",
		"quota exceeded for project",
		"provider rate_limit hit",
	} {
		sig := sc.Scan(writeLog(t, "normal line", line))
		require.NotNil(t, sig, "expected signal for %q", line)
		assert.Equal(t, strings.TrimSpace(line), sig.Line)
	}
}

func TestScan_NewestMatchWins(t *testing.T) {
	sc := New(500, time.Hour)
	path := writeLog(t,
		"429 old match",
		"some other line",
		"429 newest match",
	)
	sig := sc.Scan(path)
	require.NotNil(t, sig)
	assert.Equal(t, "429 newest match", sig.Line)
}

func TestScan_LookbackWindow(t *testing.T) {
	sc := New(10, time.Hour)
	lines := []string{"429 too old, outside the window"}
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("clean line %d", i))
	}
	assert.Nil(t, sc.Scan(writeLog(t, lines...)))
}

func TestExtractResetTime_RetryAfter(t *testing.T) {
	sc := New(500, time.Hour)
	sig := sc.Scan(writeLog(t, `429 too many requests, retry-after: 120`))
	require.NotNil(t, sig)
	assert.WithinDuration(t, sig.DetectedAt.Add(120*time.Second), sig.ResetAt, 2*time.Second)
}

func TestExtractResetTime_ResetEpoch(t *testing.T) {
	sc := New(500, time.Hour)
	epoch := time.Now().Add(45 * time.Minute).Unix()
	sig := sc.Scan(writeLog(t, fmt.Sprintf(`rate limit, x-ratelimit-reset: %d`, epoch)))
	require.NotNil(t, sig)
	assert.True(t, sig.ResetAt.Equal(time.Unix(epoch, 0)))
}

func TestExtractResetTime_DefaultCooldown(t *testing.T) {
	sc := New(500, 60*time.Minute)
	sig := sc.Scan(writeLog(t, "upstream 429 with no headers"))
	require.NotNil(t, sig)
	assert.WithinDuration(t, sig.DetectedAt.Add(60*time.Minute), sig.ResetAt, 2*time.Second)
}

func TestExtractResetTime_MalformedEpochFallsThrough(t *testing.T) {
	// 9-digit value does not match the epoch rule, so cooldown applies.
	sc := New(500, 10*time.Minute)
	sig := sc.Scan(writeLog(t, "429, x-ratelimit-reset: 123456789"))
	require.NotNil(t, sig)
	assert.WithinDuration(t, sig.DetectedAt.Add(10*time.Minute), sig.ResetAt, 2*time.Second)
}
