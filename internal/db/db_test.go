package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAndEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clawmonitor_test.db")

	database, err := New(path)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, database.Migrate())

	// Migrate is idempotent.
	require.NoError(t, database.Migrate())

	database.RecordEvent(EventDetect, "", "429 retry-after: 120")
	database.RecordEvent(EventSwitch, "openai/gpt-4o", "")
	database.RecordEvent(EventRestore, "anthropic/claude-sonnet-4-5", "")

	events, err := database.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Newest first.
	assert.Equal(t, EventRestore, events[0].Kind)
	assert.Equal(t, EventSwitch, events[1].Kind)
	assert.Equal(t, EventDetect, events[2].Kind)
	assert.Equal(t, "429 retry-after: 120", events[2].Detail)
}

func TestRecentEvents_Limit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clawmonitor_limit.db")

	database, err := New(path)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, database.Migrate())

	for i := 0; i < 5; i++ {
		database.RecordEvent(EventDetect, "", "line")
	}
	events, err := database.RecentEvents(2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
