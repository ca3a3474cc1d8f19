package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	primary  = "anthropic/claude-sonnet-4-5"
	fallback = "openai/gpt-4o"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state.json"), primary, fallback)
}

func TestLoad_MissingFile(t *testing.T) {
	st := newTestStore(t)
	s := st.Load()
	assert.False(t, s.RateLimited)
	assert.Equal(t, primary, s.CurrentModel)
	assert.Equal(t, ModeNormal, s.Mode())
	assert.Nil(t, s.ResetAt)
	assert.Nil(t, s.SwitchedAt)
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	st := NewStore(path, primary, fallback)
	s := st.Load()
	assert.False(t, s.RateLimited)
	assert.Equal(t, primary, s.CurrentModel)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	st := newTestStore(t)

	reset := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	switched := time.Now().Truncate(time.Second)
	s := &State{
		RateLimited:  true,
		CurrentModel: fallback,
		ResetAt:      &reset,
		SwitchedAt:   &switched,
	}
	require.NoError(t, st.Save(s))
	require.NotNil(t, s.LastCheck, "Save stamps LastCheck")

	got := st.Load()
	assert.Equal(t, s.RateLimited, got.RateLimited)
	assert.Equal(t, s.CurrentModel, got.CurrentModel)
	require.NotNil(t, got.ResetAt)
	assert.True(t, got.ResetAt.Equal(reset))
	require.NotNil(t, got.SwitchedAt)
	assert.True(t, got.SwitchedAt.Equal(switched))
	assert.Equal(t, ModeFallback, got.Mode())
}

func TestSave_IsFixedPoint(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Save(st.defaults()))

	first := st.Load()
	require.NoError(t, st.Save(first))
	second := st.Load()

	assert.Equal(t, first.RateLimited, second.RateLimited)
	assert.Equal(t, first.CurrentModel, second.CurrentModel)
	assert.Equal(t, first.ResetAt, second.ResetAt)
	assert.Equal(t, first.SwitchedAt, second.SwitchedAt)
}

func TestNormalize_InconsistentRecord(t *testing.T) {
	// rate_limited=false but fallback fields set — Normalize clears them.
	reset := time.Now()
	s := &State{RateLimited: false, CurrentModel: fallback, ResetAt: &reset}
	assert.True(t, s.Normalize(primary, fallback))
	assert.Equal(t, primary, s.CurrentModel)
	assert.Nil(t, s.ResetAt)

	// rate_limited=true but model still primary.
	s = &State{RateLimited: true, CurrentModel: primary}
	assert.True(t, s.Normalize(primary, fallback))
	assert.Equal(t, fallback, s.CurrentModel)
	assert.NotNil(t, s.SwitchedAt)

	// Consistent record is untouched.
	s = &State{RateLimited: false, CurrentModel: primary}
	assert.False(t, s.Normalize(primary, fallback))
}
