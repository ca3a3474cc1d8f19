// Package state persists the monitor's switch state between invocations.
package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Mode is the monitor's logical mode.
type Mode string

const (
	// ModeNormal means the primary model is active.
	ModeNormal Mode = "normal"
	// ModeFallback means a rate limit is active and the fallback model is configured.
	ModeFallback Mode = "fallback"
)

// State is the persisted monitor record. The JSON field names match the
// on-disk format written by earlier versions of the monitor, so an existing
// state file keeps working.
type State struct {
	RateLimited  bool       `json:"rate_limited"`
	CurrentModel string     `json:"current_model"`
	ResetAt      *time.Time `json:"rate_limit_reset_at"`
	SwitchedAt   *time.Time `json:"switched_at"`
	LastCheck    *time.Time `json:"last_check"`
}

// Mode returns the logical mode derived from RateLimited.
func (s *State) Mode() Mode {
	if s.RateLimited {
		return ModeFallback
	}
	return ModeNormal
}

// Normalize enforces the mode invariant: RateLimited, CurrentModel and
// SwitchedAt must agree. RateLimited is the source of truth; the other
// fields are corrected to match. Returns true when anything was fixed.
func (s *State) Normalize(primaryModel, fallbackModel string) bool {
	fixed := false
	if s.RateLimited {
		if s.CurrentModel != fallbackModel {
			s.CurrentModel = fallbackModel
			fixed = true
		}
		if s.SwitchedAt == nil {
			now := time.Now()
			s.SwitchedAt = &now
			fixed = true
		}
	} else {
		if s.CurrentModel != primaryModel {
			s.CurrentModel = primaryModel
			fixed = true
		}
		if s.SwitchedAt != nil || s.ResetAt != nil {
			s.SwitchedAt = nil
			s.ResetAt = nil
			fixed = true
		}
	}
	return fixed
}

// Store reads and writes the state file.
type Store struct {
	path         string
	primaryModel string
	fallback     string
}

// NewStore creates a Store for the given path. primaryModel seeds the
// default state on first run.
func NewStore(path, primaryModel, fallbackModel string) *Store {
	return &Store{path: path, primaryModel: primaryModel, fallback: fallbackModel}
}

// defaults returns the first-run state: not limited, primary active.
func (st *Store) defaults() *State {
	return &State{
		RateLimited:  false,
		CurrentModel: st.primaryModel,
	}
}

// Load reads the state file. A missing or corrupt file yields the default
// state with a logged warning — Load never fails the process.
func (st *Store) Load() *State {
	data, err := os.ReadFile(st.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("state: read %s: %v (using defaults)", st.path, err)
		}
		return st.defaults()
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("state: parse %s: %v (using defaults)", st.path, err)
		return st.defaults()
	}
	if s.Normalize(st.primaryModel, st.fallback) {
		log.Printf("state: inconsistent record in %s, normalized", st.path)
	}
	return &s
}

// Save stamps LastCheck and writes the state atomically (temp file + rename).
func (st *Store) Save(s *State) error {
	now := time.Now()
	s.LastCheck = &now

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("state.Save: marshal: %w", err)
	}

	tmp := st.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(st.path), 0755); err != nil {
		return fmt.Errorf("state.Save: mkdir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("state.Save: write: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("state.Save: rename: %w", err)
	}
	return nil
}
