// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store owns the canonical board state for every game session.
//
// # Description
//
// The store maps session IDs to boards and is the single source of truth
// the HTTP facade reads from and writes through. All mutation (reset,
// assign) goes through the propagation engine and is committed
// atomically: the old board pointer is replaced by a fully propagated
// new one, or left untouched on error. Readers therefore never observe
// a partially propagated board.
//
// Sessions are created on first access (generate-if-absent) and swept
// after an idle TTL so abandoned games do not accumulate. The clock is
// injectable for tests.
//
// # Thread Safety
//
// All methods are safe for concurrent use. A single RWMutex serializes
// mutation; reads of an already-published board take the read lock only.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AleutianAI/QuantumSudoku/services/engine/datatypes"
	"github.com/AleutianAI/QuantumSudoku/services/engine/generator"
	"github.com/AleutianAI/QuantumSudoku/services/engine/propagation"
)

// DefaultSessionID is used when a request carries no session header.
const DefaultSessionID = "default"

// Clock abstracts time.Now for deterministic TTL tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// session pairs a board with its bookkeeping.
type session struct {
	board      *datatypes.Board
	difficulty datatypes.Difficulty
	lastAccess time.Time
}

// Config configures a Store.
type Config struct {
	// DefaultDifficulty is used for generate-if-absent boards.
	// Default: medium.
	DefaultDifficulty datatypes.Difficulty

	// IdleTTL is how long an untouched session survives before the
	// janitor removes it. Zero disables sweeping.
	IdleTTL time.Duration

	// Clock overrides the time source. Default: SystemClock.
	Clock Clock
}

// Store holds every active session's board.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	gen      *generator.Generator
	clock    Clock
	config   Config
}

// New creates a Store backed by the given generator.
func New(gen *generator.Generator, config Config) *Store {
	if config.DefaultDifficulty == "" {
		config.DefaultDifficulty = datatypes.DifficultyMedium
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	return &Store{
		sessions: make(map[string]*session),
		gen:      gen,
		clock:    config.Clock,
		config:   config,
	}
}

// Get returns the board for a session, generating one at the default
// difficulty if the session does not exist yet.
func (s *Store) Get(sessionID string) (*datatypes.Board, error) {
	s.mu.RLock()
	if sess, ok := s.sessions[sessionID]; ok {
		board := sess.board
		s.mu.RUnlock()
		s.touch(sessionID)
		return board, nil
	}
	s.mu.RUnlock()
	return s.Reset(sessionID, s.config.DefaultDifficulty)
}

// Reset replaces the session's board with a freshly generated puzzle.
func (s *Store) Reset(sessionID string, difficulty datatypes.Difficulty) (*datatypes.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.gen.Generate(difficulty)
	if err != nil {
		return nil, fmt.Errorf("reset session %q: %w", sessionID, err)
	}
	s.sessions[sessionID] = &session{
		board:      board,
		difficulty: difficulty,
		lastAccess: s.clock.Now(),
	}
	return board, nil
}

// Assign applies a user assignment through the propagation engine and
// publishes the resulting board atomically.
//
// On any error the stored board is left exactly as it was.
func (s *Store) Assign(sessionID string, row, col int, candidates []uint8) (*propagation.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		board, err := s.gen.Generate(s.config.DefaultDifficulty)
		if err != nil {
			return nil, fmt.Errorf("assign session %q: %w", sessionID, err)
		}
		sess = &session{
			board:      board,
			difficulty: s.config.DefaultDifficulty,
			lastAccess: s.clock.Now(),
		}
		s.sessions[sessionID] = sess
	}

	result, err := propagation.Assign(sess.board, row, col, candidates)
	if err != nil {
		return nil, err
	}
	sess.board = result.Board
	sess.lastAccess = s.clock.Now()
	return result, nil
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle longer than the configured TTL and
// returns how many were dropped. A zero TTL makes Sweep a no-op.
func (s *Store) Sweep() int {
	if s.config.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.clock.Now().Add(-s.config.IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastAccess.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps idle sessions at the given interval until the
// context is cancelled. Intended to run in its own goroutine.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep()
			if removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

// touch refreshes a session's last access time.
func (s *Store) touch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.lastAccess = s.clock.Now()
	}
}
