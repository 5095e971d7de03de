// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the core board model for the Quantum Sudoku
// engine: cells that are either fixed or in superposition, the 9x9 board,
// the peer relation, and the JSON wire representation consumed by the
// browser frontend.
package datatypes

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Board geometry for standard 9x9 sudoku.
const (
	// BoardSize is the number of rows and columns.
	BoardSize = 9

	// BlockSize is the edge length of a 3x3 block.
	BlockSize = 3

	// MinDigit and MaxDigit bound the legal cell values.
	MinDigit = 1
	MaxDigit = 9
)

// =============================================================================
// Cell
// =============================================================================

// Cell is a single board position. At any moment a cell is in exactly one
// of two states:
//
//   - Fixed: Value is in [1,9] and Possibilities is nil.
//   - Superposition: Value is 0 and Possibilities maps each remaining
//     candidate digit to a probability weight in (0,1]. Weights are kept
//     uniform (1/n over n candidates) and renormalized whenever the set
//     shrinks, so a singleton set carries weight 1.
//
// # Thread Safety
//
// Cell is a value type with an internal map; it is not safe for concurrent
// mutation. The store serializes all board mutation (see store package).
type Cell struct {
	// Value is the collapsed digit, or 0 while in superposition.
	Value uint8

	// Possibilities maps candidate digits to probability weights.
	// Nil for fixed cells. Never empty for a valid superposition cell;
	// an emptied set is a board conflict and is surfaced as an error by
	// the propagation engine, never stored.
	Possibilities map[uint8]float64
}

// NewFixedCell returns a cell collapsed to the given digit.
func NewFixedCell(value uint8) Cell {
	return Cell{Value: value}
}

// NewSuperpositionCell returns a cell holding the given candidates with
// uniform probability weights.
func NewSuperpositionCell(candidates []uint8) Cell {
	c := Cell{}
	c.SetCandidates(candidates)
	return c
}

// IsFixed reports whether the cell has collapsed to a single value.
func (c *Cell) IsFixed() bool {
	return c.Value != 0
}

// IsCollapsed reports whether the cell is fixed or down to a single
// possibility. Mirrors the distinction the propagation engine needs:
// a singleton superposition still renders as possibilities, but no
// further candidates can be taken from it.
func (c *Cell) IsCollapsed() bool {
	return c.Value != 0 || len(c.Possibilities) == 1
}

// Collapse fixes the cell to a single digit and drops the candidate map.
func (c *Cell) Collapse(value uint8) {
	c.Value = value
	c.Possibilities = nil
}

// SetCandidates replaces the cell's candidate set, clearing any fixed
// value and assigning each candidate the uniform weight 1/n.
func (c *Cell) SetCandidates(candidates []uint8) {
	c.Value = 0
	c.Possibilities = make(map[uint8]float64, len(candidates))
	weight := 1.0 / float64(len(candidates))
	for _, candidate := range candidates {
		c.Possibilities[candidate] = weight
	}
}

// RemoveCandidate removes a candidate from a superposition cell and
// renormalizes the remaining weights. If exactly one candidate remains
// afterwards the cell auto-collapses to it.
//
// # Outputs
//
//   - removed: true if the candidate was present.
//   - collapsed: the digit the cell auto-collapsed to, or 0.
//
// Removing the last candidate leaves the set empty; callers must treat
// that as a conflict (see Board consistency invariants).
func (c *Cell) RemoveCandidate(candidate uint8) (removed bool, collapsed uint8) {
	if c.IsFixed() {
		return false, 0
	}
	if _, ok := c.Possibilities[candidate]; !ok {
		return false, 0
	}
	delete(c.Possibilities, candidate)
	if len(c.Possibilities) == 0 {
		// Emptied set: leave it for the caller to report as a conflict.
		return true, 0
	}

	if len(c.Possibilities) == 1 {
		for remaining := range c.Possibilities {
			c.Collapse(remaining)
			return true, remaining
		}
	}

	weight := 1.0 / float64(len(c.Possibilities))
	for digit := range c.Possibilities {
		c.Possibilities[digit] = weight
	}
	return true, 0
}

// Candidates returns the cell's candidate digits in ascending order.
// Returns nil for a fixed cell.
func (c *Cell) Candidates() []uint8 {
	if c.IsFixed() {
		return nil
	}
	digits := make([]uint8, 0, len(c.Possibilities))
	for digit := range c.Possibilities {
		digits = append(digits, digit)
	}
	sort.Slice(digits, func(i, j int) bool { return digits[i] < digits[j] })
	return digits
}

// HasCandidate reports whether the digit is in the cell's candidate set.
func (c *Cell) HasCandidate(candidate uint8) bool {
	_, ok := c.Possibilities[candidate]
	return ok
}

// Clone returns a deep copy of the cell.
func (c *Cell) Clone() Cell {
	clone := Cell{Value: c.Value}
	if c.Possibilities != nil {
		clone.Possibilities = make(map[uint8]float64, len(c.Possibilities))
		for digit, weight := range c.Possibilities {
			clone.Possibilities[digit] = weight
		}
	}
	return clone
}

// MarshalJSON renders the wire shape the frontend expects:
//
//	Fixed:         {"value": 5}
//	Superposition: {"possibilities": {"2": 33.33, "7": 33.33, "9": 33.33}}
//
// Probability weights are scaled to percentages and rounded to two
// decimal places.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.IsFixed() {
		return json.Marshal(struct {
			Value uint8 `json:"value"`
		}{Value: c.Value})
	}
	percentages := make(map[string]float64, len(c.Possibilities))
	for digit, weight := range c.Possibilities {
		percentages[fmt.Sprintf("%d", digit)] = math.Round(weight*10000) / 100
	}
	return json.Marshal(struct {
		Possibilities map[string]float64 `json:"possibilities"`
	}{Possibilities: percentages})
}
