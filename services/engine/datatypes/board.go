// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Board-level sentinel errors.
var (
	// ErrInconsistentBoard indicates duplicate fixed digits in a row,
	// column, or block.
	ErrInconsistentBoard = errors.New("board violates sudoku constraints")

	// ErrNoCandidates indicates a superposition cell was left with an
	// empty candidate set.
	ErrNoCandidates = errors.New("cell has no valid candidates")
)

// Coord identifies a cell by zero-based (row, col).
type Coord struct {
	Row int
	Col int
}

// String renders the coordinate the way API messages do: "(row, col)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// =============================================================================
// Board
// =============================================================================

// Board is the canonical 9x9 grid of cells for one game session.
//
// # Invariants
//
//   - Every superposition cell has a non-empty candidate set.
//   - No fixed cell's value appears in a peer's candidate set once
//     propagation has reached a fixed point.
//   - Fixed digits never repeat within a row, column, or block.
//
// The propagation engine maintains these by working on a clone and
// committing atomically; a Board held by the store is always consistent.
//
// # Thread Safety
//
// Board is not safe for concurrent mutation. The store publishes boards
// atomically and serializes writers.
type Board struct {
	Cells [BoardSize][BoardSize]Cell
}

// NewBoardFromGrid builds a board from a plain digit grid where 0 marks
// an empty cell, then initializes every empty cell's candidate set from
// its fixed peers with uniform probabilities.
func NewBoardFromGrid(grid [BoardSize][BoardSize]uint8) *Board {
	b := &Board{}
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if grid[row][col] != 0 {
				b.Cells[row][col] = NewFixedCell(grid[row][col])
			}
		}
	}
	b.initializeCandidates()
	return b
}

// initializeCandidates fills every non-fixed cell with the digits not
// already fixed among its peers, weighted uniformly.
func (b *Board) initializeCandidates() {
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			cell := &b.Cells[row][col]
			if cell.IsFixed() {
				continue
			}
			candidates := b.ValidCandidates(row, col)
			if len(candidates) > 0 {
				cell.SetCandidates(candidates)
			}
		}
	}
}

// ValidCandidates returns the digits not fixed anywhere among the peers
// of (row, col), in ascending order.
func (b *Board) ValidCandidates(row, col int) []uint8 {
	var used [MaxDigit + 1]bool
	for _, peer := range Peers(row, col) {
		cell := &b.Cells[peer.Row][peer.Col]
		if cell.IsFixed() {
			used[cell.Value] = true
		}
	}
	candidates := make([]uint8, 0, MaxDigit)
	for digit := uint8(MinDigit); digit <= MaxDigit; digit++ {
		if !used[digit] {
			candidates = append(candidates, digit)
		}
	}
	return candidates
}

// Peers returns every cell sharing a row, column, or block with
// (row, col), excluding the cell itself. The scan is row-major, which
// fixes the propagation order for reproducibility.
func Peers(row, col int) []Coord {
	peers := make([]Coord, 0, 20)
	blockRow, blockCol := (row/BlockSize)*BlockSize, (col/BlockSize)*BlockSize
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if r == row && c == col {
				continue
			}
			sameBlock := r >= blockRow && r < blockRow+BlockSize &&
				c >= blockCol && c < blockCol+BlockSize
			if r == row || c == col || sameBlock {
				peers = append(peers, Coord{Row: r, Col: c})
			}
		}
	}
	return peers
}

// Clone returns a deep copy of the board. The propagation engine mutates
// the clone and the store swaps it in only on success.
func (b *Board) Clone() *Board {
	clone := &Board{}
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			clone.Cells[row][col] = b.Cells[row][col].Clone()
		}
	}
	return clone
}

// FixedCount returns the number of collapsed cells.
func (b *Board) FixedCount() int {
	count := 0
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if b.Cells[row][col].IsFixed() {
				count++
			}
		}
	}
	return count
}

// Validate checks the board invariants: no duplicate fixed digits in any
// unit and no superposition cell with an empty candidate set.
func (b *Board) Validate() error {
	for i := 0; i < BoardSize; i++ {
		if err := b.validateUnit(rowCoords(i)); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if err := b.validateUnit(colCoords(i)); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	for blockRow := 0; blockRow < BoardSize; blockRow += BlockSize {
		for blockCol := 0; blockCol < BoardSize; blockCol += BlockSize {
			if err := b.validateUnit(blockCoords(blockRow, blockCol)); err != nil {
				return fmt.Errorf("block (%d,%d): %w", blockRow, blockCol, err)
			}
		}
	}
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			cell := &b.Cells[row][col]
			if !cell.IsFixed() && len(cell.Possibilities) == 0 {
				return fmt.Errorf("cell %s: %w", Coord{row, col}, ErrNoCandidates)
			}
		}
	}
	return nil
}

func (b *Board) validateUnit(unit []Coord) error {
	var seen [MaxDigit + 1]bool
	for _, coord := range unit {
		cell := &b.Cells[coord.Row][coord.Col]
		if !cell.IsFixed() {
			continue
		}
		if seen[cell.Value] {
			return fmt.Errorf("duplicate fixed value %d: %w", cell.Value, ErrInconsistentBoard)
		}
		seen[cell.Value] = true
	}
	return nil
}

func rowCoords(row int) []Coord {
	coords := make([]Coord, BoardSize)
	for col := 0; col < BoardSize; col++ {
		coords[col] = Coord{Row: row, Col: col}
	}
	return coords
}

func colCoords(col int) []Coord {
	coords := make([]Coord, BoardSize)
	for row := 0; row < BoardSize; row++ {
		coords[row] = Coord{Row: row, Col: col}
	}
	return coords
}

func blockCoords(blockRow, blockCol int) []Coord {
	coords := make([]Coord, 0, BlockSize*BlockSize)
	for r := blockRow; r < blockRow+BlockSize; r++ {
		for c := blockCol; c < blockCol+BlockSize; c++ {
			coords = append(coords, Coord{Row: r, Col: c})
		}
	}
	return coords
}

// MarshalJSON renders the board as a 9-element array of 9-element arrays
// of cell objects, the exact shape GET /board returns.
func (b Board) MarshalJSON() ([]byte, error) {
	rows := make([][]Cell, BoardSize)
	for row := 0; row < BoardSize; row++ {
		rows[row] = b.Cells[row][:]
	}
	return json.Marshal(rows)
}
