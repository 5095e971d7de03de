// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generator produces initial Quantum Sudoku boards.
//
// # Description
//
// Generation runs in two phases: a randomized backtracking fill that
// produces a complete valid 9x9 solution, and a carve phase that hides
// cells down to a difficulty-controlled number of givens. Hidden cells
// become superposition cells whose candidate sets are derived from the
// remaining fixed peers.
//
// Hiding a cell of a valid complete solution can never strand a peer
// with an empty candidate set (the solution digit always remains valid),
// so carved boards satisfy the board invariants by construction. A
// Validate call after carving guards the implementation anyway.
//
// # Thread Safety
//
// Generator is NOT safe for concurrent use: it owns a single rand source.
// The store guards it with the same lock that serializes mutation.
package generator

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/AleutianAI/QuantumSudoku/services/engine/datatypes"
)

// ErrGenerationFailed indicates the backtracking fill could not produce
// a complete grid within the attempt budget. This is an internal fault,
// not a user-correctable condition.
var ErrGenerationFailed = errors.New("puzzle generation failed")

// maxFillAttempts bounds the number of full-grid construction attempts.
// Randomized backtracking on an empty grid virtually always succeeds on
// the first try; the bound exists so a bug degrades to an error instead
// of a spin.
const maxFillAttempts = 10

// Generator builds boards from an injectable random source so tests can
// fix a seed and assert deterministic output.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator around the given rand source.
func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NewSeeded creates a Generator with a seeded source.
func NewSeeded(seed int64) *Generator {
	return New(rand.New(rand.NewSource(seed)))
}

// Generate produces a board for the requested difficulty.
//
// # Inputs
//
//   - difficulty: controls how many cells stay fixed (see Difficulty).
//
// # Outputs
//
//   - *datatypes.Board: a consistent board with fixed givens and
//     uniform-probability superpositions elsewhere.
//   - error: ErrGenerationFailed if no complete grid could be built.
func (g *Generator) Generate(difficulty datatypes.Difficulty) (*datatypes.Board, error) {
	solution, err := g.solvedGrid()
	if err != nil {
		return nil, err
	}

	minGivens, maxGivens := difficulty.GivenRange()
	givens := minGivens + g.rng.Intn(maxGivens-minGivens+1)
	puzzle := g.carve(solution, givens)

	board := datatypes.NewBoardFromGrid(puzzle)
	if err := board.Validate(); err != nil {
		return nil, fmt.Errorf("%w: carved board inconsistent: %v", ErrGenerationFailed, err)
	}
	return board, nil
}

// solvedGrid fills an empty grid into a complete valid solution by
// backtracking with per-cell shuffled digit order.
func (g *Generator) solvedGrid() ([datatypes.BoardSize][datatypes.BoardSize]uint8, error) {
	var grid [datatypes.BoardSize][datatypes.BoardSize]uint8
	for attempt := 0; attempt < maxFillAttempts; attempt++ {
		grid = [datatypes.BoardSize][datatypes.BoardSize]uint8{}
		if g.fill(&grid, 0, 0) {
			return grid, nil
		}
	}
	return grid, fmt.Errorf("%w after %d attempts", ErrGenerationFailed, maxFillAttempts)
}

func (g *Generator) fill(grid *[datatypes.BoardSize][datatypes.BoardSize]uint8, row, col int) bool {
	if row == datatypes.BoardSize {
		return true
	}
	nextRow, nextCol := row, col+1
	if nextCol == datatypes.BoardSize {
		nextRow, nextCol = row+1, 0
	}

	digits := [datatypes.BoardSize]uint8{1, 2, 3, 4, 5, 6, 7, 8, 9}
	g.rng.Shuffle(len(digits), func(i, j int) {
		digits[i], digits[j] = digits[j], digits[i]
	})
	for _, digit := range digits {
		if !placementValid(grid, row, col, digit) {
			continue
		}
		grid[row][col] = digit
		if g.fill(grid, nextRow, nextCol) {
			return true
		}
		grid[row][col] = 0
	}
	return false
}

// carve hides random cells of a complete solution until only the target
// number of givens remains.
func (g *Generator) carve(solution [datatypes.BoardSize][datatypes.BoardSize]uint8, givens int) [datatypes.BoardSize][datatypes.BoardSize]uint8 {
	puzzle := solution
	positions := g.rng.Perm(datatypes.BoardSize * datatypes.BoardSize)
	toRemove := datatypes.BoardSize*datatypes.BoardSize - givens
	for _, pos := range positions {
		if toRemove == 0 {
			break
		}
		row, col := pos/datatypes.BoardSize, pos%datatypes.BoardSize
		if puzzle[row][col] == 0 {
			continue
		}
		puzzle[row][col] = 0
		toRemove--
	}
	return puzzle
}

// placementValid checks the row, column, and block for the digit.
func placementValid(grid *[datatypes.BoardSize][datatypes.BoardSize]uint8, row, col int, digit uint8) bool {
	for i := 0; i < datatypes.BoardSize; i++ {
		if grid[row][i] == digit || grid[i][col] == digit {
			return false
		}
	}
	blockRow := (row / datatypes.BlockSize) * datatypes.BlockSize
	blockCol := (col / datatypes.BlockSize) * datatypes.BlockSize
	for r := blockRow; r < blockRow+datatypes.BlockSize; r++ {
		for c := blockCol; c < blockCol+datatypes.BlockSize; c++ {
			if grid[r][c] == digit {
				return false
			}
		}
	}
	return true
}
