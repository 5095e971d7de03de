// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package propagation implements the constraint propagation engine.
//
// # Description
//
// Assign applies a user assignment to one cell and propagates the
// exclusive constraint to every peer (same row, column, or 3x3 block):
//
//   - A single candidate collapses the cell; the fixed digit is removed
//     from every non-fixed peer's candidate set.
//   - Several candidates restrict the cell to exactly that set; the
//     reserved digits are removed from every non-collapsed peer.
//
// Peers whose candidate set shrinks to a singleton auto-collapse, and
// collapse propagates transitively through an explicit work queue until
// a fixed point. The queue is processed in row-major peer order, so
// identical requests against identical boards produce identical results.
// Arc-consistency is the full extent of the propagation; no backtracking
// search runs here.
//
// All mutation happens on a clone of the input board. On any error the
// clone is discarded and the caller's board is untouched, so an invalid
// user action can never corrupt stored state.
//
// # Thread Safety
//
// Assign is a pure function of its inputs; concurrency control belongs
// to the store.
package propagation

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/QuantumSudoku/services/engine/datatypes"
)

// Sentinel errors for assignment failures. All of them leave the stored
// board unchanged; handlers surface them as 400-class failures.
var (
	// ErrAlreadyFixed indicates an assignment to a collapsed cell.
	ErrAlreadyFixed = errors.New("cell is already fixed")

	// ErrInvalidCandidates indicates candidates outside the cell's
	// current candidate set (or an empty selection).
	ErrInvalidCandidates = errors.New("invalid candidates for cell")

	// ErrConflict indicates propagation emptied a peer's candidate set.
	ErrConflict = errors.New("assignment conflicts with board state")
)

// Result describes a successful assignment.
type Result struct {
	// Board is the new consistent board to publish.
	Board *datatypes.Board

	// Collapsed lists every cell fixed by this assignment, the target
	// first if it collapsed, then auto-collapsed peers in propagation
	// order.
	Collapsed []datatypes.Coord
}

// Assign applies candidates to the cell at (row, col) and propagates.
//
// # Inputs
//
//   - board: current board; never mutated.
//   - row, col: target coordinates in [0,8].
//   - candidates: non-empty subset of the target cell's candidate set.
//
// # Outputs
//
//   - *Result: the propagated board, on success.
//   - error: ErrAlreadyFixed, ErrInvalidCandidates, or ErrConflict.
func Assign(board *datatypes.Board, row, col int, candidates []uint8) (*Result, error) {
	if row < 0 || row >= datatypes.BoardSize || col < 0 || col >= datatypes.BoardSize {
		return nil, fmt.Errorf("%w: coordinates (%d, %d) out of range", ErrInvalidCandidates, row, col)
	}
	target := &board.Cells[row][col]
	if target.IsFixed() {
		return nil, fmt.Errorf("%w: cell (%d, %d) holds %d", ErrAlreadyFixed, row, col, target.Value)
	}
	selection, err := normalizeSelection(target, row, col, candidates)
	if err != nil {
		return nil, err
	}

	work := board.Clone()
	result := &Result{Board: work}

	// Queue of newly fixed cells whose value still has to be excluded
	// from their peers. Explicit queue instead of recursion so the
	// propagation order stays auditable and stack usage bounded.
	var queue []datatypes.Coord

	cell := &work.Cells[row][col]
	if len(selection) == 1 {
		cell.Collapse(selection[0])
		result.Collapsed = append(result.Collapsed, datatypes.Coord{Row: row, Col: col})
		queue = append(queue, datatypes.Coord{Row: row, Col: col})
	} else {
		cell.SetCandidates(selection)
		// Exclusive constraint: the reserved digits leave every
		// non-collapsed peer.
		for _, peerCoord := range datatypes.Peers(row, col) {
			peer := &work.Cells[peerCoord.Row][peerCoord.Col]
			if peer.IsCollapsed() {
				continue
			}
			for _, digit := range selection {
				collapsedTo, err := removeFromPeer(peer, peerCoord, digit)
				if err != nil {
					return nil, err
				}
				if collapsedTo != 0 {
					result.Collapsed = append(result.Collapsed, peerCoord)
					queue = append(queue, peerCoord)
					break
				}
			}
		}
	}

	// Drain forced collapses to a fixed point. Each step strictly
	// shrinks at least one candidate set, so this terminates.
	for len(queue) > 0 {
		source := queue[0]
		queue = queue[1:]
		digit := work.Cells[source.Row][source.Col].Value
		for _, peerCoord := range datatypes.Peers(source.Row, source.Col) {
			peer := &work.Cells[peerCoord.Row][peerCoord.Col]
			if peer.IsFixed() {
				continue
			}
			collapsedTo, err := removeFromPeer(peer, peerCoord, digit)
			if err != nil {
				return nil, err
			}
			if collapsedTo != 0 {
				result.Collapsed = append(result.Collapsed, peerCoord)
				queue = append(queue, peerCoord)
			}
		}
	}

	if err := work.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return result, nil
}

// normalizeSelection validates the user's candidate list against the
// target cell and converts it to a deduplicated digit slice.
func normalizeSelection(target *datatypes.Cell, row, col int, candidates []uint8) ([]uint8, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: empty candidate list for cell (%d, %d)", ErrInvalidCandidates, row, col)
	}
	seen := make(map[uint8]bool, len(candidates))
	selection := make([]uint8, 0, len(candidates))
	for _, candidate := range candidates {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		if !target.HasCandidate(candidate) {
			return nil, fmt.Errorf("%w: %d is not a valid candidate for cell (%d, %d)",
				ErrInvalidCandidates, candidate, row, col)
		}
		selection = append(selection, candidate)
	}
	return selection, nil
}

// removeFromPeer drops a digit from a peer's candidate set.
//
// Returns the digit the peer auto-collapsed to (0 if it did not), or
// ErrConflict if the removal emptied the set.
func removeFromPeer(peer *datatypes.Cell, coord datatypes.Coord, digit uint8) (uint8, error) {
	_, collapsedTo := peer.RemoveCandidate(digit)
	if !peer.IsFixed() && len(peer.Possibilities) == 0 {
		return 0, fmt.Errorf("%w: cell %s has no valid candidates left", ErrConflict, coord)
	}
	return collapsedTo, nil
}
