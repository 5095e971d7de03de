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
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDifficulty indicates a difficulty string outside
// easy/medium/hard.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty controls how many cells a generated puzzle keeps fixed.
type Difficulty string

const (
	// DifficultyEasy keeps 35-40 givens.
	DifficultyEasy Difficulty = "easy"

	// DifficultyMedium keeps 25-34 givens.
	DifficultyMedium Difficulty = "medium"

	// DifficultyHard keeps 17-24 givens.
	DifficultyHard Difficulty = "hard"
)

// ParseDifficulty normalizes and validates a difficulty string.
// The empty string defaults to medium, matching the reset endpoint's
// default query parameter.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium, Difficulty(""):
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
}

// GivenRange returns the inclusive [min, max] number of fixed cells a
// puzzle of this difficulty starts with.
func (d Difficulty) GivenRange() (min, max int) {
	switch d {
	case DifficultyEasy:
		return 35, 40
	case DifficultyHard:
		return 17, 24
	default:
		return 25, 34
	}
}
