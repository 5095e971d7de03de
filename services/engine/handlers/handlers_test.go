// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the engine HTTP handlers

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/QuantumSudoku/services/engine/generator"
	"github.com/AleutianAI/QuantumSudoku/services/engine/middleware"
	"github.com/AleutianAI/QuantumSudoku/services/engine/observability"
	"github.com/AleutianAI/QuantumSudoku/services/engine/propagation"
	"github.com/AleutianAI/QuantumSudoku/services/engine/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() (*gin.Engine, *store.Store) {
	st := store.New(generator.NewSeeded(42), store.Config{})
	metrics := observability.InitMetrics()

	router := gin.New()
	router.GET("/health", HealthCheck)
	router.GET("/board", GetBoard(st, metrics))
	router.POST("/assign", Assign(st, metrics))
	router.POST("/reset", Reset(st, metrics))
	return router, st
}

func decodeGrid(t *testing.T, data []byte) [][]json.RawMessage {
	t.Helper()
	var grid [][]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &grid))
	return grid
}

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheck_ReturnsOK(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
}

// =============================================================================
// GetBoard Tests
// =============================================================================

func TestGetBoard_ReturnsNineByNineGrid(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/board", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	grid := decodeGrid(t, w.Body.Bytes())
	require.Len(t, grid, 9)
	for _, row := range grid {
		assert.Len(t, row, 9)
	}
}

func TestGetBoard_CellShapes(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/board", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	grid := decodeGrid(t, w.Body.Bytes())
	fixed, superposed := 0, 0
	for _, row := range grid {
		for _, raw := range row {
			var cell map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &cell))
			if _, ok := cell["value"]; ok {
				fixed++
				continue
			}
			_, ok := cell["possibilities"]
			require.True(t, ok, "cell must carry value or possibilities: %s", raw)
			superposed++
		}
	}
	assert.Positive(t, fixed, "a generated puzzle has givens")
	assert.Positive(t, superposed, "a generated puzzle has blanks")
}

func TestGetBoard_IsStableAcrossReads(t *testing.T) {
	router, _ := newTestRouter()

	first := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/board", nil)
	router.ServeHTTP(first, req)

	second := httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/board", nil)
	router.ServeHTTP(second, req)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestGetBoard_SessionsAreIsolated(t *testing.T) {
	router, st := newTestRouter()

	alice := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/board", nil)
	req.Header.Set(middleware.SessionIDHeader, "alice")
	router.ServeHTTP(alice, req)

	bob := httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/board", nil)
	req.Header.Set(middleware.SessionIDHeader, "bob")
	router.ServeHTTP(bob, req)

	require.Equal(t, http.StatusOK, alice.Code)
	require.Equal(t, http.StatusOK, bob.Code)
	assert.Equal(t, 2, st.Count())
}

// =============================================================================
// Reset Tests
// =============================================================================

func TestReset_DefaultsToMedium(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reset", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Board has been reset to a new medium puzzle", response["message"])
}

func TestReset_WithDifficulty(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reset?difficulty=hard", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Board has been reset to a new hard puzzle")
}

func TestReset_RejectsUnknownDifficulty(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reset?difficulty=nightmare", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, false, response["success"])
	assert.Contains(t, response["detail"], "nightmare")
}

func TestReset_ReplacesBoard(t *testing.T) {
	router, st := newTestRouter()

	before, err := st.Get(store.DefaultSessionID)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/reset?difficulty=easy", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	after, err := st.Get(store.DefaultSessionID)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
}

// =============================================================================
// Assign Tests
// =============================================================================

func postAssign(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/assign", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestAssign_Success(t *testing.T) {
	router, st := newTestRouter()

	board, err := st.Get(store.DefaultSessionID)
	require.NoError(t, err)

	// Try candidates of superposition cells until one sticks; the hidden
	// solution digit is always among them.
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			cell := board.Cells[row][col]
			if cell.IsFixed() || len(cell.Possibilities) <= 1 {
				continue
			}
			for _, candidate := range cell.Candidates() {
				body, _ := json.Marshal(map[string]any{
					"row": row, "col": col, "candidates": []int{int(candidate)},
				})
				w := postAssign(router, string(body))
				if w.Code != http.StatusOK {
					continue
				}
				var response map[string]json.RawMessage
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.JSONEq(t, "true", string(response["success"]))
				grid := decodeGrid(t, response["board"])
				assert.Len(t, grid, 9)
				return
			}
		}
	}
	t.Fatal("no assignment succeeded on a fresh board")
}

func TestAssign_MessageFormat(t *testing.T) {
	router, st := newTestRouter()

	board, err := st.Get(store.DefaultSessionID)
	require.NoError(t, err)

	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			cell := board.Cells[row][col]
			if cell.IsFixed() || len(cell.Possibilities) <= 1 {
				continue
			}
			for _, candidate := range cell.Candidates() {
				body, _ := json.Marshal(map[string]any{
					"row": row, "col": col, "candidates": []int{int(candidate)},
				})
				w := postAssign(router, string(body))
				if w.Code != http.StatusOK {
					continue
				}
				var response map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Contains(t, response["message"], "updated with candidates")
				return
			}
		}
	}
	t.Fatal("no assignment succeeded on a fresh board")
}

func TestAssign_RejectsMalformedJSON(t *testing.T) {
	router, _ := newTestRouter()

	w := postAssign(router, `{"row": 0, "col":`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, false, response["success"])
	assert.Contains(t, response["detail"], "invalid request")
}

func TestAssign_RejectsMissingFields(t *testing.T) {
	router, _ := newTestRouter()

	w := postAssign(router, `{"row": 0, "col": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssign_RejectsOutOfRangeCoordinates(t *testing.T) {
	router, _ := newTestRouter()

	w := postAssign(router, `{"row": 9, "col": 0, "candidates": [1]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssign_RejectsOutOfRangeCandidate(t *testing.T) {
	router, _ := newTestRouter()

	w := postAssign(router, `{"row": 0, "col": 0, "candidates": [0]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssign_RejectsEmptyCandidates(t *testing.T) {
	router, _ := newTestRouter()

	w := postAssign(router, `{"row": 0, "col": 0, "candidates": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssign_RejectsFixedCell(t *testing.T) {
	router, st := newTestRouter()

	board, err := st.Get(store.DefaultSessionID)
	require.NoError(t, err)

	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			if !board.Cells[row][col].IsFixed() {
				continue
			}
			body, _ := json.Marshal(map[string]any{
				"row": row, "col": col, "candidates": []int{1},
			})
			w := postAssign(router, string(body))
			require.Equal(t, http.StatusBadRequest, w.Code)

			var response map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, false, response["success"])
			assert.Contains(t, response["detail"], "already fixed")
			return
		}
	}
	t.Fatal("generated board has no fixed cells")
}

func TestAssign_FailureLeavesBoardReadable(t *testing.T) {
	router, st := newTestRouter()

	board, err := st.Get(store.DefaultSessionID)
	require.NoError(t, err)
	before, err := json.Marshal(board)
	require.NoError(t, err)

	w := postAssign(router, `{"row": 9, "col": 0, "candidates": [1]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	after := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/board", nil)
	router.ServeHTTP(after, req)
	require.Equal(t, http.StatusOK, after.Code)
	assert.JSONEq(t, string(before), after.Body.String())
}

// =============================================================================
// Error Classification Tests
// =============================================================================

func TestClassifyAssignError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"already fixed", fmt.Errorf("cell (0, 0): %w", propagation.ErrAlreadyFixed), "already_fixed"},
		{"invalid", fmt.Errorf("candidate 7: %w", propagation.ErrInvalidCandidates), "invalid"},
		{"conflict", fmt.Errorf("%w: duplicate 5 in row 0", propagation.ErrConflict), "conflict"},
		{"unknown", assert.AnError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyAssignError(tt.err))
		})
	}
}
