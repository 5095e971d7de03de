// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP facade of the Quantum Sudoku
// engine: board retrieval, reset, and assignment. Handlers are thin;
// all game semantics live in the store and propagation packages.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/QuantumSudoku/services/engine/datatypes"
	"github.com/AleutianAI/QuantumSudoku/services/engine/middleware"
	"github.com/AleutianAI/QuantumSudoku/services/engine/observability"
	"github.com/AleutianAI/QuantumSudoku/services/engine/propagation"
	"github.com/AleutianAI/QuantumSudoku/services/engine/store"
)

// HealthCheck handles GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetBoard handles GET /board.
//
// Response: the 9x9 cell grid as a bare JSON array of arrays. A session
// without a board gets one generated at the store's default difficulty.
func GetBoard(st *store.Store, metrics *observability.EngineMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := requestLogger(c, "GetBoard")
		sessionID := middleware.SessionID(c, store.DefaultSessionID)

		board, err := st.Get(sessionID)
		if err != nil {
			logger.Error("failed to load board", "session_id", sessionID, "error", err)
			metrics.RecordRequest("board", false)
			internalError(c)
			return
		}
		metrics.RecordRequest("board", true)
		metrics.SetActiveSessions(st.Count())
		c.JSON(http.StatusOK, board)
	}
}

// Reset handles POST /reset?difficulty=<easy|medium|hard>.
//
// Regenerates the session's board. The difficulty parameter defaults to
// medium when absent.
func Reset(st *store.Store, metrics *observability.EngineMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := requestLogger(c, "Reset")
		sessionID := middleware.SessionID(c, store.DefaultSessionID)

		difficulty, err := datatypes.ParseDifficulty(c.Query("difficulty"))
		if err != nil {
			logger.Warn("rejected reset", "session_id", sessionID, "error", err)
			metrics.RecordRequest("reset", false)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Detail: err.Error(),
			})
			return
		}

		start := time.Now()
		if _, err := st.Reset(sessionID, difficulty); err != nil {
			logger.Error("failed to reset board", "session_id", sessionID,
				"difficulty", difficulty, "error", err)
			metrics.RecordRequest("reset", false)
			internalError(c)
			return
		}
		metrics.RecordGeneration(string(difficulty), time.Since(start).Seconds())
		metrics.RecordRequest("reset", true)
		metrics.SetActiveSessions(st.Count())

		logger.Info("board reset", "session_id", sessionID, "difficulty", difficulty)
		c.JSON(http.StatusOK, datatypes.ResetResponse{
			Success: true,
			Message: fmt.Sprintf("Board has been reset to a new %s puzzle", difficulty),
		})
	}
}

// Assign handles POST /assign.
//
// Applies a single- or multi-candidate assignment and returns the fully
// propagated board. All recoverable failures (invalid candidates, fixed
// cell, conflict) leave the stored board unchanged and come back as 400
// with a human-readable detail string.
func Assign(st *store.Store, metrics *observability.EngineMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := requestLogger(c, "Assign")
		sessionID := middleware.SessionID(c, store.DefaultSessionID)

		var req datatypes.AssignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("rejected malformed assign request", "session_id", sessionID, "error", err)
			metrics.RecordRequest("assign", false)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Detail: fmt.Sprintf("invalid request: %v", err),
			})
			return
		}

		candidates := make([]uint8, len(req.Candidates))
		for i, candidate := range req.Candidates {
			candidates[i] = uint8(candidate)
		}
		kind := observability.KindPartial
		if len(candidates) == 1 {
			kind = observability.KindCollapse
		}

		result, err := st.Assign(sessionID, *req.Row, *req.Col, candidates)
		if err != nil {
			status := classifyAssignError(err)
			logger.Warn("rejected assignment", "session_id", sessionID,
				"row", *req.Row, "col", *req.Col, "status", status, "error", err)
			metrics.RecordAssignment(kind, status)
			metrics.RecordRequest("assign", false)
			if status == "internal" {
				internalError(c)
				return
			}
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{
				Detail: err.Error(),
			})
			return
		}

		metrics.RecordAssignment(kind, "success")
		metrics.RecordForcedCollapses(forcedCollapses(result, *req.Row, *req.Col))
		metrics.RecordRequest("assign", true)

		logger.Info("assignment applied", "session_id", sessionID,
			"row", *req.Row, "col", *req.Col,
			"candidates", req.Candidates, "collapsed", len(result.Collapsed))
		c.JSON(http.StatusOK, datatypes.AssignResponse{
			Success: true,
			Message: fmt.Sprintf("Cell (%d, %d) updated with candidates %v", *req.Row, *req.Col, req.Candidates),
			Board:   result.Board,
		})
	}
}

// classifyAssignError maps an assignment error to a metrics status.
func classifyAssignError(err error) string {
	switch {
	case errors.Is(err, propagation.ErrAlreadyFixed):
		return "already_fixed"
	case errors.Is(err, propagation.ErrInvalidCandidates):
		return "invalid"
	case errors.Is(err, propagation.ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}

// forcedCollapses counts auto-collapsed peers, excluding the target.
func forcedCollapses(result *propagation.Result, row, col int) int {
	count := 0
	for _, coord := range result.Collapsed {
		if coord.Row == row && coord.Col == col {
			continue
		}
		count++
	}
	return count
}

func requestLogger(c *gin.Context, handler string) *slog.Logger {
	return slog.With("request_id", middleware.GetRequestID(c), "handler", handler)
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, datatypes.ErrorResponse{
		Detail: "internal engine error",
	})
}
