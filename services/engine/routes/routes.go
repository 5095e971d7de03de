// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/QuantumSudoku/services/engine/handlers"
	"github.com/AleutianAI/QuantumSudoku/services/engine/middleware"
	"github.com/AleutianAI/QuantumSudoku/services/engine/observability"
	"github.com/AleutianAI/QuantumSudoku/services/engine/store"
)

// SetupRoutes wires the engine's endpoints onto the router.
//
// The game endpoints live at the root (/board, /assign, /reset) because
// that is the contract the deployed frontend already speaks; /health and
// /metrics are operational extras.
func SetupRoutes(router *gin.Engine, st *store.Store, metrics *observability.EngineMetrics) {
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/board", handlers.GetBoard(st, metrics))
	router.POST("/assign", handlers.Assign(st, metrics))
	router.POST("/reset", handlers.Reset(st, metrics))
}
