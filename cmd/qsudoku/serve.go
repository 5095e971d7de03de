// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/QuantumSudoku/pkg/logging"
	"github.com/AleutianAI/QuantumSudoku/services/engine/config"
	"github.com/AleutianAI/QuantumSudoku/services/engine/datatypes"
	"github.com/AleutianAI/QuantumSudoku/services/engine/generator"
	"github.com/AleutianAI/QuantumSudoku/services/engine/observability"
	"github.com/AleutianAI/QuantumSudoku/services/engine/routes"
	"github.com/AleutianAI/QuantumSudoku/services/engine/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// initTracer installs a stdout trace exporter. The engine is a single
// process; traces go to stdout for collection by the log pipeline rather
// than over OTLP.
func initTracer(ctx context.Context) (func(context.Context), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("qsudoku-engine")))
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace provider", "error", err)
		}
	}, nil
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:   cfg.Logging.Level,
		Service: "qsudoku-engine",
		JSON:    cfg.Logging.JSON,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanup, err := initTracer(ctx)
	if err != nil {
		return fmt.Errorf("setup tracer: %w", err)
	}
	defer cleanup(context.Background())

	metrics := observability.InitMetrics()

	difficulty, err := datatypes.ParseDifficulty(cfg.Session.DefaultDifficulty)
	if err != nil {
		return err
	}
	gen := generator.NewSeeded(time.Now().UnixNano())
	st := store.New(gen, store.Config{
		DefaultDifficulty: difficulty,
		IdleTTL:           cfg.Session.IdleTTL(),
	})

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("qsudoku-engine"))
	routes.SetupRoutes(router, st, metrics)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("starting engine server", "port", cfg.Server.Port,
			"default_difficulty", difficulty)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Session.IdleTTL() > 0 {
		group.Go(func() error {
			st.RunJanitor(ctx, cfg.Session.SweepInterval(), func(removed int) {
				slog.Info("swept idle sessions", "removed", removed)
				metrics.SetActiveSessions(st.Count())
			})
			return nil
		})
	}
	group.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down engine server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
