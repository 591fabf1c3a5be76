// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/tagtree/internal/platform/constants"
	"github.com/taibuivan/tagtree/internal/platform/respond"
)

const readinessTimeout = 3 * time.Second

// DependencyCheck is one entry of the /ready report.
type DependencyCheck struct {
	// Name labels the dependency in the report, e.g. "postgres".
	Name string

	// Check returns nil while the dependency is reachable.
	Check func(context context.Context) error
}

// HealthDependencies holds the injectable dependency checkers for the /ready
// endpoint. The memory backend has none.
type HealthDependencies struct {
	Checks []DependencyCheck
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

// readiness handles GET /ready (Readiness probe).
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	ctx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
	defer cancel()

	// Checks run concurrently and each one writes only its own slot.
	results := make([]checkResult, len(handler.dependencies.Checks))
	var group errgroup.Group
	for index, dependency := range handler.dependencies.Checks {
		group.Go(func() error {
			result := checkResult{Name: dependency.Name, IsOK: true}
			if err := dependency.Check(ctx); err != nil {
				result.IsOK = false
				result.Error = err.Error()
				handler.logger.Error("readiness_check_failed", slog.String("dependency", dependency.Name), slog.Any("error", err))
			}
			results[index] = result
			return nil
		})
	}
	_ = group.Wait()

	isSystemReady := true
	for _, result := range results {
		isSystemReady = isSystemReady && result.IsOK
	}

	responseStatus := "ready"
	httpStatus := http.StatusOK
	if !isSystemReady {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	}})
}
