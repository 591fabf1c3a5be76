// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics declares the Prometheus collectors exported on /metrics.

Collectors are registered once with the default registry through promauto.
Services record outcomes with [Result], which folds an error into the label
value of its [apperr.AppError] code.

Collectors:

  - tagtree_http_requests_total / tagtree_http_request_duration_seconds
  - tagtree_tag_mutations_total{operation,result}
  - tagtree_association_mutations_total{operation,result}
  - tagtree_note_queries_total{match} / tagtree_note_query_duration_seconds{match}
  - tagtree_optimistic_retries_total{unit}
*/
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/tagtree/internal/platform/apperr"
)

const namespace = "tagtree"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// TagMutations counts tag writes: create, rename, recolor, move, delete.
	TagMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tag_mutations_total",
		Help:      "Tag mutations by operation and result code.",
	}, []string{"operation", "result"})

	// AssociationMutations counts note-tag writes: tag, untag.
	AssociationMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "association_mutations_total",
		Help:      "Note-tag association mutations by operation and result code.",
	}, []string{"operation", "result"})

	noteQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "note_queries_total",
		Help:      "Note queries by match semantics.",
	}, []string{"match"})

	noteQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "note_query_duration_seconds",
		Help:      "Note query latency by match semantics.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"match"})

	// OptimisticRetries counts WATCH units that had to be replayed.
	OptimisticRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimistic_retries_total",
		Help:      "Replayed optimistic Redis units by unit name.",
	}, []string{"unit"})
)

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps an operation error onto a low-cardinality label value.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if appError := apperr.As(err); appError != nil {
		return strings.ToLower(appError.Code)
	}
	return strings.ToLower(apperr.CodeInternal)
}

// ObserveHTTP records one finished HTTP request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveNoteQuery records one note query under its match semantics.
func ObserveNoteQuery(match string, elapsed time.Duration) {
	noteQueries.WithLabelValues(match).Inc()
	noteQueryDuration.WithLabelValues(match).Observe(elapsed.Seconds())
}
