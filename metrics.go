// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rmq

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Prometheus metrics for engine operations.
var (
	// preprocessDuration tracks build time per engine kind.
	preprocessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rmq_preprocess_duration_seconds",
		Help:    "Duration of engine preprocessing by kind",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"engine"})

	// preprocessTotal counts preprocess calls by result.
	// Labels: "success", "invalid_data", "allocation", "canceled", "other"
	preprocessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rmq_preprocess_total",
		Help: "Total preprocess operations by engine kind and result",
	}, []string{"engine", "result"})

	// queryDuration tracks query latency per engine kind.
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rmq_query_duration_seconds",
		Help:    "Duration of range-minimum queries by engine kind",
		Buckets: []float64{0.0000001, 0.000001, 0.00001, 0.0001, 0.001, 0.01},
	}, []string{"engine"})

	// queryTotal counts queries by result type.
	// Labels: "success", "not_preprocessed", "invalid_range", "out_of_bounds",
	// "algorithm", "cache_hit"
	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rmq_queries_total",
		Help: "Total range-minimum queries by engine kind and result",
	}, []string{"engine", "result"})

	// updateTotal counts point updates applied, batch writes included.
	updateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rmq_updates_total",
		Help: "Total point updates applied by engine kind",
	}, []string{"engine"})
)

var (
	tracerOnce sync.Once
	rmqTracer  trace.Tracer
)

// getTracer returns the OTel tracer, initializing it lazily so the package
// works whether or not a tracer provider is configured at startup.
//
// Thread Safety: Safe for concurrent use (sync.Once).
func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		rmqTracer = otel.Tracer("rmq")
	})
	return rmqTracer
}
