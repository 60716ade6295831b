// Package handlers provides HTTP handlers for the grantcue API.
package handlers

import (
	"github.com/grantcue/grantcue/internal/database"
	"github.com/grantcue/grantcue/internal/metrics"
	"github.com/grantcue/grantcue/internal/producer"
)

const (
	SchemaVersion = 1
)

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	db             Repository
	producer       AlertPublisher
	runner         Runner
	metrics        MetricsRecorder
	schedulerToken string
}

// Option is a functional option for configuring Handlers.
type Option func(*Handlers)

// WithMetrics sets a custom metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(h *Handlers) {
		if m != nil {
			h.metrics = m
		}
	}
}

// NewHandlers creates a new handlers instance.
// If metricsCollector is nil, a no-op implementation is used.
func NewHandlers(db *database.DB, prod *producer.Producer, runner Runner, schedulerToken string, metricsCollector *metrics.Collector, opts ...Option) *Handlers {
	h := &Handlers{
		db:             db,
		producer:       prod,
		runner:         runner,
		schedulerToken: schedulerToken,
		metrics:        NoOpMetrics{}, // Default to no-op, never nil
	}

	// If a metrics collector was provided, wrap it
	if metricsCollector != nil {
		h.metrics = &metricsAdapter{collector: metricsCollector}
	}

	// Apply any additional options
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// NewHandlersWithDeps creates handlers with explicit interface dependencies.
// This constructor is primarily for testing.
func NewHandlersWithDeps(db Repository, prod AlertPublisher, runner Runner, schedulerToken string, m MetricsRecorder) *Handlers {
	metrics := m
	if metrics == nil {
		metrics = NoOpMetrics{}
	}
	return &Handlers{
		db:             db,
		producer:       prod,
		runner:         runner,
		schedulerToken: schedulerToken,
		metrics:        metrics,
	}
}
