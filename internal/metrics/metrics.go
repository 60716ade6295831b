// Package metrics provides run and request metrics collection. The
// collector keeps atomic in-process counters and periodically reports a
// snapshot to Redis for external dashboards.
package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MetricsKeyPrefix is the Redis key prefix for service metrics.
	MetricsKeyPrefix = "metrics:"
	// MetricsTTL is how long metrics stay in Redis if not refreshed.
	MetricsTTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing metrics to Redis.
	DefaultReportInterval = 30 * time.Second
)

// ServiceMetrics holds one snapshot of service metrics.
type ServiceMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"`

	RequestsReceived  uint64 `json:"requests_received"`
	RequestsProcessed uint64 `json:"requests_processed"`
	EventsPublished   uint64 `json:"events_published"`
	ProcessingErrors  uint64 `json:"processing_errors"`

	AvgProcessingLatencyNs float64 `json:"avg_processing_latency_ns"`

	CustomCounters map[string]uint64 `json:"custom_counters,omitempty"`
}

// Collector collects and reports metrics for the service.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	requestsReceived  atomic.Uint64
	requestsProcessed atomic.Uint64
	eventsPublished   atomic.Uint64
	processingErrors  atomic.Uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	customMu       sync.RWMutex
	customCounters map[string]*atomic.Uint64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCollector creates a metrics collector. redisClient may be nil, in
// which case snapshots are kept in process only.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		reportInterval: DefaultReportInterval,
		customCounters: make(map[string]*atomic.Uint64),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing metrics to Redis.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins the periodic metrics reporting to Redis.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.writeMetrics(context.Background()) // Final write
				return
			case <-c.stopCh:
				c.writeMetrics(context.Background()) // Final write
				return
			case <-ticker.C:
				c.writeMetrics(ctx)
			}
		}
	}()
}

// Stop stops the metrics reporting.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// RecordReceived increments the requests received counter.
func (c *Collector) RecordReceived() {
	c.requestsReceived.Add(1)
}

// RecordProcessed increments the processed counter with latency.
func (c *Collector) RecordProcessed(latency time.Duration) {
	c.requestsProcessed.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

// RecordPublished increments the events published counter.
func (c *Collector) RecordPublished() {
	c.eventsPublished.Add(1)
}

// RecordError increments the processing errors counter.
func (c *Collector) RecordError() {
	c.processingErrors.Add(1)
}

// IncrementCustom increments a custom counter by name.
func (c *Collector) IncrementCustom(name string) {
	c.customMu.RLock()
	counter, exists := c.customCounters[name]
	c.customMu.RUnlock()

	if !exists {
		c.customMu.Lock()
		// Double-check after acquiring write lock
		if counter, exists = c.customCounters[name]; !exists {
			counter = &atomic.Uint64{}
			c.customCounters[name] = counter
		}
		c.customMu.Unlock()
	}
	counter.Add(1)
}

// GetSnapshot returns current metrics without writing to Redis.
func (c *Collector) GetSnapshot() *ServiceMetrics {
	now := time.Now().UTC()

	var avgLatencyNs float64
	latencyCount := c.latencyCount.Load()
	if latencyCount > 0 {
		avgLatencyNs = float64(c.totalLatencyNs.Load()) / float64(latencyCount)
	}

	c.customMu.RLock()
	customCounters := make(map[string]uint64, len(c.customCounters))
	for name, counter := range c.customCounters {
		customCounters[name] = counter.Load()
	}
	c.customMu.RUnlock()

	return &ServiceMetrics{
		ServiceName:            c.serviceName,
		StartedAt:              c.startedAt,
		LastUpdated:            now,
		Status:                 "healthy",
		RequestsReceived:       c.requestsReceived.Load(),
		RequestsProcessed:      c.requestsProcessed.Load(),
		EventsPublished:        c.eventsPublished.Load(),
		ProcessingErrors:       c.processingErrors.Load(),
		AvgProcessingLatencyNs: avgLatencyNs,
		CustomCounters:         customCounters,
	}
}

// writeMetrics writes current metrics to Redis.
func (c *Collector) writeMetrics(ctx context.Context) {
	if c.redis == nil {
		return
	}

	snapshot := c.GetSnapshot()

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to marshal metrics", "service", c.serviceName, "error", err)
		return
	}

	key := MetricsKeyPrefix + c.serviceName
	if err := c.redis.Set(ctx, key, data, MetricsTTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "service", c.serviceName, "error", err)
		return
	}

	slog.Debug("Metrics written to Redis", "service", c.serviceName, "key", key)
}
