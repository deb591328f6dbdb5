package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Names of the custom counters recorded by the engine.
const (
	UnknownFilter    = "unknown_filter"
	TemplateNotFound = "template_not_found"
)

// Collector provides simple built-in metrics collection with no external dependencies
type Collector struct {
	templateMetrics   *TemplateMetrics
	operationCounters map[string]*int64
	mu                sync.RWMutex
	startTime         time.Time
}

// TemplateMetrics tracks template build and render activity
type TemplateMetrics struct {
	// Template lifecycle
	TemplatesCreated int64 `json:"templates_created"`
	TemplatesBuilt   int64 `json:"templates_built"`
	BuildFailures    int64 `json:"build_failures"`
	TemplatesCloned  int64 `json:"templates_cloned"`

	// Rendering
	Renders          int64 `json:"renders"`
	FragmentsWritten int64 `json:"fragments_written"`

	// Timing (nanoseconds)
	TotalBuildNanos  int64 `json:"total_build_nanos"`
	TotalRenderNanos int64 `json:"total_render_nanos"`

	// Live connections
	ActiveConnections        int64 `json:"active_connections"`
	MaxConcurrentConnections int64 `json:"max_concurrent_connections"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		templateMetrics: &TemplateMetrics{
			StartTime: time.Now(),
		},
		operationCounters: make(map[string]*int64),
		startTime:         time.Now(),
	}
}

// IncrementTemplateCreated records a new template handle
func (c *Collector) IncrementTemplateCreated() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.templateMetrics.TemplatesCreated, 1)
}

// RecordBuild records a completed structural build and its duration
func (c *Collector) RecordBuild(duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.templateMetrics.TemplatesBuilt, 1)
	atomic.AddInt64(&c.templateMetrics.TotalBuildNanos, int64(duration))
}

// IncrementBuildFailure records a build that could not parse its source
func (c *Collector) IncrementBuildFailure() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.templateMetrics.BuildFailures, 1)
}

// IncrementTemplateCloned records a clone
func (c *Collector) IncrementTemplateCloned() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.templateMetrics.TemplatesCloned, 1)
}

// RecordRender records one render call, the number of fragments it wrote
// and its duration
func (c *Collector) RecordRender(fragments int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.templateMetrics.Renders, 1)
	atomic.AddInt64(&c.templateMetrics.FragmentsWritten, int64(fragments))
	atomic.AddInt64(&c.templateMetrics.TotalRenderNanos, int64(duration))
}

// IncrementConnectionOpened records a new live connection
func (c *Collector) IncrementConnectionOpened() {
	if c == nil {
		return
	}
	currentActive := atomic.AddInt64(&c.templateMetrics.ActiveConnections, 1)

	// Update max concurrent if needed
	for {
		max := atomic.LoadInt64(&c.templateMetrics.MaxConcurrentConnections)
		if currentActive <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.templateMetrics.MaxConcurrentConnections, max, currentActive) {
			break
		}
	}
}

// IncrementConnectionClosed records a closed live connection
func (c *Collector) IncrementConnectionClosed() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.templateMetrics.ActiveConnections, -1)
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.operationCounters[name]; exists {
		atomic.AddInt64(counter, 1)
	} else {
		var newCounter int64 = 1
		c.operationCounters[name] = &newCounter
	}
}

// GetMetrics returns current template metrics
func (c *Collector) GetMetrics() TemplateMetrics {
	if c == nil {
		return TemplateMetrics{}
	}
	startTime := c.startTime

	// Return a copy with current atomic values
	return TemplateMetrics{
		TemplatesCreated:         atomic.LoadInt64(&c.templateMetrics.TemplatesCreated),
		TemplatesBuilt:           atomic.LoadInt64(&c.templateMetrics.TemplatesBuilt),
		BuildFailures:            atomic.LoadInt64(&c.templateMetrics.BuildFailures),
		TemplatesCloned:          atomic.LoadInt64(&c.templateMetrics.TemplatesCloned),
		Renders:                  atomic.LoadInt64(&c.templateMetrics.Renders),
		FragmentsWritten:         atomic.LoadInt64(&c.templateMetrics.FragmentsWritten),
		TotalBuildNanos:          atomic.LoadInt64(&c.templateMetrics.TotalBuildNanos),
		TotalRenderNanos:         atomic.LoadInt64(&c.templateMetrics.TotalRenderNanos),
		ActiveConnections:        atomic.LoadInt64(&c.templateMetrics.ActiveConnections),
		MaxConcurrentConnections: atomic.LoadInt64(&c.templateMetrics.MaxConcurrentConnections),
		StartTime:                startTime,
		Uptime:                   time.Since(startTime),
	}
}

// GetCustomCounters returns all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	if c == nil {
		return map[string]int64{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int64)
	for name, counter := range c.operationCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// GetBuildFailureRate returns the percentage of builds that failed
func (c *Collector) GetBuildFailureRate() float64 {
	if c == nil {
		return 0
	}
	built := atomic.LoadInt64(&c.templateMetrics.TemplatesBuilt)
	failures := atomic.LoadInt64(&c.templateMetrics.BuildFailures)

	if built+failures == 0 {
		return 0.0
	}

	return float64(failures) / float64(built+failures) * 100.0
}

// GetAverageRenderDuration returns the mean duration of a render call
func (c *Collector) GetAverageRenderDuration() time.Duration {
	if c == nil {
		return 0
	}
	renders := atomic.LoadInt64(&c.templateMetrics.Renders)
	if renders == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&c.templateMetrics.TotalRenderNanos) / renders)
}
