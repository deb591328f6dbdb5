package live

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/livefir/replate/internal/metrics"
)

const metricsNamespace = "replate"

// newMetricsRegistry exposes the counters of collector on a dedicated
// Prometheus registry. Values are read from the collector at scrape time.
func newMetricsRegistry(collector *metrics.Collector) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	read := func(field func(metrics.TemplateMetrics) int64) func() float64 {
		return func() float64 {
			return float64(field(collector.GetMetrics()))
		}
	}

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "templates_built_total",
		Help:      "Total number of templates parsed into a node tree",
	}, read(func(m metrics.TemplateMetrics) int64 { return m.TemplatesBuilt }))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "build_failures_total",
		Help:      "Total number of template builds that failed to parse",
	}, read(func(m metrics.TemplateMetrics) int64 { return m.BuildFailures }))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "templates_cloned_total",
		Help:      "Total number of template clones",
	}, read(func(m metrics.TemplateMetrics) int64 { return m.TemplatesCloned }))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "renders_total",
		Help:      "Total number of render calls",
	}, read(func(m metrics.TemplateMetrics) int64 { return m.Renders }))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "fragments_written_total",
		Help:      "Total number of text and attribute fragments rewritten",
	}, read(func(m metrics.TemplateMetrics) int64 { return m.FragmentsWritten }))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "render_seconds_total",
		Help:      "Total time spent rendering in seconds",
	}, func() float64 {
		return float64(collector.GetMetrics().TotalRenderNanos) / 1e9
	})

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "active_connections",
		Help:      "Number of open live preview connections",
	}, read(func(m metrics.TemplateMetrics) int64 { return m.ActiveConnections }))

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "max_concurrent_connections",
		Help:      "Highest number of simultaneously open live preview connections",
	}, read(func(m metrics.TemplateMetrics) int64 { return m.MaxConcurrentConnections }))

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "build_failure_percent",
		Help:      "Percentage of template builds that failed to parse",
	}, collector.GetBuildFailureRate)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "average_render_seconds",
		Help:      "Mean duration of a render call in seconds",
	}, func() float64 {
		return collector.GetAverageRenderDuration().Seconds()
	})

	registry.MustRegister(newEventCollector(collector))
	return registry
}

// eventCollector exports the collector's custom counters as one labelled
// counter family.
type eventCollector struct {
	collector *metrics.Collector
	desc      *prometheus.Desc
}

func newEventCollector(collector *metrics.Collector) *eventCollector {
	return &eventCollector{
		collector: collector,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "events_total"),
			"Total number of notable engine events, such as unknown filters and template lookup misses",
			[]string{"event"}, nil,
		),
	}
}

func (e *eventCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.desc
}

func (e *eventCollector) Collect(ch chan<- prometheus.Metric) {
	for name, count := range e.collector.GetCustomCounters() {
		ch <- prometheus.MustNewConstMetric(e.desc, prometheus.CounterValue, float64(count), name)
	}
}

func metricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
