// Package metrics exports client statistics to Prometheus.
//
// The collector reads the client counters at scrape time, so registering it
// adds no work to the command path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/redis"
)

// Source is what the collector reads. *redis.Client implements it.
type Source interface {
	Stats() redis.ClientStats
	CircuitBreaker() redis.CircuitBreaker
}

var _ Source = (*redis.Client)(nil)

// Collector is a prometheus.Collector over one client.
type Collector struct {
	source Source

	commands   *prometheus.Desc
	operations *prometheus.Desc
	getHits    *prometheus.Desc
	reconnects *prometheus.Desc
	errors     *prometheus.Desc

	circuitState    *prometheus.Desc
	circuitRequests *prometheus.Desc
	circuitFailures *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector for source. server labels every metric.
func NewCollector(source Source, server string) *Collector {
	labels := prometheus.Labels{"server": server}
	return &Collector{
		source: source,

		commands: prometheus.NewDesc(
			"redis_client_commands_total",
			"Total number of commands sent",
			nil, labels,
		),
		operations: prometheus.NewDesc(
			"redis_client_operations_total",
			"Total number of typed operations",
			[]string{"operation"}, labels, // get, set, delete
		),
		getHits: prometheus.NewDesc(
			"redis_client_get_hits_total",
			"Read operations that found a value",
			nil, labels,
		),
		reconnects: prometheus.NewDesc(
			"redis_client_reconnects_total",
			"Successful reconnects",
			nil, labels,
		),
		errors: prometheus.NewDesc(
			"redis_client_errors_total",
			"Total errors across all operations",
			nil, labels,
		),
		circuitState: prometheus.NewDesc(
			"redis_client_circuit_breaker_state",
			"Circuit breaker state (0=closed, 1=half-open, 2=open)",
			nil, labels,
		),
		circuitRequests: prometheus.NewDesc(
			"redis_client_circuit_breaker_requests",
			"Number of requests tracked by circuit breaker",
			nil, labels,
		),
		circuitFailures: prometheus.NewDesc(
			"redis_client_circuit_breaker_failures",
			"Circuit breaker failure counts",
			[]string{"type"}, labels, // total, consecutive
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.commands
	ch <- c.operations
	ch <- c.getHits
	ch <- c.reconnects
	ch <- c.errors
	ch <- c.circuitState
	ch <- c.circuitRequests
	ch <- c.circuitFailures
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.commands, prometheus.CounterValue, float64(stats.Commands))
	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(stats.Gets), "get")
	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(stats.Sets), "set")
	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(stats.Deletes), "delete")
	ch <- prometheus.MustNewConstMetric(c.getHits, prometheus.CounterValue, float64(stats.GetHits))
	ch <- prometheus.MustNewConstMetric(c.reconnects, prometheus.CounterValue, float64(stats.Reconnects))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(stats.Errors))

	cb := c.source.CircuitBreaker()
	if cb == nil {
		return
	}
	counts := cb.Counts()
	ch <- prometheus.MustNewConstMetric(c.circuitState, prometheus.GaugeValue, stateValue(cb.State()))
	ch <- prometheus.MustNewConstMetric(c.circuitRequests, prometheus.GaugeValue, float64(counts.Requests))
	ch <- prometheus.MustNewConstMetric(c.circuitFailures, prometheus.GaugeValue, float64(counts.TotalFailures), "total")
	ch <- prometheus.MustNewConstMetric(c.circuitFailures, prometheus.GaugeValue, float64(counts.ConsecutiveFailures), "consecutive")
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
