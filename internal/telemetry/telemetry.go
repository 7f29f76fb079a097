// Package telemetry holds the run metrics and the tracer used around
// pipeline stages.
package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/phobologic/jslice"

// Metrics are registered on a private registry and written to a textfile at
// the end of a run, so concurrent tests and batch runs never collide on the
// default registry.
type Metrics struct {
	reg *prometheus.Registry

	filesParsed   *prometheus.CounterVec
	synthetic     prometheus.Counter
	iterations    prometheus.Histogram
	diagnostics   prometheus.Gauge
	oracleLatency *prometheus.HistogramVec
	runs          *prometheus.CounterVec
}

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		filesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jslice",
			Subsystem: "parse",
			Name:      "files_total",
			Help:      "Java files parsed, by whether the parse cache served them",
		}, []string{"cached"}),
		synthetic: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jslice",
			Subsystem: "resolve",
			Name:      "synthetic_changes_total",
			Help:      "Synthetic declarations added or changed",
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jslice",
			Subsystem: "typecorrect",
			Name:      "iterations",
			Help:      "Compile iterations per run",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 25},
		}),
		diagnostics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jslice",
			Subsystem: "typecorrect",
			Name:      "diagnostics",
			Help:      "Diagnostics reported by the latest compile",
		}),
		oracleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jslice",
			Subsystem: "oracle",
			Name:      "latency_seconds",
			Help:      "Compiler invocation latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"success"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jslice",
			Name:      "runs_total",
			Help:      "Minimization runs by outcome",
		}, []string{"outcome"}),
	}
	m.reg.MustRegister(m.filesParsed, m.synthetic, m.iterations, m.diagnostics, m.oracleLatency, m.runs)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *Metrics) FileParsed(cached bool) {
	m.filesParsed.WithLabelValues(strconv.FormatBool(cached)).Inc()
}

func (m *Metrics) SyntheticChanges(n int) {
	m.synthetic.Add(float64(n))
}

func (m *Metrics) Diagnostics(n int) {
	m.diagnostics.Set(float64(n))
}

func (m *Metrics) OracleCall(d time.Duration, success bool) {
	m.oracleLatency.WithLabelValues(strconv.FormatBool(success)).Observe(d.Seconds())
}

// RunFinished records a run's outcome ("converged", "failed", "error") and
// its iteration count.
func (m *Metrics) RunFinished(outcome string, iterations int) {
	m.runs.WithLabelValues(outcome).Inc()
	if iterations > 0 {
		m.iterations.Observe(float64(iterations))
	}
}

// WriteFile writes all metrics in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// Start opens a span on the global tracer. Without a configured provider the
// span is a no-op.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
