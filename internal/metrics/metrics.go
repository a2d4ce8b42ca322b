// Package metrics records the outcome of a gate run for the node exporter
// textfile collector.
package metrics

import (
	"github.com/juparave/secretgate/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the gauges describing a single run
type Recorder struct {
	registry          *prometheus.Registry
	findings          prometheus.Gauge
	offending         *prometheus.GaugeVec
	unknownSeverities prometheus.Gauge
	blocked           prometheus.Gauge
}

// NewRecorder creates a Recorder backed by its own registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		findings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "secretgate_findings_total",
			Help: "Open secret scanning alerts evaluated",
		}),
		offending: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "secretgate_offending_findings",
				Help: "Alerts older than their allowed remediation window",
			},
			[]string{"severity"},
		),
		unknownSeverities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "secretgate_unknown_severities",
			Help: "Distinct alert severities without a policy entry",
		}),
		blocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "secretgate_blocked",
			Help: "1 if the pull request was blocked",
		}),
	}
	r.registry.MustRegister(r.findings, r.offending, r.unknownSeverities, r.blocked)
	return r
}

// Observe records a verdict
func (r *Recorder) Observe(v domain.Verdict) {
	r.findings.Set(float64(v.Evaluated))
	r.unknownSeverities.Set(float64(len(v.UnknownSeverities)))

	r.offending.Reset()
	for _, f := range v.Offending {
		r.offending.WithLabelValues(string(f.Severity)).Inc()
	}

	if v.Blocked {
		r.blocked.Set(1)
	} else {
		r.blocked.Set(0)
	}
}

// WriteTextfile writes the current values in the text exposition format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
