package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsSink exports sweep progress as Prometheus metrics.
type MetricsSink struct {
	points         *prometheus.CounterVec
	samples        prometheus.Counter
	sampleFailures *prometheus.CounterVec
	currentPoint   prometheus.Gauge
	pointSeconds   prometheus.Histogram
}

// NewMetricsSink registers the sweep metrics with reg.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	f := promauto.With(reg)
	return &MetricsSink{
		points: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchsweep_points_total",
				Help: "Sweep points finished, by final state",
			},
			[]string{"state"}, // CONVERGED, EXHAUSTED or FAILED
		),
		samples: f.NewCounter(prometheus.CounterOpts{
			Name: "benchsweep_samples_total",
			Help: "Samples accepted across all points",
		}),
		sampleFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchsweep_sample_failures_total",
				Help: "Failed tool invocations, by executor status",
			},
			[]string{"status"}, // error or timeout
		),
		currentPoint: f.NewGauge(prometheus.GaugeOpts{
			Name: "benchsweep_current_point",
			Help: "Sequence number of the last finished point",
		}),
		pointSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "benchsweep_point_duration_seconds",
			Help:    "Wall time spent measuring one point",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 3600},
		}),
	}
}

func (m *MetricsSink) Start(RunInfo) error {
	m.currentPoint.Set(-1)
	return nil
}

func (m *MetricsSink) Record(r Record) error {
	m.points.WithLabelValues(string(r.Result.State)).Inc()
	m.samples.Add(float64(len(r.Result.Samples)))
	for status, n := range r.Result.Failures {
		m.sampleFailures.WithLabelValues(status).Add(float64(n))
	}
	m.currentPoint.Set(float64(r.Seq))
	m.pointSeconds.Observe(r.Result.Elapsed.Seconds())
	return nil
}

func (m *MetricsSink) Finish(Totals) error { return nil }
func (m *MetricsSink) Close() error        { return nil }
