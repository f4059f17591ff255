package out

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "vscan"

// PrometheusObserver records scan loop activity.
type PrometheusObserver struct {
	ticks         prometheus.Counter
	skipped       *prometheus.CounterVec
	decodes       prometheus.Counter
	results       prometheus.Counter
	detections    prometheus.Counter
	captureErrors prometheus.Counter
	latency       prometheus.Histogram
}

func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "scan", Name: "ticks_total",
			Help: "Scheduler ticks seen by scan sessions.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "scan", Name: "skipped_ticks_total",
			Help: "Ticks that did not start a decode, by reason.",
		}, []string{"reason"}),
		decodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "scan", Name: "decodes_total",
			Help: "Completed decode calls.",
		}),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "scan", Name: "results_total",
			Help: "Results returned by the decoder.",
		}),
		detections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "scan", Name: "detections_total",
			Help: "Symbols detected for the first time.",
		}),
		captureErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "scan", Name: "capture_errors_total",
			Help: "Frame captures that failed.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "scan", Name: "decode_duration_seconds",
			Help:    "Decode call latency.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
	for _, c := range []prometheus.Collector{o.ticks, o.skipped, o.decodes, o.results, o.detections, o.captureErrors, o.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) Tick() { o.ticks.Inc() }

func (o *PrometheusObserver) Skip(reason string) { o.skipped.WithLabelValues(reason).Inc() }

func (o *PrometheusObserver) Decoded(elapsed time.Duration, results int) {
	o.decodes.Inc()
	o.results.Add(float64(results))
	o.latency.Observe(elapsed.Seconds())
}

func (o *PrometheusObserver) Detected(count int) { o.detections.Add(float64(count)) }

func (o *PrometheusObserver) CaptureFailed() { o.captureErrors.Inc() }
