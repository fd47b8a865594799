package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dingtalk/internal/robot"
)

const metricPrefix = "dingtalk_robot_"

// Recorder counts robot deliveries. It satisfies robot.Observer.
type Recorder struct {
	registry *prometheus.Registry

	sendTotal   *prometheus.CounterVec
	sendLatency *prometheus.HistogramVec
}

// New creates a Recorder backed by its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sendTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "send_total",
				Help: "Total robot sends by provider and result",
			},
			[]string{"provider", "result"},
		),
		sendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "send_latency_seconds",
				Help:    "Robot send latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "result"},
		),
	}
	r.registry.MustRegister(r.sendTotal, r.sendLatency)
	return r
}

// ObserveSend records one send attempt.
func (r *Recorder) ObserveSend(p robot.Provider, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.sendTotal.WithLabelValues(p.String(), result).Inc()
	r.sendLatency.WithLabelValues(p.String(), result).Observe(elapsed.Seconds())
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile writes the current metrics in the node_exporter textfile
// format. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		log.Printf("metrics: write %s: %v", path, err)
		return err
	}
	return nil
}
