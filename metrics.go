package edition

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors updated by Recorder and Renderer. A
// nil *Metrics is valid and records nothing.
type Metrics struct {
	FramesCaptured prometheus.Counter
	EncodeSeconds  prometheus.Histogram
	ChunksFlushed  prometheus.Counter
	ChunkBytes     prometheus.Counter
	Recording      prometheus.Gauge
	ItemsRendered  *prometheus.CounterVec
	RunErrors      prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edition",
			Name:      "frames_captured_total",
			Help:      "Frames encoded and appended to an archive chunk.",
		}),
		EncodeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "edition",
			Name:      "frame_encode_seconds",
			Help:      "Time spent reading back and encoding one frame.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		ChunksFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edition",
			Name:      "chunks_flushed_total",
			Help:      "Archive chunks written to the sink.",
		}),
		ChunkBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edition",
			Name:      "chunk_bytes_total",
			Help:      "Archive bytes written to the sink.",
		}),
		Recording: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "edition",
			Name:      "recording",
			Help:      "1 while a recording session is active.",
		}),
		ItemsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edition",
			Name:      "items_rendered_total",
			Help:      "Sequence numbers fully rendered, by property set.",
		}, []string{"set"}),
		RunErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edition",
			Name:      "run_errors_total",
			Help:      "Render runs aborted by an error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.FramesCaptured, m.EncodeSeconds, m.ChunksFlushed,
			m.ChunkBytes, m.Recording, m.ItemsRendered, m.RunErrors)
	}
	return m
}

func (m *Metrics) frameCaptured(encode time.Duration) {
	if m == nil {
		return
	}
	m.FramesCaptured.Inc()
	m.EncodeSeconds.Observe(encode.Seconds())
}

func (m *Metrics) chunkFlushed(size int) {
	if m == nil {
		return
	}
	m.ChunksFlushed.Inc()
	m.ChunkBytes.Add(float64(size))
}

func (m *Metrics) setRecording(on bool) {
	if m == nil {
		return
	}
	if on {
		m.Recording.Set(1)
	} else {
		m.Recording.Set(0)
	}
}

func (m *Metrics) itemRendered(set string) {
	if m == nil {
		return
	}
	m.ItemsRendered.WithLabelValues(set).Inc()
}

func (m *Metrics) runFailed() {
	if m == nil {
		return
	}
	m.RunErrors.Inc()
}
