package streammiddlewares

import (
	"errors"
	"strconv"

	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const (
	MetricsNamespace   = "nalseg"
	segmenterSubsystem = "segmenter"
)

type metricsMiddleware struct {
	segments        *prometheus.CounterVec
	malformed       *prometheus.CounterVec
	payloadBytes    *prometheus.CounterVec
	discontinuities *prometheus.CounterVec
	durations       *prometheus.HistogramVec
}

type MetricsResponse struct {
	fx.Out
	MetricsMiddleware entities.SegmentMiddleware `group:"middlewares"`
}

// NewMetrics creates a middleware counting segments on the given registry.
func NewMetrics(r prometheus.Registerer) (MetricsResponse, error) {
	m := newMetrics()
	for _, c := range m.collectors() {
		if err := r.Register(c); err != nil {
			return MetricsResponse{}, err
		}
	}
	return MetricsResponse{MetricsMiddleware: m}, nil
}

func newMetrics() *metricsMiddleware {
	labels := []string{"pid"}
	return &metricsMiddleware{
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: segmenterSubsystem,
			Name:      "segments_total",
			Help:      "The number of access units segmented, by frame type",
		}, append(labels, "frame_type")),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: segmenterSubsystem,
			Name:      "malformed_segments_total",
			Help:      "The number of access units that could not be fully segmented",
		}, append(labels, "reason")),
		payloadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: segmenterSubsystem,
			Name:      "payload_bytes_total",
			Help:      "Bytes of NAL payload extracted, by NAL kind",
		}, append(labels, "kind")),
		discontinuities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: segmenterSubsystem,
			Name:      "discontinuities_total",
			Help:      "The number of segments assembled across a continuity error",
		}, labels),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: segmenterSubsystem,
			Name:      "segment_duration_seconds",
			Help:      "Presentation duration of segments",
			Buckets:   []float64{0.008, 0.016, 0.02, 0.033, 0.04, 0.05, 0.1, 0.5, 1},
		}, labels),
	}
}

func (m *metricsMiddleware) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.segments, m.malformed, m.payloadBytes, m.discontinuities, m.durations}
}

// Act records one segment.
func (m *metricsMiddleware) Act(seg *entities.DemuxedSegment, sc *entities.StreamContext) error {
	pid := strconv.Itoa(int(sc.PID))

	m.segments.WithLabelValues(pid, seg.FrameType.String()).Inc()
	if seg.Err != nil {
		m.malformed.WithLabelValues(pid, malformedReason(seg.Err)).Inc()
	}
	if seg.Discontinuity {
		m.discontinuities.WithLabelValues(pid).Inc()
	}
	if seg.Timing.HasDuration {
		m.durations.WithLabelValues(pid).Observe(seg.Timing.Duration)
	}

	m.payloadBytes.WithLabelValues(pid, "sps").Add(float64(len(seg.SPS)))
	m.payloadBytes.WithLabelValues(pid, "pps").Add(float64(len(seg.PPS)))
	m.payloadBytes.WithLabelValues(pid, "sei").Add(float64(len(seg.SEI)))
	m.payloadBytes.WithLabelValues(pid, "frame").Add(float64(len(seg.FramePayload)))
	return nil
}

func malformedReason(err error) string {
	switch {
	case errors.Is(err, entities.ErrMissingPPS):
		return "missing_pps"
	case errors.Is(err, entities.ErrMissingKeyFrameHeader):
		return "missing_key_frame_header"
	case errors.Is(err, entities.ErrShortAccessUnit):
		return "short_access_unit"
	}
	return "other"
}
