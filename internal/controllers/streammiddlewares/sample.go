package streammiddlewares

import (
	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"github.com/flavioribeiro/nalsegmenter/internal/mapper"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// SampleWriter is satisfied by *webrtc.TrackLocalStaticSample.
type SampleWriter interface {
	WriteSample(s media.Sample) error
}

type sampleMiddleware struct {
	w SampleWriter
	m *mapper.Mapper
	l *zap.SugaredLogger
}

type SampleResponse struct {
	fx.Out
	SampleMiddleware entities.SegmentMiddleware `group:"middlewares"`
	VideoTrack       *webrtc.TrackLocalStaticSample
}

// NewSample creates a middleware feeding complete segments to an H.264 WebRTC
// track, which peer connections can bind through AddTrack.
func NewSample(m *mapper.Mapper, l *zap.SugaredLogger) (SampleResponse, error) {
	videoTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264}, "video", "nalsegmenter",
	)
	if err != nil {
		return SampleResponse{}, err
	}
	return SampleResponse{
		SampleMiddleware: newSample(videoTrack, m, l),
		VideoTrack:       videoTrack,
	}, nil
}

func newSample(w SampleWriter, m *mapper.Mapper, l *zap.SugaredLogger) *sampleMiddleware {
	return &sampleMiddleware{w: w, m: m, l: l}
}

// Act writes the segment as a media sample, incomplete segments are skipped.
func (s *sampleMiddleware) Act(seg *entities.DemuxedSegment, sc *entities.StreamContext) error {
	if !seg.Complete() {
		s.l.Debugw("skipping incomplete segment",
			"stream", sc.String(),
			"error", seg.Err,
		)
		return nil
	}
	return s.w.WriteSample(s.m.FromSegmentToSample(seg))
}
