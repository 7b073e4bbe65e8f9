package controllers

import (
	"github.com/flavioribeiro/nalsegmenter/h264"
	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"go.uber.org/zap"
)

// Segmenter buffers the fragments of one PES packet at a time and, once the
// packet ends, cuts it into a DemuxedSegment. One Segmenter serves exactly
// one elementary stream and must not be shared between goroutines.
type Segmenter struct {
	c *entities.Config
	l *zap.SugaredLogger

	buffer        []byte
	inPacket      bool
	discontinuity bool
	timing        entities.SegmentTiming

	stream    streamState
	annotator *TimingAnnotator
	store     *SegmentStore
}

// streamState is carried from one access unit to the next.
type streamState struct {
	// Once an SEI has been seen, later key frames are expected to go
	// straight from PPS to the IDR slice.
	seiSeen bool
}

func NewSegmenter(c *entities.Config, l *zap.SugaredLogger) *Segmenter {
	return &Segmenter{
		c:         c,
		l:         l,
		annotator: NewTimingAnnotator(c.TimestampTimebase),
		store:     NewSegmentStore(),
	}
}

// StartStream resets the first packet bookkeeping.
func (s *Segmenter) StartStream() {
	s.annotator.StartStream()
}

// BeginPacket replaces the packet buffer with a copy of payload.
func (s *Segmenter) BeginPacket(payload []byte, ts *entities.Timestamp) {
	s.timing = s.annotator.Observe(ts)
	s.buffer = append(make([]byte, 0, len(payload)), payload...)
	s.inPacket = true
	s.discontinuity = false
}

// ContinuePacket appends payload to the packet in progress, it is ignored
// when no packet is in progress.
func (s *Segmenter) ContinuePacket(payload []byte) {
	if !s.inPacket {
		return
	}
	s.buffer = append(s.buffer, payload...)
}

// EndPacket segments the buffered packet, stores and returns the segment.
// It returns nil when no packet is in progress or the packet is empty.
func (s *Segmenter) EndPacket() *entities.DemuxedSegment {
	if !s.inPacket {
		return nil
	}
	data := s.buffer
	s.buffer = nil
	s.inPacket = false
	if len(data) == 0 {
		return nil
	}

	seg := s.segment(data)
	seg.Timing = s.timing
	seg.Discontinuity = s.discontinuity
	if seg.Err != nil {
		seg.Raw = data
	}

	index := s.store.Append(seg)
	s.annotator.Emitted(seg)
	if seg.Err != nil {
		s.l.Warnw("malformed access unit",
			"error", seg.Err,
			"frame_type", seg.FrameType,
			"index", index,
			"size", len(data),
		)
	}
	return seg
}

// ContinuityError reacts to a gap detected upstream according to the
// configured policy.
func (s *Segmenter) ContinuityError() {
	if !s.inPacket {
		return
	}
	if s.c.ContinuityPolicy == entities.ContinuityResume {
		s.discontinuity = true
		s.l.Warnw("continuity error, keeping packet", "buffered", len(s.buffer))
		return
	}
	s.l.Warnw("continuity error, discarding packet", "buffered", len(s.buffer))
	s.buffer = nil
	s.inPacket = false
}

// Len is the number of segments produced so far.
func (s *Segmenter) Len() int {
	return s.store.Len()
}

func (s *Segmenter) Segments() []*entities.DemuxedSegment {
	return s.store.All()
}

func (s *Segmenter) DecodingDelay() (float64, bool) {
	return s.annotator.DecodingDelay()
}

func (s *Segmenter) segment(data []byte) *entities.DemuxedSegment {
	sc := &scan{
		data:      data,
		mode:      s.c.MatchMode,
		delimiter: s.c.DelimiterOffset,
		delta:     s.c.DeltaFrameOffset(),
		seiSeen:   s.stream.seiSeen,
		seg:       &entities.DemuxedSegment{},
		l:         s.l,
	}
	for state := lookingForSPS; state != nil; {
		state = state(sc)
	}
	s.stream.seiSeen = sc.seiSeen

	if s.c.UnescapeParameterSets {
		if sc.seg.SPS != nil {
			sc.seg.SPS = h264.RBSP(sc.seg.SPS)
		}
		if sc.seg.PPS != nil {
			sc.seg.PPS = h264.RBSP(sc.seg.PPS)
		}
	}
	return sc.seg
}
