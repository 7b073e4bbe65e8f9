package mapper

import (
	"github.com/asticode/go-astits"
	"github.com/flavioribeiro/nalsegmenter/h264"
	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"github.com/pion/webrtc/v3/pkg/media"
	"go.uber.org/zap"
)

type Mapper struct {
	l *zap.SugaredLogger
}

func NewMapper(l *zap.SugaredLogger) *Mapper {
	return &Mapper{l: l}
}

func (m *Mapper) FromMpegTsStreamTypeToCodec(st astits.StreamType) entities.Codec {
	if st == astits.StreamTypeH264Video {
		return entities.H264
	}
	if st == astits.StreamTypeH265Video {
		return entities.H265
	}
	if st == astits.StreamTypeAACAudio {
		return entities.AAC
	}
	m.l.Debugw("no codec mapping for stream type",
		"stream_type", st,
	)
	return entities.UnknownCodec
}

// FromClockReferenceToTimestamp returns nil when the PES carried no PTS.
func (m *Mapper) FromClockReferenceToTimestamp(cr *astits.ClockReference, timebase int64) *entities.Timestamp {
	if cr == nil {
		return nil
	}
	return &entities.Timestamp{Value: cr.Base, Timebase: timebase}
}

// FromPESToTimestamp digs the PTS out of a PES header.
func (m *Mapper) FromPESToTimestamp(pes *astits.PESData, timebase int64) *entities.Timestamp {
	if pes == nil || pes.Header == nil || pes.Header.OptionalHeader == nil {
		return nil
	}
	return m.FromClockReferenceToTimestamp(pes.Header.OptionalHeader.PTS, timebase)
}

// FromSegmentToAnnexB puts start codes back in front of every NAL unit of
// the segment. Segments that failed segmentation are returned raw.
func (m *Mapper) FromSegmentToAnnexB(seg *entities.DemuxedSegment) []byte {
	if seg == nil {
		return nil
	}
	if seg.Err != nil {
		return seg.Raw
	}

	var out []byte
	if seg.FrameType == entities.KeyFrame {
		out = appendNAL(out, h264.SPS.StartCode(), seg.SPS)
		out = appendNAL(out, h264.PPS.StartCode(), seg.PPS)
		out = appendNAL(out, h264.SEI.StartCode(), seg.SEI)
		return appendNAL(out, h264.KeyFrame.StartCode(), seg.FramePayload)
	}
	return appendNAL(out, h264.LongStartCode(), seg.FramePayload)
}

func (m *Mapper) FromSegmentToSample(seg *entities.DemuxedSegment) media.Sample {
	return media.Sample{
		Data:     m.FromSegmentToAnnexB(seg),
		Duration: seg.Timing.DurationTime(),
	}
}

func appendNAL(out, startCode, nal []byte) []byte {
	if len(nal) == 0 {
		return out
	}
	out = append(out, startCode...)
	return append(out, nal...)
}
