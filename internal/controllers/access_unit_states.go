package controllers

import (
	"github.com/flavioribeiro/nalsegmenter/h264"
	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"go.uber.org/zap"
)

// stateFn is one step of access unit segmentation, it returns the next step
// or nil when the segment is done.
type stateFn func(*scan) stateFn

type scan struct {
	data      []byte
	mode      h264.MatchMode
	delimiter int
	delta     int
	seiSeen   bool

	// open is the header whose payload runs up to the next match.
	open h264.HeaderCode
	from int

	sps h264.HeaderIndices
	pps h264.HeaderIndices

	seg *entities.DemuxedSegment
	l   *zap.SugaredLogger
}

func (sc *scan) find(code h264.HeaderCode) h264.HeaderIndices {
	return h264.IndexOfHeader(sc.data, sc.from, code, sc.mode)
}

// close hands the gap in front of next to the header that was left open.
func (sc *scan) close(next h264.HeaderIndices) {
	sc.assign(next.PrecedingPayload(sc.data))
}

// closeRest hands everything after the open header to it, for when no
// further header is found.
func (sc *scan) closeRest() {
	if sc.from >= len(sc.data) {
		return
	}
	sc.assign(sc.data[sc.from:])
}

func (sc *scan) assign(payload []byte) {
	sc.l.Debugw("access unit header",
		"header", sc.open.String(),
		"nal_unit_type", sc.open.UnitType(),
		"payload_size", len(payload),
	)
	switch sc.open {
	case h264.SPS:
		sc.seg.SPS = payload
	case h264.PPS:
		sc.seg.PPS = payload
	case h264.SEI:
		sc.seg.SEI = payload
	}
}

func (sc *scan) advance(code h264.HeaderCode, h h264.HeaderIndices) {
	sc.open = code
	sc.from = h.End
}

func lookingForSPS(sc *scan) stateFn {
	sc.from = sc.delimiter
	sc.sps = sc.find(h264.SPS)
	if !sc.sps.Found {
		return deltaFrame
	}
	sc.seg.FrameType = entities.KeyFrame
	sc.advance(h264.SPS, sc.sps)
	return lookingForPPS
}

func deltaFrame(sc *scan) stateFn {
	sc.seg.FrameType = entities.DeltaFrame
	if sc.delta < 0 {
		sc.seg.Err = entities.ErrInvalidDelimiterOffset
		return nil
	}
	if len(sc.data) <= sc.delta {
		sc.seg.Err = entities.ErrShortAccessUnit
		return nil
	}
	sc.seg.FramePayload = sc.data[sc.delta:]
	sc.l.Debugw("access unit header",
		"header", "DeltaFrame",
		"nal_unit_type", h264.NALUnitType(sc.seg.FramePayload[0]&0x1f),
		"payload_size", len(sc.seg.FramePayload),
	)
	return nil
}

func lookingForPPS(sc *scan) stateFn {
	sc.pps = sc.find(h264.PPS)
	if !sc.pps.Found {
		sc.seg.Err = entities.ErrMissingPPS
		return nil
	}
	sc.close(sc.pps)
	sc.advance(h264.PPS, sc.pps)
	if sc.seiSeen {
		return lookingForKeyFrame
	}
	return lookingForSEI
}

func lookingForSEI(sc *scan) stateFn {
	// Only the first key frame of a stream is searched for an SEI. When it
	// is missing the key frame search carries on from the PPS.
	sc.seiSeen = true
	sei := sc.find(h264.SEI)
	if !sei.Found {
		return lookingForKeyFrame
	}
	sc.close(sei)
	sc.advance(h264.SEI, sei)
	return lookingForKeyFrame
}

func lookingForKeyFrame(sc *scan) stateFn {
	kf := sc.find(h264.KeyFrame)
	if !kf.Found {
		sc.closeRest()
		sc.seg.Err = entities.ErrMissingKeyFrameHeader
		return nil
	}
	sc.close(kf)
	sc.seg.FramePayload = sc.data[kf.End:]
	sc.l.Debugw("access unit header",
		"header", "KeyFrame",
		"payload_size", len(sc.seg.FramePayload),
	)
	return nil
}
