package controllers

import "github.com/flavioribeiro/nalsegmenter/internal/entities"

// TimingAnnotator turns packet timestamps into segment times. The first
// timestamp of a stream becomes its decoding delay, every later one closes
// the duration of the segment emitted before it. The last segment of a
// stream never gets a duration.
type TimingAnnotator struct {
	timebase int64

	firstPacket      bool
	decodingDelay    float64
	hasDecodingDelay bool

	// awaiting is the last emitted segment whose duration is still open.
	awaiting *entities.DemuxedSegment
}

func NewTimingAnnotator(timebase int64) *TimingAnnotator {
	return &TimingAnnotator{timebase: timebase, firstPacket: true}
}

func (t *TimingAnnotator) StartStream() {
	t.firstPacket = true
	t.awaiting = nil
}

// Seconds converts ts using its own timebase, or the annotator's when unset.
func (t *TimingAnnotator) Seconds(ts entities.Timestamp) float64 {
	if ts.Timebase == 0 {
		ts.Timebase = t.timebase
	}
	return ts.Seconds()
}

// Observe is called when a packet begins and returns the timing to stamp on
// the segment that packet produces.
func (t *TimingAnnotator) Observe(ts *entities.Timestamp) entities.SegmentTiming {
	if ts == nil {
		return entities.SegmentTiming{}
	}
	seconds := t.Seconds(*ts)
	timing := entities.SegmentTiming{PTS: seconds, HasPTS: true}

	if t.firstPacket {
		t.firstPacket = false
		t.decodingDelay = seconds
		t.hasDecodingDelay = true
		timing.DecodingDelay = seconds
		timing.HasDecodingDelay = true
	} else if prev := t.awaiting; prev != nil && prev.Timing.HasPTS && !prev.Timing.HasDuration {
		prev.Timing.Duration = seconds - prev.Timing.PTS
		prev.Timing.HasDuration = true
	}
	t.awaiting = nil

	return timing
}

// Emitted registers seg as the segment the next timestamp will close.
func (t *TimingAnnotator) Emitted(seg *entities.DemuxedSegment) {
	t.awaiting = seg
}

func (t *TimingAnnotator) DecodingDelay() (float64, bool) {
	return t.decodingDelay, t.hasDecodingDelay
}
