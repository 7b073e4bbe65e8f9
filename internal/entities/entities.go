package entities

import (
	"fmt"
	"time"

	"github.com/flavioribeiro/nalsegmenter/h264"
)

type Codec string

const (
	UnknownCodec Codec = "unknownCodec"
	H264         Codec = "h264"
	H265         Codec = "h265"
	AAC          Codec = "aac"
)

type VideoFrameType int

const (
	KeyFrame VideoFrameType = iota
	DeltaFrame
)

func (t VideoFrameType) String() string {
	switch t {
	case KeyFrame:
		return "key"
	case DeltaFrame:
		return "delta"
	}
	return fmt.Sprintf("VideoFrameType(%d)", int(t))
}

// Timestamp is a presentation timestamp expressed in Timebase units per second.
type Timestamp struct {
	Value    int64
	Timebase int64
}

func (t Timestamp) Seconds() float64 {
	if t.Timebase == 0 {
		return 0
	}
	return float64(t.Value) / float64(t.Timebase)
}

// SegmentTiming holds times in seconds. Each value is meaningful only when
// its Has* flag is set.
type SegmentTiming struct {
	PTS              float64
	HasPTS           bool
	Duration         float64
	HasDuration      bool
	DecodingDelay    float64
	HasDecodingDelay bool
}

// DurationTime converts Duration to a time.Duration, zero when unknown.
func (t SegmentTiming) DurationTime() time.Duration {
	if !t.HasDuration {
		return 0
	}
	return time.Duration(t.Duration * float64(time.Second))
}

// DemuxedSegment is one access unit cut out of a PES packet. Payload slices
// start with the NAL header byte and stop right before the next start code.
type DemuxedSegment struct {
	SPS          []byte
	PPS          []byte
	SEI          []byte
	FrameType    VideoFrameType
	FramePayload []byte

	Timing SegmentTiming

	// Discontinuity marks a segment assembled across an upstream continuity error.
	Discontinuity bool

	// Err is set when the access unit could not be fully segmented, Raw then
	// keeps the whole packet for inspection.
	Err error
	Raw []byte
}

func (s *DemuxedSegment) Complete() bool {
	return s != nil && s.Err == nil
}

// StreamContext identifies the elementary stream a segment came from.
type StreamContext struct {
	PID   uint16
	Codec Codec
	Index int
}

func (s *StreamContext) String() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("pid %d (%s) segment #%d", s.PID, s.Codec, s.Index)
}

type SegmentMiddleware interface {
	Act(seg *DemuxedSegment, sc *StreamContext) error
}

type ContinuityPolicy string

const (
	// ContinuityDiscard drops the packet being buffered.
	ContinuityDiscard ContinuityPolicy = "discard"
	// ContinuityResume keeps buffering and flags the resulting segment.
	ContinuityResume ContinuityPolicy = "resume"
)

type Config struct {
	// The segmenter skips an access unit delimiter (00 00 00 01 09 xx) that is
	// assumed to open every packet.
	DelimiterOffset int            `required:"true" default:"6" split_words:"true"`
	MatchMode       h264.MatchMode `required:"true" default:"strict" split_words:"true"`

	ContinuityPolicy ContinuityPolicy `required:"true" default:"discard" split_words:"true"`

	// MPEG-TS PTS runs on a 90 kHz clock.
	TimestampTimebase int64 `required:"true" default:"90000" split_words:"true"`

	// FragmentSizeBytes > 0 splits every PES payload into fragments of this size.
	FragmentSizeBytes     int  `default:"0" split_words:"true"`
	UnescapeParameterSets bool `default:"false" split_words:"true"`

	OutputPath        string `default:"" split_words:"true"`
	EnableSampleTrack bool   `default:"false" split_words:"true"`

	EnableMetricsServer bool   `default:"false" split_words:"true"`
	MetricsHTTPHost     string `required:"true" default:"0.0.0.0" envconfig:"METRICS_HTTP_HOST"`
	MetricsHTTPPort     int32  `required:"true" default:"9090" envconfig:"METRICS_HTTP_PORT"`

	LogLevel string `required:"true" default:"info" split_words:"true"`
}

// DeltaFrameOffset is where the slice NAL of a delta frame starts: the
// delimiter plus a four byte start code.
func (c *Config) DeltaFrameOffset() int {
	return c.DelimiterOffset + 4
}

func (c *Config) Validate() error {
	if c == nil {
		return ErrMissingConfig
	}
	if !c.MatchMode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMatchMode, c.MatchMode)
	}
	if c.ContinuityPolicy != ContinuityDiscard && c.ContinuityPolicy != ContinuityResume {
		return fmt.Errorf("%w: %q", ErrInvalidContinuityPolicy, c.ContinuityPolicy)
	}
	if c.TimestampTimebase <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimebase, c.TimestampTimebase)
	}
	if c.DelimiterOffset < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDelimiterOffset, c.DelimiterOffset)
	}
	if c.FragmentSizeBytes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFragmentSize, c.FragmentSizeBytes)
	}
	return nil
}
