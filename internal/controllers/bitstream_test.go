package controllers_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/flavioribeiro/nalsegmenter/h264"
	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// x264_720p.h264 holds five access units (IDR with x264 SEI, P, P, IDR, P)
// built around parameter sets written by x264 for a 1280x720 High profile
// stream. The SPS carries an emulation prevention byte.
func readAccessUnits(t *testing.T) [][]byte {
	data, err := os.ReadFile(filepath.Join("testdata", "x264_720p.h264"))
	require.NoError(t, err)

	delimiter := []byte{0x00, 0x00, 0x00, 0x01, byte(h264.Delimiter)}
	var units [][]byte
	for len(data) > 0 {
		next := bytes.Index(data[len(delimiter):], delimiter)
		if next < 0 {
			units = append(units, data)
			break
		}
		units = append(units, data[:next+len(delimiter)])
		data = data[next+len(delimiter):]
	}
	return units
}

func segmentAll(t *testing.T, c *entities.Config, units [][]byte) []*entities.DemuxedSegment {
	s := newSegmenter(t, c)
	s.StartStream()
	for _, u := range units {
		require.NotNil(t, feed(s, u, nil))
	}
	return s.Segments()
}

func TestSegmenter_EncoderBitstream(t *testing.T) {
	units := readAccessUnits(t)
	require.Len(t, units, 5)

	segs := segmentAll(t, newConfig(), units)
	require.Len(t, segs, 5)
	for _, seg := range segs {
		assert.NoError(t, seg.Err)
	}

	first := segs[0]
	assert.Equal(t, entities.KeyFrame, first.FrameType)
	assert.Len(t, first.SPS, 40)
	assert.Equal(t, []byte{0x67, 0x64, 0x00, 0x1f}, first.SPS[:4])
	assert.Equal(t, []byte{0x68, 0xeb, 0xe3, 0xcb, 0x22, 0xc0}, first.PPS)
	assert.Len(t, first.SEI, 132)
	assert.Contains(t, string(first.SEI), "x264 - core")
	assert.Len(t, first.FramePayload, 24)
	assert.Equal(t, byte(0x65), first.FramePayload[0])

	assert.Equal(t, entities.DeltaFrame, segs[1].FrameType)
	assert.Len(t, segs[1].FramePayload, 12)
	assert.Equal(t, entities.DeltaFrame, segs[2].FrameType)
	assert.Len(t, segs[2].FramePayload, 9)

	// x264 only writes its SEI on the first IDR
	second := segs[3]
	assert.Equal(t, entities.KeyFrame, second.FrameType)
	assert.Equal(t, first.SPS, second.SPS)
	assert.Equal(t, first.PPS, second.PPS)
	assert.Nil(t, second.SEI)
	assert.Len(t, second.FramePayload, 16)

	assert.Equal(t, segs[1].FramePayload, segs[4].FramePayload)
}

func TestSegmenter_EncoderBitstreamMatchModesAgree(t *testing.T) {
	units := readAccessUnits(t)

	legacy := newConfig()
	legacy.MatchMode = h264.MatchLegacy

	assert.Equal(t, segmentAll(t, newConfig(), units), segmentAll(t, legacy, units))
}

func TestSegmenter_EncoderBitstreamUnescaped(t *testing.T) {
	c := newConfig()
	c.UnescapeParameterSets = true

	segs := segmentAll(t, c, readAccessUnits(t))

	// one 00 00 03 sequence in the SPS
	assert.Len(t, segs[0].SPS, 39)
	assert.Len(t, segs[0].PPS, 6)
}
