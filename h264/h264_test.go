package h264_test

import (
	"testing"

	"github.com/flavioribeiro/nalsegmenter/h264"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accessUnit = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x01, 0x67, 0xaa, 0xbb, 0xcc, // sps
	0x00, 0x00, 0x00, 0x01, 0x68, 0xdd, 0xee, // pps
	0x00, 0x00, 0x01, 0x06, 0x05, 0x04, // sei
	0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x21, // idr
}

func TestIndexOfHeader_MatchAtOrigin(t *testing.T) {
	h := h264.IndexOfHeader(accessUnit, 6, h264.SPS, h264.MatchStrict)

	assert.True(t, h.Found)
	assert.Equal(t, 6, h.Start)
	assert.Equal(t, 10, h.End)
	assert.False(t, h.HasPrevHeader)
	assert.Nil(t, h.PrecedingPayload(accessUnit))
}

func TestIndexOfHeader_GapBeforeMatch(t *testing.T) {
	sps := h264.IndexOfHeader(accessUnit, 6, h264.SPS, h264.MatchStrict)
	pps := h264.IndexOfHeader(accessUnit, sps.End, h264.PPS, h264.MatchStrict)

	require.True(t, pps.Found)
	assert.Equal(t, 14, pps.Start)
	assert.Equal(t, 18, pps.End)
	assert.True(t, pps.HasPrevHeader)
	assert.Equal(t, sps.End, pps.PrevHeaderEnd)
	// the gap includes the header byte that follows the start code
	assert.Equal(t, []byte{0x67, 0xaa, 0xbb, 0xcc}, pps.PrecedingPayload(accessUnit))
}

func TestIndexOfHeader_ThreeByteCodes(t *testing.T) {
	sei := h264.IndexOfHeader(accessUnit, 18, h264.SEI, h264.MatchStrict)
	require.True(t, sei.Found)
	assert.Equal(t, 21, sei.Start)
	assert.Equal(t, 24, sei.End)

	idr := h264.IndexOfHeader(accessUnit, sei.End, h264.KeyFrame, h264.MatchStrict)
	require.True(t, idr.Found)
	assert.Equal(t, 27, idr.Start)
	assert.Equal(t, 30, idr.End)
	assert.Equal(t, []byte{0x06, 0x05, 0x04}, idr.PrecedingPayload(accessUnit))
}

func TestIndexOfHeader_FirstMatchWins(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x01, 0x65, 0x01,
		0x00, 0x00, 0x01, 0x65, 0x02,
	}
	h := h264.IndexOfHeader(data, 0, h264.KeyFrame, h264.MatchStrict)
	assert.Equal(t, 0, h.Start)

	h = h264.IndexOfHeader(data, 1, h264.KeyFrame, h264.MatchStrict)
	assert.Equal(t, 5, h.Start)
	assert.Equal(t, 1, h.PrevHeaderEnd)
}

func TestIndexOfHeader_NotFound(t *testing.T) {
	h := h264.IndexOfHeader(accessUnit, 0, h264.Delimiter, h264.MatchStrict)
	assert.Equal(t, h264.HeaderIndices{}, h)
	assert.Nil(t, h.PrecedingPayload(accessUnit))

	// start code with no header byte after it
	h = h264.IndexOfHeader([]byte{0x00, 0x00, 0x01}, 0, h264.KeyFrame, h264.MatchStrict)
	assert.False(t, h.Found)
}

func TestIndexOfHeader_ShortBuffers(t *testing.T) {
	for n := 0; n < 7; n++ {
		data := make([]byte, n)
		for _, code := range []h264.HeaderCode{h264.Delimiter, h264.SPS, h264.PPS, h264.SEI, h264.KeyFrame} {
			assert.NotPanics(t, func() {
				h := h264.IndexOfHeader(data, 6, code, h264.MatchStrict)
				assert.False(t, h.Found)
			})
		}
	}

	h := h264.IndexOfHeader([]byte{0x00, 0x00, 0x00, 0x01, 0x67}, 0, h264.SPS, h264.MatchStrict)
	assert.True(t, h.Found)
}

func TestIndexOfHeader_OriginBeyondBuffer(t *testing.T) {
	assert.False(t, h264.IndexOfHeader(accessUnit, len(accessUnit)+10, h264.SPS, h264.MatchStrict).Found)
	assert.True(t, h264.IndexOfHeader(accessUnit, -3, h264.SPS, h264.MatchStrict).Found)
}

func TestIndexOfHeader_LegacyMatch(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x00, 0x67, 0xaa}

	assert.False(t, h264.IndexOfHeader(data, 0, h264.SPS, h264.MatchStrict).Found)

	h := h264.IndexOfHeader(data, 0, h264.SPS, h264.MatchLegacy)
	assert.True(t, h.Found)
	assert.Equal(t, 0, h.Start)

	// both modes agree on canonical start codes
	for _, mode := range []h264.MatchMode{h264.MatchStrict, h264.MatchLegacy} {
		assert.Equal(t, 21, h264.IndexOfHeader(accessUnit, 18, h264.SEI, mode).Start)
	}
}

func TestHeaderCode(t *testing.T) {
	assert.Equal(t, 4, h264.SPS.PrefixLength())
	assert.Equal(t, 4, h264.PPS.PrefixLength())
	assert.Equal(t, 4, h264.Delimiter.PrefixLength())
	assert.Equal(t, 3, h264.SEI.PrefixLength())
	assert.Equal(t, 3, h264.KeyFrame.PrefixLength())

	assert.Equal(t, h264.SequenceParameterSet, h264.SPS.UnitType())
	assert.Equal(t, h264.PictureParameterSet, h264.PPS.UnitType())
	assert.Equal(t, h264.CodedSliceIDRPicture, h264.KeyFrame.UnitType())
	assert.Equal(t, h264.SupplementalEnhancementInformation, h264.SEI.UnitType())
	assert.Equal(t, h264.AccessUnitDelimiter, h264.Delimiter.UnitType())

	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x01}, h264.PPS.StartCode())
	assert.Equal(t, []byte{0x00, 0x00, 0x01}, h264.KeyFrame.StartCode())
	assert.Equal(t, "SEI", h264.SEI.String())
	assert.Equal(t, "HeaderCode(0x41)", h264.HeaderCode(0x41).String())
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x01}, h264.LongStartCode())
	assert.Equal(t, "IDR slice", h264.KeyFrame.UnitType().String())
	assert.Equal(t, "non-IDR slice", h264.NALUnitType(0x41&0x1f).String())
	assert.Equal(t, "NALUnitType(12)", h264.NALUnitType(12).String())

	assert.True(t, h264.MatchStrict.Valid())
	assert.False(t, h264.MatchMode("fuzzy").Valid())
}

func TestRBSP(t *testing.T) {
	assert.Equal(t, []byte{0x42, 0x00, 0x00, 0x01, 0x00, 0x00}, h264.RBSP([]byte{0x42, 0x00, 0x00, 0x03, 0x01, 0x00, 0x00}))
	assert.Equal(t, []byte{}, h264.RBSP(nil))
}
