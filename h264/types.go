package h264

import "fmt"

type NALUnitType byte

const (
	// Rec. ITU-T H.264 (08/2021) p.65
	CodedSliceNonIDRPicture            = NALUnitType(1) //	Coded slice of a non-IDR picture
	CodedSliceIDRPicture               = NALUnitType(5) //	Coded slice of an IDR picture
	SupplementalEnhancementInformation = NALUnitType(6) //	Supplemental enhancement information (SEI)
	SequenceParameterSet               = NALUnitType(7) //	Sequence parameter set
	PictureParameterSet                = NALUnitType(8) //	Picture parameter set
	AccessUnitDelimiter                = NALUnitType(9) //	Access unit delimiter
)

func (t NALUnitType) String() string {
	switch t {
	case CodedSliceNonIDRPicture:
		return "non-IDR slice"
	case CodedSliceIDRPicture:
		return "IDR slice"
	case SupplementalEnhancementInformation:
		return "SEI"
	case SequenceParameterSet:
		return "SPS"
	case PictureParameterSet:
		return "PPS"
	case AccessUnitDelimiter:
		return "AUD"
	}
	return fmt.Sprintf("NALUnitType(%d)", byte(t))
}

// HeaderCode is the full NAL header byte (nal_ref_idc and nal_unit_type)
// that follows a start code for the units the segmenter recognizes.
type HeaderCode byte

const (
	Delimiter HeaderCode = 0x09 // 00 00 00 01 09
	SPS       HeaderCode = 0x67 // 00 00 00 01 67
	PPS       HeaderCode = 0x68 // 00 00 00 01 68
	KeyFrame  HeaderCode = 0x65 // 00 00 01 65
	SEI       HeaderCode = 0x06 // 00 00 01 06
)

var (
	shortStartCode = []byte{0x00, 0x00, 0x01}
	longStartCode  = []byte{0x00, 0x00, 0x00, 0x01}
)

// PrefixLength is the length of the start code preceding the header byte.
func (c HeaderCode) PrefixLength() int {
	switch c {
	case SEI, KeyFrame:
		return len(shortStartCode)
	}
	return len(longStartCode)
}

// StartCode returns the canonical start code for c.
func (c HeaderCode) StartCode() []byte {
	if c.PrefixLength() == len(shortStartCode) {
		return shortStartCode
	}
	return longStartCode
}

// LongStartCode is the four byte start code opening an access unit and its
// parameter sets.
func LongStartCode() []byte {
	return longStartCode
}

func (c HeaderCode) UnitType() NALUnitType {
	return NALUnitType(byte(c) & 0x1f)
}

func (c HeaderCode) String() string {
	switch c {
	case Delimiter:
		return "Delimiter"
	case SPS:
		return "SPS"
	case PPS:
		return "PPS"
	case KeyFrame:
		return "KeyFrame"
	case SEI:
		return "SEI"
	}
	return fmt.Sprintf("HeaderCode(0x%02x)", byte(c))
}

// MatchMode selects how a start code candidate is recognized.
type MatchMode string

const (
	// MatchStrict requires the exact 00 00 01 / 00 00 00 01 sequence.
	MatchStrict MatchMode = "strict"
	// MatchLegacy ORs the prefix bytes together and accepts a result of 1.
	// It also accepts sequences such as 01 00 00 or 00 01 00, and exists
	// only to reproduce the output of older tooling.
	MatchLegacy MatchMode = "legacy"
)

func (m MatchMode) Valid() bool {
	return m == MatchStrict || m == MatchLegacy
}
