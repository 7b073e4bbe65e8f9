package h264

import "bytes"

// HeaderIndices locates one header found by IndexOfHeader.
//
// Start is the offset of the first start code byte and End the offset right
// after the start code (End - Start == PrefixLength). Both are meaningful only
// when Found is set. PrevHeaderEnd is the offset the scan began at and is only
// set (HasPrevHeader) when the match was not at that offset, so
// data[PrevHeaderEnd:Start] is the payload of whatever preceded the match.
type HeaderIndices struct {
	Start         int
	End           int
	PrevHeaderEnd int
	Found         bool
	HasPrevHeader bool
}

// PrecedingPayload returns the bytes between the scan origin and the match,
// or nil when nothing was found or the match sat right at the origin.
func (h HeaderIndices) PrecedingPayload(data []byte) []byte {
	if !h.Found || !h.HasPrevHeader {
		return nil
	}
	if h.PrevHeaderEnd < 0 || h.PrevHeaderEnd > h.Start || h.Start > len(data) {
		return nil
	}
	return data[h.PrevHeaderEnd:h.Start]
}

// IndexOfHeader scans data forward from offset from and returns the first
// occurrence of code's start code followed by the code byte. The scan stops
// once fewer than PrefixLength+1 bytes remain, so it never reads out of
// bounds.
func IndexOfHeader(data []byte, from int, code HeaderCode, mode MatchMode) HeaderIndices {
	if from < 0 {
		from = 0
	}
	prefix := code.PrefixLength()
	for i := from; i < len(data)-prefix; i++ {
		if data[i+prefix] != byte(code) || !isStartCode(data[i:i+prefix], mode) {
			continue
		}
		h := HeaderIndices{Start: i, End: i + prefix, Found: true}
		if i != from {
			h.PrevHeaderEnd = from
			h.HasPrevHeader = true
		}
		return h
	}
	return HeaderIndices{}
}

func isStartCode(prefix []byte, mode MatchMode) bool {
	if mode == MatchLegacy {
		var acc byte
		for _, b := range prefix {
			acc |= b
		}
		return acc == 1
	}
	if len(prefix) == len(shortStartCode) {
		return bytes.Equal(prefix, shortStartCode)
	}
	return bytes.Equal(prefix, longStartCode)
}

// RBSP strips emulation prevention bytes (the 0x03 in 00 00 03) from a NAL
// payload.
func RBSP(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if (i+2) < len(data) && (data[i] == 0x00 && data[i+1] == 0x00 && data[i+2] == 0x03) {
			out = append(out, data[i], data[i+1])
			// 0x03
			i += 2
			continue
		}
		out = append(out, data[i])
	}
	return out
}
