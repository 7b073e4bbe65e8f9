package controllers

import "github.com/flavioribeiro/nalsegmenter/internal/entities"

// SegmentStore is the append-only list of segments produced for one stream.
type SegmentStore struct {
	segments []*entities.DemuxedSegment
}

func NewSegmentStore() *SegmentStore {
	return &SegmentStore{}
}

// Append adds seg and returns its index.
func (s *SegmentStore) Append(seg *entities.DemuxedSegment) int {
	s.segments = append(s.segments, seg)
	return len(s.segments) - 1
}

func (s *SegmentStore) Len() int {
	return len(s.segments)
}

// All returns a copy of the segment list; the segments themselves are shared.
func (s *SegmentStore) All() []*entities.DemuxedSegment {
	result := make([]*entities.DemuxedSegment, len(s.segments))
	copy(result, s.segments)
	return result
}
