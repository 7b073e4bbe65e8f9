package controllers

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/asticode/go-astits"
	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"github.com/flavioribeiro/nalsegmenter/internal/mapper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// MpegTSController demuxes a transport stream and feeds every H.264
// elementary stream into its own Segmenter.
type MpegTSController struct {
	c *entities.Config
	l *zap.SugaredLogger
	m *mapper.Mapper

	middlewares []entities.SegmentMiddleware
}

type MpegTSControllerParams struct {
	fx.In
	C *entities.Config
	L *zap.SugaredLogger
	M *mapper.Mapper

	Middlewares []entities.SegmentMiddleware `group:"middlewares"`
}

func NewMpegTSController(p MpegTSControllerParams) *MpegTSController {
	return &MpegTSController{
		c:           p.C,
		l:           p.L,
		m:           p.M,
		middlewares: p.Middlewares,
	}
}

// stream is the per PID state. A segment is handed to the middlewares only
// once the next one is out, so that its duration is known.
type stream struct {
	segmenter *Segmenter
	ctx       entities.StreamContext
	held      *entities.DemuxedSegment
}

// Segment reads r until it is exhausted or ctx is done and returns the
// segmenters keyed by PID.
func (c *MpegTSController) Segment(ctx context.Context, r io.Reader) (map[uint16]*Segmenter, error) {
	streams := map[uint16]*stream{}
	defer c.flush(streams)

	mpegTSDemuxer := astits.NewDemuxer(ctx, r)
	c.l.Infow("segmenting has started")

	for {
		mpegTSDemuxData, err := mpegTSDemuxer.NextData()
		if err != nil {
			if errors.Is(err, astits.ErrNoMorePackets) {
				c.l.Infow("segmenting has finished")
				return segmenters(streams), nil
			}
			if errors.Is(err, context.Canceled) {
				c.l.Infow("segmenting has stopped due cancellation")
				return segmenters(streams), err
			}
			c.l.Errorw("failed to demux mpeg-ts",
				"error", err,
			)
			return segmenters(streams), err
		}

		if mpegTSDemuxData.PMT != nil {
			c.addStreams(streams, mpegTSDemuxData.PMT)
		}

		if mpegTSDemuxData.PES == nil {
			continue
		}
		st, ok := streams[mpegTSDemuxData.PID]
		if !ok {
			continue
		}

		c.deliver(st.segmenter, mpegTSDemuxData.PES)
		seg := st.segmenter.EndPacket()
		if seg == nil {
			continue
		}
		c.release(st)
		st.held = seg
		st.ctx.Index++
	}
}

func (c *MpegTSController) addStreams(streams map[uint16]*stream, pmt *astits.PMTData) {
	for _, es := range pmt.ElementaryStreams {
		if c.m.FromMpegTsStreamTypeToCodec(es.StreamType) != entities.H264 {
			continue
		}
		if _, ok := streams[es.ElementaryPID]; ok {
			continue
		}

		l := c.l.With("pid", es.ElementaryPID)
		s := NewSegmenter(c.c, l)
		s.StartStream()
		streams[es.ElementaryPID] = &stream{
			segmenter: s,
			ctx:       entities.StreamContext{PID: es.ElementaryPID, Codec: entities.H264, Index: -1},
		}
		l.Infow("h264 stream found")
	}
}

// deliver hands the PES payload over as one packet, split in fragments of
// FragmentSizeBytes when configured.
func (c *MpegTSController) deliver(s *Segmenter, pes *astits.PESData) {
	ts := c.m.FromPESToTimestamp(pes, c.c.TimestampTimebase)
	data := pes.Data
	size := c.c.FragmentSizeBytes
	if size <= 0 || size >= len(data) {
		s.BeginPacket(data, ts)
		return
	}

	s.BeginPacket(data[:size], ts)
	for offset := size; offset < len(data); offset += size {
		end := offset + size
		if end > len(data) {
			end = len(data)
		}
		s.ContinuePacket(data[offset:end])
	}
}

func (c *MpegTSController) release(st *stream) {
	if st.held == nil {
		return
	}
	sc := st.ctx
	for _, m := range c.middlewares {
		if err := m.Act(st.held, &sc); err != nil {
			c.l.Errorw("middleware error",
				"error", err,
				"stream", sc.String(),
			)
		}
	}
	st.held = nil
}

func (c *MpegTSController) flush(streams map[uint16]*stream) {
	for _, pid := range sortedPIDs(streams) {
		c.release(streams[pid])
	}
}

func sortedPIDs(streams map[uint16]*stream) []uint16 {
	pids := make([]uint16, 0, len(streams))
	for pid := range streams {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids
}

func segmenters(streams map[uint16]*stream) map[uint16]*Segmenter {
	result := make(map[uint16]*Segmenter, len(streams))
	for pid, st := range streams {
		result[pid] = st.segmenter
	}
	return result
}
