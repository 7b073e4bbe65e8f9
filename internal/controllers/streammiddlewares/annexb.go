package streammiddlewares

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"github.com/flavioribeiro/nalsegmenter/internal/mapper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type annexBMiddleware struct {
	w io.Writer
	m *mapper.Mapper
}

type AnnexBResponse struct {
	fx.Out
	AnnexBMiddleware entities.SegmentMiddleware `group:"middlewares"`
}

// NewAnnexB creates a middleware writing every segment, start codes
// included, to the file at OutputPath.
func NewAnnexB(c *entities.Config, m *mapper.Mapper, l *zap.SugaredLogger, lc fx.Lifecycle) (AnnexBResponse, error) {
	f, err := os.Create(c.OutputPath)
	if err != nil {
		return AnnexBResponse{}, err
	}
	w := bufio.NewWriter(f)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := w.Flush(); err != nil {
				f.Close()
				return err
			}
			l.Infow("annex-b output written",
				"path", c.OutputPath,
			)
			return f.Close()
		},
	})

	return AnnexBResponse{
		AnnexBMiddleware: newAnnexB(w, m),
	}, nil
}

func newAnnexB(w io.Writer, m *mapper.Mapper) *annexBMiddleware {
	return &annexBMiddleware{w: w, m: m}
}

// Act appends the segment to the output, malformed segments are written raw.
func (a *annexBMiddleware) Act(seg *entities.DemuxedSegment, sc *entities.StreamContext) error {
	_, err := a.w.Write(a.m.FromSegmentToAnnexB(seg))
	return err
}
