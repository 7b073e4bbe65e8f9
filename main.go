package main

import (
	"context"
	"fmt"
	"os"

	"github.com/asticode/go-astikit"
	"github.com/flavioribeiro/nalsegmenter/h264"
	"github.com/flavioribeiro/nalsegmenter/internal/controllers"
	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"github.com/flavioribeiro/nalsegmenter/internal/web"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <input.ts>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	c, err := web.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	pflag.StringVar(&c.OutputPath, "output", c.OutputPath, "write segmented access units as annex-b to this file")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	pflag.BoolVar(&c.EnableMetricsServer, "serve", c.EnableMetricsServer, "keep serving /metrics after the input is consumed")
	matchMode := pflag.String("match-mode", string(c.MatchMode), "header matching: strict or legacy")
	pflag.Parse()
	if len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(1)
	}
	c.MatchMode = h264.MatchMode(*matchMode)

	if err := c.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fx.New(
		web.Dependencies(c),
		fx.Invoke(func(
			ctrl *controllers.MpegTSController,
			l *zap.SugaredLogger,
			lc fx.Lifecycle,
			sd fx.Shutdowner,
		) {
			lc.Append(newSegmentHook(l,
				func(ctx context.Context) error {
					return segmentFile(ctx, ctrl, l, pflag.Arg(0))
				},
				func() {
					if !c.EnableMetricsServer {
						sd.Shutdown()
					}
				},
			))
		}),
	).Run()
}

// newSegmentHook runs the segmentation in the background once the app has
// started. OnStop waits for it, and since the hook is registered after the
// middlewares it stops before they flush and close their outputs.
func newSegmentHook(l *zap.SugaredLogger, run func(context.Context) error, onDone func()) fx.Hook {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	return fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := run(ctx); err != nil {
					l.Errorw("error while segmenting",
						"error", err,
					)
				}
				onDone()
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	}
}

func segmentFile(ctx context.Context, ctrl *controllers.MpegTSController, l *zap.SugaredLogger, path string) error {
	closer := astikit.NewCloser()
	defer closer.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", entities.ErrMissingInput, err)
	}
	closer.Add(func() { f.Close() })

	segmenters, err := ctrl.Segment(ctx, f)
	if err != nil {
		return err
	}

	logSummary(l, segmenters)
	return nil
}

func logSummary(l *zap.SugaredLogger, segmenters map[uint16]*controllers.Segmenter) {
	for pid, s := range segmenters {
		var malformed int
		for _, seg := range s.Segments() {
			if seg.Err != nil {
				malformed++
			}
		}
		fields := []interface{}{
			"pid", pid,
			"segments", s.Len(),
			"malformed", malformed,
		}
		if delay, ok := s.DecodingDelay(); ok {
			fields = append(fields, "decoding_delay", delay)
		}
		l.Infow("stream segmented", fields...)
	}
}
