package web

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewHTTPServer(
	c *entities.Config,
	mux *http.ServeMux,
	log *zap.SugaredLogger,
	lc fx.Lifecycle,
) *http.Server {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", c.MetricsHTTPHost, c.MetricsHTTPPort),
		Handler: mux,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Infow(fmt.Sprintf("Starting metrics server. Scrape http://%s/metrics", ln.Addr()),
				"addr", ln.Addr().String(),
			)
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
