package web

import (
	"net/http"

	"github.com/flavioribeiro/nalsegmenter/internal/controllers"
	"github.com/flavioribeiro/nalsegmenter/internal/controllers/streammiddlewares"
	"github.com/flavioribeiro/nalsegmenter/internal/entities"
	"github.com/flavioribeiro/nalsegmenter/internal/mapper"
	"github.com/flavioribeiro/nalsegmenter/internal/web/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func Dependencies(c *entities.Config) fx.Option {
	if err := c.Validate(); err != nil {
		return fx.Error(err)
	}

	options := []fx.Option{
		fx.WithLogger(func(l *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Desugar()}
		}),

		// Controllers
		fx.Provide(controllers.NewMpegTSController),

		// Stream middlewares
		fx.Provide(streammiddlewares.NewMetrics),

		// Mappers
		fx.Provide(mapper.NewMapper),

		// Metrics
		fx.Provide(prometheus.NewRegistry),
		fx.Provide(func(r *prometheus.Registry) prometheus.Registerer {
			return r
		}),

		// Logging, Config constructors
		fx.Provide(NewLogger),
		fx.Provide(func() *entities.Config {
			return c
		}),
	}

	if c.OutputPath != "" {
		options = append(options, fx.Provide(streammiddlewares.NewAnnexB))
	}
	if c.EnableSampleTrack {
		options = append(options, fx.Provide(streammiddlewares.NewSample))
	}
	if c.EnableMetricsServer {
		options = append(options,
			fx.Provide(NewHTTPServer),
			fx.Provide(NewServeMux),
			fx.Provide(handlers.NewHealthHandler),
			fx.Invoke(func(*http.Server) {}),
		)
	}

	return fx.Options(options...)
}
