package web

import (
	"net/http"

	"github.com/flavioribeiro/nalsegmenter/internal/web/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type ErrorHTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request) error
}

func NewServeMux(
	health *handlers.HealthHandler,
	registry *prometheus.Registry,
	l *zap.SugaredLogger,
) *http.ServeMux {

	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", errorHandler(l, health))

	return mux
}

func errorHandler(l *zap.SugaredLogger, next ErrorHTTPHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := next.ServeHTTP(w, r)
		if err != nil {
			l.Errorw("error on handler",
				"err", err,
			)
			handlers.SetError(w, err)
			return
		}
	})
}
