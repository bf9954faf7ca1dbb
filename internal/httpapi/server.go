// Package httpapi exposes the service over HTTP: nine JSON endpoints under
// /api plus health and metrics. Handlers are thin adapters: read query
// params, call the metadata provider or the extraction chain, normalize,
// respond. No state survives a request.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ytmbridge/internal/core"
	"ytmbridge/internal/ytmusic"
	"ytmbridge/pkg/extract"
)

// ProviderSource yields the metadata provider, constructing it lazily on
// first use. *ytmusic.Handle satisfies it.
type ProviderSource interface {
	Get() (ytmusic.Provider, error)
}

// Extractor resolves stream formats for a video id or URL.
// *extract.Chain satisfies it.
type Extractor interface {
	Extract(ctx context.Context, videoIDOrURL string) (*extract.Result, error)
}

// Metrics holds the server's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ProviderErrors     *prometheus.CounterVec
	ExtractionAttempts *prometheus.CounterVec
	DegradedItems      prometheus.Counter
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytmbridge_requests_total",
			Help: "API requests by route and response status.",
		}, []string{"endpoint", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ytmbridge_request_duration_seconds",
			Help:    "API request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytmbridge_provider_errors_total",
			Help: "Upstream operation failures by operation.",
		}, []string{"operation"}),
		ExtractionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytmbridge_extraction_attempts_total",
			Help: "Extraction strategy attempts by source, strategy and outcome.",
		}, []string{"source", "strategy", "outcome"}),
		DegradedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytmbridge_degraded_items_total",
			Help: "Items that survived normalization only in degraded form.",
		}),
	}
	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ProviderErrors,
		m.ExtractionAttempts,
		m.DegradedItems,
	)
	return m
}

// Server is the HTTP front of the service.
type Server struct {
	config    *core.ServerConfig
	logger    *zap.Logger
	providers ProviderSource
	extractor Extractor
	metrics   *Metrics
	router    chi.Router
}

func NewServer(config *core.ServerConfig, logger *zap.Logger, providers ProviderSource, extractor Extractor) *Server {
	s := &Server{
		config:    config,
		logger:    logger,
		providers: providers,
		extractor: extractor,
		metrics:   newMetrics(),
	}
	s.router = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := s.providers.Get(); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Metadata provider unavailable", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(corsMiddleware)
		r.Use(s.measure)

		r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/search", s.handleSearch)
		r.Get("/album", s.handleAlbum)
		r.Get("/artist", s.handleArtist)
		r.Get("/playlist", s.handlePlaylist)
		r.Get("/lyrics", s.handleLyrics)
		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/trending", s.handleTrending)
		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/extract", s.handleExtract)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestId", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		s.metrics.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(ww.Status())).Inc()
		s.metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

// Start serves until ctx is canceled, then drains with the configured
// shutdown grace period.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
