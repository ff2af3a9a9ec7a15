// Package api implements the HTTP surface of the solution service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"routeframe/internal/auth"
	"routeframe/internal/config"
	"routeframe/internal/logging"
	"routeframe/internal/metrics"
	"routeframe/internal/model"
	"routeframe/internal/store"
	"routeframe/internal/webhooks"
)

// maxSolutionBytes bounds uploaded solution documents.
const maxSolutionBytes = 32 << 20

type Server struct {
	Cfg    *config.Config
	Store  store.Store
	Broker EventBroker
	Auth   *auth.Verifier
	Pub    *webhooks.Publisher
	Queue  webhooks.Queue
	Logger *slog.Logger

	limiter *rateLimiter
	now     func() time.Time
}

// NewServer wires a Server from cfg. The broker is Redis backed when a Redis
// URL is configured and reachable, in-memory otherwise.
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	var broker EventBroker = NewBroker()
	if cfg.Redis.URL != "" {
		rb, err := NewRedisBroker(cfg.Redis.URL, logger)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err = rb.Ping(ctx)
			cancel()
		}
		if err != nil {
			logger.Warn("redis unavailable, using in-memory broker", slog.String("error", err.Error()))
			if rb != nil {
				_ = rb.Close()
			}
		} else {
			broker = rb
		}
	}
	q := webhooks.NewMemoryQueue()
	s := &Server{
		Cfg:    cfg,
		Store:  store.NewMemory(),
		Broker: broker,
		Auth:   auth.NewVerifier(cfg.Auth.Mode, cfg.Auth.HMACSecret),
		Pub:    webhooks.NewPublisher(q, cfg.Webhook.URL, cfg.Webhook.Secret, model.EventSolutionExported),
		Queue:  q,
		Logger: logger,
		now:    time.Now,
	}
	if cfg.Rate.RPS > 0 {
		s.limiter = newRateLimiter(cfg.Rate.RPS, cfg.Rate.Burst)
	}
	metrics.RegisterDefault()
	return s
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Queue, s.Cfg.Webhook.MaxAttempts, s.Logger)
}

// Handler returns the routed, instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	handle := func(method, path string, h http.HandlerFunc) {
		router.Handler(method, path, s.instrument(path, s.rateLimit(h)))
	}

	handle(http.MethodPost, "/v1/solutions", s.CreateSolutionHandler)
	handle(http.MethodGet, "/v1/solutions", s.ListSolutionsHandler)
	handle(http.MethodGet, "/v1/solutions/:id", s.GetSolutionHandler)
	handle(http.MethodDelete, "/v1/solutions/:id", s.DeleteSolutionHandler)
	handle(http.MethodGet, "/v1/solutions/:id/routes", s.RoutesHandler)
	handle(http.MethodPost, "/v1/solutions/:id/export", s.ExportHandler)
	handle(http.MethodGet, "/v1/events/ws", s.EventsWSHandler)
	handle(http.MethodGet, "/v1/debug", s.DebugHandler)

	router.Handler(http.MethodGet, "/healthz", s.instrument("/healthz", http.HandlerFunc(s.HealthHandler)))
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no such endpoint", r.URL.Path)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" not allowed", r.URL.Path)
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.Logger.Error("panic serving request", slog.String("path", r.URL.Path), slog.Any("panic", v))
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "", r.URL.Path)
	}
	return router
}

// Close stops the rate limiter janitor and releases the broker.
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.Broker == nil {
		return nil
	}
	return s.Broker.Close()
}

func (s *Server) newEvent(typ, tenantID, solutionID string, data map[string]any) model.Event {
	return model.Event{
		ID:         "evt_" + uuid.New().String(),
		Type:       typ,
		Tenant:     tenantID,
		SolutionID: solutionID,
		TS:         s.now().UTC().Format(time.RFC3339),
		Data:       data,
	}
}

func (s *Server) emit(ctx context.Context, evt model.Event) {
	publishEvent(s.Broker, evt)
	if _, err := s.Pub.Emit(ctx, evt); err != nil {
		logging.LogError(logging.FromContext(ctx), "webhook enqueue failed", err, slog.String("event_type", evt.Type))
	}
}
