package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/concierge/internal/api/handlers"
	mw "github.com/Harshitk-cp/concierge/internal/api/middleware"
	"github.com/Harshitk-cp/concierge/internal/buildconfig"
	"github.com/Harshitk-cp/concierge/internal/config"
	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/Harshitk-cp/concierge/internal/knowledge"
	"github.com/Harshitk-cp/concierge/internal/notify"
	"github.com/Harshitk-cp/concierge/internal/service"
	"github.com/Harshitk-cp/concierge/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the long-lived collaborators the HTTP app is built from.
type Deps struct {
	Knowledge *knowledge.Base
	Sessions  domain.SessionStore
	Bookings  domain.BookingStore
	Notifier  domain.Notifier
	Logger    *zap.Logger
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router  *chi.Mux
	Expirer *service.SessionExpirer

	startTime      time.Time
	requestCount   atomic.Int64
	errorCount     atomic.Int64
	limitedCount   atomic.Int64
	bookingCount   atomic.Int64
	bookingFailure atomic.Int64
}

func NewApp(deps Deps) *App {
	logger := deps.Logger

	// Services
	bookingSvc := service.NewBookingService(deps.Bookings, deps.Notifier, logger)
	bookingSvc.SetRetryPolicy(config.SinkTimeout(), config.SinkRetries())

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	conversationSvc := service.NewConversationService(deps.Knowledge, deps.Sessions, &countingSink{next: bookingSvc, app: app}, logger)

	app.Expirer = service.NewSessionExpirer(deps.Sessions, logger)
	app.Expirer.SetInterval(config.SessionSweepInterval())
	app.Expirer.SetTTL(config.SessionTTL())

	// Handlers
	chatHandler := handlers.NewChatHandler(conversationSvc, logger)
	knowledgeHandler := handlers.NewKnowledgeHandler(deps.Knowledge)
	bookingHandler := handlers.NewBookingHandler(bookingSvc)

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount, &app.limitedCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders: []string{mw.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(deps))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/version", versionHandler)

	r.Post("/chat", chatHandler.Chat)
	r.Get("/v1/communities", knowledgeHandler.ListCommunities)

	// Operator routes exist only when a key is configured.
	if key := config.AdminAPIKey(); key != "" {
		r.Route("/v1", func(r chi.Router) {
			r.Use(mw.AdminAuth(key))

			r.Get("/sessions/{id}/history", chatHandler.History)
			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", bookingHandler.ListByEmail)
				r.Get("/{reference}", bookingHandler.GetByReference)
			})
		})
	} else {
		logger.Info("ADMIN_API_KEY not set, operator routes disabled")
	}

	return app
}

// countingSink feeds the booking counters served by /metrics.
type countingSink struct {
	next domain.BookingSink
	app  *App
}

func (s *countingSink) Confirm(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	b, err := s.next.Confirm(ctx, req)
	if err != nil {
		s.app.bookingFailure.Add(1)
		return nil, err
	}
	s.app.bookingCount.Add(1)
	return b, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"bookings": "ok"}
		status := http.StatusOK

		if err := deps.Bookings.Ping(ctx); err != nil {
			checks["bookings"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if p, ok := deps.Sessions.(pinger); ok {
			checks["sessions"] = "ok"
			if err := p.Ping(ctx); err != nil {
				checks["sessions"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		body := map[string]any{"status": "ok", "checks": checks}
		if status != http.StatusOK {
			body["status"] = "error"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(buildconfig.VersionInfo())
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":   uptime.Seconds(),
			"uptime_human":     uptime.Round(time.Second).String(),
			"request_count":    app.requestCount.Load(),
			"error_count":      app.errorCount.Load(),
			"rate_limited":     app.limitedCount.Load(),
			"bookings":         app.bookingCount.Load(),
			"booking_failures": app.bookingFailure.Load(),
			"goroutines":       runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and sinks satisfy interfaces at compile time.
var (
	_ domain.SessionStore = (*store.MemorySessionStore)(nil)
	_ domain.SessionStore = (*store.RedisSessionStore)(nil)
	_ domain.BookingStore = (*store.BookingStore)(nil)
	_ domain.BookingStore = (*store.GormBookingStore)(nil)
	_ domain.BookingSink  = (*service.BookingService)(nil)
	_ domain.Notifier     = (*notify.SMTPNotifier)(nil)
	_ domain.Notifier     = (*notify.LogNotifier)(nil)
)
