package wire

import (
	"context"
	"net/http"
	"time"

	"contacts-api/internal/adaptor"
	"contacts-api/internal/data/cached"
	"contacts-api/internal/data/repository"
	"contacts-api/internal/usecase"
	"contacts-api/pkg/cache"
	"contacts-api/pkg/mailer"
	"contacts-api/pkg/metrics"
	"contacts-api/pkg/middleware"
	"contacts-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the HTTP surface is built from.
type Deps struct {
	Repo     *repository.Repository
	DB       Pinger
	Cache    *cache.Cache
	Tokens   usecase.TokenIssuer
	Mailer   mailer.Mailer
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Config   *utils.Config
	Logger   *zap.Logger
}

// App holds the router and the pieces that need stopping on shutdown.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
	limiter *middleware.RateLimiter
}

// Close stops background workers started by Wiring.
func (a *App) Close() {
	a.limiter.Stop()
}

// Wiring builds services, handlers and routes.
func Wiring(deps Deps) *App {
	entityCache := cached.NewEntityCache(deps.Cache, deps.Config.Cache)

	service := usecase.NewService(deps.Repo, entityCache, deps.Tokens, deps.Mailer, deps.Config, deps.Logger)
	handler := adaptor.NewHandler(service, deps.Logger)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerMinute: deps.Config.RateLimit.RequestsPerMinute,
		Burst:             deps.Config.RateLimit.Burst,
	}, deps.Logger)

	router := setupRouter(handler, service, limiter, deps)

	return &App{
		Router:  router,
		Service: service,
		limiter: limiter,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	limiter *middleware.RateLimiter,
	deps Deps,
) *chi.Mux {
	r := chi.NewRouter()

	var recorder metrics.HTTPRecorder = metrics.Nop{}
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	// Apply global middleware
	r.Use(middleware.Logger(deps.Logger, recorder))
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.CORSOrigin))

	authenticate := middleware.Authenticate(service.Identity, deps.Logger)

	wireAuth(r, handler.Auth, authenticate, deps.Logger)
	wireUser(r, handler.User, authenticate, deps.Logger)
	wireContact(r, handler.Contact, authenticate, limiter, deps.Logger)

	r.Get("/health", healthHandler(deps.DB, deps.Cache, deps.Logger))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}

// healthHandler requires the database. The cache only downgrades the report.
func healthHandler(db Pinger, c *cache.Cache, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		report := map[string]string{"database": "ok", "cache": "ok"}

		if db == nil {
			report["database"] = "not configured"
		} else if err := db.Ping(ctx); err != nil {
			log.Error("Health check failed - database", zap.Error(err))
			report["database"] = "unavailable"
			utils.ResponseServiceUnavailable(w, "Database unavailable", report)
			return
		}

		status := "ok"
		if err := c.Ping(ctx); err != nil {
			log.Warn("Health check - cache degraded", zap.Error(err))
			report["cache"] = "degraded"
			status = "degraded"
		}
		report["status"] = status

		utils.ResponseSuccess(w, status, report)
	}
}
