package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ifixandrepair/shop-api/internal/auth"
	"github.com/ifixandrepair/shop-api/internal/config"
	"github.com/ifixandrepair/shop-api/internal/database"
	"github.com/ifixandrepair/shop-api/internal/handler"
	"github.com/ifixandrepair/shop-api/internal/metrics"
	mw "github.com/ifixandrepair/shop-api/internal/middleware"
	"github.com/ifixandrepair/shop-api/internal/service"
	"github.com/ifixandrepair/shop-api/internal/ws"
)

// Deps holds everything the routes are built from.
type Deps struct {
	Config   *config.Config
	Queries  *database.Queries
	Sessions *auth.Manager
	Orders   *service.OrderService
	Reports  *service.ReportService
	Hub      *ws.Hub
	Limiter  mw.Limiter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// New creates a Chi router with all application routes wired up.
// Admin routes sit behind the session check; login is rate limited.
func New(d Deps) chi.Router {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := d.Config
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Recoverer(log))
	r.Use(mw.RequestLogger(log))
	r.Use(mw.Metrics(d.Metrics))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})
	r.Handle("/metrics", d.Metrics.Handler())

	requireAdmin := mw.RequireAdmin(d.Sessions, log)

	// WebSocket routes
	live := handler.NewLiveHandler(d.Hub)
	r.With(requireAdmin).Get("/ws/orders", live.Board)
	r.Get("/ws/orders/{id}", live.Order)

	r.Route("/api", func(r chi.Router) {
		authHandler := handler.NewAuthHandler(d.Sessions, log)
		authHandler.RegisterRoutes(r, mw.LoginRateLimit(d.Limiter, log))

		handler.NewCustomerHandler(d.Queries, log).RegisterRoutes(r)
		handler.NewIntakeHandler(d.Orders, log).RegisterRoutes(r)
		handler.NewOrderHandler(d.Queries, d.Orders, cfg.Business, cfg.Location, log).RegisterRoutes(r)
		handler.NewCatalogHandler(d.Queries, log).RegisterRoutes(r)
		handler.NewExpenseHandler(d.Queries, cfg.Location, log).RegisterRoutes(r)

		reportHandler := handler.NewReportHandler(d.Reports, cfg.Location, log)
		reportHandler.RegisterRoutes(r)

		// Admin-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			handler.NewAdminHandler(d.Queries, log).RegisterRoutes(r)
			reportHandler.RegisterAdminRoutes(r)
		})
	})

	log.Info("router initialized")
	return r
}
