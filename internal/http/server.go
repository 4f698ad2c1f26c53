package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"daan/internal/log"
	"daan/internal/metrics"
	"daan/internal/middleware/ratelimit"
	"daan/internal/middleware/security"
	"daan/internal/services"
)

// Services groups the application services the handlers call.
type Services struct {
	Donations  *services.DonationService
	Settlement *services.SettlementService
	Expenses   *services.ExpenseService
	Reports    *services.ReportService
}

// Options configures NewServer.
type Options struct {
	Addr     string
	Services Services
	// Ready reports whether dependencies are usable, e.g. a database ping.
	Ready   func(context.Context) error
	Metrics *metrics.Metrics
	Logger  *log.Logger
	// RateLimitPerMinute caps requests per client IP; zero disables it.
	RateLimitPerMinute int
}

// Server wraps http.Server with the ledger API routes.
type Server struct {
	http.Server

	svc     Services
	ready   func(context.Context) error
	metrics *metrics.Metrics
	limiter *ratelimit.Limiter
	started time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		svc:     opts.Services,
		ready:   opts.Ready,
		metrics: opts.Metrics,
		started: time.Now(),
	}
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(log.RequestMiddleware(logger))
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(log.ClientIP, func(w http.ResponseWriter, r *http.Request) {
				ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
			}))
		}

		r.Get("/donors", s.handleSearchDonors)
		r.Get("/donors/{name}/history", s.handleDonorHistory)
		r.Post("/donors/{name}/payments", s.handlePayDonor)

		r.Get("/donations", s.handleListDonations)
		r.Post("/donations", s.handleCreateDonation)
		r.Get("/donations/all", s.handleAllDonations)
		r.Get("/donations/{id}", s.handleGetDonation)
		r.Put("/donations/{id}", s.handleUpdateDonation)
		r.Delete("/donations/{id}", s.handleDeleteDonation)
		r.Get("/donations/{id}/payments", s.handleListPayments)
		r.Post("/donations/{id}/payments", s.handlePayDonation)

		r.Get("/pending", s.handlePending)
		r.Get("/dashboard", s.handleDashboard)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Get("/expenses/all", s.handleAllExpenses)
		r.Get("/expenses/{id}", s.handleGetExpense)
		r.Put("/expenses/{id}", s.handleUpdateExpense)
		r.Delete("/expenses/{id}", s.handleDeleteExpense)

		r.Get("/export/donations.xlsx", s.handleExportDonations)
		r.Get("/export/expenses.xlsx", s.handleExportExpenses)
	})
	return r
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
