// Package rest exposes the command and query buses over HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"prepcoach/application/commands/bus"
	querybus "prepcoach/application/queries/bus"
	"prepcoach/infrastructure/di"
	"prepcoach/interfaces/http/rest/handlers"
	"prepcoach/interfaces/http/rest/middleware"
	"prepcoach/pkg/auth"
	"prepcoach/pkg/common"
	pkgerrors "prepcoach/pkg/errors"
	"prepcoach/pkg/observability"
)

// Options configures the router
type Options struct {
	CommandBus     *bus.CommandBus
	QueryBus       *querybus.QueryBus
	JWTValidator   *auth.JWTValidator
	IPLimiter      auth.RateLimiter
	IPLimit        int
	UserLimiter    auth.RateLimiter
	UserLimit      int
	Collector      *observability.Collector
	Tracer         *observability.Tracer
	AllowedOrigins []string
	EnableCORS     bool
	Debug          bool
	Logger         *zap.Logger
}

// OptionsFromContainer builds router options from the wired container
func OptionsFromContainer(c *di.Container) Options {
	return Options{
		CommandBus:     c.CommandBus,
		QueryBus:       c.QueryBus,
		JWTValidator:   c.JWTValidator,
		IPLimiter:      c.RateLimiters.IP,
		IPLimit:        c.Config.IPRequestsPerMinute,
		UserLimiter:    c.RateLimiters.User,
		UserLimit:      c.Config.UserRequestsPerMinute,
		Collector:      c.Collector,
		Tracer:         c.Tracer,
		AllowedOrigins: c.Config.AllowedOrigins,
		EnableCORS:     c.Config.EnableCORS,
		Debug:          c.Config.IsDevelopment(),
		Logger:         c.Logger,
	}
}

// Router creates and configures the HTTP router
type Router struct {
	opts   Options
	errors *pkgerrors.ErrorHandler
}

// NewRouter creates a new router instance
func NewRouter(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Router{
		opts:   opts,
		errors: pkgerrors.NewErrorHandler(opts.Logger, opts.Debug),
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.opts.Logger))
	if rt.opts.Collector != nil {
		router.Use(rt.opts.Collector.Middleware)
	}
	if rt.opts.Tracer != nil {
		router.Use(rt.opts.Tracer.Middleware)
	}
	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.Collector != nil {
		router.Handle("/metrics", rt.opts.Collector.Handler())
	}

	base := handlers.NewBase(rt.opts.CommandBus, rt.opts.QueryBus, rt.errors)
	journeys := handlers.NewJourneyHandler(base)
	visibility := handlers.NewVisibilityHandler(base)
	accounts := handlers.NewAccountHandler(base)
	interviews := handlers.NewInterviewHandler(base)
	authn := middleware.NewAuthenticator(rt.opts.JWTValidator, rt.errors, rt.opts.Logger)

	router.Route("/api/v1", func(r chi.Router) {
		if rt.opts.IPLimiter != nil {
			r.Use(middleware.RateLimitByIP(rt.opts.IPLimiter, rt.opts.IPLimit, rt.errors, rt.opts.Logger))
		}
		r.Use(middleware.UserMemo)

		// Signed by the billing provider, not by a user token
		r.Post("/billing/webhook", accounts.Webhook)

		// Anonymous callers see public content only
		r.Group(func(r chi.Router) {
			r.Use(authn.Optional)
			r.Use(rt.userLimit)
			r.Get("/journeys", journeys.ListJourneys)
			r.Get("/journeys/{journeyID}", journeys.GetJourney)
			r.Get("/search", journeys.Search)
			r.Get("/visibility/{entityType}/{entityID}", visibility.EffectiveVisibility)
			r.Get("/pricing", accounts.GetPricing)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.Required)
			r.Use(rt.userLimit)

			r.Get("/progress", journeys.ListProgress)
			r.Post("/journeys/{journeyID}/start", journeys.StartJourney)
			r.Get("/journeys/{journeyID}/progress", journeys.GetProgress)
			r.Post("/journeys/{journeyID}/nodes/{nodeID}/start", journeys.StartNode)
			r.Post("/journeys/{journeyID}/nodes/{nodeID}/complete", journeys.CompleteNode)

			r.Get("/me", accounts.GetAccount)
			r.Get("/me/usage", accounts.GetUsage)
			r.Post("/me/usage", accounts.ConsumeIteration)
			r.Put("/me/byok", accounts.SetBYOK)
			r.Delete("/me/byok", accounts.RemoveBYOK)

			r.Post("/billing/checkout", accounts.CreateCheckout)
			r.Post("/billing/portal", accounts.CreatePortal)

			r.Post("/interviews", interviews.CreateInterview)
			r.Get("/interviews", interviews.ListInterviews)
			r.Get("/interviews/{interviewID}", interviews.GetInterview)
			r.Put("/interviews/{interviewID}/progress", interviews.UpdateProgress)
			r.Put("/interviews/{interviewID}/status", interviews.UpdateStatus)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin, rt.errors))
				r.Post("/admin/journeys", journeys.CreateJourney)
				r.Post("/admin/journeys/{journeyID}/nodes", journeys.AddNode)
				r.Post("/admin/journeys/{journeyID}/edges", journeys.ConnectNodes)
				r.Put("/admin/visibility", visibility.SetVisibility)
				r.Post("/admin/visibility/batch", visibility.BatchSetVisibility)
				r.Get("/admin/visibility/{entityType}", visibility.ListVisibility)
				r.Get("/admin/visibility/{entityType}/{entityID}", visibility.GetVisibility)
				r.Get("/admin/audit/{entityType}/{entityID}", visibility.ListAuditLog)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.Handle(w, r, pkgerrors.NewNotFoundError("route"))
	})

	return router
}

func (rt *Router) userLimit(next http.Handler) http.Handler {
	if rt.opts.UserLimiter == nil {
		return next
	}
	return middleware.RateLimitByUser(rt.opts.UserLimiter, rt.opts.UserLimit, rt.errors, rt.opts.Logger)(next)
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
