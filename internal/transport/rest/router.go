package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/config"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/transport/middleware"
)

type requestMetrics interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RouterDeps carries everything the HTTP surface is built from.
type RouterDeps struct {
	Health      *HealthHandler
	Leads       *LeadHandler
	Clients     *ClientHandler
	Engagements *EngagementHandler
	Conversion  *ConversionHandler
	Activities  *ActivityHandler
	Envelope    *Envelope
	Tokens      tokenValidator
	Metrics     requestMetrics
	CORS        config.CORSConfig
	MaxBody     int64
	Logger      *slog.Logger
}

type tokenValidator interface {
	ValidateAccessToken(token string) (string, string, error)
}

// NewRouter assembles the API routes and the middleware chain.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	mws := []func(http.Handler) http.Handler{middleware.RequestID}
	if d.Metrics != nil {
		mws = append(mws, middleware.Metrics(d.Metrics))
	}
	mws = append(mws,
		middleware.Recovery(d.Logger, d.Envelope.Error),
		middleware.CORS(d.CORS),
		middleware.Auth(d.Tokens, d.Envelope.Error),
		middleware.Logger(d.Logger),
		middleware.LimitBody(d.MaxBody),
	)
	r.Use(mws...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		d.Envelope.Error(w, r, domain.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		d.Envelope.Error(w, r, domain.ErrNotFound)
	})

	r.Get("/live", d.Health.Live)
	r.Get("/ready", d.Health.Ready)
	r.Get("/health", d.Health.Health)

	r.Post("/api/public/leads", d.Leads.Submit)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireOperator(d.Envelope.Error))

		r.Get("/activities", d.Activities.Recent)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", d.Leads.List)
			r.Post("/", d.Leads.Create)
			r.Post("/bulk", d.Leads.Bulk)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Leads.Get)
				r.Patch("/", d.Leads.Update)
				r.Delete("/", d.Leads.Delete)
				r.Post("/status", d.Leads.ChangeStatus)
				r.Post("/archive", d.Leads.Archive)
				r.Post("/restore", d.Leads.Restore)
				r.Post("/convert", d.Conversion.Convert)
				r.Get("/activities", d.Activities.History(domain.EntityKindLead))
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", d.Clients.List)
			r.Post("/", d.Clients.Create)
			r.Post("/bulk", d.Clients.Bulk)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Clients.Get)
				r.Patch("/", d.Clients.Update)
				r.Delete("/", d.Clients.Delete)
				r.Post("/status", d.Clients.ChangeStatus)
				r.Post("/archive", d.Clients.Archive)
				r.Post("/restore", d.Clients.Restore)
				r.Get("/activities", d.Activities.History(domain.EntityKindClient))
			})
		})

		r.Route("/engagements", func(r chi.Router) {
			r.Get("/", d.Engagements.List)
			r.Post("/", d.Engagements.Create)
			r.Post("/bulk", d.Engagements.Bulk)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Engagements.Get)
				r.Patch("/", d.Engagements.Update)
				r.Delete("/", d.Engagements.Delete)
				r.Post("/status", d.Engagements.ChangeStatus)
				r.Get("/activities", d.Activities.History(domain.EntityKindEngagement))
			})
		})
	})

	return r
}
