package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quotekit/quotekit/internal/api/handler"
	"github.com/quotekit/quotekit/internal/api/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.Pinger
	RedisPinger handler.Pinger
	Version     string
	Pricing     handler.PricingService
	Ceilings    handler.CeilingStore
	Founding    handler.FoundingService
	// KeyVerifier guards the founding routes. Nil leaves them open.
	KeyVerifier middleware.KeyVerifier
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.RedisPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if deps.Pricing != nil {
			quoteHandler := handler.NewQuoteHandler(deps.Pricing, deps.Ceilings)
			r.Route("/quotes", func(r chi.Router) {
				r.Post("/", quoteHandler.Quote)
				r.Post("/ceilings", quoteHandler.IssueCeiling)
				r.Get("/ceilings/{quoteId}", quoteHandler.GetCeiling)
				r.Post("/ceilings/{quoteId}/validate", quoteHandler.ValidateCeiling)
			})

			pricingHandler := handler.NewPricingHandler(deps.Pricing)
			r.Get("/pricing", pricingHandler.ListAll)
			r.Get("/pricing/{serviceType}", pricingHandler.ListService)
			r.Post("/bundles/estimate", pricingHandler.EstimateBundle)
		}

		if deps.Founding != nil {
			foundingHandler := handler.NewFoundingHandler(deps.Founding)
			r.Route("/founding", func(r chi.Router) {
				if deps.KeyVerifier != nil {
					r.Use(middleware.ServiceKey(deps.KeyVerifier))
				}
				r.Post("/links", foundingHandler.Link)
				r.Get("/{customerId}", foundingHandler.Status)
				r.Get("/{customerId}/discount", foundingHandler.Discount)
				r.Post("/{customerId}/applications", foundingHandler.Apply)
			})
		}
	})

	return r
}
