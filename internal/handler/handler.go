// Package handler exposes the storefront REST API over chi.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/greenbasket/storefront/internal/domain/order"
	"github.com/greenbasket/storefront/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Environment is reported by the legacy /health banner.
	Environment string
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler routes HTTP requests to the order service and product repository.
type Handler struct {
	products     product.Repository
	orders       *order.Service
	environment  string
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, products product.Repository, orders *order.Service) *Handler {
	env := cfg.Environment
	if env == "" {
		env = "development"
	}
	return &Handler{
		products:     products,
		orders:       orders,
		environment:  env,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes returns the chi router for the full API surface.
func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", h.healthBanner)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/{id}", h.getProduct)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/stats/summary", h.orderStats)
			r.Get("/{id}", h.getOrder)
			r.Put("/{id}/status", h.updateOrderStatus)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "API endpoint not found", nil)
	})

	return r
}

// healthBanner is the legacy liveness route. Kubernetes-style probes live on
// /livez and /readyz outside this router.
func (h *Handler) healthBanner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(true)
		e.FieldStart("message")
		e.Str("Storefront API is running!")
		e.FieldStart("timestamp")
		encodeTime(e, time.Now())
		e.FieldStart("environment")
		e.Str(h.environment)
		e.ObjEnd()
	})
}
