package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Products  *ProductHandler
	Sessions  *SessionHandler
	Checkout  *CheckoutHandler
	Orders    *OrdersHandler
	Events    *EventsHandler
	Ledger    Pinger
	StaticDir string
	Logger    *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", health(cfg.Ledger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Products.List)
			r.Post("/", cfg.Products.Create)
			r.Get("/{product_id}", cfg.Products.Get)
			r.Put("/{product_id}", cfg.Products.Update)
			r.Delete("/{product_id}", cfg.Products.Delete)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", cfg.Sessions.Open)
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/", cfg.Sessions.Get)
				r.Delete("/", cfg.Sessions.Close)
				r.Post("/lines", cfg.Sessions.AddLine)
				r.Put("/lines/{product_id}", cfg.Sessions.SetQuantity)
				r.Delete("/lines/{product_id}", cfg.Sessions.RemoveLine)
				r.Put("/customer", cfg.Sessions.SetCustomer)
				r.Post("/clear", cfg.Sessions.Clear)
				r.Post("/checkout", cfg.Checkout.Checkout)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", cfg.Orders.ListOrders)
			r.Get("/export", cfg.Orders.Export)
			r.Route("/{order_id}", func(r chi.Router) {
				r.Get("/", cfg.Orders.GetOrder)
				r.Post("/payment-request", cfg.Checkout.CreatePaymentRequest)
				r.Get("/payment-request", cfg.Checkout.GetPaymentRequest)
				r.Post("/outcome", cfg.Checkout.ResolveOutcome)
				r.Get("/await", cfg.Checkout.AwaitOutcome)
				r.Get("/events", cfg.Events.StreamOrder)
			})
		})

		r.Get("/events", cfg.Events.StreamAll)
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", SPAHandler(cfg.StaticDir))
	}
	return r
}

func health(ledger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ledger.Ping(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "ledger": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
