package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/furstore/internal/logger"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	AllowedOrigins     []string
	SecureCookies      bool
}

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Catalog  *CatalogHandler
}

// NewRouter mounts the storefront API. The result is wrapped for CORS and tracing.
func NewRouter(cfg RouterConfig, h Handlers, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(cfg.SecureCookies))
		r.Use(IdentityMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Delete("/items", h.Cart.RemoveItems)
			r.Put("/items/{productId}", h.Cart.UpdateQuantity)
			r.Delete("/items/{productId}", h.Cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.Checkout.Get)
			r.Get("/options", h.Checkout.Options)
			r.Post("/proceed", h.Checkout.Proceed)
			r.Post("/back", h.Checkout.Back)
			r.Post("/billing", h.Checkout.Billing)
			r.Post("/complete", h.Checkout.Complete)
		})

		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{productId}", h.Catalog.GetProduct)
		r.Get("/categories", h.Catalog.Categories)

		r.Route("/me/orders", func(r chi.Router) {
			r.Use(RequireCustomer)
			r.Get("/", h.Orders.ListMine)
			r.Get("/{orderId}", h.Orders.GetMine)
			r.Post("/{orderId}/cancel", h.Orders.CancelMine)
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/", h.Orders.AdminList)
			r.Patch("/{orderId}", h.Orders.AdminUpdateStatus)
			r.Get("/{orderId}/status", h.Orders.AdminStatus)
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	})
	return otelhttp.NewHandler(c.Handler(r), "storefront")
}
