package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/athometyre/internal/content"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/i18n"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/fjod/athometyre/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Catalog   CatalogService
	Cart      CartService
	Wishlist  WishlistService
	Checkout  CheckoutService
	Orders    OrderService
	Inventory InventoryService
	Dashboard interface {
		DashboardService
		TierSetter
	}
	Bookings BookingService
	Pages    *content.Pages
	I18n     *i18n.Bundle
	Tokens   TokenParser
	DB       Pinger
	Metrics  *metrics.ServerMetrics
	Log      *slog.Logger

	RequestTimeout time.Duration
	// CheckoutTimeout must leave room for the payment gateway call.
	CheckoutTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.CheckoutTimeout <= 0 {
		d.CheckoutTimeout = d.RequestTimeout
	}

	catalogHandler := NewCatalogHandler(d.Catalog, d.RequestTimeout, d.Log)
	cartHandler := NewCartHandler(d.Cart, d.Wishlist, d.RequestTimeout, d.Log)
	checkoutHandler := NewCheckoutHandler(d.Checkout, d.Metrics, d.CheckoutTimeout, d.Log)
	ordersHandler := NewOrdersHandler(d.Orders, d.RequestTimeout, d.Log)
	adminHandler := NewAdminHandler(d.Inventory, d.Dashboard, d.RequestTimeout, d.Log)
	accountHandler := NewAccountHandler(d.Dashboard, d.Bookings, d.RequestTimeout, d.Log)
	contentHandler := NewContentHandler(d.Pages, d.I18n, d.Log)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(d.Log))
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(Instrument(d.Metrics))
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.Ping(ctx); err != nil {
				d.Log.WarnContext(ctx, "readiness check failed", slog.Any("error", err))
				respondError(w, http.StatusServiceUnavailable, "not_ready", "database unavailable")
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/tyres", catalogHandler.ListTyres)
		r.Get("/tyres/{id}", catalogHandler.GetTyre)
		r.Get("/tyres/{id}/reviews", catalogHandler.ListReviews)
		r.Get("/tyre-finder", catalogHandler.FindTyres)
		r.Get("/brands", catalogHandler.ListBrands)

		r.Get("/pages", contentHandler.ListPages)
		r.Get("/pages/{slug}", contentHandler.GetPage)
		r.Get("/i18n", contentHandler.Languages)
		r.Get("/i18n/{lang}", contentHandler.Table)
		r.Get("/i18n/{lang}/t", contentHandler.Translate)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(d.Tokens))

			r.Post("/tyres/{id}/reviews", catalogHandler.AddReview)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/", cartHandler.AddItem)
				r.Delete("/", cartHandler.ClearCart)
				r.Put("/{tyreId}", cartHandler.UpdateQuantity)
				r.Delete("/{tyreId}", cartHandler.RemoveItem)
			})
			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", cartHandler.GetWishlist)
				r.Post("/", cartHandler.AddToWishlist)
				r.Delete("/{tyreId}", cartHandler.RemoveFromWishlist)
			})

			r.Post("/checkout", checkoutHandler.PlaceOrder)

			r.Get("/orders", ordersHandler.ListOrders)
			r.Get("/orders/{id}", ordersHandler.GetOrder)

			r.Get("/customer/stats", accountHandler.CustomerStats)
			r.Get("/bookings", accountHandler.ListBookings)
			r.Post("/bookings", accountHandler.CreateBooking)
			r.Post("/bookings/{id}/cancel", accountHandler.CancelBooking)

			r.With(RequireRole(domain.RoleDealer)).Get("/dealer/stats", accountHandler.DealerStats)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(domain.RoleAdmin))
				r.Patch("/orders/{id}/status", ordersHandler.UpdateStatus)
				r.Get("/inventory", adminHandler.Inventory)
				r.Post("/inventory/{tyreId}/adjust", adminHandler.AdjustStock)
				r.Get("/inventory/{tyreId}/history", adminHandler.History)
				r.Put("/dealers/{id}/tier", adminHandler.SetTier)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
