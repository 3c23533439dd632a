// Package handler exposes the laundry POS API over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lavandry/laundry-pos/internal/domain/customer"
	"github.com/lavandry/laundry-pos/internal/domain/order"
	"github.com/lavandry/laundry-pos/internal/domain/promo"
	"github.com/lavandry/laundry-pos/internal/domain/service"
	"github.com/lavandry/laundry-pos/pkg/httpmiddleware"
)

// Handler routes API requests to the domain layer.
type Handler struct {
	services     service.Repository
	promos       promo.Repository
	customers    customer.Repository
	orders       order.Repository
	orderService *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	services service.Repository,
	promos promo.Repository,
	customers customer.Repository,
	orders order.Repository,
	orderService *order.Service,
) *Handler {
	return &Handler{
		services:     services,
		promos:       promos,
		customers:    customers,
		orders:       orders,
		orderService: orderService,
	}
}

// Routes builds the API router. Everything under /api requires an API key
// except the payment gateway webhook, which authenticates via its own
// shared-secret signature.
func (h *Handler) Routes(auth httpmiddleware.Middleware) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/payments/notification", h.paymentNotification)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Get("/services", h.listServices)
			r.Post("/services", h.createService)

			r.Get("/promotions", h.listPromotions)
			r.Post("/promotions", h.createPromotion)

			r.Post("/orders/quote", h.quoteOrder)
			r.Post("/orders", h.placeOrder)
			r.Get("/orders/{id}", h.getOrder)
			r.Patch("/orders/{id}/status", h.updateOrderStatus)

			r.Get("/customers", h.listCustomers)
			r.Post("/customers", h.createCustomer)
			r.Get("/customers/{id}", h.getCustomer)

			r.Get("/reports/daily", h.dailyReport)
		})
	})

	return r
}
