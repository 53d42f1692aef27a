package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/despatch-gateway/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware шлюза отгрузок.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Get("/auth/session", h.Session)

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireSession(h.service))

			r.Post("/auth/logout", h.Logout)

			r.Get("/dashboard", h.Dashboard)

			r.Get("/products", h.Products)
			r.Post("/products", h.CreateProduct)
			r.Get("/products/{id}/status", h.ProductStatus)
			r.Put("/products/{id}/stock", h.AddStock)
			r.Delete("/products/{id}", h.DeleteProduct)

			r.Get("/despatches", h.ListDespatches)
			r.Post("/despatches", h.CreateDespatch)
			r.Put("/despatches/{id}/send", h.SendDespatch)
			r.Get("/despatches/{id}/advice", h.DespatchAdvice)
			r.Get("/despatches/{id}/receipt", h.ReceiptAdvice)
			r.Get("/despatches/{id}/cancellation", h.Cancellation)
			r.Post("/despatches/{id}/cancellation", h.CreateCancellation)

			r.Get("/invoices/{id}", h.Invoice)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
