package server

import (
	"github.com/go-chi/chi/v5"
	"vital_geo/database/handler"
)

func StorefrontRoute(r chi.Router, h *handler.Handler) {
	r.Route("/products", func(product chi.Router) {
		product.Get("/", h.GetAllProduct)
		product.Get("/{id}", h.GetProductById)
	})
	r.Get("/payment-settings", h.GetPaymentSettings)
	r.Route("/cart", func(cart chi.Router) {
		cart.Get("/", h.GetCart)
		cart.Delete("/", h.ClearCart)
		cart.Post("/items", h.AddProductToCart)
		cart.Put("/items/{id}", h.UpdateProductQuantity)
		cart.Delete("/items/{id}", h.DeleteProductFromCart)
	})
	r.Route("/likes", func(likes chi.Router) {
		likes.Get("/", h.GetLikes)
		likes.Post("/toggle", h.ToggleLike)
	})
	r.Route("/currency", func(currency chi.Router) {
		currency.Get("/", h.GetRate)
		currency.Get("/convert", h.Convert)
	})
}

func PaymentRoute(r chi.Router, h *handler.Handler) {
	r.Post("/", h.SubmitPayment)
	r.Get("/my-transactions", h.GetMyTransactions)
	r.Get("/export", h.ExportTransactions)
	r.Get("/{id}/receipt", h.DownloadReceipt)
}
