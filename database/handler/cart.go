package handler

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"net/http"
	"vital_geo/currency"
	"vital_geo/model"
	"vital_geo/utils"
)

func (h *Handler) cartSnapshot() cartResponse {
	total := h.app.Cart.TotalPrice()
	return cartResponse{
		Items:          h.app.Cart.Items(),
		Count:          h.app.Cart.CartCount(),
		Total:          total,
		TotalFormatted: currency.FormatLocal(total),
		TotalUSD:       currency.FormatForeign(h.app.Currency.ToForeign(total)),
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.cartSnapshot())
}

func (h *Handler) AddProductToCart(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := utils.ParseBody(r.Body, &product); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err, "Failed to parse request body")
		return
	}
	if product.Key() == "" {
		utils.RespondError(w, http.StatusBadRequest, errors.New("missing product id"), "product id is required")
		return
	}
	h.app.Cart.AddToCart(product)
	utils.RespondJSON(w, http.StatusOK, h.cartSnapshot())
}

func (h *Handler) UpdateProductQuantity(w http.ResponseWriter, r *http.Request) {
	var body quantityRequest
	if err := utils.ParseBody(r.Body, &body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err, "Failed to parse request body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err, "input field is invalid")
		return
	}
	h.app.Cart.UpdateQuantity(chi.URLParam(r, "id"), *body.Quantity)
	utils.RespondJSON(w, http.StatusOK, h.cartSnapshot())
}

func (h *Handler) DeleteProductFromCart(w http.ResponseWriter, r *http.Request) {
	h.app.Cart.RemoveFromCart(chi.URLParam(r, "id"))
	utils.RespondJSON(w, http.StatusOK, h.cartSnapshot())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.app.Cart.ClearCart()
	utils.RespondJSON(w, http.StatusOK, h.cartSnapshot())
}

func (h *Handler) GetLikes(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, likesResponse{
		Products: h.app.Likes.LikedProducts(),
		Count:    h.app.Likes.LikeCount(),
	})
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := utils.ParseBody(r.Body, &product); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err, "Failed to parse request body")
		return
	}
	if product.Key() == "" {
		utils.RespondError(w, http.StatusBadRequest, errors.New("missing product id"), "product id is required")
		return
	}
	liked := h.app.Likes.ToggleLike(product)
	utils.RespondJSON(w, http.StatusOK, toggleLikeResponse{
		Liked:     liked,
		LikeCount: h.app.Likes.GetProductLikeCount(product.Key()),
	})
}
