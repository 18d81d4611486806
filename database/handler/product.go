package handler

import (
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"net/http"
	"strconv"
	"vital_geo/catalog"
	"vital_geo/client"
	"vital_geo/model"
	"vital_geo/utils"
)

func (h *Handler) GetAllProduct(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err, "invalid filter")
		return
	}
	if err := h.validate.Struct(filter); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err, "invalid filter")
		return
	}

	products, err := h.app.Catalog.List(r.Context(), filter)
	if err != nil {
		logrus.Errorf("GetAllProduct: error in fetching products err = %v", err)
		respondUpstream(w, err, "Failed to fetch products")
		return
	}
	utils.RespondJSON(w, http.StatusOK, model.ProductsResponse{Products: products})
}

func (h *Handler) GetProductById(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, err := h.app.Catalog.Get(r.Context(), id)
	if err != nil {
		logrus.Errorf("GetProductById: error in fetching product %s err = %v", id, err)
		respondUpstream(w, err, "Product not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, model.ProductResponse{Product: product})
}

func (h *Handler) GetPaymentSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.app.Catalog.PaymentSettings(r.Context())
	if err != nil {
		logrus.Errorf("GetPaymentSettings: error in fetching payment settings err = %v", err)
		respondUpstream(w, err, "Failed to fetch payment settings")
		return
	}
	utils.RespondJSON(w, http.StatusOK, model.PaymentSettingsResponse{Success: true, Settings: settings})
}

func parseFilter(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	filter := catalog.Filter{
		Type:     model.ProductType(q.Get("productType")),
		Category: q.Get("category"),
	}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			return filter, err
		}
		filter.Featured = &featured
	}
	for key, dst := range map[string]**float64{"minPrice": &filter.MinPrice, "maxPrice": &filter.MaxPrice} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, err
		}
		*dst = &f
	}
	return filter, nil
}

// respondUpstream mirrors a backend error status, or answers 502 when the
// backend could not be reached.
func respondUpstream(w http.ResponseWriter, err error, messageToUser string) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = messageToUser
		}
		utils.RespondError(w, apiErr.StatusCode, err, msg)
		return
	}
	utils.RespondError(w, http.StatusBadGateway, err, messageToUser)
}
