package handler

import (
	"net/http"
	"strconv"
	"vital_geo/currency"
	"vital_geo/utils"
)

func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, rateResponse{
		Rate:    h.app.Currency.Rate(),
		Loading: h.app.Currency.Loading(),
	})
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err, "amount must be a number")
		return
	}
	usd := h.app.Currency.ToForeign(amount)
	utils.RespondJSON(w, http.StatusOK, conversionResponse{
		PKR:          amount,
		USD:          usd,
		FormattedPKR: currency.FormatLocal(amount),
		FormattedUSD: currency.FormatForeign(usd),
	})
}
