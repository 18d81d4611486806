package handler

import (
	"github.com/go-playground/validator/v10"
	"time"
	"vital_geo/app"
)

// Handler serves the local storefront API on top of the app services.
type Handler struct {
	app      *app.App
	validate *validator.Validate
	now      func() time.Time
}

func New(a *app.App) *Handler {
	return &Handler{app: a, validate: validator.New(), now: time.Now}
}

type cartResponse struct {
	Items          interface{} `json:"items"`
	Count          int         `json:"count"`
	Total          float64     `json:"total"`
	TotalFormatted string      `json:"totalFormatted"`
	TotalUSD       string      `json:"totalUSD"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type likesResponse struct {
	Products interface{} `json:"products"`
	Count    int         `json:"count"`
}

type toggleLikeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

type rateResponse struct {
	Rate    float64 `json:"rate"`
	Loading bool    `json:"loading"`
}

type conversionResponse struct {
	PKR          float64 `json:"pkr"`
	USD          float64 `json:"usd"`
	FormattedPKR string  `json:"formattedPKR"`
	FormattedUSD string  `json:"formattedUSD"`
}

type submitResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	RedirectAfter int64  `json:"redirectAfterMs"`
}
