package handler

import (
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"net/http"
	"vital_geo/auth"
	"vital_geo/model"
	"vital_geo/utils"
)

func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	user := h.app.Auth.User()
	utils.RespondJSON(w, http.StatusOK, model.AuthStatusResponse{
		Authenticated: user != nil,
		User:          user,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body model.LoginRequestBody
	if err := utils.ParseBody(r.Body, &body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err, "Failed to parse request body")
		return
	}

	if err := h.app.Auth.Login(r.Context(), body.Email, body.Password); err != nil {
		respondAuthError(w, err, "Login failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, model.AuthResponse{Success: true, User: h.app.Auth.User()})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var body model.SignupRequestBody
	if err := utils.ParseBody(r.Body, &body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err, "Failed to parse request body")
		return
	}

	if err := h.app.Auth.Signup(r.Context(), body); err != nil {
		respondAuthError(w, err, "Signup failed")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, model.AuthResponse{Success: true, User: h.app.Auth.User()})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.app.Auth.Logout(r.Context())
	utils.RespondJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "Logged out"})
}

// Refresh forces a status check against the backend.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.app.Auth.CheckStatus(r.Context(), false)
	h.AuthStatus(w, r)
}

// Focus re-validates the session the way regaining window focus does.
func (h *Handler) Focus(w http.ResponseWriter, r *http.Request) {
	h.app.Auth.Focus(r.Context())
	h.AuthStatus(w, r)
}

func (h *Handler) CheckSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.app.Client.CheckSession(r.Context())
	if err != nil {
		logrus.Errorf("CheckSession: error in fetching session info err = %v", err)
		utils.RespondError(w, http.StatusBadGateway, err, "Failed to fetch session info")
		return
	}
	utils.RespondJSON(w, http.StatusOK, struct {
		Success bool              `json:"success"`
		Session model.SessionInfo `json:"session"`
	}{Success: true, Session: info})
}

func respondAuthError(w http.ResponseWriter, err error, fallback string) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		utils.RespondError(w, http.StatusBadRequest, err, "input field is invalid")
	case errors.Is(err, auth.ErrAdminNotAllowed):
		utils.RespondError(w, http.StatusForbidden, err, err.Error())
	default:
		respondUpstream(w, err, fallback)
	}
}
