package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"io"
	"net/http"
	"strings"
	"vital_geo/model"
	"vital_geo/payment"
	"vital_geo/utils"
)

// multipart overhead allowed on top of the screenshot itself
const formSlack = 1 << 20

func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, payment.MaxScreenshotSize+formSlack)
	if err := r.ParseMultipartForm(payment.MaxScreenshotSize + formSlack); err != nil {
		if bodyTooLarge(err) {
			utils.RespondError(w, http.StatusBadRequest, err, payment.ErrFileTooLarge.Error())
			return
		}
		utils.RespondError(w, http.StatusBadRequest, err, "Failed to parse request body")
		return
	}

	sub := payment.Submission{
		ProductID:     r.FormValue("productId"),
		AccountName:   r.FormValue("accountName"),
		TransactionID: r.FormValue("transactionId"),
	}
	file, fileHeader, err := r.FormFile("screenshot")
	if err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			utils.RespondError(w, http.StatusBadRequest, readErr, "error in reading screenshot")
			return
		}
		sub.Screenshot = &payment.Screenshot{
			Name:        fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	res, err := h.app.Payments.Submit(r.Context(), sub)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.Is(err, payment.ErrScreenshotRequired),
			errors.Is(err, payment.ErrInvalidFileType),
			errors.Is(err, payment.ErrFileTooLarge):
			utils.RespondError(w, http.StatusBadRequest, err, err.Error())
		case errors.As(err, &validationErrs):
			utils.RespondError(w, http.StatusBadRequest, err, "input field is invalid")
		default:
			utils.RespondError(w, http.StatusBadGateway, err, err.Error())
		}
		return
	}
	utils.RespondJSON(w, http.StatusCreated, submitResponse{
		Success:       true,
		Message:       res.Message,
		RedirectAfter: res.RedirectAfter.Milliseconds(),
	})
}

func (h *Handler) GetMyTransactions(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Transactions.Refresh(r.Context()); err != nil {
		logrus.Errorf("GetMyTransactions: error in fetching transactions err = %v", err)
		respondUpstream(w, err, "Failed to fetch transactions")
		return
	}
	utils.RespondJSON(w, http.StatusOK, model.PaymentsResponse{
		Payments: h.app.Transactions.Filter(r.URL.Query().Get("status")),
	})
}

func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.findPayment(r.Context(), id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, fmt.Errorf("payment %s not found", id), "Payment not found")
		return
	}

	var buf bytes.Buffer
	if err := payment.RenderReceipt(&buf, p); err != nil {
		utils.RespondError(w, http.StatusConflict, err, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", payment.ReceiptFilename(p, h.now())))
	if _, err := buf.WriteTo(w); err != nil {
		logrus.Errorf("DownloadReceipt: error in writing receipt err = %v", err)
	}
}

func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Transactions.Refresh(r.Context()); err != nil {
		logrus.Errorf("ExportTransactions: error in fetching transactions err = %v", err)
		respondUpstream(w, err, "Failed to fetch transactions")
		return
	}
	payments := h.app.Transactions.Filter(r.URL.Query().Get("status"))

	var buf bytes.Buffer
	if err := payment.ExportTransactions(&buf, payments); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err, "Failed to write Excel file")
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=transactions.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if _, err := buf.WriteTo(w); err != nil {
		logrus.Errorf("ExportTransactions: error in writing workbook err = %v", err)
	}
}

// bodyTooLarge reports whether err came from the MaxBytesReader limit. The
// multipart reader does not always wrap it, so the message is checked too.
func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// findPayment looks in the last fetched list first and refreshes once when
// the id is unknown.
func (h *Handler) findPayment(ctx context.Context, id string) (model.Payment, bool) {
	lookup := func() (model.Payment, bool) {
		for _, p := range h.app.Transactions.Payments() {
			if p.ID == id || p.BookingID == id {
				return p, true
			}
		}
		return model.Payment{}, false
	}
	if p, ok := lookup(); ok {
		return p, true
	}
	if _, err := h.app.Transactions.Refresh(ctx); err != nil {
		logrus.Errorf("findPayment: error in refreshing transactions err = %v", err)
		return model.Payment{}, false
	}
	return lookup()
}
