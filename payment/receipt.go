package payment

import (
	"errors"
	"fmt"
	"io"
	"text/template"
	"time"
	"vital_geo/currency"
	"vital_geo/model"
)

var ErrReceiptUnavailable = errors.New("receipt is only available for verified payments")

const longDate = "January 2, 2006"

var receiptTemplate = template.Must(template.New("receipt").Parse(`VitalGeo Naturals
Transaction Receipt
----------------------------------------
Booking ID:      {{.BookingID}}
Product:         {{.Product}}
Amount Paid:     {{.Amount}}
{{- if .TransactionID}}
Transaction ID:  {{.TransactionID}}
{{- end}}
{{- if .AccountName}}
Account Name:    {{.AccountName}}
{{- end}}
Payment Date:    {{.PaymentDate}}
{{- if .VerifiedDate}}
Verified Date:   {{.VerifiedDate}}
{{- end}}

[ VERIFIED ]

This is a computer-generated receipt.
For inquiries, please contact VitalGeo Naturals.
`))

type receiptView struct {
	BookingID     string
	Product       string
	Amount        string
	TransactionID string
	AccountName   string
	PaymentDate   string
	VerifiedDate  string
}

// RenderReceipt writes the receipt of a verified payment.
func RenderReceipt(w io.Writer, p model.Payment) error {
	if p.Status != model.PaymentStatusVerified {
		return ErrReceiptUnavailable
	}
	view := receiptView{
		BookingID:     p.BookingID,
		Product:       p.ProductName(),
		Amount:        "$" + currency.FormatGrouped(p.Amount),
		TransactionID: p.TransactionID,
		AccountName:   p.AccountName,
		PaymentDate:   p.CreatedAt.Format(longDate),
	}
	if p.VerifiedAt != nil {
		view.VerifiedDate = p.VerifiedAt.Format(longDate)
	}
	return receiptTemplate.Execute(w, view)
}

// ReceiptFilename is Receipt-<booking id>-<UTC date of now>.txt.
func ReceiptFilename(p model.Payment, now time.Time) string {
	return fmt.Sprintf("Receipt-%s-%s.txt", p.BookingID, now.UTC().Format("2006-01-02"))
}
