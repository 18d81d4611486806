package payment

import (
	"github.com/tealeg/xlsx"
	"io"
	"vital_geo/model"
)

var exportHeaders = []string{
	"BookingID", "Product", "Amount", "Status", "TransactionID",
	"AccountName", "Notes", "CreatedAt", "VerifiedAt",
}

// ExportTransactions writes payments as a single-sheet xlsx workbook.
func ExportTransactions(w io.Writer, payments []model.Payment) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transactions")
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range payments {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.BookingID)
		row.AddCell().SetValue(p.ProductName())
		row.AddCell().SetValue(p.Amount)
		row.AddCell().SetValue(string(p.Status))
		row.AddCell().SetValue(p.TransactionID)
		row.AddCell().SetValue(p.AccountName)
		row.AddCell().SetValue(p.Notes)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		verified := ""
		if p.VerifiedAt != nil {
			verified = p.VerifiedAt.Format("2006-01-02 15:04:05")
		}
		row.AddCell().SetValue(verified)
	}

	return file.Write(w)
}
