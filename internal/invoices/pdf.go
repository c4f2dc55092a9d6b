package invoices

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

func lineLabel(kind string) string {
	if kind == "webinar" {
		return "Webinar registration"
	}
	return "Service"
}

func money(currency string, d decimal.Decimal) string {
	return currency + " " + d.StringFixed(2)
}

// Render draws the invoice as an A4 PDF.
func Render(inv Invoice) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.SetAuthor(inv.Seller.Name, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, tr(inv.Seller.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if inv.Seller.Address != "" {
		pdf.MultiCell(0, 5, tr(inv.Seller.Address), "", "L", false)
	}
	if inv.Seller.Email != "" {
		pdf.CellFormat(0, 5, inv.Seller.Email, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "INVOICE", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, "Invoice no: "+inv.Number, "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 5, "Date: "+inv.IssuedAt.UTC().Format("02 Jan 2006"), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 5, "Order: "+inv.OrderRef, "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Billed to", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(inv.Customer), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, inv.Email, "", 1, "L", false, 0, "")
	if inv.Phone != "" {
		pdf.CellFormat(0, 5, inv.Phone, "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(120, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 8, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(120, 8, tr(lineLabel(inv.Kind)+": "+inv.ItemTitle), "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, money(inv.Currency, inv.Subtotal), "1", 1, "R", false, 0, "")
	if inv.Discount.IsPositive() {
		pdf.CellFormat(120, 8, "Discount", "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, "- "+money(inv.Currency, inv.Discount), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(120, 8, "Total paid", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, money(inv.Currency, inv.Total), "1", 1, "R", false, 0, "")

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "This is a computer generated invoice and does not require a signature.", "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}
	return buf.Bytes(), nil
}
