// Package document renders purchase orders and stock reports as PDF.
package document

import (
	"bytes"
	"fmt"
	"time"

	"stockpilot/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	dateLayout  = "02 Jan 2006"
	companyName = "StockPilot"
)

// PurchaseOrderFilename is the attachment / download name for an order
func PurchaseOrderFilename(order *model.PurchaseOrder) string {
	return fmt.Sprintf("PurchaseOrder_%s.pdf", order.OrderNumber)
}

// PurchaseOrderAttachment renders the order and names the file, for mail and chat attachments
func PurchaseOrderAttachment(order *model.PurchaseOrder, vendor *model.VendorSummary) ([]byte, string, error) {
	pdf, err := RenderPurchaseOrder(order, vendor)
	if err != nil {
		return nil, "", err
	}
	return pdf, PurchaseOrderFilename(order), nil
}

// RenderPurchaseOrder lays out the order header, vendor block, item table and totals
func RenderPurchaseOrder(order *model.PurchaseOrder, vendor *model.VendorSummary) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Purchase Order "+order.OrderNumber, false)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, companyName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "PURCHASE ORDER", "", 1, "R", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	kv := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
	}
	kv("Order Number:", order.OrderNumber)
	kv("Order Date:", order.OrderDate.Format(dateLayout))
	kv("Expected Delivery:", order.ExpectedDelivery.Format(dateLayout))
	kv("Priority:", string(order.Priority))
	kv("Status:", string(order.Status))
	pdf.Ln(4)

	if vendor != nil {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, "Vendor", "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, vendor.Name, "", 1, "L", false, 0, "")
		if vendor.Address != "" {
			pdf.MultiCell(0, 5, vendor.Address, "", "L", false)
		}
		pdf.CellFormat(0, 6, fmt.Sprintf("Phone: %s   Email: %s", vendor.Phone, vendor.Email), "", 1, "L", false, 0, "")
		if vendor.GSTNumber != "" {
			pdf.CellFormat(0, 6, "GST: "+vendor.GSTNumber, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	widths := []float64{10, 70, 20, 35, 45}
	headers := []string{"#", "Product", "Qty", "Rate", "Amount"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i, item := range order.Items {
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, truncate(item.ProductName, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(item.EstimatedRate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, money(item.Amount), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 8, money(order.TotalAmount), "1", 1, "R", false, 0, "")
	pdf.Ln(4)

	if order.Notes != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, order.Notes, "", "L", false)
		pdf.Ln(2)
	}
	if order.Terms != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Terms & Conditions", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, order.Terms, "", "L", false)
	}

	return output(pdf)
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// core PDF fonts lack the rupee sign
func money(d decimal.Decimal) string {
	return "Rs. " + d.StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func formatTimestamp(t time.Time) string {
	return t.Format("02 Jan 2006 15:04")
}
