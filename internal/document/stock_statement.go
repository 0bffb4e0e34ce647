package document

import (
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// StatementRow is one product line of the stock statement
type StatementRow struct {
	ProductName string          `json:"product_name"`
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	AverageMRP  decimal.Decimal `json:"average_mrp"`
	StockValue  decimal.Decimal `json:"stock_value"`
	LowStock    bool            `json:"low_stock"`
}

type StockStatement struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Threshold   int             `json:"threshold"`
	Rows        []StatementRow  `json:"rows"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

func RenderStockStatement(st StockStatement) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Stock Statement", false)
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, companyName+" - Stock Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s  |  Low stock at or below %d units",
		formatTimestamp(st.GeneratedAt), st.Threshold), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	widths := []float64{12, 85, 50, 25, 35, 40, 25}
	headers := []string{"#", "Product", "Category", "Qty", "Avg MRP", "Stock Value", "Status"}
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for i, row := range st.Rows {
		if pdf.GetY()+7 > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		status := "In Stock"
		if row.LowStock {
			status = "Low Stock"
			pdf.SetTextColor(200, 0, 0)
		}
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, truncate(row.ProductName, 48), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, truncate(row.Category, 28), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%d", row.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, money(row.AverageMRP), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 7, money(row.StockValue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 7, status, "1", 1, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4], 8, "Grand Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[5]+widths[6], 8, money(st.GrandTotal), "1", 1, "R", false, 0, "")

	return output(pdf)
}
