package document

import (
	"bytes"
	"testing"
	"time"

	"stockpilot/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPurchaseOrder(t *testing.T) {
	order := &model.PurchaseOrder{
		OrderNumber:      "PO-2025-09-0001",
		OrderDate:        time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		ExpectedDelivery: time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
		Priority:         model.PriorityNormal,
		Status:           model.StatusDraft,
		TotalAmount:      decimal.RequireFromString("30.00"),
		Notes:            "Deliver to back entrance",
		Items: []model.PurchaseOrderItem{
			{ProductName: "Widget", Quantity: 3, EstimatedRate: decimal.NewFromInt(10), Amount: decimal.NewFromInt(30)},
		},
	}
	vendor := &model.VendorSummary{Name: "Acme Supplies", Phone: "9876543210", Email: "sales@acme.test"}

	out, err := RenderPurchaseOrder(order, vendor)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "PurchaseOrder_PO-2025-09-0001.pdf", PurchaseOrderFilename(order))
}

func TestRenderStockStatementPaginates(t *testing.T) {
	rows := make([]StatementRow, 60)
	for i := range rows {
		rows[i] = StatementRow{
			ProductName: "Product",
			Quantity:    int64(i),
			AverageMRP:  decimal.NewFromInt(5),
			StockValue:  decimal.NewFromInt(int64(i * 5)),
			LowStock:    i <= 10,
		}
	}
	out, err := RenderStockStatement(StockStatement{
		GeneratedAt: time.Now(),
		Threshold:   10,
		Rows:        rows,
		GrandTotal:  decimal.NewFromInt(8850),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
