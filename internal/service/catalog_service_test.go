package service

import (
	"context"
	"testing"
	"time"

	"stockpilot/internal/apperror"
	"stockpilot/internal/model"
	"stockpilot/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestVendorLifecycle(t *testing.T) {
	s := newStack(t)
	svc := NewVendorService(s.vendors, logger.Nop())
	ctx := context.Background()

	v, err := svc.Create(ctx, &VendorRequest{
		Name:  "Acme Supplies",
		Phone: "9876543210",
		Email: " Orders@Acme.TEST ",
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "orders@acme.test", v.Email)
	assert.Equal(t, model.PaymentNet30, v.PaymentTerms)

	_, err = svc.Create(ctx, &VendorRequest{Name: "Other", Phone: "1", Email: "orders@acme.test"}, testActor)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Create(ctx, &VendorRequest{Name: "Other", Phone: "1", Email: "not-an-email"}, testActor)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, &VendorRequest{Name: "Other", Phone: "1", Email: "a@b.test", PaymentTerms: "Net 90"}, testActor)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	updated, err := svc.Update(ctx, v.ID, &VendorRequest{
		Name:         "Acme Supplies Pvt",
		Phone:        "9876543210",
		Email:        "orders@acme.test",
		PaymentTerms: "Net 15",
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Acme Supplies Pvt", updated.Name)
	assert.Equal(t, model.PaymentNet15, updated.PaymentTerms)

	require.NoError(t, svc.Delete(ctx, v.ID, testActor))
	_, err = svc.Get(ctx, v.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), testActor), apperror.ErrNotFound)
}

func TestVendorEmailReusableAfterDelete(t *testing.T) {
	s := newStack(t)
	svc := NewVendorService(s.vendors, logger.Nop())
	ctx := context.Background()

	first, err := svc.Create(ctx, &VendorRequest{Name: "Acme", Phone: "1", Email: "a@acme.test"}, testActor)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, first.ID, testActor))

	vendors, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, vendors)

	second, err := svc.Create(ctx, &VendorRequest{Name: "Acme Again", Phone: "1", Email: "a@acme.test"}, testActor)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// live rows still collide at the index when the service check is bypassed
	err = s.vendors.Create(ctx, &model.Vendor{Name: "Dup", Phone: "1", Email: "a@acme.test"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestProductCatalog(t *testing.T) {
	s := newStack(t)
	svc := NewProductService(s.products, s.batches, s.events, 5, fixedClock(orderClock), logger.Nop())
	ctx := context.Background()

	p, err := svc.Create(ctx, &ProductRequest{Name: " Dolo 650 ", Category: "Analgesics"}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Dolo 650", p.Name)
	assert.Equal(t, []string{model.EventProductCreated}, s.events.types())

	_, err = svc.Create(ctx, &ProductRequest{Name: "DOLO 650"}, testActor)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	line := receiptLine("Dolo 650", "D-1", "333", 3)
	line.PurchaseRate = decimal.RequireFromString("21.5")
	s.receive(t, line)
	s.receive(t, receiptLine("Zincovit", "Z-1", "444", 40))

	detail, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.TotalStock)
	assert.Len(t, detail.Batches, 1)

	found, err := svc.Search(ctx, "dolo")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.NotNil(t, found[0].LatestDetails)
	assert.Equal(t, "D-1", found[0].LatestDetails.BatchNumber)
	assert.True(t, found[0].LatestDetails.PurchaseRate.Equal(decimal.RequireFromString("21.5")))

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Dolo 650", low[0].ProductName)

	renamed, err := svc.Update(ctx, p.ID, &ProductRequest{Name: "Dolo 650 Tablet"}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Dolo 650 Tablet", renamed.Name)

	_, err = svc.Update(ctx, p.ID, &ProductRequest{Name: "zincovit"}, testActor)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestDashboardAndStockStatement(t *testing.T) {
	s := newStack(t)
	s.vendor(t, "Acme Supplies", "orders@acme.test")
	purchases := newPurchaseService(s)
	ctx := context.Background()

	_, err := purchases.Create(ctx, &CreatePurchaseRequest{
		VendorName:   "Acme Supplies",
		BillNo:       "INV-1",
		PurchaseDate: "2025-03-14",
		Items: []PurchaseItemRequest{
			purchaseItem("Ibuprofen 400", "IB1", 10),
			purchaseItem("Aspirin 75", "AS1", 2),
		},
	}, testActor)
	require.NoError(t, err)
	_, err = newSaleService(s).Create(ctx, &CreateSaleRequest{
		Items: []SaleItemRequest{saleItem("Ibuprofen 400", "IB1", "89IB1", 4, "150")},
	}, testActor)
	require.NoError(t, err)

	dash := NewDashboardService(s.reports, s.batches, 5, fixedClock(orderClock), time.UTC)
	movement, err := dash.GetStockMovement(ctx, 3)
	require.NoError(t, err)
	require.Len(t, movement, 3)
	assert.Equal(t, model.DailyMovement{Date: "2025-03-13"}, movement[0])
	assert.Equal(t, model.DailyMovement{Date: "2025-03-14", Inbound: 12}, movement[1])
	assert.Equal(t, model.DailyMovement{Date: "2025-03-15", Outbound: 4}, movement[2])

	week, err := dash.GetStockMovement(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, week, 7)

	stats, err := dash.GetDashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockCount)
	assert.Equal(t, "1200.00", stats.TotalValuation.StringFixed(2))

	reports := NewReportService(s.batches, 5, fixedClock(orderClock), time.UTC)
	st, err := reports.StockStatement(ctx)
	require.NoError(t, err)
	require.Len(t, st.Rows, 2)
	assert.Equal(t, "Ibuprofen 400", st.Rows[0].ProductName)
	assert.Equal(t, "900.00", st.Rows[0].StockValue.StringFixed(2))
	assert.Equal(t, "150.00", st.Rows[0].AverageMRP.StringFixed(2))
	assert.True(t, st.Rows[1].LowStock)
	assert.Equal(t, "1200.00", st.GrandTotal.StringFixed(2))

	pdf, name, err := reports.StockStatementPDF(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "stock-statement-20250315.pdf", name)
}
