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
)

func newPurchaseService(s *stack) PurchaseService {
	return NewPurchaseService(s.db, s.purchases, s.vendors, s.batches, s.products, s.ledger,
		s.events, fixedClock(orderClock), time.UTC, logger.Nop())
}

func purchaseItem(product, batch string, qty int64) PurchaseItemRequest {
	return PurchaseItemRequest{
		ProductName:     product,
		Category:        "Analgesics",
		BatchNumber:     batch,
		Barcode:         "89" + batch,
		ExpiryDate:      "2027-01-31",
		Quantity:        qty,
		PurchaseRate:    decimal.NewFromInt(100),
		MRP:             decimal.NewFromInt(150),
		TaxPercent:      decimal.NewFromInt(12),
		DiscountPercent: decimal.NewFromInt(10),
	}
}

func TestPurchaseLineAmount(t *testing.T) {
	amount := PurchaseLineAmount(10, decimal.NewFromInt(100), decimal.NewFromInt(10), decimal.NewFromInt(12))
	assert.Equal(t, "1008.00", amount.StringFixed(2))

	plain := PurchaseLineAmount(3, decimal.RequireFromString("19.99"), decimal.Zero, decimal.Zero)
	assert.Equal(t, "59.97", plain.StringFixed(2))
}

func TestCreatePurchaseReceivesStock(t *testing.T) {
	s := newStack(t)
	vendor := s.vendor(t, "Acme Supplies", "orders@acme.test")
	svc := newPurchaseService(s)
	ctx := context.Background()

	res, err := svc.Create(ctx, &CreatePurchaseRequest{
		VendorName:   "Acme Supplies",
		BillNo:       "INV-778",
		PurchaseDate: "2025-03-14",
		Items: []PurchaseItemRequest{
			purchaseItem("Ibuprofen 400", "IB1", 10),
			purchaseItem("Aspirin 75", "AS1", 5),
		},
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, vendor.ID, res.Purchase.VendorID)
	assert.Equal(t, model.PaymentPending, res.Purchase.PaymentStatus)
	assert.Equal(t, "1512.00", res.Purchase.TotalAmount.StringFixed(2))
	require.Len(t, res.Receipts, 2)
	assert.Equal(t, model.Created, res.Receipts[0].ProductResolution)
	assert.Equal(t, int64(10), res.Receipts[0].Batch.QuantityInStock)

	assert.Equal(t, []string{
		model.EventPurchaseRecorded, model.EventProductCreated, model.EventProductCreated,
	}, s.events.types())

	detail, err := svc.Get(ctx, res.Purchase.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	byBatch := make(map[string]model.PurchaseItemDetail)
	for _, it := range detail.Items {
		byBatch[it.BatchNumber] = it
	}
	require.Contains(t, byBatch, "IB1")
	assert.Equal(t, "Ibuprofen 400", byBatch["IB1"].ProductName)
	assert.Equal(t, "Analgesics", byBatch["IB1"].Category)
	assert.Equal(t, "1008.00", byBatch["IB1"].Amount.StringFixed(2))
	require.NotNil(t, detail.Purchase.Vendor)
	assert.Equal(t, "Acme Supplies", detail.Purchase.Vendor.Name)

	// a second bill for the same batch tops it up instead of creating another
	res, err = svc.Create(ctx, &CreatePurchaseRequest{
		VendorID:      vendor.ID.String(),
		BillNo:        "INV-779",
		PurchaseDate:  "2025-03-15",
		PaymentStatus: "Paid",
		Items:         []PurchaseItemRequest{purchaseItem("IBUPROFEN 400", "IB1", 4)},
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, model.Found, res.Receipts[0].ProductResolution)
	assert.Equal(t, model.Found, res.Receipts[0].BatchResolution)
	assert.Equal(t, int64(14), res.Receipts[0].Batch.QuantityInStock)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreatePurchaseRollsBackOnFailure(t *testing.T) {
	s := newStack(t)
	s.vendor(t, "Acme Supplies", "orders@acme.test")
	svc := newPurchaseService(s)
	ctx := context.Background()

	bad := purchaseItem("Aspirin 75", "   ", 5)
	_, err := svc.Create(ctx, &CreatePurchaseRequest{
		VendorName:   "Acme Supplies",
		BillNo:       "INV-1",
		PurchaseDate: "2025-03-14",
		Items:        []PurchaseItemRequest{purchaseItem("Ibuprofen 400", "IB1", 10), bad},
	}, testActor)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = s.products.FindByName(ctx, "Ibuprofen 400")
	assert.Error(t, err, "first line must be rolled back with the bill")
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreatePurchaseVendorErrors(t *testing.T) {
	s := newStack(t)
	svc := newPurchaseService(s)

	_, err := svc.Create(context.Background(), &CreatePurchaseRequest{
		VendorID:     uuid.NewString(),
		BillNo:       "INV-1",
		PurchaseDate: "2025-03-14",
		Items:        []PurchaseItemRequest{purchaseItem("Ibuprofen 400", "IB1", 1)},
	}, testActor)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Create(context.Background(), &CreatePurchaseRequest{
		BillNo:       "INV-1",
		PurchaseDate: "2025-03-14",
		Items:        []PurchaseItemRequest{purchaseItem("Ibuprofen 400", "IB1", 1)},
	}, testActor)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
