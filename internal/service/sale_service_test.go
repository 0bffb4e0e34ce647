package service

import (
	"context"
	"testing"
	"time"

	"stockpilot/internal/apperror"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSaleService(s *stack) SaleService {
	clock := fixedClock(orderClock)
	return NewSaleService(s.db, s.sales, s.batches, s.ledger, s.sequences(clock), s.events, clock, time.UTC, logger.Nop())
}

func saleItem(product, batch, barcode string, qty int64, price string) SaleItemRequest {
	return SaleItemRequest{
		ProductName:  product,
		BatchNumber:  batch,
		Barcode:      barcode,
		QuantitySold: qty,
		SellingPrice: decimal.RequireFromString(price),
	}
}

func TestSaleLineAmount(t *testing.T) {
	assert.Equal(t, "270.00", SaleLineAmount(decimal.NewFromInt(100), 3, decimal.NewFromInt(10)).StringFixed(2))
	assert.Equal(t, "33.33", SaleLineAmount(decimal.RequireFromString("11.111"), 3, decimal.Zero).StringFixed(2))
	assert.True(t, SaleLineAmount(decimal.NewFromInt(40), 2, decimal.NewFromInt(100)).IsZero())
}

func TestComputeSaleTotals(t *testing.T) {
	totals := computeSaleTotals(
		[]decimal.Decimal{decimal.NewFromInt(270), decimal.NewFromInt(50)},
		decimal.NewFromInt(5),
		decimal.NewFromInt(10),
	)
	assert.Equal(t, "320.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "16.00", totals.DiscountAmount.StringFixed(2))
	assert.Equal(t, "314.00", totals.Total.StringFixed(2))
}

func TestCreateSale(t *testing.T) {
	s := newStack(t)
	crocin := s.receive(t, receiptLine("Crocin", "CR-1", "111", 10))
	gel := s.receive(t, receiptLine("Volini Gel", "VG-1", "222", 4))
	svc := newSaleService(s)
	ctx := context.Background()

	detail, err := svc.Create(ctx, &CreateSaleRequest{
		DiscountPercentage: decimal.NewFromInt(5),
		Tax:                decimal.NewFromInt(10),
		PaymentMethod:      "upi",
		Items: []SaleItemRequest{
			func() SaleItemRequest {
				it := saleItem("crocin", "CR-1", "111", 3, "100")
				it.DiscountPercentage = decimal.NewFromInt(10)
				return it
			}(),
			saleItem("Volini Gel", "VG-1", "222", 1, "50"),
		},
	}, testActor)
	require.NoError(t, err)

	sale := detail.Sale
	assert.Equal(t, "BILL-20250315-0001", sale.BillNo)
	assert.Equal(t, "Cash Customer", sale.CustomerName)
	assert.Equal(t, model.PayUPI, sale.PaymentMethod)
	assert.Equal(t, "320.00", sale.Subtotal.StringFixed(2))
	assert.Equal(t, "314.00", sale.Total.StringFixed(2))
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "Crocin", detail.Items[0].ProductName)
	assert.True(t, detail.Items[0].MRP.Equal(decimal.NewFromInt(50)), "mrp falls back to the batch")

	assert.Equal(t, int64(7), s.stockOf(t, crocin))
	assert.Equal(t, int64(3), s.stockOf(t, gel))
	assert.Equal(t, []string{model.EventSaleRecorded}, s.events.types())

	loaded, err := svc.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 2)

	found, err := svc.List(ctx, "bill-20250315")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	next, err := svc.NextBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BILL-20250315-0002", next)
}

func TestCreateSaleInsufficientStockLeavesNothingBehind(t *testing.T) {
	s := newStack(t)
	crocin := s.receive(t, receiptLine("Crocin", "CR-1", "111", 10))
	gel := s.receive(t, receiptLine("Volini Gel", "VG-1", "222", 4))
	svc := newSaleService(s)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateSaleRequest{
		Items: []SaleItemRequest{
			saleItem("Crocin", "CR-1", "111", 2, "20"),
			saleItem("Volini Gel", "VG-1", "222", 5, "50"),
		},
	}, testActor)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	assert.Equal(t, int64(10), s.stockOf(t, crocin))
	assert.Equal(t, int64(4), s.stockOf(t, gel))
	sales, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.Empty(t, s.events.types())
}

func TestCreateSaleRejects(t *testing.T) {
	s := newStack(t)
	s.receive(t, receiptLine("Crocin", "CR-1", "111", 10))
	svc := newSaleService(s)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateSaleRequest{
		BillNo: "B-1",
		Items:  []SaleItemRequest{saleItem("Crocin", "CR-1", "111", 1, "20")},
	}, testActor)
	require.NoError(t, err)

	_, err = svc.Create(ctx, &CreateSaleRequest{
		BillNo: "B-1",
		Items:  []SaleItemRequest{saleItem("Crocin", "CR-1", "111", 1, "20")},
	}, testActor)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Create(ctx, &CreateSaleRequest{
		DiscountPercentage: decimal.NewFromInt(101),
		Items:              []SaleItemRequest{saleItem("Crocin", "CR-1", "111", 1, "20")},
	}, testActor)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, &CreateSaleRequest{
		PaymentMethod: "CHEQUE",
		Items:         []SaleItemRequest{saleItem("Crocin", "CR-1", "111", 1, "20")},
	}, testActor)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, &CreateSaleRequest{}, testActor)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// staleBillCheck misses a bill committed after the existence check
type staleBillCheck struct {
	repository.SaleRepository
}

func (staleBillCheck) ExistsBillNo(context.Context, string) (bool, error) {
	return false, nil
}

func TestCreateSaleDuplicateBillAtInsertRollsBack(t *testing.T) {
	s := newStack(t)
	crocin := s.receive(t, receiptLine("Crocin", "CR-1", "111", 10))
	ctx := context.Background()

	_, err := newSaleService(s).Create(ctx, &CreateSaleRequest{
		BillNo: "B-7",
		Items:  []SaleItemRequest{saleItem("Crocin", "CR-1", "111", 1, "20")},
	}, testActor)
	require.NoError(t, err)
	s.events.reset()

	clock := fixedClock(orderClock)
	racing := NewSaleService(s.db, staleBillCheck{s.sales}, s.batches, s.ledger, s.sequences(clock), s.events, clock, time.UTC, logger.Nop())
	_, err = racing.Create(ctx, &CreateSaleRequest{
		BillNo: "B-7",
		Items:  []SaleItemRequest{saleItem("Crocin", "CR-1", "111", 3, "20")},
	}, testActor)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	assert.Equal(t, int64(9), s.stockOf(t, crocin))
	sales, err := s.sales.FindAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, sales, 1)
	assert.Empty(t, s.events.types())
}

func TestSearchProductsOnlyInStock(t *testing.T) {
	s := newStack(t)
	s.receive(t, receiptLine("Crocin", "CR-1", "111", 1))
	s.receive(t, receiptLine("Crocin Advance", "CA-1", "112", 3))
	svc := newSaleService(s)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateSaleRequest{
		Items: []SaleItemRequest{saleItem("Crocin", "CR-1", "111", 1, "20")},
	}, testActor)
	require.NoError(t, err)

	views, err := svc.SearchProducts(ctx, "crocin")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Crocin Advance", views[0].ProductName)

	empty, err := svc.SearchProducts(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
