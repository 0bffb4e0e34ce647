package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockpilot/internal/apperror"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptLine is one received item as entered on a purchase bill
type ReceiptLine struct {
	ProductName     string
	Category        string
	TaxCode         string
	Description     string
	BatchNumber     string
	Barcode         string
	ExpiryDate      *time.Time
	MRP             decimal.Decimal
	Quantity        int64
	PurchaseRate    decimal.Decimal
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
}

type ReceiptResult struct {
	Product           *model.Product      `json:"product"`
	ProductResolution model.Resolution    `json:"product_resolution"`
	Batch             *model.ProductBatch `json:"batch"`
	BatchResolution   model.Resolution    `json:"batch_resolution"`
}

// ConsumptionLine identifies a batch the way a sale bill does
type ConsumptionLine struct {
	ProductName string
	BatchNumber string
	Barcode     string
	Quantity    int64
}

type ConsumptionResult struct {
	Batch     model.BatchView
	Remaining int64
}

// StockLedger is the only code that changes batch quantities. Both methods
// run inside the caller's transaction and must be given its handle.
type StockLedger interface {
	ApplyReceipt(ctx context.Context, tx *gorm.DB, line ReceiptLine, actor string) (*ReceiptResult, error)
	ApplyConsumption(ctx context.Context, tx *gorm.DB, lines []ConsumptionLine, actor string) ([]ConsumptionResult, error)
}

type stockLedger struct {
	products repository.ProductRepository
	batches  repository.BatchRepository
}

func NewStockLedger(products repository.ProductRepository, batches repository.BatchRepository) StockLedger {
	return &stockLedger{products: products, batches: batches}
}

func (l *stockLedger) ApplyReceipt(ctx context.Context, tx *gorm.DB, line ReceiptLine, actor string) (*ReceiptResult, error) {
	if strings.TrimSpace(line.ProductName) == "" || strings.TrimSpace(line.BatchNumber) == "" {
		return nil, apperror.Validation("product name and batch number are required")
	}
	if line.Quantity <= 0 {
		return nil, apperror.Validation("quantity must be positive",
			apperror.FieldError{Field: "quantity", Message: "must be greater than 0"})
	}
	tx = tx.WithContext(ctx)

	attrs := model.Product{
		Name:        line.ProductName,
		Category:    line.Category,
		TaxCode:     line.TaxCode,
		Description: line.Description,
	}
	attrs.CreatedBy = actor
	product, productRes, err := l.products.Resolve(tx, attrs)
	if err != nil {
		return nil, fmt.Errorf("resolve product %q: %w", line.ProductName, err)
	}

	batch, batchRes, err := l.batches.Resolve(tx, product.ID, line.BatchNumber, actor)
	if err != nil {
		return nil, fmt.Errorf("resolve batch %q: %w", line.BatchNumber, err)
	}

	if err := l.batches.UpdateAttributes(tx, batch.ID, receiptAttributes(line, actor)); err != nil {
		return nil, fmt.Errorf("update batch %s: %w", batch.ID, err)
	}
	if err := l.batches.IncrementStock(tx, batch.ID, line.Quantity, actor); err != nil {
		return nil, fmt.Errorf("increment batch %s: %w", batch.ID, err)
	}

	batch, err = l.batches.Get(tx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("reload batch: %w", err)
	}
	return &ReceiptResult{
		Product:           product,
		ProductResolution: productRes,
		Batch:             batch,
		BatchResolution:   batchRes,
	}, nil
}

// receiptAttributes only carries supplied values, so an empty field on a later
// bill never blanks out what an earlier bill recorded. The latest purchase
// terms always reflect this bill.
func receiptAttributes(line ReceiptLine, actor string) map[string]interface{} {
	updates := map[string]interface{}{
		"latest_purchase_rate":    line.PurchaseRate,
		"latest_tax_percent":      line.TaxPercent,
		"latest_discount_percent": line.DiscountPercent,
		"updated_by":              actor,
	}
	if b := strings.TrimSpace(line.Barcode); b != "" {
		updates["barcode"] = b
	}
	if line.ExpiryDate != nil && !line.ExpiryDate.IsZero() {
		updates["expiry_date"] = *line.ExpiryDate
	}
	if !line.MRP.IsZero() {
		updates["mrp"] = line.MRP
	}
	if !line.TaxPercent.IsZero() {
		updates["tax_rate"] = line.TaxPercent
	}
	return updates
}

// ApplyConsumption checks every line before touching any batch. The decrement
// itself is conditional, so a concurrent sale that drains a batch between the
// check and the write still fails cleanly and the caller's transaction rolls back.
func (l *stockLedger) ApplyConsumption(ctx context.Context, tx *gorm.DB, lines []ConsumptionLine, actor string) ([]ConsumptionResult, error) {
	if len(lines) == 0 {
		return nil, apperror.Validation("at least one item is required")
	}
	tx = tx.WithContext(ctx)

	resolved := make([]model.BatchView, len(lines))
	demand := make(map[uuid.UUID]int64, len(lines))

	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperror.Validation("quantity must be positive",
				apperror.FieldError{Field: fmt.Sprintf("items[%d].quantity_sold", i), Message: "must be greater than 0"})
		}
		candidates, err := l.batches.FindForConsumption(tx, line.BatchNumber, line.Barcode)
		if err != nil {
			return nil, fmt.Errorf("lookup batch %q: %w", line.BatchNumber, err)
		}
		if len(candidates) == 0 {
			return nil, apperror.NotFound("batch %q with barcode %q not found", line.BatchNumber, line.Barcode)
		}
		view, ok := matchProduct(candidates, line.ProductName)
		if !ok {
			return nil, apperror.Validation("product mismatch",
				apperror.FieldError{
					Field:   fmt.Sprintf("items[%d].product_name", i),
					Message: fmt.Sprintf("batch %q belongs to %q", line.BatchNumber, candidates[0].ProductName),
				})
		}

		demand[view.BatchID] += line.Quantity
		if demand[view.BatchID] > view.QuantityInStock {
			return nil, apperror.InsufficientStock("insufficient stock for %s (batch %s): requested %d, available %d",
				view.ProductName, view.BatchNumber, demand[view.BatchID], view.QuantityInStock)
		}
		resolved[i] = view
	}

	results := make([]ConsumptionResult, len(lines))
	remaining := make(map[uuid.UUID]int64, len(demand))
	for i, line := range lines {
		view := resolved[i]
		ok, err := l.batches.DecrementStock(tx, view.BatchID, line.Quantity, actor)
		if err != nil {
			return nil, fmt.Errorf("decrement batch %s: %w", view.BatchID, err)
		}
		if !ok {
			return nil, apperror.InsufficientStock("insufficient stock for %s (batch %s): stock changed during sale",
				view.ProductName, view.BatchNumber)
		}
		if _, seen := remaining[view.BatchID]; !seen {
			remaining[view.BatchID] = view.QuantityInStock
		}
		remaining[view.BatchID] -= line.Quantity
		results[i] = ConsumptionResult{Batch: view, Remaining: remaining[view.BatchID]}
	}
	return results, nil
}

func matchProduct(candidates []model.BatchView, productName string) (model.BatchView, bool) {
	want := model.NormalizeName(productName)
	for _, c := range candidates {
		if model.NormalizeName(c.ProductName) == want {
			return c, true
		}
	}
	return model.BatchView{}, false
}
