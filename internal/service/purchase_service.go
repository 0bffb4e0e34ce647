package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockpilot/internal/apperror"
	"stockpilot/internal/messaging"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PurchaseItemRequest struct {
	ProductName     string          `json:"product_name" validate:"required"`
	Category        string          `json:"category"`
	HSNCode         string          `json:"hsn_code"`
	Description     string          `json:"description"`
	BatchNumber     string          `json:"batch_number" validate:"required"`
	Barcode         string          `json:"barcode"`
	ExpiryDate      string          `json:"expiry_date"`
	Quantity        int64           `json:"quantity" validate:"gt=0"`
	PurchaseRate    decimal.Decimal `json:"purchase_rate" validate:"decimal_gte0"`
	MRP             decimal.Decimal `json:"mrp" validate:"decimal_gte0"`
	TaxPercent      decimal.Decimal `json:"tax_percent" validate:"decimal_gte0"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"decimal_gte0"`
}

// CreatePurchaseRequest identifies the vendor by id or, failing that, by exact name
type CreatePurchaseRequest struct {
	VendorID      string                `json:"vendor_id" validate:"omitempty,uuid"`
	VendorName    string                `json:"vendor_name" validate:"required_without=VendorID"`
	BillNo        string                `json:"bill_no" validate:"required"`
	PurchaseDate  string                `json:"purchase_date" validate:"required"`
	PaymentStatus string                `json:"payment_status"`
	Items         []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CreatePurchaseResult struct {
	Purchase *model.Purchase `json:"purchase"`
	Receipts []ReceiptResult `json:"receipts"`
}

type PurchaseService interface {
	Create(ctx context.Context, req *CreatePurchaseRequest, actor model.Actor) (*CreatePurchaseResult, error)
	List(ctx context.Context) ([]model.Purchase, error)
	Get(ctx context.Context, id uuid.UUID) (*model.PurchaseDetail, error)
}

type purchaseService struct {
	db        *gorm.DB
	purchases repository.PurchaseRepository
	vendors   repository.VendorRepository
	batches   repository.BatchRepository
	products  repository.ProductRepository
	ledger    StockLedger
	events    messaging.Publisher
	clock     Clock
	loc       *time.Location
	log       logger.Logger
}

func NewPurchaseService(
	db *gorm.DB,
	purchases repository.PurchaseRepository,
	vendors repository.VendorRepository,
	batches repository.BatchRepository,
	products repository.ProductRepository,
	ledger StockLedger,
	events messaging.Publisher,
	clock Clock,
	loc *time.Location,
	log logger.Logger,
) PurchaseService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &purchaseService{
		db:        db,
		purchases: purchases,
		vendors:   vendors,
		batches:   batches,
		products:  products,
		ledger:    ledger,
		events:    events,
		clock:     clock,
		loc:       loc,
		log:       log.Named("purchase"),
	}
}

// PurchaseLineAmount applies the discount to the base and the tax to the discounted base
func PurchaseLineAmount(qty int64, rate, discountPercent, taxPercent decimal.Decimal) decimal.Decimal {
	base := decimal.NewFromInt(qty).Mul(rate)
	discount := base.Mul(discountPercent).Div(hundred)
	taxable := base.Sub(discount)
	tax := taxable.Mul(taxPercent).Div(hundred)
	return taxable.Add(tax)
}

func (s *purchaseService) resolveVendor(ctx context.Context, req *CreatePurchaseRequest) (*model.Vendor, error) {
	if req.VendorID != "" {
		id, err := uuid.Parse(req.VendorID)
		if err != nil {
			return nil, apperror.Validation("invalid vendor id", apperror.FieldError{Field: "vendor_id", Message: "must be a UUID"})
		}
		vendor, err := s.vendors.FindByID(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "vendor %s not found", id)
		}
		return vendor, nil
	}
	name := strings.TrimSpace(req.VendorName)
	vendor, err := s.vendors.FindByName(ctx, name)
	if err != nil {
		return nil, notFoundOr(err, "vendor %q not found", name)
	}
	return vendor, nil
}

func (s *purchaseService) Create(ctx context.Context, req *CreatePurchaseRequest, actor model.Actor) (*CreatePurchaseResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	purchaseDate, err := parseDate("purchase_date", req.PurchaseDate, s.loc)
	if err != nil {
		return nil, err
	}
	status := model.PaymentPending
	if req.PaymentStatus != "" {
		status = model.PaymentStatus(req.PaymentStatus)
		if !status.Valid() {
			return nil, apperror.Validation("invalid payment status",
				apperror.FieldError{Field: "payment_status", Message: "must be one of Pending, Paid, Partial"})
		}
	}

	lines := make([]ReceiptLine, len(req.Items))
	amounts := make([]decimal.Decimal, len(req.Items))
	total := decimal.Zero
	for i, it := range req.Items {
		expiry, err := parseOptionalDate(fmt.Sprintf("items[%d].expiry_date", i), it.ExpiryDate, s.loc)
		if err != nil {
			return nil, err
		}
		lines[i] = ReceiptLine{
			ProductName:     strings.TrimSpace(it.ProductName),
			Category:        it.Category,
			TaxCode:         it.HSNCode,
			Description:     it.Description,
			BatchNumber:     strings.TrimSpace(it.BatchNumber),
			Barcode:         it.Barcode,
			ExpiryDate:      expiry,
			MRP:             it.MRP,
			Quantity:        it.Quantity,
			PurchaseRate:    it.PurchaseRate,
			TaxPercent:      it.TaxPercent,
			DiscountPercent: it.DiscountPercent,
		}
		amounts[i] = PurchaseLineAmount(it.Quantity, it.PurchaseRate, it.DiscountPercent, it.TaxPercent)
		total = total.Add(amounts[i])
	}

	vendor, err := s.resolveVendor(ctx, req)
	if err != nil {
		return nil, err
	}

	purchase := &model.Purchase{
		VendorID:      vendor.ID,
		BillNo:        strings.TrimSpace(req.BillNo),
		PurchaseDate:  purchaseDate,
		TotalAmount:   total.Round(2),
		PaymentStatus: status,
	}
	purchase.CreatedBy = actor.ID
	purchase.UpdatedBy = actor.ID

	receipts := make([]ReceiptResult, 0, len(lines))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.purchases.Create(tx, purchase); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		items := make([]model.PurchaseItem, 0, len(lines))
		for i, line := range lines {
			res, err := s.ledger.ApplyReceipt(ctx, tx, line, actor.ID)
			if err != nil {
				return err
			}
			receipts = append(receipts, *res)

			item := model.PurchaseItem{
				PurchaseID:      purchase.ID,
				BatchID:         res.Batch.ID,
				Quantity:        line.Quantity,
				PurchaseRate:    line.PurchaseRate,
				TaxPercent:      line.TaxPercent,
				DiscountPercent: line.DiscountPercent,
				Amount:          amounts[i],
			}
			item.CreatedBy = actor.ID
			item.UpdatedBy = actor.ID
			items = append(items, item)
		}
		if err := s.purchases.CreateItems(tx, items); err != nil {
			return fmt.Errorf("create purchase items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	purchase.Vendor = vendor.Summary()

	s.log.Info("purchase recorded",
		zap.String("bill_no", purchase.BillNo),
		zap.String("vendor", vendor.Name),
		zap.Int("items", len(lines)),
		zap.String("total", purchase.TotalAmount.StringFixed(2)))
	publish(ctx, s.events, s.log, newEvent(s.clock(), model.EventPurchaseRecorded, purchase.ID.String(),
		fmt.Sprintf("%s recorded purchase %s from %s", actor.Name, purchase.BillNo, vendor.Name), actor, purchase))

	for _, r := range receipts {
		if r.ProductResolution == model.Created {
			publish(ctx, s.events, s.log, newEvent(s.clock(), model.EventProductCreated, r.Product.ID.String(),
				fmt.Sprintf("product %s created from purchase %s", r.Product.Name, purchase.BillNo), actor, r.Product))
		}
	}
	return &CreatePurchaseResult{Purchase: purchase, Receipts: receipts}, nil
}

func (s *purchaseService) List(ctx context.Context) ([]model.Purchase, error) {
	purchases, err := s.purchases.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	ids := make([]uuid.UUID, len(purchases))
	for i, p := range purchases {
		ids[i] = p.VendorID
	}
	vendors, err := s.vendors.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	for i := range purchases {
		if v, ok := vendors[purchases[i].VendorID]; ok {
			purchases[i].Vendor = v.Summary()
		}
	}
	if purchases == nil {
		purchases = []model.Purchase{}
	}
	return purchases, nil
}

func (s *purchaseService) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseDetail, error) {
	purchase, err := s.purchases.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "purchase %s not found", id)
	}
	vendor, err := s.vendors.FindByID(ctx, purchase.VendorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load vendor: %w", err)
	}
	purchase.Vendor = vendor.Summary()

	items, err := s.purchases.FindItems(ctx, purchase.ID)
	if err != nil {
		return nil, fmt.Errorf("load purchase items: %w", err)
	}
	batchIDs := make([]uuid.UUID, len(items))
	for i, it := range items {
		batchIDs[i] = it.BatchID
	}
	batches, err := s.batches.FindByIDs(ctx, batchIDs)
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	productIDs := make([]uuid.UUID, 0, len(batches))
	for _, b := range batches {
		productIDs = append(productIDs, b.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	details := make([]model.PurchaseItemDetail, len(items))
	for i, it := range items {
		d := model.PurchaseItemDetail{PurchaseItem: it}
		if b, ok := batches[it.BatchID]; ok {
			d.BatchNumber = b.BatchNumber
			d.Barcode = b.Barcode
			d.ExpiryDate = b.ExpiryDate
			d.ProductID = b.ProductID
			if p, ok := products[b.ProductID]; ok {
				d.ProductName = p.Name
				d.Category = p.Category
			}
		}
		details[i] = d
	}
	return &model.PurchaseDetail{Purchase: purchase, Items: details}, nil
}
