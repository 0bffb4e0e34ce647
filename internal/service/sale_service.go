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

const (
	defaultCustomerName = "Cash Customer"
	saleSearchLimit     = 10
)

type SaleItemRequest struct {
	ProductName        string          `json:"product_name" validate:"required"`
	BatchNumber        string          `json:"batch_number" validate:"required"`
	Barcode            string          `json:"barcode"`
	QuantitySold       int64           `json:"quantity_sold" validate:"gt=0"`
	SellingPrice       decimal.Decimal `json:"selling_price" validate:"decimal_gte0"`
	MRP                decimal.Decimal `json:"mrp" validate:"decimal_gte0"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" validate:"decimal_gte0"`
}

type CreateSaleRequest struct {
	Date               string            `json:"date"`
	CustomerName       string            `json:"customer_name"`
	CustomerPhone      string            `json:"customer_phone"`
	CustomerEmail      string            `json:"customer_email" validate:"omitempty,email"`
	BillNo             string            `json:"bill_no"`
	DiscountPercentage decimal.Decimal   `json:"discount_percentage" validate:"decimal_gte0"`
	Tax                decimal.Decimal   `json:"tax" validate:"decimal_gte0"`
	PaymentMethod      string            `json:"payment_method"`
	Items              []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type SaleService interface {
	Create(ctx context.Context, req *CreateSaleRequest, actor model.Actor) (*model.SaleDetail, error)
	List(ctx context.Context, search string) ([]model.Sale, error)
	Get(ctx context.Context, id uuid.UUID) (*model.SaleDetail, error)
	SearchProducts(ctx context.Context, query string) ([]model.BatchView, error)
	NextBillNumber(ctx context.Context) (string, error)
}

type saleService struct {
	db        *gorm.DB
	sales     repository.SaleRepository
	batches   repository.BatchRepository
	ledger    StockLedger
	sequences SequenceGenerator
	events    messaging.Publisher
	clock     Clock
	loc       *time.Location
	log       logger.Logger
}

func NewSaleService(
	db *gorm.DB,
	sales repository.SaleRepository,
	batches repository.BatchRepository,
	ledger StockLedger,
	sequences SequenceGenerator,
	events messaging.Publisher,
	clock Clock,
	loc *time.Location,
	log logger.Logger,
) SaleService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &saleService{
		db:        db,
		sales:     sales,
		batches:   batches,
		ledger:    ledger,
		sequences: sequences,
		events:    events,
		clock:     clock,
		loc:       loc,
		log:       log.Named("sale"),
	}
}

// SaleLineAmount is price x quantity less the line discount, rounded to paise
func SaleLineAmount(price decimal.Decimal, qty int64, discountPercent decimal.Decimal) decimal.Decimal {
	gross := price.Mul(decimal.NewFromInt(qty))
	return gross.Mul(hundred.Sub(discountPercent)).Div(hundred).Round(2)
}

type saleTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

func computeSaleTotals(amounts []decimal.Decimal, discountPercent, tax decimal.Decimal) saleTotals {
	subtotal := decimal.Zero
	for _, a := range amounts {
		subtotal = subtotal.Add(a)
	}
	discount := subtotal.Mul(discountPercent).Div(hundred).Round(2)
	return saleTotals{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: discount,
		Total:          subtotal.Sub(discount).Add(tax).Round(2),
	}
}

func (s *saleService) Create(ctx context.Context, req *CreateSaleRequest, actor model.Actor) (*model.SaleDetail, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.DiscountPercentage.GreaterThan(hundred) {
		return nil, apperror.Validation("discount cannot exceed 100%",
			apperror.FieldError{Field: "discount_percentage", Message: "must be 100 or less"})
	}
	for i, it := range req.Items {
		if it.DiscountPercentage.GreaterThan(hundred) {
			return nil, apperror.Validation("discount cannot exceed 100%",
				apperror.FieldError{Field: fmt.Sprintf("items[%d].discount_percentage", i), Message: "must be 100 or less"})
		}
	}

	method := model.PayCard
	if req.PaymentMethod != "" {
		method = model.PaymentMethod(strings.ToUpper(req.PaymentMethod))
		if !method.Valid() {
			return nil, apperror.Validation("invalid payment method",
				apperror.FieldError{Field: "payment_method", Message: "must be one of CASH, CARD, UPI"})
		}
	}
	date := s.clock()
	if strings.TrimSpace(req.Date) != "" {
		d, err := parseDate("date", req.Date, s.loc)
		if err != nil {
			return nil, err
		}
		date = d
	}
	customer := strings.TrimSpace(req.CustomerName)
	if customer == "" {
		customer = defaultCustomerName
	}

	billNo := strings.TrimSpace(req.BillNo)
	if billNo == "" {
		n, err := s.sequences.NextBillNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate bill number: %w", err)
		}
		billNo = n
	} else {
		exists, err := s.sales.ExistsBillNo(ctx, billNo)
		if err != nil {
			return nil, fmt.Errorf("check bill number: %w", err)
		}
		if exists {
			return nil, apperror.Conflict("bill number %s already exists", billNo)
		}
	}

	lines := make([]ConsumptionLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = ConsumptionLine{
			ProductName: strings.TrimSpace(it.ProductName),
			BatchNumber: strings.TrimSpace(it.BatchNumber),
			Barcode:     strings.TrimSpace(it.Barcode),
			Quantity:    it.QuantitySold,
		}
	}

	sale := &model.Sale{
		Date:               date,
		CustomerName:       customer,
		CustomerPhone:      strings.TrimSpace(req.CustomerPhone),
		CustomerEmail:      strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		BillNo:             billNo,
		DiscountPercentage: req.DiscountPercentage,
		Tax:                req.Tax.Round(2),
		PaymentMethod:      method,
	}
	sale.CreatedBy = actor.ID
	sale.UpdatedBy = actor.ID

	var items []model.SaleItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed, err := s.ledger.ApplyConsumption(ctx, tx, lines, actor.ID)
		if err != nil {
			return err
		}

		items = make([]model.SaleItem, len(req.Items))
		amounts := make([]decimal.Decimal, len(req.Items))
		for i, it := range req.Items {
			view := consumed[i].Batch
			mrp := it.MRP
			if mrp.IsZero() {
				mrp = view.MRP
			}
			amounts[i] = SaleLineAmount(it.SellingPrice, it.QuantitySold, it.DiscountPercentage)
			items[i] = model.SaleItem{
				BatchID:            view.BatchID,
				ProductName:        view.ProductName,
				BatchNumber:        view.BatchNumber,
				Barcode:            view.Barcode,
				QuantitySold:       it.QuantitySold,
				SellingPrice:       it.SellingPrice,
				MRP:                mrp,
				DiscountPercentage: it.DiscountPercentage,
				Amount:             amounts[i],
				ExpiryDate:         view.ExpiryDate,
			}
			items[i].CreatedBy = actor.ID
			items[i].UpdatedBy = actor.ID
		}

		totals := computeSaleTotals(amounts, req.DiscountPercentage, sale.Tax)
		sale.Subtotal = totals.Subtotal
		sale.DiscountAmount = totals.DiscountAmount
		sale.Total = totals.Total

		if err := s.sales.Create(tx, sale); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("bill number %s already exists", billNo)
			}
			return fmt.Errorf("create sale: %w", err)
		}
		for i := range items {
			items[i].SaleID = sale.ID
		}
		if err := s.sales.CreateItems(tx, items); err != nil {
			return fmt.Errorf("create sale items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("sale recorded",
		zap.String("bill_no", sale.BillNo),
		zap.Int("items", len(items)),
		zap.String("total", sale.Total.StringFixed(2)))
	detail := &model.SaleDetail{Sale: sale, Items: items}
	publish(ctx, s.events, s.log, newEvent(s.clock(), model.EventSaleRecorded, sale.ID.String(),
		fmt.Sprintf("%s recorded sale %s", actor.Name, sale.BillNo), actor, detail))
	return detail, nil
}

func (s *saleService) List(ctx context.Context, search string) ([]model.Sale, error) {
	sales, err := s.sales.FindAll(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if sales == nil {
		sales = []model.Sale{}
	}
	return sales, nil
}

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*model.SaleDetail, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "sale %s not found", id)
	}
	items, err := s.sales.FindItems(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	return &model.SaleDetail{Sale: sale, Items: items}, nil
}

// SearchProducts lists in-stock batches whose product name or barcode matches
func (s *saleService) SearchProducts(ctx context.Context, query string) ([]model.BatchView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.BatchView{}, nil
	}
	views, err := s.batches.SearchInStock(ctx, query, saleSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search batches: %w", err)
	}
	if views == nil {
		views = []model.BatchView{}
	}
	return views, nil
}

func (s *saleService) NextBillNumber(ctx context.Context) (string, error) {
	n, err := s.sequences.PreviewBillNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("preview bill number: %w", err)
	}
	return n, nil
}
