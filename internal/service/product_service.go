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
	"gorm.io/gorm"
)

const productSearchLimit = 20

type ProductRequest struct {
	Name        string `json:"product_name" validate:"required,max=255"`
	Category    string `json:"category" validate:"max=100"`
	HSNCode     string `json:"hsn_code" validate:"max=30"`
	Description string `json:"description"`
}

type ProductDetail struct {
	model.Product
	TotalStock int64                `json:"total_stock"`
	Batches    []model.ProductBatch `json:"batches"`
}

type ProductService interface {
	Create(ctx context.Context, req *ProductRequest, actor model.Actor) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	Update(ctx context.Context, id uuid.UUID, req *ProductRequest, actor model.Actor) (*model.Product, error)
	Search(ctx context.Context, query string) ([]model.ProductSearchResult, error)
	LowStock(ctx context.Context) ([]model.ProductStock, error)
}

type productService struct {
	products  repository.ProductRepository
	batches   repository.BatchRepository
	events    messaging.Publisher
	threshold int64
	clock     Clock
	log       logger.Logger
}

func NewProductService(
	products repository.ProductRepository,
	batches repository.BatchRepository,
	events messaging.Publisher,
	lowStockThreshold int,
	clock Clock,
	log logger.Logger,
) ProductService {
	if clock == nil {
		clock = time.Now
	}
	return &productService{
		products:  products,
		batches:   batches,
		events:    events,
		threshold: int64(lowStockThreshold),
		clock:     clock,
		log:       log.Named("product"),
	}
}

// ensureNameFree rejects a name that case-insensitively matches a product other than self
func (s *productService) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.products.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check product name: %w", err)
	}
	if existing.ID != self {
		return apperror.Conflict("product %q already exists", existing.Name)
	}
	return nil
}

func (s *productService) Create(ctx context.Context, req *ProductRequest, actor model.Actor) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, req.Name, uuid.Nil); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        req.Name,
		Category:    strings.TrimSpace(req.Category),
		TaxCode:     strings.TrimSpace(req.HSNCode),
		Description: req.Description,
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID
	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("product %q already exists", req.Name)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	publish(ctx, s.events, s.log, newEvent(s.clock(), model.EventProductCreated, product.ID.String(),
		fmt.Sprintf("%s created product '%s'", actor.Name, product.Name), actor, product))
	return product, nil
}

func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product %s not found", id)
	}
	batches, err := s.batches.FindByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	detail := &ProductDetail{Product: *product, Batches: batches}
	if detail.Batches == nil {
		detail.Batches = []model.ProductBatch{}
	}
	for _, b := range batches {
		detail.TotalStock += b.QuantityInStock
	}
	return detail, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req *ProductRequest, actor model.Actor) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product %s not found", id)
	}
	if err := s.ensureNameFree(ctx, req.Name, product.ID); err != nil {
		return nil, err
	}

	product.Name = req.Name
	product.Category = strings.TrimSpace(req.Category)
	product.TaxCode = strings.TrimSpace(req.HSNCode)
	product.Description = req.Description
	product.UpdatedBy = actor.ID
	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("product %q already exists", req.Name)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// Search returns matching products with the newest batch's purchase terms,
// used to pre-fill purchase entry.
func (s *productService) Search(ctx context.Context, query string) ([]model.ProductSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.ProductSearchResult{}, nil
	}
	products, err := s.products.Search(ctx, query, productSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	latest, err := s.batches.LatestByProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load latest batches: %w", err)
	}

	results := make([]model.ProductSearchResult, len(products))
	for i, p := range products {
		results[i] = model.ProductSearchResult{Product: p}
		if b, ok := latest[p.ID]; ok {
			results[i].LatestDetails = &model.LatestBatchDetails{
				BatchNumber:     b.BatchNumber,
				Barcode:         b.Barcode,
				MRP:             b.MRP,
				ExpiryDate:      b.ExpiryDate,
				PurchaseRate:    b.LatestPurchaseRate,
				TaxPercent:      b.LatestTaxPercent,
				DiscountPercent: b.LatestDiscountPercent,
			}
		}
	}
	return results, nil
}

// LowStock lists products whose total stock is at or below the threshold
func (s *productService) LowStock(ctx context.Context) ([]model.ProductStock, error) {
	rows, err := s.batches.StockByProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock by product: %w", err)
	}
	out := make([]model.ProductStock, 0)
	for _, r := range rows {
		if r.TotalQuantity <= s.threshold {
			out = append(out, r)
		}
	}
	return out, nil
}
