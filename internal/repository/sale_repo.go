package repository

import (
	"context"
	"strings"

	"stockpilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(tx *gorm.DB, sale *model.Sale) error
	CreateItems(tx *gorm.DB, items []model.SaleItem) error
	FindAll(ctx context.Context, search string) ([]model.Sale, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	ExistsBillNo(ctx context.Context, billNo string) (bool, error)
	FindItems(ctx context.Context, saleID uuid.UUID) ([]model.SaleItem, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Create(sale).Error
}

func (r *saleRepo) CreateItems(tx *gorm.DB, items []model.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

// FindAll lists sales newest first, optionally filtered by bill number or customer
func (r *saleRepo) FindAll(ctx context.Context, search string) ([]model.Sale, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{})
	if s := strings.ToLower(strings.TrimSpace(search)); s != "" {
		pattern := "%" + s + "%"
		q = q.Where("LOWER(bill_no) LIKE ? OR LOWER(customer_name) LIKE ? OR customer_phone LIKE ?", pattern, pattern, pattern)
	}
	var sales []model.Sale
	err := q.Order("date DESC, created_at DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) ExistsBillNo(ctx context.Context, billNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Sale{}).Where("bill_no = ?", billNo).Count(&count).Error
	return count > 0, err
}

func (r *saleRepo) FindItems(ctx context.Context, saleID uuid.UUID) ([]model.SaleItem, error) {
	var items []model.SaleItem
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Order("created_at ASC").Find(&items).Error
	return items, err
}
