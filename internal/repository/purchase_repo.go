package repository

import (
	"context"

	"stockpilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(tx *gorm.DB, purchase *model.Purchase) error
	CreateItems(tx *gorm.DB, items []model.PurchaseItem) error
	FindAll(ctx context.Context) ([]model.Purchase, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindItems(ctx context.Context, purchaseID uuid.UUID) ([]model.PurchaseItem, error)
}

type purchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db}
}

func (r *purchaseRepo) Create(tx *gorm.DB, purchase *model.Purchase) error {
	return tx.Create(purchase).Error
}

func (r *purchaseRepo) CreateItems(tx *gorm.DB, items []model.PurchaseItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

func (r *purchaseRepo) FindAll(ctx context.Context) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := r.db.WithContext(ctx).Order("purchase_date DESC, created_at DESC").Find(&purchases).Error
	return purchases, err
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := r.db.WithContext(ctx).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepo) FindItems(ctx context.Context, purchaseID uuid.UUID) ([]model.PurchaseItem, error) {
	var items []model.PurchaseItem
	err := r.db.WithContext(ctx).Where("purchase_id = ?", purchaseID).Order("created_at ASC").Find(&items).Error
	return items, err
}
