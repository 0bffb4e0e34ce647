package repository

import (
	"context"
	"time"

	"stockpilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportRepository serves read-only aggregates over purchases and sales
// for the dashboard and the reorder fallback.
type ReportRepository interface {
	InboundSince(ctx context.Context, since time.Time) ([]model.QuantityAt, error)
	OutboundSince(ctx context.Context, since time.Time) ([]model.QuantityAt, error)
	UnitsSoldSince(ctx context.Context, productID uuid.UUID, since time.Time) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

// InboundSince returns received quantities dated by purchase date
func (r *reportRepo) InboundSince(ctx context.Context, since time.Time) ([]model.QuantityAt, error) {
	var rows []model.QuantityAt
	err := r.db.WithContext(ctx).
		Table("purchase_items AS pi").
		Select("p.purchase_date AS at, pi.quantity AS quantity").
		Joins("JOIN purchases p ON p.id = pi.purchase_id AND p.deleted_at IS NULL").
		Where("pi.deleted_at IS NULL AND p.purchase_date >= ?", since).
		Order("p.purchase_date ASC").
		Scan(&rows).Error
	return rows, err
}

// OutboundSince returns sold quantities dated by sale date
func (r *reportRepo) OutboundSince(ctx context.Context, since time.Time) ([]model.QuantityAt, error) {
	var rows []model.QuantityAt
	err := r.db.WithContext(ctx).
		Table("sale_items AS si").
		Select("s.date AS at, si.quantity_sold AS quantity").
		Joins("JOIN sales s ON s.id = si.sale_id AND s.deleted_at IS NULL").
		Where("si.deleted_at IS NULL AND s.date >= ?", since).
		Order("s.date ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) UnitsSoldSince(ctx context.Context, productID uuid.UUID, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Table("sale_items AS si").
		Select("COALESCE(SUM(si.quantity_sold), 0)").
		Joins("JOIN sales s ON s.id = si.sale_id AND s.deleted_at IS NULL").
		Joins("JOIN product_batches b ON b.id = si.batch_id").
		Where("si.deleted_at IS NULL AND b.product_id = ? AND s.date >= ?", productID, since).
		Scan(&total).Error
	return total, err
}

func (r *reportRepo) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error
	return count, err
}
