package repository

import (
	"context"
	"strings"

	"stockpilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchRepository owns product_batches and every stock quantity mutation.
// Methods taking tx must be called inside the caller's transaction.
type BatchRepository interface {
	Resolve(tx *gorm.DB, productID uuid.UUID, batchNumber, actor string) (*model.ProductBatch, model.Resolution, error)
	UpdateAttributes(tx *gorm.DB, batchID uuid.UUID, updates map[string]interface{}) error
	IncrementStock(tx *gorm.DB, batchID uuid.UUID, qty int64, actor string) error
	DecrementStock(tx *gorm.DB, batchID uuid.UUID, qty int64, actor string) (bool, error)
	FindForConsumption(tx *gorm.DB, batchNumber, barcode string) ([]model.BatchView, error)
	Get(tx *gorm.DB, id uuid.UUID) (*model.ProductBatch, error)

	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductBatch, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ProductBatch, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductBatch, error)
	LatestByProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*model.ProductBatch, error)
	SearchInStock(ctx context.Context, query string, limit int) ([]model.BatchView, error)
	StockByProduct(ctx context.Context) ([]model.ProductStock, error)
	TotalStock(ctx context.Context, productID uuid.UUID) (int64, error)
}

type batchRepo struct {
	db *gorm.DB
}

func NewBatchRepo(db *gorm.DB) BatchRepository {
	return &batchRepo{db}
}

const batchViewColumns = `b.id AS batch_id, b.product_id, p.name AS product_name, b.batch_number, b.barcode,
b.expiry_date, b.mrp, b.tax_rate, b.quantity_in_stock`

func (r *batchRepo) Resolve(tx *gorm.DB, productID uuid.UUID, batchNumber, actor string) (*model.ProductBatch, model.Resolution, error) {
	candidate := model.ProductBatch{
		ProductID:   productID,
		BatchNumber: strings.TrimSpace(batchNumber),
	}
	candidate.CreatedBy = actor
	candidate.UpdatedBy = actor

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "batch_number"}},
		DoNothing: true,
	}).Create(&candidate)
	if res.Error != nil {
		return nil, "", res.Error
	}
	if res.RowsAffected == 1 {
		return &candidate, model.Created, nil
	}

	var existing model.ProductBatch
	err := tx.Where("product_id = ? AND batch_number = ?", productID, candidate.BatchNumber).First(&existing).Error
	if err != nil {
		return nil, "", err
	}
	return &existing, model.Found, nil
}

func (r *batchRepo) UpdateAttributes(tx *gorm.DB, batchID uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&model.ProductBatch{}).Where("id = ?", batchID).Updates(updates).Error
}

// IncrementStock adds qty in a single statement so concurrent receipts both land
func (r *batchRepo) IncrementStock(tx *gorm.DB, batchID uuid.UUID, qty int64, actor string) error {
	return tx.Model(&model.ProductBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"quantity_in_stock": gorm.Expr("quantity_in_stock + ?", qty),
			"updated_by":        actor,
		}).Error
}

// DecrementStock subtracts qty only when enough stock remains. It reports
// false, with no error, when the guard rejected the update.
func (r *batchRepo) DecrementStock(tx *gorm.DB, batchID uuid.UUID, qty int64, actor string) (bool, error) {
	res := tx.Model(&model.ProductBatch{}).
		Where("id = ? AND quantity_in_stock >= ?", batchID, qty).
		Updates(map[string]interface{}{
			"quantity_in_stock": gorm.Expr("quantity_in_stock - ?", qty),
			"updated_by":        actor,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *batchRepo) FindForConsumption(tx *gorm.DB, batchNumber, barcode string) ([]model.BatchView, error) {
	var views []model.BatchView
	err := tx.Table("product_batches AS b").
		Select(batchViewColumns).
		Joins("JOIN products p ON p.id = b.product_id AND p.deleted_at IS NULL").
		Where("b.deleted_at IS NULL AND b.batch_number = ? AND b.barcode = ?", batchNumber, barcode).
		Scan(&views).Error
	return views, err
}

func (r *batchRepo) Get(tx *gorm.DB, id uuid.UUID) (*model.ProductBatch, error) {
	var batch model.ProductBatch
	if err := tx.First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductBatch, error) {
	var batch model.ProductBatch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ProductBatch, error) {
	out := make(map[uuid.UUID]*model.ProductBatch, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var batches []model.ProductBatch
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&batches).Error; err != nil {
		return nil, err
	}
	for i := range batches {
		out[batches[i].ID] = &batches[i]
	}
	return out, nil
}

func (r *batchRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductBatch, error) {
	var batches []model.ProductBatch
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&batches).Error
	return batches, err
}

// LatestByProducts returns the most recently created batch of each product
func (r *batchRepo) LatestByProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]*model.ProductBatch, error) {
	out := make(map[uuid.UUID]*model.ProductBatch, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var batches []model.ProductBatch
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("created_at DESC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	for i := range batches {
		if _, seen := out[batches[i].ProductID]; !seen {
			out[batches[i].ProductID] = &batches[i]
		}
	}
	return out, nil
}

func (r *batchRepo) SearchInStock(ctx context.Context, query string, limit int) ([]model.BatchView, error) {
	var views []model.BatchView
	q := strings.TrimSpace(query)
	err := r.db.WithContext(ctx).
		Table("product_batches AS b").
		Select(batchViewColumns).
		Joins("JOIN products p ON p.id = b.product_id AND p.deleted_at IS NULL").
		Where("b.deleted_at IS NULL AND b.quantity_in_stock > 0").
		Where("p.normalized_name LIKE ? OR b.barcode LIKE ?", "%"+strings.ToLower(q)+"%", "%"+q+"%").
		Order("p.normalized_name ASC, b.expiry_date ASC").
		Limit(limit).
		Scan(&views).Error
	return views, err
}

func (r *batchRepo) StockByProduct(ctx context.Context) ([]model.ProductStock, error) {
	var rows []model.ProductStock
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select(`p.id AS product_id, p.name AS product_name, p.category, p.tax_code,
			COALESCE(SUM(b.quantity_in_stock), 0) AS total_quantity,
			COALESCE(SUM(b.quantity_in_stock * b.mrp), 0) AS stock_value,
			COUNT(b.id) AS batch_count`).
		Joins("LEFT JOIN product_batches b ON b.product_id = p.id AND b.deleted_at IS NULL").
		Where("p.deleted_at IS NULL").
		Group("p.id, p.name, p.category, p.tax_code").
		Order("p.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *batchRepo) TotalStock(ctx context.Context, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.ProductBatch{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity_in_stock), 0)").
		Scan(&total).Error
	return total, err
}
