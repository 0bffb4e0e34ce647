package repository

import (
	"context"
	"strings"

	"stockpilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
	Search(ctx context.Context, query string, limit int) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error

	// Resolve runs inside the caller's transaction
	Resolve(tx *gorm.DB, attrs model.Product) (*model.Product, model.Resolution, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	product.NormalizedName = model.NormalizeName(product.Name)
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("normalized_name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	out := make(map[uuid.UUID]*model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

// FindByName matches case-insensitively on the exact trimmed name
func (r *productRepo) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("normalized_name = ?", model.NormalizeName(name)).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Search(ctx context.Context, query string, limit int) ([]model.Product, error) {
	var products []model.Product
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	err := r.db.WithContext(ctx).
		Where("normalized_name LIKE ?", pattern).
		Order("normalized_name ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	product.NormalizedName = model.NormalizeName(product.Name)
	return r.db.WithContext(ctx).Save(product).Error
}

// Resolve inserts the product unless one with the same normalized name exists.
// The insert is ON CONFLICT DO NOTHING followed by a reselect, so two
// concurrent receipts of a new product converge on one row.
func (r *productRepo) Resolve(tx *gorm.DB, attrs model.Product) (*model.Product, model.Resolution, error) {
	candidate := model.Product{
		Name:           strings.TrimSpace(attrs.Name),
		NormalizedName: model.NormalizeName(attrs.Name),
		Category:       attrs.Category,
		TaxCode:        attrs.TaxCode,
		Description:    attrs.Description,
	}
	candidate.CreatedBy = attrs.CreatedBy
	candidate.UpdatedBy = attrs.CreatedBy

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "normalized_name"}},
		DoNothing: true,
	}).Create(&candidate)
	if res.Error != nil {
		return nil, "", res.Error
	}
	if res.RowsAffected == 1 {
		return &candidate, model.Created, nil
	}

	var existing model.Product
	if err := tx.Where("normalized_name = ?", candidate.NormalizedName).First(&existing).Error; err != nil {
		return nil, "", err
	}
	return &existing, model.Found, nil
}
