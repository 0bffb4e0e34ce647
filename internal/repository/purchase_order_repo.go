package repository

import (
	"context"

	"stockpilot/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *model.PurchaseOrder) error
	FindAll(ctx context.Context, filter model.OrderFilter) ([]model.PurchaseOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	FindItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.PurchaseOrderItem, error)
	UpdateContent(ctx context.Context, order *model.PurchaseOrder, replaceItems bool) (bool, error)
	UpdateStatus(ctx context.Context, order *model.PurchaseOrder, from model.OrderStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) (bool, error)
	Stats(ctx context.Context) (*model.OrderStats, error)
}

type purchaseOrderRepo struct {
	db *gorm.DB
}

func NewPurchaseOrderRepo(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db}
}

// Create writes the order row and its items in one transaction
func (r *purchaseOrderRepo) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return createOrderItems(tx, order)
	})
}

func createOrderItems(tx *gorm.DB, order *model.PurchaseOrder) error {
	if len(order.Items) == 0 {
		return nil
	}
	for i := range order.Items {
		order.Items[i].ID = uuid.Nil
		order.Items[i].OrderID = order.ID
		order.Items[i].LineNo = i + 1
		order.Items[i].CreatedBy = order.UpdatedBy
		order.Items[i].UpdatedBy = order.UpdatedBy
	}
	return tx.Create(&order.Items).Error
}

func (r *purchaseOrderRepo) FindAll(ctx context.Context, filter model.OrderFilter) ([]model.PurchaseOrder, error) {
	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.VendorID != nil {
		q = q.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	var orders []model.PurchaseOrder
	err := q.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	items, err := r.FindItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return &order, nil
}

func (r *purchaseOrderRepo) FindItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.PurchaseOrderItem, error) {
	out := make(map[uuid.UUID][]model.PurchaseOrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var items []model.PurchaseOrderItem
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("line_no ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

// UpdateContent saves editable fields, guarded on the order still being
// editable so a concurrent status change wins. It reports false when the guard
// rejected the write.
func (r *purchaseOrderRepo) UpdateContent(ctx context.Context, order *model.PurchaseOrder, replaceItems bool) (bool, error) {
	updated := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.PurchaseOrder{}).
			Where("id = ? AND status IN ?", order.ID, []model.OrderStatus{model.StatusDraft, model.StatusSent}).
			Select("vendor_id", "order_date", "expected_delivery", "priority", "notes", "terms", "total_amount", "updated_by", "updated_at").
			Updates(order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		updated = true
		if !replaceItems {
			return nil
		}
		if err := tx.Unscoped().Where("order_id = ?", order.ID).Delete(&model.PurchaseOrderItem{}).Error; err != nil {
			return err
		}
		return createOrderItems(tx, order)
	})
	return updated, err
}

// UpdateStatus is a compare-and-set on the previous status
func (r *purchaseOrderRepo) UpdateStatus(ctx context.Context, order *model.PurchaseOrder, from model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.PurchaseOrder{}).
		Where("id = ? AND status = ?", order.ID, from).
		Select("status", "sent_date", "confirmed_date", "received_date", "updated_by", "updated_at").
		Updates(order)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes a Draft order with its items; false means it was no longer a draft
func (r *purchaseOrderRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", id, model.StatusDraft).Delete(&model.PurchaseOrder{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Unscoped().Model(&model.PurchaseOrder{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("order_id = ?", id).Delete(&model.PurchaseOrderItem{}).Error
	})
	return deleted, err
}

type orderStatusRow struct {
	Status model.OrderStatus
	Count  int64
	Total  decimal.Decimal
}

func (r *purchaseOrderRepo) Stats(ctx context.Context) (*model.OrderStats, error) {
	var rows []orderStatusRow
	err := r.db.WithContext(ctx).
		Model(&model.PurchaseOrder{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &model.OrderStats{TotalValue: decimal.Zero}
	for _, row := range rows {
		stats.TotalOrders += row.Count
		stats.TotalValue = stats.TotalValue.Add(row.Total)
		switch row.Status {
		case model.StatusDraft:
			stats.DraftOrders = row.Count
		case model.StatusSent:
			stats.SentOrders = row.Count
		case model.StatusConfirmed:
			stats.ConfirmedOrders = row.Count
		case model.StatusReceived:
			stats.ReceivedOrders = row.Count
		}
	}
	stats.TotalValue = stats.TotalValue.Round(2)
	return stats, nil
}
