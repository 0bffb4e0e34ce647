package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockpilot/internal/apperror"
	"stockpilot/internal/document"
	"stockpilot/internal/messaging"
	"stockpilot/internal/model"
	"stockpilot/internal/notification"
	"stockpilot/internal/repository"
	"stockpilot/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderItemRequest struct {
	ProductName      string          `json:"product_name" validate:"required"`
	Description      string          `json:"description"`
	Quantity         int64           `json:"quantity" validate:"gt=0"`
	EstimatedRate    decimal.Decimal `json:"estimated_rate" validate:"decimal_gte0"`
	ExpectedDelivery string          `json:"expected_delivery"`
	Notes            string          `json:"notes"`
}

type CreateOrderRequest struct {
	VendorID         string             `json:"vendor_id" validate:"required,uuid"`
	OrderDate        string             `json:"order_date" validate:"required"`
	ExpectedDelivery string             `json:"expected_delivery" validate:"required"`
	Priority         string             `json:"priority"`
	Notes            string             `json:"notes"`
	Terms            string             `json:"terms"`
	Items            []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	SendWhatsApp     bool               `json:"send_whatsapp"`
	SendEmail        bool               `json:"send_email"`
}

// UpdateOrderRequest is a partial update; nil fields are left as they are and
// a non-nil Items replaces every line.
type UpdateOrderRequest struct {
	VendorID         *string            `json:"vendor_id" validate:"omitempty,uuid"`
	OrderDate        *string            `json:"order_date"`
	ExpectedDelivery *string            `json:"expected_delivery"`
	Priority         *string            `json:"priority"`
	Notes            *string            `json:"notes"`
	Terms            *string            `json:"terms"`
	Items            []OrderItemRequest `json:"items" validate:"omitempty,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateOrderResult struct {
	Order         *model.PurchaseOrder  `json:"order"`
	Notifications []notification.Result `json:"notifications,omitempty"`
}

type PurchaseOrderService interface {
	Create(ctx context.Context, req *CreateOrderRequest, actor model.Actor) (*CreateOrderResult, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.PurchaseOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateOrderRequest, actor model.Actor) (*model.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor model.Actor) (*model.PurchaseOrder, error)
	Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error
	Stats(ctx context.Context) (*model.OrderStats, error)
	PreviewNextNumber(ctx context.Context) (string, error)
	RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

type purchaseOrderService struct {
	orders     repository.PurchaseOrderRepository
	vendors    repository.VendorRepository
	sequences  SequenceGenerator
	dispatcher notification.Dispatcher
	events     messaging.Publisher
	clock      Clock
	loc        *time.Location
	log        logger.Logger
}

func NewPurchaseOrderService(
	orders repository.PurchaseOrderRepository,
	vendors repository.VendorRepository,
	sequences SequenceGenerator,
	dispatcher notification.Dispatcher,
	events messaging.Publisher,
	clock Clock,
	loc *time.Location,
	log logger.Logger,
) PurchaseOrderService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &purchaseOrderService{
		orders:     orders,
		vendors:    vendors,
		sequences:  sequences,
		dispatcher: dispatcher,
		events:     events,
		clock:      clock,
		loc:        loc,
		log:        log.Named("purchase_order"),
	}
}

// BuildOrderItems converts request lines to items with amount = quantity x rate
// and returns the order total rounded to two places.
func BuildOrderItems(lines []OrderItemRequest, loc *time.Location) ([]model.PurchaseOrderItem, decimal.Decimal, error) {
	items := make([]model.PurchaseOrderItem, 0, len(lines))
	sum := decimal.Zero
	for i, line := range lines {
		name := strings.TrimSpace(line.ProductName)
		if name == "" {
			return nil, decimal.Zero, apperror.Validation("product name is required",
				apperror.FieldError{Field: fmt.Sprintf("items[%d].product_name", i), Message: "required"})
		}
		if line.Quantity <= 0 {
			return nil, decimal.Zero, apperror.Validation("quantity must be positive",
				apperror.FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be greater than 0"})
		}
		if line.EstimatedRate.IsNegative() {
			return nil, decimal.Zero, apperror.Validation("estimated rate cannot be negative",
				apperror.FieldError{Field: fmt.Sprintf("items[%d].estimated_rate", i), Message: "must be 0 or more"})
		}
		expected, err := parseOptionalDate(fmt.Sprintf("items[%d].expected_delivery", i), line.ExpectedDelivery, loc)
		if err != nil {
			return nil, decimal.Zero, err
		}

		amount := decimal.NewFromInt(line.Quantity).Mul(line.EstimatedRate)
		sum = sum.Add(amount)
		items = append(items, model.PurchaseOrderItem{
			ProductName:      name,
			Description:      line.Description,
			Quantity:         line.Quantity,
			EstimatedRate:    line.EstimatedRate,
			ExpectedDelivery: expected,
			Notes:            line.Notes,
			Amount:           amount,
		})
	}
	return items, sum.Round(2), nil
}

func parsePriority(value string) (model.OrderPriority, error) {
	if strings.TrimSpace(value) == "" {
		return model.PriorityNormal, nil
	}
	p := model.OrderPriority(value)
	if !p.Valid() {
		return "", apperror.Validation("invalid priority",
			apperror.FieldError{Field: "priority", Message: "must be one of Low, Normal, High, Urgent"})
	}
	return p, nil
}

func (s *purchaseOrderService) loadVendor(ctx context.Context, raw string) (*model.Vendor, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("invalid vendor id", apperror.FieldError{Field: "vendor_id", Message: "must be a UUID"})
	}
	vendor, err := s.vendors.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "vendor %s not found", id)
	}
	return vendor, nil
}

func (s *purchaseOrderService) Create(ctx context.Context, req *CreateOrderRequest, actor model.Actor) (*CreateOrderResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	orderDate, err := parseDate("order_date", req.OrderDate, s.loc)
	if err != nil {
		return nil, err
	}
	expected, err := parseDate("expected_delivery", req.ExpectedDelivery, s.loc)
	if err != nil {
		return nil, err
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	items, total, err := BuildOrderItems(req.Items, s.loc)
	if err != nil {
		return nil, err
	}

	// vendor must exist before a number is minted or anything is written
	vendor, err := s.loadVendor(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}

	number, err := s.sequences.NextPurchaseOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	order := &model.PurchaseOrder{
		OrderNumber:      number,
		VendorID:         vendor.ID,
		OrderDate:        orderDate,
		ExpectedDelivery: expected,
		Priority:         priority,
		Status:           model.StatusDraft,
		TotalAmount:      total,
		Notes:            req.Notes,
		Terms:            req.Terms,
		Items:            items,
	}
	order.CreatedBy = actor.ID
	order.UpdatedBy = actor.ID

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}
	order.Vendor = vendor.Summary()

	s.log.Info("purchase order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("vendor", vendor.Name),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	publish(ctx, s.events, s.log, newEvent(s.clock(), model.EventPurchaseOrderCreated, order.ID.String(),
		fmt.Sprintf("%s created purchase order %s", actor.Name, order.OrderNumber), actor, order))

	result := &CreateOrderResult{Order: order}
	if s.dispatcher != nil {
		channels := notification.ParseChannels(req.SendWhatsApp, req.SendEmail)
		result.Notifications = s.dispatcher.NotifyPurchaseOrder(ctx, order, order.Vendor, channels)
	}
	return result, nil
}

func (s *purchaseOrderService) List(ctx context.Context, filter model.OrderFilter) ([]model.PurchaseOrder, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.Validation("invalid status filter", apperror.FieldError{Field: "status", Message: "unknown status"})
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apperror.Validation("invalid priority filter", apperror.FieldError{Field: "priority", Message: "unknown priority"})
	}

	orders, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	if len(orders) == 0 {
		return []model.PurchaseOrder{}, nil
	}

	ids := make([]uuid.UUID, len(orders))
	vendorIDs := make([]uuid.UUID, 0, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		vendorIDs = append(vendorIDs, o.VendorID)
	}
	items, err := s.orders.FindItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	vendors, err := s.vendors.FindByIDs(ctx, vendorIDs)
	if err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []model.PurchaseOrderItem{}
		}
		if v, ok := vendors[orders[i].VendorID]; ok {
			orders[i].Vendor = v.Summary()
		}
	}
	return orders, nil
}

func (s *purchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "purchase order %s not found", id)
	}
	if order.Items == nil {
		order.Items = []model.PurchaseOrderItem{}
	}
	vendor, err := s.vendors.FindByID(ctx, order.VendorID)
	switch {
	case err == nil:
		order.Vendor = vendor.Summary()
	case errors.Is(err, gorm.ErrRecordNotFound):
		// vendor removed after the order was placed; the order is still readable
	default:
		return nil, fmt.Errorf("load vendor: %w", err)
	}
	return order, nil
}

func (s *purchaseOrderService) Update(ctx context.Context, id uuid.UUID, req *UpdateOrderRequest, actor model.Actor) (*model.PurchaseOrder, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Items != nil && len(req.Items) == 0 {
		return nil, apperror.Validation("an order needs at least one item",
			apperror.FieldError{Field: "items", Message: "must not be empty"})
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "purchase order %s not found", id)
	}
	if !order.Status.IsEditable() {
		return nil, apperror.InvalidState("purchase order %s cannot be edited in status %s", order.OrderNumber, order.Status)
	}

	if req.VendorID != nil {
		vendor, err := s.loadVendor(ctx, *req.VendorID)
		if err != nil {
			return nil, err
		}
		order.VendorID = vendor.ID
	}
	if req.OrderDate != nil {
		if order.OrderDate, err = parseDate("order_date", *req.OrderDate, s.loc); err != nil {
			return nil, err
		}
	}
	if req.ExpectedDelivery != nil {
		if order.ExpectedDelivery, err = parseDate("expected_delivery", *req.ExpectedDelivery, s.loc); err != nil {
			return nil, err
		}
	}
	if req.Priority != nil {
		if order.Priority, err = parsePriority(*req.Priority); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if req.Terms != nil {
		order.Terms = *req.Terms
	}
	replaceItems := req.Items != nil
	if replaceItems {
		if order.Items, order.TotalAmount, err = BuildOrderItems(req.Items, s.loc); err != nil {
			return nil, err
		}
	}
	order.UpdatedBy = actor.ID

	ok, err := s.orders.UpdateContent(ctx, order, replaceItems)
	if err != nil {
		return nil, fmt.Errorf("update purchase order: %w", err)
	}
	if !ok {
		return nil, apperror.InvalidState("purchase order %s is no longer editable", order.OrderNumber)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, s.log, newEvent(s.clock(), model.EventPurchaseOrderUpdated, updated.ID.String(),
		fmt.Sprintf("%s updated purchase order %s", actor.Name, updated.OrderNumber), actor, updated))
	return updated, nil
}

func (s *purchaseOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor model.Actor) (*model.PurchaseOrder, error) {
	if !status.Valid() {
		return nil, apperror.Validation("invalid status",
			apperror.FieldError{Field: "status", Message: "must be one of Draft, Sent, Confirmed, Partially_Received, Received, Cancelled"})
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "purchase order %s not found", id)
	}
	from := order.Status
	if !from.CanTransitionTo(status) {
		return nil, apperror.InvalidState("cannot move purchase order %s from %s to %s", order.OrderNumber, from, status)
	}

	order.ApplyStatus(status, s.clock())
	order.UpdatedBy = actor.ID
	ok, err := s.orders.UpdateStatus(ctx, order, from)
	if err != nil {
		return nil, fmt.Errorf("update purchase order status: %w", err)
	}
	if !ok {
		return nil, apperror.Conflict("purchase order %s changed status concurrently", order.OrderNumber)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("purchase order status changed",
		zap.String("order_number", updated.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(status)))
	publish(ctx, s.events, s.log, newEvent(s.clock(), model.EventPurchaseOrderStatusChanged, updated.ID.String(),
		fmt.Sprintf("%s moved purchase order %s to %s", actor.Name, updated.OrderNumber, status), actor,
		map[string]interface{}{"order": updated, "previous_status": from}))
	return updated, nil
}

func (s *purchaseOrderService) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "purchase order %s not found", id)
	}
	if !order.Status.IsDeletable() {
		return apperror.InvalidState("only draft orders can be deleted; %s is %s", order.OrderNumber, order.Status)
	}
	ok, err := s.orders.Delete(ctx, id, actor.ID)
	if err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	if !ok {
		return apperror.InvalidState("purchase order %s is no longer a draft", order.OrderNumber)
	}
	publish(ctx, s.events, s.log, newEvent(s.clock(), model.EventPurchaseOrderDeleted, id.String(),
		fmt.Sprintf("%s deleted purchase order %s", actor.Name, order.OrderNumber), actor,
		map[string]string{"id": id.String(), "order_number": order.OrderNumber}))
	return nil
}

func (s *purchaseOrderService) Stats(ctx context.Context) (*model.OrderStats, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("purchase order stats: %w", err)
	}
	return stats, nil
}

func (s *purchaseOrderService) PreviewNextNumber(ctx context.Context) (string, error) {
	n, err := s.sequences.PreviewPurchaseOrderNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("preview order number: %w", err)
	}
	return n, nil
}

func (s *purchaseOrderService) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := document.RenderPurchaseOrder(order, order.Vendor)
	if err != nil {
		return nil, "", fmt.Errorf("render purchase order: %w", err)
	}
	return pdf, document.PurchaseOrderFilename(order), nil
}
