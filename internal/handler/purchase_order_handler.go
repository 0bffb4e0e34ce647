package handler

import (
	"stockpilot/internal/apperror"
	"stockpilot/internal/model"
	"stockpilot/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PurchaseOrderHandler struct {
	service service.PurchaseOrderService
}

func NewPurchaseOrderHandler(s service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{service: s}
}

// Create places a Draft order and optionally notifies the vendor
// POST /api/v1/purchase-orders
func (h *PurchaseOrderHandler) Create(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	result, err := h.service.Create(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Purchase order created",
		"data":          result.Order,
		"notifications": result.Notifications,
	})
}

// List supports ?status=&vendor_id=&priority=
func (h *PurchaseOrderHandler) List(c *fiber.Ctx) error {
	filter := model.OrderFilter{
		Status:   model.OrderStatus(c.Query("status")),
		Priority: model.OrderPriority(c.Query("priority")),
	}
	if raw := c.Query("vendor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return respondError(c, apperror.Validation("invalid vendor id",
				apperror.FieldError{Field: "vendor_id", Message: "must be a UUID"}))
		}
		filter.VendorID = &id
	}
	orders, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

func (h *PurchaseOrderHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *PurchaseOrderHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	order, err := h.service.Update(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase order updated", "data": order})
}

// PATCH /api/v1/purchase-orders/:id/status
func (h *PurchaseOrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	order, err := h.service.UpdateStatus(c.UserContext(), id, model.OrderStatus(req.Status), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase order status updated", "data": order})
}

func (h *PurchaseOrderHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), id, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase order deleted"})
}

func (h *PurchaseOrderHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// NextNumber is a preview; the number is only reserved when an order is created
func (h *PurchaseOrderHandler) NextNumber(c *fiber.Ctx) error {
	n, err := h.service.PreviewNextNumber(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"order_number": n})
}

func (h *PurchaseOrderHandler) PDF(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	pdf, filename, err := h.service.RenderPDF(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return sendPDF(c, pdf, filename)
}
