package handler

import (
	"stockpilot/internal/service"

	"github.com/gofiber/fiber/v2"
)

type VendorHandler struct {
	service service.VendorService
}

func NewVendorHandler(s service.VendorService) *VendorHandler {
	return &VendorHandler{service: s}
}

// POST /api/v1/vendors
func (h *VendorHandler) Create(c *fiber.Ctx) error {
	var req service.VendorRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	vendor, err := h.service.Create(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Vendor created", "data": vendor})
}

// GET /api/v1/vendors
func (h *VendorHandler) List(c *fiber.Ctx) error {
	vendors, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(vendors)
}

// GET /api/v1/vendors/:id
func (h *VendorHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	vendor, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(vendor)
}

// PUT /api/v1/vendors/:id
func (h *VendorHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.VendorRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	vendor, err := h.service.Update(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Vendor updated", "data": vendor})
}

// DELETE /api/v1/vendors/:id
func (h *VendorHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), id, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Vendor deleted"})
}
