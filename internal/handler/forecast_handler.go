package handler

import (
	"stockpilot/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ForecastHandler struct {
	service service.ForecastService
}

func NewForecastHandler(s service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: s}
}

func (h *ForecastHandler) General(c *fiber.Ctx) error {
	f, err := h.service.GeneralForecast(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(f)
}

func (h *ForecastHandler) Product(c *fiber.Ctx) error {
	id, err := paramID(c, "productId")
	if err != nil {
		return respondError(c, err)
	}
	f, err := h.service.ProductForecast(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(f)
}

func (h *ForecastHandler) Reorder(c *fiber.Ctx) error {
	id, err := paramID(c, "productId")
	if err != nil {
		return respondError(c, err)
	}
	s, err := h.service.Reorder(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s)
}
