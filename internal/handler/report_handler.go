package handler

import (
	"stockpilot/internal/notification"
	"stockpilot/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reports    service.ReportService
	dispatcher notification.Dispatcher
}

func NewReportHandler(reports service.ReportService, dispatcher notification.Dispatcher) *ReportHandler {
	return &ReportHandler{reports: reports, dispatcher: dispatcher}
}

// StockStatement downloads the stock statement PDF, or JSON with ?format=json
// GET /api/v1/reports/stock-statement
func (h *ReportHandler) StockStatement(c *fiber.Ctx) error {
	if c.Query("format") == "json" {
		st, err := h.reports.StockStatement(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(st)
	}
	pdf, filename, err := h.reports.StockStatementPDF(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return sendPDF(c, pdf, filename)
}

// NotificationStatus reports which vendor channels are configured
// GET /api/v1/notifications/status
func (h *ReportHandler) NotificationStatus(c *fiber.Ctx) error {
	status := map[notification.Channel]bool{}
	if h.dispatcher != nil {
		status = h.dispatcher.Status()
	}
	return c.JSON(fiber.Map{"channels": status})
}
