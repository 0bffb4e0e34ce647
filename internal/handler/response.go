package handler

import (
	"errors"

	"stockpilot/internal/apperror"
	"stockpilot/internal/middleware"
	"stockpilot/internal/model"
	"stockpilot/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError writes taxonomy errors directly; anything else is returned to
// the app ErrorHandler, which logs it and answers 500.
func respondError(c *fiber.Ctx, err error) error {
	var status int
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		body := fiber.Map{"error": err.Error()}
		if fields := apperror.FieldsOf(err); len(fields) > 0 {
			body["fields"] = fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case apperror.KindNotFound:
		status = fiber.StatusNotFound
	case apperror.KindInvalidState, apperror.KindConflict:
		status = fiber.StatusConflict
	case apperror.KindInsufficientStock:
		status = fiber.StatusUnprocessableEntity
	case apperror.KindExternalService:
		status = fiber.StatusBadGateway
	default:
		return err
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// ErrorHandler is the fiber app error handler
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}

// actorFrom reads the user set by RequireAuth
func actorFrom(c *fiber.Ctx) model.Actor {
	actor := model.Actor{ID: "system", Name: "Unknown"}
	if v, ok := c.Locals(middleware.LocalUserID).(string); ok && v != "" {
		actor.ID = v
	}
	if v, ok := c.Locals(middleware.LocalUserName).(string); ok && v != "" {
		actor.Name = v
	}
	if v, ok := c.Locals(middleware.LocalUserEmail).(string); ok {
		actor.Email = v
	}
	return actor
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid id", apperror.FieldError{Field: name, Message: "must be a UUID"})
	}
	return id, nil
}

func sendPDF(c *fiber.Ctx, pdf []byte, filename string) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}
