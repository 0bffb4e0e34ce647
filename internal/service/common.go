package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockpilot/internal/apperror"
	"stockpilot/internal/messaging"
	"stockpilot/internal/model"
	"stockpilot/pkg/logger"
	"stockpilot/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Clock is injected so numbering and date stamps are testable
type Clock func() time.Time

var hundred = decimal.NewFromInt(100)

// validate runs struct validation and converts failures into a field-level ValidationError
func validate(req interface{}) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	fields := make([]apperror.FieldError, 0, len(errs))
	for _, e := range errs {
		msg := "failed on '" + e.Tag + "'"
		if e.Value != "" {
			msg += " (" + e.Value + ")"
		}
		fields = append(fields, apperror.FieldError{Field: e.FailedField, Message: msg})
	}
	return apperror.Validation("validation failed", fields...)
}

// parseDate accepts YYYY-MM-DD (interpreted in loc) or RFC3339
func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.Validation("invalid date",
		apperror.FieldError{Field: field, Message: "expected YYYY-MM-DD or RFC3339"})
}

func parseOptionalDate(field, value string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseDate(field, value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// notFoundOr maps gorm's not-found to a NotFoundError and wraps anything else
func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(format, args...)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// publish sends an event; delivery failures are logged and never surface to the caller
func publish(ctx context.Context, pub messaging.Publisher, log logger.Logger, evt *model.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn("event publish failed", zap.String("type", evt.Type), zap.String("key", evt.Key), zap.Error(err))
	}
}

func newEvent(now time.Time, typ, key, message string, actor model.Actor, data interface{}) *model.Event {
	a := actor
	return &model.Event{
		Type:      typ,
		Key:       key,
		Message:   message,
		Actor:     &a,
		Data:      data,
		Timestamp: now,
	}
}
