// Package forecast talks to the external demand-forecasting service.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"stockpilot/internal/model"

	"github.com/gofiber/fiber/v2"
)

var ErrNotConfigured = errors.New("forecast service not configured")

// Client is the remote forecasting collaborator. Every call is bounded by a
// timeout; callers fall back to local estimates on any error.
type Client interface {
	GeneralForecast(ctx context.Context) ([]model.ForecastPoint, error)
	ProductForecast(ctx context.Context, productID string) ([]model.ForecastPoint, error)
	ReorderPoint(ctx context.Context, productID string) (*model.ReorderSuggestion, error)
}

type httpClient struct {
	baseURL string
	timeout time.Duration
}

func NewHTTPClient(baseURL string, timeout time.Duration) Client {
	return &httpClient{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

func (c *httpClient) GeneralForecast(ctx context.Context) ([]model.ForecastPoint, error) {
	var points []model.ForecastPoint
	if err := c.get(ctx, "/forecast", &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *httpClient) ProductForecast(ctx context.Context, productID string) ([]model.ForecastPoint, error) {
	var points []model.ForecastPoint
	if err := c.get(ctx, "/forecast/"+url.PathEscape(productID), &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *httpClient) ReorderPoint(ctx context.Context, productID string) (*model.ReorderSuggestion, error) {
	var s model.ReorderSuggestion
	if err := c.get(ctx, "/reorder/"+url.PathEscape(productID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *httpClient) get(ctx context.Context, path string, out interface{}) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Get(c.baseURL + path)
	agent.Timeout(timeout)
	code, body, errs := agent.Struct(out)
	if len(errs) > 0 {
		return fmt.Errorf("forecast %s: %w", path, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return fmt.Errorf("forecast %s: unexpected status %d: %s", path, code, truncate(body, 200))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
