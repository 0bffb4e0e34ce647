package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockpilot/internal/apperror"
	"stockpilot/internal/messaging"
	"stockpilot/internal/middleware"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/internal/service"
	"stockpilot/internal/testutil"
	"stockpilot/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *model.Vendor) {
	t.Helper()
	db := testutil.NewDB(t)
	log := logger.Nop()
	clock := func() time.Time { return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC) }

	vendors := repository.NewVendorRepo(db)
	sequences := service.NewSequenceGenerator(service.NewCounterStore(repository.NewCounterRepo(db), log), clock, time.UTC)
	orders := service.NewPurchaseOrderService(repository.NewPurchaseOrderRepo(db), vendors, sequences, nil,
		messaging.Noop(), clock, time.UTC, log)

	vendor := &model.Vendor{Name: "Acme Supplies", Phone: "9876543210", Email: "orders@acme.test"}
	require.NoError(t, vendors.Create(context.Background(), vendor))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, "user-1")
		c.Locals(middleware.LocalUserName, "Asha")
		return c.Next()
	})
	h := NewPurchaseOrderHandler(orders)
	app.Post("/purchase-orders", h.Create)
	app.Get("/purchase-orders/:id", h.Get)
	app.Patch("/purchase-orders/:id/status", h.UpdateStatus)
	app.Delete("/purchase-orders/:id", h.Delete)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("connection refused"))
	})
	return app, vendor
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func orderBody(vendorID string) string {
	return `{"vendor_id":"` + vendorID + `","order_date":"2025-03-15","expected_delivery":"2025-03-20",
		"items":[{"product_name":"Widget","quantity":2,"estimated_rate":"10"},{"product_name":"Gadget","quantity":1,"estimated_rate":10}]}`
}

func TestPurchaseOrderEndpoints(t *testing.T) {
	app, vendor := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/purchase-orders", orderBody(vendor.ID.String()))
	require.Equal(t, http.StatusCreated, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "PO-2025-03-0001", data["order_number"])
	assert.Equal(t, "Draft", data["status"])
	assert.Equal(t, "user-1", data["created_by"])
	id := data["id"].(string)

	status, body = do(t, app, http.MethodGet, "/purchase-orders/"+id, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["items"], 2)

	status, _ = do(t, app, http.MethodPatch, "/purchase-orders/"+id+"/status", `{"status":"Confirmed"}`)
	assert.Equal(t, http.StatusOK, status)

	status, body = do(t, app, http.MethodPatch, "/purchase-orders/"+id+"/status", `{"status":"Draft"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body["error"], "cannot move")

	status, _ = do(t, app, http.MethodDelete, "/purchase-orders/"+id, "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestErrorMapping(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/purchase-orders", `{"vendor_id":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid JSON", body["error"])

	status, body = do(t, app, http.MethodPost, "/purchase-orders", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["fields"])

	status, _ = do(t, app, http.MethodPost, "/purchase-orders", orderBody("6f1c1a52-3a57-4a51-9d8e-2f9b6a3c1d11"))
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, app, http.MethodGet, "/purchase-orders/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid id", body["error"])

	status, body = do(t, app, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"], "storage detail is not leaked")
}

func TestRespondErrorStatuses(t *testing.T) {
	cases := map[error]int{
		apperror.InsufficientStock("only 2 left"):                     http.StatusUnprocessableEntity,
		apperror.Conflict("bill exists"):                              http.StatusConflict,
		apperror.ExternalService("forecast down", errors.New("eof")): http.StatusBadGateway,
	}
	for err, want := range cases {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.Nop())})
		e := err
		app.Get("/", func(c *fiber.Ctx) error { return respondError(c, e) })
		resp, testErr := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, testErr)
		assert.Equal(t, want, resp.StatusCode, err.Error())
	}
}
