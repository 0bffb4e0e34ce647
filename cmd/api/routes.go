package main

import (
	"stockpilot/internal/handler"
	"stockpilot/internal/middleware"
	"stockpilot/internal/model"
	"stockpilot/internal/notification"
	"stockpilot/internal/repository"
	"stockpilot/internal/service"
	"stockpilot/internal/ws"
	"stockpilot/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type services struct {
	auth      service.AuthService
	users     service.UserService
	vendors   service.VendorService
	products  service.ProductService
	orders    service.PurchaseOrderService
	purchases service.PurchaseService
	sales     service.SaleService
	dashboard service.DashboardService
	forecast  service.ForecastService
	reports   service.ReportService
}

func registerRoutes(app *fiber.App, s services, dispatcher notification.Dispatcher, tokens *jwt.Manager, userRepo repository.UserRepository, hub *ws.Hub) {
	authHandler := handler.NewAuthHandler(s.auth)
	userHandler := handler.NewUserHandler(s.users)
	roleHandler := handler.NewRoleHandler(s.users)
	vendorHandler := handler.NewVendorHandler(s.vendors)
	productHandler := handler.NewProductHandler(s.products)
	orderHandler := handler.NewPurchaseOrderHandler(s.orders)
	purchaseHandler := handler.NewPurchaseHandler(s.purchases)
	saleHandler := handler.NewSaleHandler(s.sales)
	dashHandler := handler.NewDashboardHandler(s.dashboard)
	forecastHandler := handler.NewForecastHandler(s.forecast)
	reportHandler := handler.NewReportHandler(s.reports, dispatcher)

	requireAuth := middleware.RequireAuth(tokens, userRepo)
	need := middleware.RequirePrivilege

	api := app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "websocket_clients": hub.ClientCount()})
	})

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	protected.Get("/vendors", need(model.PrivVendorView), vendorHandler.List)
	protected.Get("/vendors/:id", need(model.PrivVendorView), vendorHandler.Get)
	protected.Post("/vendors", need(model.PrivVendorManage), vendorHandler.Create)
	protected.Put("/vendors/:id", need(model.PrivVendorManage), vendorHandler.Update)
	protected.Delete("/vendors/:id", need(model.PrivVendorManage), vendorHandler.Delete)

	protected.Get("/products", need(model.PrivProductView), productHandler.List)
	protected.Get("/products/search", need(model.PrivProductView), productHandler.Search)
	protected.Get("/products/low-stock", need(model.PrivProductView), productHandler.LowStock)
	protected.Get("/products/:id", need(model.PrivProductView), productHandler.Get)
	protected.Post("/products", need(model.PrivProductCreate), productHandler.Create)
	protected.Put("/products/:id", need(model.PrivProductCreate), productHandler.Update)

	protected.Get("/purchases", need(model.PrivPurchaseView), purchaseHandler.List)
	protected.Get("/purchases/:id", need(model.PrivPurchaseView), purchaseHandler.Get)
	protected.Post("/purchases", need(model.PrivPurchaseCreate), purchaseHandler.Create)

	po := protected.Group("/purchase-orders")
	po.Get("/next-number", need(model.PrivPurchaseOrderView), orderHandler.NextNumber)
	po.Get("/stats", need(model.PrivPurchaseOrderView), orderHandler.Stats)
	po.Get("/", need(model.PrivPurchaseOrderView), orderHandler.List)
	po.Get("/:id", need(model.PrivPurchaseOrderView), orderHandler.Get)
	po.Get("/:id/pdf", need(model.PrivPurchaseOrderView), orderHandler.PDF)
	po.Post("/", need(model.PrivPurchaseOrderCreate), orderHandler.Create)
	po.Put("/:id", need(model.PrivPurchaseOrderUpdate), orderHandler.Update)
	po.Patch("/:id/status", need(model.PrivPurchaseOrderUpdate), orderHandler.UpdateStatus)
	po.Delete("/:id", need(model.PrivPurchaseOrderDelete), orderHandler.Delete)

	protected.Get("/sales", need(model.PrivSaleView), saleHandler.List)
	protected.Get("/sales/next-bill-number", need(model.PrivSaleView), saleHandler.NextBillNumber)
	protected.Get("/sales/search-products", need(model.PrivSaleCreate), saleHandler.SearchProducts)
	protected.Get("/sales/:id", need(model.PrivSaleView), saleHandler.Get)
	protected.Post("/sales", need(model.PrivSaleCreate), saleHandler.Create)

	protected.Get("/forecast", need(model.PrivReportView), forecastHandler.General)
	protected.Get("/forecast/:productId", need(model.PrivReportView), forecastHandler.Product)
	protected.Get("/reorder/:productId", need(model.PrivReportView), forecastHandler.Reorder)
	protected.Get("/reports/stock-statement", need(model.PrivReportView), reportHandler.StockStatement)
	protected.Get("/notifications/status", reportHandler.NotificationStatus)

	protected.Get("/users", need(model.PrivUserView), userHandler.GetUsers)
	protected.Get("/users/:id", need(model.PrivUserView), userHandler.GetUser)
	protected.Post("/users", need(model.PrivUserCreate), userHandler.CreateUser)
	protected.Put("/users/:id", need(model.PrivUserUpdate), userHandler.UpdateUser)
	protected.Delete("/users/:id", need(model.PrivUserDelete), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", need(model.PrivUserUpdatePrivilege), userHandler.UpdateUserPrivileges)

	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !hub.Register(c) {
			return
		}
		defer hub.Unregister(c)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
