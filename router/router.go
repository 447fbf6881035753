package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/gamezone-pos/config"
	"github.com/yeremiapane/gamezone-pos/controllers"
	"github.com/yeremiapane/gamezone-pos/hub"
	"github.com/yeremiapane/gamezone-pos/middlewares"
	"github.com/yeremiapane/gamezone-pos/services"
)

// Deps adalah semua service yang dibutuhkan router; dirakit di main.
type Deps struct {
	Config     config.Config
	Hub        *hub.Hub
	Devices    *services.DeviceService
	Sessions   *services.SessionService
	Orders     *services.OrderService
	Bills      *services.BillService
	Customers  *services.CustomerService
	Tokens     *services.TokenService
	Dashboard  *services.DashboardService
	Deliveries *services.DeliveryMonitor
	Floor      *services.FloorMonitor
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.Config.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware())

	// Inisialisasi controller
	deviceCtrl := controllers.NewDeviceController(deps.Devices)
	sessionCtrl := controllers.NewSessionController(deps.Sessions)
	orderCtrl := controllers.NewOrderController(deps.Orders)
	billCtrl := controllers.NewBillController(deps.Bills)
	customerCtrl := controllers.NewCustomerController(deps.Customers)
	tokenCtrl := controllers.NewTokenController(deps.Tokens)
	dashboardCtrl := controllers.NewDashboardController(deps.Dashboard, deps.Deliveries)
	floorCtrl := controllers.NewFloorController(deps.Hub, deps.Floor, middlewares.OriginChecker(deps.Config.CORSOrigins))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Websocket tidak memakai timeout request
	r.GET("/ws/floor", floorCtrl.FloorSocket)

	api := r.Group("/")
	api.Use(middlewares.NewRateLimiter(deps.Config.RateLimitRPS, deps.Config.RateLimitBurst).RateLimit())
	api.Use(middlewares.RequestTimeout(deps.Config.StoreTimeout))

	// DEVICE
	api.GET("/devices", deviceCtrl.GetAllDevices)
	api.POST("/devices", deviceCtrl.CreateDevice)
	api.GET("/devices/available", deviceCtrl.GetAvailableDevices)

	// SESSION
	api.POST("/sessions", sessionCtrl.StartSession)
	api.GET("/sessions/today", sessionCtrl.GetTodaySessions)
	api.GET("/sessions/active", sessionCtrl.GetActiveSessions)
	api.GET("/sessions/:session_id", sessionCtrl.GetSession)
	api.POST("/sessions/:session_id/end", sessionCtrl.EndSession)
	api.PATCH("/sessions/:session_id/players", sessionCtrl.UpdatePlayers)

	// TOKEN
	api.GET("/tokens/today", tokenCtrl.GetTodayTokens)
	api.GET("/tokens/:token_id/orders", orderCtrl.GetOrdersByToken)
	api.POST("/tokens/:token_id/bills", billCtrl.GenerateTokenBills)

	// ORDER
	api.POST("/orders", orderCtrl.CreateOrder)
	api.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	api.PATCH("/orders/:order_id", orderCtrl.UpdateOrder)
	api.POST("/orders/:order_id/food-items", orderCtrl.AddFoodItems)
	api.GET("/orders/:order_id/total", orderCtrl.GetOrderTotal)
	api.POST("/orders/:order_id/bills", billCtrl.GenerateOrderBill)

	// BILL
	bills := api.Group("/bills")
	{
		bills.GET("/unpaid", billCtrl.GetUnpaidBills)
		bills.GET("/:bill_id", billCtrl.GetBill)
		bills.PATCH("/:bill_id/status", middlewares.LogBillRequest(), middlewares.ValidateBillStatus(), billCtrl.UpdateBillStatus)
		bills.GET("/:bill_id/receipt", middlewares.ReceiptLoggerMiddleware(), billCtrl.GetReceipt)
	}

	// CUSTOMER
	api.GET("/customers", customerCtrl.GetAllCustomers)
	api.POST("/customers", customerCtrl.CreateCustomer)
	api.GET("/customers/:customer_id", customerCtrl.GetCustomerByID)

	// DASHBOARD
	api.GET("/dashboard/stats", dashboardCtrl.GetDashboardStats)
	api.GET("/dashboard/webhooks", dashboardCtrl.GetWebhookMetrics)
	api.GET("/floor", floorCtrl.GetFloorSnapshot)

	return r
}
