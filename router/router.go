package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sharedtab/tab-engine/controllers"
	"github.com/sharedtab/tab-engine/engine"
	"github.com/sharedtab/tab-engine/middlewares"
	"github.com/sharedtab/tab-engine/models"
)

func SetupRouter(db *gorm.DB, eng *engine.Engine) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(eng)
	orderCtrl := controllers.NewOrderController(eng)
	sessionCtrl := controllers.NewSessionController(eng)
	liveCtrl := controllers.NewLiveController(eng)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/login", middlewares.NewStrictRateLimiter(), userCtrl.Login)
	}

	restaurants := r.Group("/restaurants/:restaurant_id")
	{
		restaurants.GET("/tables", tableCtrl.GetAllTables)
		restaurants.GET("/tables/:table_id", tableCtrl.GetTable)
		restaurants.GET("/tables/:table_id/bill", tableCtrl.GetBill)

		// Order submission: guests identify via headers, staff via JWT.
		orders := restaurants.Group("")
		orders.Use(middlewares.ActorMiddleware())
		{
			orders.POST("/tables/:table_id/orders", orderCtrl.CreateTableOrder)
			orders.POST("/sessions/:session_id/orders", orderCtrl.CreateSessionOrder)
		}
	}

	// Live bill stream (guest bill view, waiter view, cashier view).
	r.GET("/ws/restaurants/:restaurant_id/tables/:table_id", liveCtrl.WatchTable)

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/")
	staff.Use(middlewares.AuthMiddleware())
	{
		staff.POST("/restaurants/:restaurant_id/tables",
			middlewares.RequireRoles(models.UserRoleAdmin), tableCtrl.CreateTable)
		staff.POST("/restaurants/:restaurant_id/tables/:table_id/close",
			middlewares.RequireRoles(models.UserRoleWaiter), tableCtrl.CloseTable)

		staff.GET("/sessions/:session_id", sessionCtrl.GetSession)
		staff.GET("/sessions/:session_id/log", sessionCtrl.GetOrderLog)
		staff.POST("/sessions/:session_id/payments",
			middlewares.RequireRoles(models.UserRoleWaiter), sessionCtrl.RecordPayment)
		staff.PATCH("/sessions/:session_id/items/:index/status",
			middlewares.RequireRoles(models.UserRoleWaiter), sessionCtrl.UpdateItemStatus)
		staff.POST("/sessions/:session_id/reconcile",
			middlewares.RequireRoles(models.UserRoleAdmin), sessionCtrl.Reconcile)

		staff.POST("/auth/register",
			middlewares.RequireRoles(models.UserRoleAdmin), userCtrl.RegisterStaff)
	}

	return r
}
