package routes

import (
	"net/http"

	"github.com/ArowuTest/loyalty-backend/internal/config"
	"github.com/ArowuTest/loyalty-backend/internal/handlers"
	"github.com/ArowuTest/loyalty-backend/internal/middleware"
	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps holds the services the HTTP surface is built on
type Deps struct {
	Tokens        middleware.TokenParser
	Spins         services.SpinService
	CheckIns      services.CheckInService
	Draws         services.DrawService
	Redemptions   services.RedemptionService
	Notifications services.NotificationService
	Users         services.UserService
	// Gatherer serves /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	luckyDrawHandler := handlers.NewLuckyDrawHandler(deps.Spins, deps.CheckIns)
	gamificationHandler := handlers.NewGamificationHandler(deps.CheckIns)
	drawHandler := handlers.NewDrawHandler(deps.Draws)
	redemptionHandler := handlers.NewRedemptionHandler(deps.Redemptions)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	userHandler := handlers.NewUserHandler(deps.Users)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// Customer routes
	customer := router.Group("/api/v1")
	customer.Use(middleware.JWTAuthMiddleware(deps.Tokens), middleware.CustomerOnly())
	{
		luckyDraws := customer.Group("/lucky-draws")
		{
			luckyDraws.GET("", luckyDrawHandler.ListDraws)
			luckyDraws.GET("/day7-draw", luckyDrawHandler.GetDay7Draw)
			luckyDraws.GET("/history", luckyDrawHandler.GetHistory)
			luckyDraws.GET("/history/:id", luckyDrawHandler.GetHistoryDetail)
			luckyDraws.GET("/:id", luckyDrawHandler.GetDraw)
			luckyDraws.POST("/:id/spin", luckyDrawHandler.Spin)
		}

		gamification := customer.Group("/gamification")
		{
			gamification.GET("/status", gamificationHandler.Status)
			gamification.POST("/check-in", gamificationHandler.CheckIn)
		}

		rewards := customer.Group("/rewards")
		{
			rewards.GET("/my-rewards", redemptionHandler.MyRewards)
			rewards.POST("/:id/redeem", redemptionHandler.Redeem)
		}

		notifications := customer.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		me := customer.Group("/me")
		{
			me.GET("/points", userHandler.GetPoints)
			me.GET("/points/history", userHandler.GetPointHistory)
		}
	}

	// Staff routes
	staff := router.Group("/api/v1/merchant")
	staff.Use(middleware.JWTAuthMiddleware(deps.Tokens), middleware.StaffOnly())
	{
		staff.GET("/redemptions", redemptionHandler.List)
		staff.POST("/redemptions/validate", redemptionHandler.Validate)

		draws := staff.Group("/lucky-draws")
		draws.Use(middleware.MainBranchOnly())
		{
			draws.GET("", drawHandler.ListDraws)
			draws.POST("", drawHandler.CreateDraw)
			draws.GET("/:id", drawHandler.GetDraw)
			draws.PUT("/:id", drawHandler.UpdateDraw)
			draws.DELETE("/:id", drawHandler.DeleteDraw)
			draws.POST("/:id/prizes", drawHandler.AddPrize)
			draws.PUT("/:id/prizes/:prizeId", drawHandler.UpdatePrize)
			draws.DELETE("/:id/prizes/:prizeId", drawHandler.DeletePrize)
			draws.GET("/:id/statistics", drawHandler.GetStatistics)
		}
	}

	return router
}
