package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meal-order-service/calendar"
	"meal-order-service/config"
	"meal-order-service/consumers"
	"meal-order-service/controllers"
	"meal-order-service/database"
	"meal-order-service/lifecycle"
	"meal-order-service/middlewares"
	"meal-order-service/models"
	"meal-order-service/providers"
	"meal-order-service/rabbitmq"
	"meal-order-service/repositories"
	"meal-order-service/services"
)

func main() {
	cfg := config.LoadConfig()

	defaultLoc, err := calendar.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		log.Fatalf("Invalid DEFAULT_TIMEZONE: %v", err)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer database.CloseDB(db)

	rmq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("RabbitMQ initialization failed: %v", err)
	}
	defer rmq.Close()

	if err := rmq.SetupQueues(); err != nil {
		log.Fatalf("Failed to setup RabbitMQ queues: %v", err)
	}

	go consumers.StartOrderConsumer(rmq.Channel, cfg)

	// Repositories and the cached settings/holiday provider.
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	provider := providers.New(repositories.NewSettingsRepository(db), models.BrandSettings{
		AdvanceOrderCutoffHour: 18,
		MinAdvanceOrderDays:    1,
		MaxAdvanceOrderDays:    10,
		Timezone:               cfg.DefaultTimezone,
		IsActive:               true,
	})

	availabilitySvc := services.NewAvailabilityService(subscriptionRepo, orderRepo, catalogRepo, provider, nil)
	orderSvc := services.NewOrderService(subscriptionRepo, orderRepo, catalogRepo, provider, rmq, nil)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, provider, nil)

	scheduler := lifecycle.NewScheduler(lifecycle.NewStore(db), rmq, cfg.LifecycleHour, defaultLoc)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)

	orderCtl := controllers.NewOrderController(availabilitySvc, orderSvc)
	adminCtl := controllers.NewAdminController(provider, subscriptionSvc, scheduler)

	r := gin.Default()
	r.Use(middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/api")
	authGroup.Use(middlewares.AuthMiddleware(cfg.JWTSecret))
	{
		authGroup.GET("/available-days", orderCtl.GetAvailableDays)
		authGroup.POST("/orders", orderCtl.CreateOrder)
		authGroup.GET("/orders", orderCtl.GetUserOrders)
		authGroup.GET("/orders/:id", orderCtl.GetOrderDetails)
		authGroup.POST("/orders/:id/cancel", orderCtl.CancelOrder)
		authGroup.PUT("/orders/:id/items/:itemID/delivered", orderCtl.MarkItemDelivered)
	}

	adminGroup := r.Group("/admin")
	adminGroup.Use(middlewares.AuthMiddleware(cfg.JWTSecret), middlewares.AdminOnly())
	{
		adminGroup.PUT("/brands/:brandID/settings", adminCtl.UpdateBrandSettings)
		adminGroup.POST("/brands/:brandID/holidays", adminCtl.CreateHoliday)
		adminGroup.DELETE("/holidays/:id", adminCtl.DeleteHoliday)
		adminGroup.POST("/subscriptions", adminCtl.CreateSubscription)
		adminGroup.POST("/subscriptions/:id/cancel", adminCtl.CancelSubscription)
		adminGroup.POST("/lifecycle/run", adminCtl.RunLifecycle)
	}

	log.Printf("Meal order service starting on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
