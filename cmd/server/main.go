package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"order-lifecycle-service/internal/config"
	"order-lifecycle-service/internal/controller"
	"order-lifecycle-service/internal/filestore"
	"order-lifecycle-service/internal/inventory"
	"order-lifecycle-service/internal/metrics"
	"order-lifecycle-service/internal/middleware"
	"order-lifecycle-service/internal/notify"
	"order-lifecycle-service/internal/rabbit"
	"order-lifecycle-service/internal/repository"
	"order-lifecycle-service/internal/service"
	"order-lifecycle-service/internal/sweeper"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositorios: Mongo si está configurado, memoria para desarrollo
	var (
		orderRepo   repository.OrderRepository
		productRepo repository.ProductRepository
	)
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal(err)
		}
		db := client.Database(cfg.MongoDBName)

		mongoOrders, err := repository.NewMongoOrderRepository(connectCtx, db)
		if err != nil {
			log.Fatal(err)
		}
		orderRepo = mongoOrders
		productRepo = repository.NewMongoProductRepository(db)
	} else {
		log.Println("⚠ MONGO_URI no configurado: usando almacenamiento en memoria")
		mem := repository.NewMemoryStore()
		orderRepo = mem
		productRepo = mem
	}

	// Notificaciones y consumo de eventos por RabbitMQ
	var notifier notify.Notifier = notify.LogNotifier{}
	var rabbitCh *amqp091.Channel
	if cfg.RabbitURL != "" {
		conn, err := amqp091.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("Error conectando a RabbitMQ: %v", err)
		}
		rabbitCh, err = conn.Channel()
		if err != nil {
			log.Fatalf("Error creando canal en RabbitMQ: %v", err)
		}
		notifier, err = notify.NewRabbitNotifier(rabbitCh)
		if err != nil {
			log.Fatalf("Error declarando exchange de notificaciones: %v", err)
		}
	}

	engineMetrics := metrics.New(prometheus.DefaultRegisterer)

	// Servicios
	stock := inventory.New(productRepo)
	orderService := service.NewOrderService(orderRepo, stock, notifier, engineMetrics, cfg.PendingWindow)
	retentionService := service.NewRetentionService(orderRepo, cfg.RetentionDays)
	authService := service.NewAuthService(cfg.AuthURL)

	if rabbitCh != nil {
		rabbit.SetupConsumers(rabbitCh, orderService)
	}

	// Sweeper de expiración en segundo plano
	sw := sweeper.New(orderService, engineMetrics, cfg.SweepInterval)
	go sw.Run(ctx)

	// Handlers
	files := filestore.NewPathResolver(cfg.UploadBaseURL)
	ctrl := controller.NewOrderController(orderService, retentionService, files)

	// Router
	r := gin.Default()

	// Rutas públicas
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Rutas protegidas (requieren token)
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(authService))

	auth.POST("/orders", ctrl.CreateOrder)
	auth.GET("/orders/:orderId", ctrl.GetOrder)
	auth.GET("/users/:userId/orders", ctrl.GetUserOrders)
	auth.PUT("/orders/:orderId/items", ctrl.UpdateItems)
	auth.PUT("/orders/:orderId/payment-method", ctrl.ChangePaymentMethod)
	auth.POST("/orders/:orderId/payment-proof", ctrl.SubmitPaymentProof)
	auth.PATCH("/orders/:orderId/cancel", ctrl.CancelOrder)

	// Rutas admin
	admin := auth.Group("/")
	admin.Use(middleware.AdminOnly())
	admin.PUT("/orders/:orderId/status", ctrl.UpdateStatus)
	admin.GET("/admin/orders", ctrl.ListOrders)
	admin.PATCH("/orders/:orderId/archive", ctrl.ArchiveOrder)
	admin.PATCH("/orders/:orderId/unarchive", ctrl.UnarchiveOrder)
	admin.DELETE("/orders/:orderId/archive", ctrl.DeleteArchived)

	// Ejecutar servidor
	log.Printf("Order Lifecycle Service ejecutándose en puerto %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
