package main

import (
	"context"
	"log"
	"time"

	"waconsole/config"
	"waconsole/internal/domain/contact"
	"waconsole/internal/domain/message"
	"waconsole/internal/domain/product"
	"waconsole/internal/domain/quotation"
	"waconsole/internal/events"
	"waconsole/internal/gateway"
	"waconsole/internal/handler"
	"waconsole/internal/presence"
	"waconsole/internal/realtime"
	"waconsole/internal/reconciler"
	"waconsole/internal/redis"
	"waconsole/internal/repository"
	"waconsole/internal/server"
	"waconsole/internal/services"
	"waconsole/internal/storage"
	"waconsole/pkg/database"
	"waconsole/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)
	defer l.Logger.Sync()

	// Connect to Database
	database.Connect(cfg)

	if err := database.DB.AutoMigrate(
		&contact.Contact{},
		&message.Message{},
		&product.Product{},
		&quotation.Quotation{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	if err := database.Seed(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	// Redis: event bus, presence, rate limiting
	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	redisClient := redis.GetClient()

	bus := events.NewRedisBus(redisClient)
	if err := bus.Start(); err != nil {
		log.Fatalf("Failed to start event bus: %v", err)
	}
	defer bus.Stop()

	presenceStore := presence.NewStore(redisClient, time.Minute)
	limiter := redis.NewRateLimiter(redisClient, redis.DefaultRateLimitConfig())

	// Repositories
	contactRepo := repository.NewContactRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	productRepo := repository.NewProductRepository(database.DB)
	quotationRepo := repository.NewQuotationRepository(database.DB)

	// Provider gateway and reconciler
	gw := gateway.NewClient(
		cfg.WhatsAppAPIBase,
		cfg.WhatsAppPhoneID,
		cfg.WhatsAppToken,
		time.Duration(cfg.WhatsAppSendTimeout)*time.Second,
		l,
	)
	rec := reconciler.New(database.DB, contactRepo, messageRepo, productRepo, gw, presenceStore, bus, l)

	// Quotation collaborators
	uploader, err := storage.NewClient(context.Background(), storage.S3Config{
		Region:     cfg.MediaRegion,
		Bucket:     cfg.MediaBucket,
		AccessKey:  cfg.MediaAccessKey,
		SecretKey:  cfg.MediaSecretKey,
		PublicBase: cfg.MediaBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to create media storage client: %v", err)
	}
	renderer := services.NewRendererClient(cfg.RendererURL)
	payments := services.NewPaymentClient(cfg.PaymentAPIURL, cfg.PaymentKeyID, cfg.PaymentSecret, l)

	// Services
	contactService := services.NewContactService(contactRepo, messageRepo, bus, l)
	productService := services.NewProductService(productRepo)
	quotationService := services.NewQuotationService(quotationRepo, productRepo, contactRepo, renderer, uploader, payments, rec, l)

	// Realtime hub
	hub := realtime.NewHub(bus, presenceStore)
	go hub.Run()
	defer hub.Stop()

	handlers := &server.Handlers{
		Webhook:        handler.NewWebhookHandler(rec, cfg.WhatsAppVerifyToken, l),
		PaymentWebhook: handler.NewPaymentWebhookHandler(quotationService, cfg.PaymentWebhookSecret, l),
		Message:        handler.NewMessageHandler(rec),
		Contact:        handler.NewContactHandler(contactService),
		Product:        handler.NewProductHandler(productService),
		Quotation:      handler.NewQuotationHandler(quotationService),
		WebSocket:      realtime.NewWebSocketHandler(hub),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
