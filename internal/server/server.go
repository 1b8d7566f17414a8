package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waconsole/config"
	"waconsole/internal/handler"
	"waconsole/internal/middleware"
	"waconsole/internal/realtime"
	"waconsole/internal/redis"
	"waconsole/internal/transport/httpdto"
	"waconsole/pkg/database"
	"waconsole/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Webhook        *handler.WebhookHandler
	PaymentWebhook *handler.PaymentWebhookHandler
	Message        *handler.MessageHandler
	Contact        *handler.ContactHandler
	Product        *handler.ProductHandler
	Quotation      *handler.QuotationHandler
	WebSocket      *realtime.WebSocketHandler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, limiter *redis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	webhook := s.engine.Group("/v1/webhooks/whatsapp")
	{
		webhook.GET("", handlers.Webhook.Verify)
		webhook.POST("", handlers.Webhook.Receive)
	}

	payments := s.engine.Group("/v1/webhooks/payments")
	{
		payments.POST("", handlers.PaymentWebhook.Receive)
	}

	messages := s.engine.Group("/v1/messages")
	{
		messages.GET("", handlers.Message.List)
		messages.POST("", middleware.SendRateLimitMiddleware(limiter), handlers.Message.Send)
		messages.DELETE("/:id", handlers.Message.Delete)
	}

	contacts := s.engine.Group("/v1/contacts")
	{
		contacts.GET("", handlers.Contact.List)
		contacts.GET("/:id", handlers.Contact.Get)
		contacts.POST("/:id/reset-unread", handlers.Contact.MarkRead)
	}

	products := s.engine.Group("/v1/products")
	{
		products.POST("", handlers.Product.Create)
		products.GET("", handlers.Product.List)
		products.GET("/:id", handlers.Product.Get)
		products.PUT("/:id", handlers.Product.Update)
		products.DELETE("/:id", handlers.Product.Delete)
	}

	quotations := s.engine.Group("/v1/quotations")
	{
		quotations.POST("", handlers.Quotation.Create)
		quotations.GET("", handlers.Quotation.List)
		quotations.GET("/:id", handlers.Quotation.Get)
		quotations.POST("/:id/send", handlers.Quotation.Send)
	}

	s.engine.GET("/v1/ws", middleware.ConnectRateLimitMiddleware(limiter), handlers.WebSocket.Handle)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
