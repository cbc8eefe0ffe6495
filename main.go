package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/si451/creatorconnect/backend/config"
	"github.com/si451/creatorconnect/backend/dao"
	"github.com/si451/creatorconnect/backend/handler"
	"github.com/si451/creatorconnect/backend/middleware"
	"github.com/si451/creatorconnect/backend/pkg/logger"
	"github.com/si451/creatorconnect/backend/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Database: durable session identity and verified payments
	db, err := dao.Open(&cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := dao.EnsureSchema(db); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	sessionRepo := dao.NewSessionRepository(db)
	paymentRepo := dao.NewPaymentRepository(db)

	// Object storage for finalized paperwork
	archiveSvc, err := service.NewArchiveService(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize archive service", "error", err)
		os.Exit(1)
	}
	if err := archiveSvc.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure archive bucket", "error", err)
		os.Exit(1)
	}

	// Upstream negotiation backend and in-memory workflow state
	upstream := service.NewUpstream(&cfg.Upstream)
	sessionStore := service.NewSessionStore(&cfg.Store)
	dealStore := service.NewDealStore(&cfg.Store)
	chatSvc := service.NewChatService(upstream, sessionStore, sessionRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	chatHandler := handler.NewChatHandler(chatSvc)
	dealHandler := handler.NewDealHandler(dealStore, upstream)
	signatureHandler := handler.NewSignatureHandler(dealStore, upstream, archiveSvc)
	paymentHandler := handler.NewPaymentHandler(dealStore, upstream, paymentRepo, &cfg.Checkout)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())     // Request ID for tracing
	router.Use(middleware.Recovery())      // Panic recovery
	router.Use(middleware.RequestLogger()) // Access logging
	router.Use(corsMiddleware())           // CORS

	// Rate limiting: 100 requests per minute, keyed per tenant once
	// authenticated, per IP on public routes. Registered per group so the
	// protected limiter runs after auth has resolved the tenant.
	rateLimit := middleware.RateLimit(100, time.Minute)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", rateLimit, authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	protected.Use(rateLimit)
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/sessions", chatHandler.OpenSession)
		protected.GET("/sessions/:id/messages", chatHandler.GetMessages)
		protected.POST("/sessions/:id/messages", chatHandler.SendMessage)
		protected.DELETE("/sessions/:id/messages", chatHandler.ClearMessages)

		protected.POST("/deals", dealHandler.Create)
		protected.GET("/deals", dealHandler.List)
		protected.GET("/deals/:id", dealHandler.Get)
		protected.POST("/deals/:id/accept", dealHandler.Accept)
		protected.POST("/deals/:id/reject", dealHandler.Reject)
		protected.GET("/deals/:id/contract", dealHandler.DownloadContract)

		protected.POST("/deals/:id/signature", signatureHandler.Upload)
		protected.POST("/deals/:id/signature/cancel", signatureHandler.Cancel)
		protected.GET("/deals/:id/signed-contract", signatureHandler.DownloadSigned)
		protected.GET("/deals/:id/archive", signatureHandler.ArchiveLinks)

		protected.POST("/deals/:id/payment/order", paymentHandler.CreateOrder)
		protected.POST("/deals/:id/payment/verify", paymentHandler.VerifyPayment)
		protected.POST("/deals/:id/payment/dismiss", paymentHandler.DismissCheckout)
		protected.GET("/deals/:id/payment", paymentHandler.GetPayment)
		protected.GET("/payments", paymentHandler.ListPayments)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
