// Package http provides the HTTP adapter for the application layer.
// It is a thin layer that translates requests into application service
// calls.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resellkart/billing/internal/application/port"
	"github.com/resellkart/billing/internal/application/service"
	"github.com/resellkart/billing/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// InvoiceWriter renders a bill into a downloadable workbook
type InvoiceWriter interface {
	Write(bill *entity.Bill, counterparty *entity.Counterparty, out io.Writer) error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config          ServerConfig
	httpServer      *http.Server
	router          *gin.Engine
	orderService    service.OrderService
	purchaseService service.PurchaseService
	logger          Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	orderService service.OrderService,
	purchaseService service.PurchaseService,
	counterpartyRepo port.CounterpartyRepository,
	invoiceWriter InvoiceWriter,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:          config,
		router:          router,
		orderService:    orderService,
		purchaseService: purchaseService,
		logger:          logger,
	}

	server.setupMiddleware()
	server.setupRoutes(counterpartyRepo, invoiceWriter)

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(counterpartyRepo port.CounterpartyRepository, invoiceWriter InvoiceWriter) {
	handlers := NewHandlers(s.orderService, s.purchaseService, counterpartyRepo, invoiceWriter, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// API routes
	api := s.router.Group("/api")
	{
		// Order bills
		api.POST("/orders", handlers.CreateOrder)
		api.GET("/orders", handlers.ListOrders)
		api.GET("/orders/:id", handlers.GetOrder)
		api.POST("/orders/:id/cancel", handlers.CancelOrder)
		api.GET("/orders/:id/export", handlers.ExportOrder)

		// Purchase bills
		api.POST("/purchases", handlers.CreatePurchase)
		api.GET("/purchases", handlers.ListPurchases)
		api.GET("/purchases/:id", handlers.GetPurchase)
		api.PUT("/purchases/:id/expenses", handlers.UpdateExpenses)
		api.POST("/purchases/:id/payments", handlers.RecordPayment)
		api.POST("/purchases/:id/cancel", handlers.CancelPurchase)
		api.GET("/purchases/:id/export", handlers.ExportPurchase)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
