package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/resellkart/billing/internal/application/port"
	"github.com/resellkart/billing/internal/application/service"
	"github.com/resellkart/billing/internal/domain/billing"
	"github.com/resellkart/billing/internal/domain/billstate"
	"github.com/resellkart/billing/internal/domain/entity"
	"github.com/resellkart/billing/internal/repository"
)

const excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	orderService     service.OrderService
	purchaseService  service.PurchaseService
	counterpartyRepo port.CounterpartyRepository
	invoiceWriter    InvoiceWriter
	logger           Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	orderService service.OrderService,
	purchaseService service.PurchaseService,
	counterpartyRepo port.CounterpartyRepository,
	invoiceWriter InvoiceWriter,
	logger Logger,
) *Handlers {
	return &Handlers{
		orderService:     orderService,
		purchaseService:  purchaseService,
		counterpartyRepo: counterpartyRepo,
		invoiceWriter:    invoiceWriter,
		logger:           logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ListRequest represents query parameters for list endpoints
type ListRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (r *ListRequest) normalize() {
	if r.Limit <= 0 || r.Limit > 100 {
		r.Limit = 20
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateOrder handles POST /api/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	bill, err := h.orderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, "create order", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: roundedBill(bill)})
}

// ListOrders handles GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}
	req.normalize()

	bills, err := h.orderService.ListOrders(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, "list orders", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: roundedBills(bills)})
}

// GetOrder handles GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	id, ok := h.billID(c)
	if !ok {
		return
	}

	bill, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get order", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: roundedBill(bill)})
}

// CancelOrder handles POST /api/orders/:id/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	id, ok := h.billID(c)
	if !ok {
		return
	}

	if err := h.orderService.CancelOrder(c.Request.Context(), id); err != nil {
		h.respondError(c, "cancel order", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ExportOrder handles GET /api/orders/:id/export
func (h *Handlers) ExportOrder(c *gin.Context) {
	id, ok := h.billID(c)
	if !ok {
		return
	}

	bill, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "export order", err)
		return
	}

	h.streamInvoice(c, bill, fmt.Sprintf("order-%d.xlsx", id))
}

// CreatePurchase handles POST /api/purchases
func (h *Handlers) CreatePurchase(c *gin.Context) {
	var input service.CreatePurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	bill, err := h.purchaseService.CreatePurchase(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, "create purchase", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: roundedBill(bill)})
}

// ListPurchases handles GET /api/purchases
func (h *Handlers) ListPurchases(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters", err)
		return
	}
	req.normalize()

	bills, err := h.purchaseService.ListPurchases(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, "list purchases", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: roundedBills(bills)})
}

// GetPurchase handles GET /api/purchases/:id
func (h *Handlers) GetPurchase(c *gin.Context) {
	id, ok := h.billID(c)
	if !ok {
		return
	}

	view, err := h.purchaseService.GetPurchase(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get purchase", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: roundedView(view)})
}

// UpdateExpenses handles PUT /api/purchases/:id/expenses
func (h *Handlers) UpdateExpenses(c *gin.Context) {
	id, ok := h.billID(c)
	if !ok {
		return
	}

	var input service.ExpensesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	view, err := h.purchaseService.UpdateExpenses(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, "update expenses", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: roundedView(view)})
}

// RecordPayment handles POST /api/purchases/:id/payments
func (h *Handlers) RecordPayment(c *gin.Context) {
	id, ok := h.billID(c)
	if !ok {
		return
	}

	var input service.PaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	bill, err := h.purchaseService.RecordPayment(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, "record payment", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: roundedBill(bill)})
}

// CancelPurchase handles POST /api/purchases/:id/cancel
func (h *Handlers) CancelPurchase(c *gin.Context) {
	id, ok := h.billID(c)
	if !ok {
		return
	}

	if err := h.purchaseService.CancelPurchase(c.Request.Context(), id); err != nil {
		h.respondError(c, "cancel purchase", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ExportPurchase handles GET /api/purchases/:id/export
func (h *Handlers) ExportPurchase(c *gin.Context) {
	id, ok := h.billID(c)
	if !ok {
		return
	}

	view, err := h.purchaseService.GetPurchase(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "export purchase", err)
		return
	}

	h.streamInvoice(c, view.Bill, fmt.Sprintf("purchase-%d.xlsx", id))
}

// streamInvoice renders the bill workbook straight into the response
func (h *Handlers) streamInvoice(c *gin.Context, bill *entity.Bill, filename string) {
	counterparty, err := h.counterpartyRepo.GetByID(c.Request.Context(), bill.CounterpartyID)
	if err != nil {
		h.respondError(c, "resolve counterparty", err)
		return
	}

	c.Header("Content-Type", excelContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.invoiceWriter.Write(bill, counterparty, c.Writer); err != nil {
		h.logger.Error("Failed to stream invoice", "bill_id", bill.ID, "error", err)
		c.Status(http.StatusInternalServerError)
	}
}

// billID parses the :id path parameter
func (h *Handlers) billID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.badRequest(c, "invalid bill ID", err)
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "error", err)
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
	})
}

// respondError maps domain and repository errors onto HTTP statuses
func (h *Handlers) respondError(c *gin.Context, action string, err error) {
	h.logger.Error("Request failed", "action", action, "error", err)

	var verr *billing.ValidationError
	var inv *billing.InvariantViolation

	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: verr.Error()})
	case errors.Is(err, billstate.ErrInvalidTransition):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.As(err, &inv):
		c.JSON(http.StatusConflict, Response{Success: false, Error: inv.Error()})
	default:
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to " + action})
	}
}
