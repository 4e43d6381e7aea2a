package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/ledgerd/backend/internal/application/billing"
	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
	"github.com/ledgerd/backend/internal/interfaces/http/dto"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePaymentRequest represents the payload for recording a payment
type CreatePaymentRequest struct {
	CustomerID   string     `json:"customer_id" binding:"required,uuid"`
	InvoiceID    *string    `json:"invoice_id" binding:"omitempty,uuid"`
	Amount       float64    `json:"amount" binding:"required,gt=0"`
	Currency     string     `json:"currency"`
	ExchangeRate float64    `json:"exchange_rate" binding:"omitempty,gt=0"`
	PaymentDate  *time.Time `json:"payment_date"`
	Notes        string     `json:"notes"`
}

// UpdatePaymentRequest represents the payload for amending a payment
type UpdatePaymentRequest struct {
	CustomerID string  `json:"customer_id" binding:"required,uuid"`
	InvoiceID  *string `json:"invoice_id" binding:"omitempty,uuid"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	Notes      string  `json:"notes"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                     string    `json:"id"`
	CompanyID              string    `json:"company_id"`
	CustomerID             string    `json:"customer_id"`
	InvoiceID              *string   `json:"invoice_id,omitempty"`
	Number                 string    `json:"number"`
	SequenceNumber         int64     `json:"sequence_number"`
	CustomerSequenceNumber int64     `json:"customer_sequence_number"`
	Amount                 string    `json:"amount"`
	Currency               string    `json:"currency"`
	ExchangeRate           string    `json:"exchange_rate"`
	PaymentDate            time.Time `json:"payment_date"`
	UniqueHash             string    `json:"unique_hash"`
	Notes                  string    `json:"notes,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
	Version                int       `json:"version"`
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	var invoiceID *string
	if p.InvoiceID != nil {
		s := p.InvoiceID.String()
		invoiceID = &s
	}
	return PaymentResponse{
		ID:                     p.ID.String(),
		CompanyID:              p.CompanyID.String(),
		CustomerID:             p.CustomerID.String(),
		InvoiceID:              invoiceID,
		Number:                 p.Number,
		SequenceNumber:         p.SequenceNumber,
		CustomerSequenceNumber: p.CustomerSequenceNumber,
		Amount:                 p.Amount.String(),
		Currency:               string(p.Currency),
		ExchangeRate:           p.ExchangeRate.String(),
		PaymentDate:            p.PaymentDate,
		UniqueHash:             p.UniqueHash,
		Notes:                  p.Notes,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
		Version:                p.Version,
	}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Create)
		payments.GET("", h.List)
		payments.GET("/:id", h.Get)
		payments.PUT("/:id", h.Update)
		payments.POST("/delete", h.Delete)
	}
	rg.GET("/invoices/:id/balance", h.GetInvoiceBalance)
}

// Create records a payment, optionally allocated against an invoice
func (h *PaymentHandler) Create(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		h.missingCompanyScope(c)
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "malformed customer_id")
		return
	}

	var invoiceID *uuid.UUID
	if req.InvoiceID != nil {
		id, err := uuid.Parse(*req.InvoiceID)
		if err != nil {
			h.BadRequest(c, "malformed invoice_id")
			return
		}
		invoiceID = &id
	}

	var paymentDate time.Time
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	result, err := h.paymentService.CreatePayment(c.Request.Context(), billingapp.CreatePaymentRequest{
		CompanyID:    companyID,
		CustomerID:   customerID,
		InvoiceID:    invoiceID,
		Amount:       toDecimal(req.Amount),
		Currency:     valueobject.Currency(req.Currency),
		ExchangeRate: toDecimal(req.ExchangeRate),
		PaymentDate:  paymentDate,
		Notes:        req.Notes,
	})
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Get returns one payment
func (h *PaymentHandler) Get(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		h.missingCompanyScope(c)
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "malformed payment id")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), companyID, paymentID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(payment))
}

// List returns a page of payments
func (h *PaymentHandler) List(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		h.missingCompanyScope(c)
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := req.ToFilter()
	if v := c.Query("customer_id"); v != "" {
		filter.Filters["customer_id"] = v
	}
	if v := c.Query("invoice_id"); v != "" {
		filter.Filters["invoice_id"] = v
	}

	page, err := h.paymentService.ListPayments(c.Request.Context(), companyID, filter)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	responses := make([]PaymentResponse, len(page.Items))
	for i, p := range page.Items {
		responses[i] = toPaymentResponse(p)
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// Update amends a payment: amount, customer, or invoice allocation.
// The old allocation is reversed before the new one is applied.
func (h *PaymentHandler) Update(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		h.missingCompanyScope(c)
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "malformed payment id")
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "malformed customer_id")
		return
	}

	var invoiceID *uuid.UUID
	if req.InvoiceID != nil {
		id, err := uuid.Parse(*req.InvoiceID)
		if err != nil {
			h.BadRequest(c, "malformed invoice_id")
			return
		}
		invoiceID = &id
	}

	result, err := h.paymentService.UpdatePayment(c.Request.Context(), billingapp.UpdatePaymentRequest{
		CompanyID:  companyID,
		PaymentID:  paymentID,
		CustomerID: customerID,
		InvoiceID:  invoiceID,
		Amount:     toDecimal(req.Amount),
		Notes:      req.Notes,
	})
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, result)
}

// DeletePaymentsRequest carries the ids for a batch delete
type DeletePaymentsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// Delete removes a batch of payments, restoring each linked invoice's
// balance. Unknown ids are skipped.
func (h *PaymentHandler) Delete(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		h.missingCompanyScope(c)
		return
	}

	var req DeletePaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	ids := make([]uuid.UUID, len(req.IDs))
	for i, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "malformed payment id: "+raw)
			return
		}
		ids[i] = id
	}

	if err := h.paymentService.DeletePayments(c.Request.Context(), companyID, ids); err != nil {
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}

// GetInvoiceBalance returns the outstanding position of one invoice
func (h *PaymentHandler) GetInvoiceBalance(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		h.missingCompanyScope(c)
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "malformed invoice id")
		return
	}

	balance, err := h.paymentService.GetInvoiceBalance(c.Request.Context(), companyID, invoiceID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, balance)
}
