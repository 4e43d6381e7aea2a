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

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// CreateInvoiceRequest represents the payload for raising an invoice
type CreateInvoiceRequest struct {
	CustomerID   string     `json:"customer_id" binding:"required,uuid"`
	Total        float64    `json:"total" binding:"min=0"`
	Currency     string     `json:"currency"`
	ExchangeRate float64    `json:"exchange_rate" binding:"omitempty,gt=0"`
	DueDate      *time.Time `json:"due_date"`
	Notes        string     `json:"notes"`
	Send         bool       `json:"send"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                     string     `json:"id"`
	CompanyID              string     `json:"company_id"`
	CustomerID             string     `json:"customer_id"`
	Number                 string     `json:"number"`
	SequenceNumber         int64      `json:"sequence_number"`
	CustomerSequenceNumber int64      `json:"customer_sequence_number"`
	Total                  string     `json:"total"`
	DueAmount              string     `json:"due_amount"`
	BaseTotal              string     `json:"base_total"`
	BaseDueAmount          string     `json:"base_due_amount"`
	Currency               string     `json:"currency"`
	ExchangeRate           string     `json:"exchange_rate"`
	Status                 string     `json:"status"`
	PaidStatus             string     `json:"paid_status"`
	Sent                   bool       `json:"sent"`
	Viewed                 bool       `json:"viewed"`
	Overdue                bool       `json:"overdue"`
	InvoiceDate            time.Time  `json:"invoice_date"`
	DueDate                *time.Time `json:"due_date,omitempty"`
	UniqueHash             string     `json:"unique_hash"`
	Notes                  string     `json:"notes,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	Version                int        `json:"version"`
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                     inv.ID.String(),
		CompanyID:              inv.CompanyID.String(),
		CustomerID:             inv.CustomerID.String(),
		Number:                 inv.Number,
		SequenceNumber:         inv.SequenceNumber,
		CustomerSequenceNumber: inv.CustomerSequenceNumber,
		Total:                  inv.Total.String(),
		DueAmount:              inv.DueAmount.String(),
		BaseTotal:              inv.BaseTotal.String(),
		BaseDueAmount:          inv.BaseDueAmount.String(),
		Currency:               string(inv.Currency),
		ExchangeRate:           inv.ExchangeRate.String(),
		Status:                 inv.Status.String(),
		PaidStatus:             inv.PaidStatus.String(),
		Sent:                   inv.Sent,
		Viewed:                 inv.Viewed,
		Overdue:                inv.Overdue,
		InvoiceDate:            inv.InvoiceDate,
		DueDate:                inv.DueDate,
		UniqueHash:             inv.UniqueHash,
		Notes:                  inv.Notes,
		CreatedAt:              inv.CreatedAt,
		UpdatedAt:              inv.UpdatedAt,
		Version:                inv.Version,
	}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.Create)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.Get)
		invoices.POST("/:id/send", h.MarkSent)
		invoices.POST("/:id/viewed", h.MarkViewed)
		invoices.POST("/delete", h.Delete)
	}
}

// Create raises a new invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		h.missingCompanyScope(c)
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "malformed customer_id")
		return
	}

	result, err := h.invoiceService.CreateInvoice(c.Request.Context(), billingapp.CreateInvoiceRequest{
		CompanyID:    companyID,
		CustomerID:   customerID,
		Total:        toDecimal(req.Total),
		Currency:     valueobject.Currency(req.Currency),
		ExchangeRate: toDecimal(req.ExchangeRate),
		DueDate:      req.DueDate,
		Notes:        req.Notes,
		Send:         req.Send,
	})
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Get returns one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
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

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), companyID, invoiceID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// List returns a page of invoices
func (h *InvoiceHandler) List(c *gin.Context) {
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
	if v := c.Query("status"); v != "" {
		filter.Filters["status"] = v
	}
	if v := c.Query("paid_status"); v != "" {
		filter.Filters["paid_status"] = v
	}

	page, err := h.invoiceService.ListInvoices(c.Request.Context(), companyID, filter)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	responses := make([]InvoiceResponse, len(page.Items))
	for i, inv := range page.Items {
		responses[i] = toInvoiceResponse(inv)
	}
	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}

// MarkSent flags the invoice as delivered
func (h *InvoiceHandler) MarkSent(c *gin.Context) {
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

	if err := h.invoiceService.MarkSent(c.Request.Context(), companyID, invoiceID); err != nil {
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}

// MarkViewed flags the invoice as opened by the customer
func (h *InvoiceHandler) MarkViewed(c *gin.Context) {
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

	if err := h.invoiceService.MarkViewed(c.Request.Context(), companyID, invoiceID); err != nil {
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}

// DeleteInvoicesRequest carries the ids for a batch delete
type DeleteInvoicesRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// Delete removes a batch of invoices; linked payments survive as
// unlinked receipts
func (h *InvoiceHandler) Delete(c *gin.Context) {
	companyID, ok := getCompanyID(c)
	if !ok {
		h.missingCompanyScope(c)
		return
	}

	var req DeleteInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	ids := make([]uuid.UUID, len(req.IDs))
	for i, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "malformed invoice id: "+raw)
			return
		}
		ids[i] = id
	}

	if err := h.invoiceService.DeleteInvoices(c.Request.Context(), companyID, ids); err != nil {
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}
