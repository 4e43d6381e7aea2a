package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/interfaces/http/dto"
	"github.com/ledgerd/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// getCompanyID extracts the company scope set by the middleware
func getCompanyID(c *gin.Context) (uuid.UUID, bool) {
	return middleware.GetCompanyID(c)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// DomainError maps a domain error to its wire code and status
func (h *BaseHandler) DomainError(c *gin.Context, err error) {
	code := dto.MapDomainCode(shared.ErrorCode(err))
	message := err.Error()
	if code == dto.ErrCodeInternal || code == dto.ErrCodeUnknown {
		// Do not leak internals; the request ID links to the logs
		message = "internal error"
	}
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// missingCompanyScope rejects a request that reached a handler without
// the company middleware having run
func (h *BaseHandler) missingCompanyScope(c *gin.Context) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "missing company scope")
}
