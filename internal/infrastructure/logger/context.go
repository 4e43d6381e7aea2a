package logger

import (
	"context"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// RequestIDKey is the context key for the request ID
	RequestIDKey contextKey = "request_id"
	// CompanyIDKey is the context key for the company ID used in log
	// enrichment. This is observability metadata only; domain operations
	// always take the company ID as an explicit parameter.
	CompanyIDKey contextKey = "company_id"
)

// WithRequestID stamps the request ID onto the context so downstream
// logging (the gorm trace logger in particular) can correlate entries.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithCompanyID stamps the company ID onto the context for log
// enrichment.
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, CompanyIDKey, companyID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetCompanyID retrieves the company ID from context
func GetCompanyID(ctx context.Context) string {
	if companyID, ok := ctx.Value(CompanyIDKey).(string); ok {
		return companyID
	}
	return ""
}
