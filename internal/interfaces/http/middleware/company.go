package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerd/backend/internal/infrastructure/logger"
	"github.com/ledgerd/backend/internal/interfaces/http/dto"
)

// Context and header keys for the company scope.
const (
	CompanyIDKey     = "company_id"
	CompanyHeaderKey = "X-Company-ID"
)

// CompanyConfig holds configuration for the company scope middleware
type CompanyConfig struct {
	// SkipPaths are paths served without a company scope
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultCompanyConfig returns the default company middleware configuration
func DefaultCompanyConfig() CompanyConfig {
	return CompanyConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready"},
	}
}

// CompanyScope extracts the company ID every ledger operation is scoped
// by. Requests without a valid X-Company-ID header are rejected.
func CompanyScope() gin.HandlerFunc {
	return CompanyScopeWithConfig(DefaultCompanyConfig())
}

// CompanyScopeWithConfig returns company middleware with custom configuration
func CompanyScopeWithConfig(cfg CompanyConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		raw := c.GetHeader(CompanyHeaderKey)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "missing "+CompanyHeaderKey+" header"))
			return
		}

		companyID, err := uuid.Parse(raw)
		if err != nil || companyID == uuid.Nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rejected request with malformed company id",
					zap.String("company_id", raw),
					zap.String("path", c.Request.URL.Path))
			}
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "malformed "+CompanyHeaderKey+" header"))
			return
		}

		c.Set(CompanyIDKey, companyID)
		c.Request = c.Request.WithContext(
			logger.WithCompanyID(c.Request.Context(), companyID.String()))
		c.Next()
	}
}

// GetCompanyID returns the company ID set by CompanyScope
func GetCompanyID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(CompanyIDKey)
	if !ok {
		return uuid.Nil, false
	}
	companyID, ok := value.(uuid.UUID)
	return companyID, ok
}
