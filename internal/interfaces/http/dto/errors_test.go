package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"not found maps to 404", ErrCodeNotFound, http.StatusNotFound},
		{"concurrency conflict maps to 409", ErrCodeConcurrencyConflict, http.StatusConflict},
		{"invalid amount maps to 422", ErrCodeInvalidAmount, http.StatusUnprocessableEntity},
		{"invalid state maps to 422", ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{"invalid input maps to 400", ErrCodeInvalidInput, http.StatusBadRequest},
		{"unknown code maps to 500", "ERR_SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestMapDomainCode(t *testing.T) {
	tests := []struct {
		name       string
		domainCode string
		want       string
	}{
		{"not found", "NOT_FOUND", ErrCodeNotFound},
		{"invalid amount", "INVALID_AMOUNT", ErrCodeInvalidAmount},
		{"concurrency conflict", "CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"persistence failure hides as internal", "PERSISTENCE_FAILURE", ErrCodeInternal},
		{"unmapped code", "SOMETHING_NEW", ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapDomainCode(tt.domainCode))
		})
	}
}

func TestListRequest_ToFilter(t *testing.T) {
	t.Run("applies defaults for zero values", func(t *testing.T) {
		filter := ListRequest{}.ToFilter()

		assert.Equal(t, 1, filter.Page)
		assert.Equal(t, 20, filter.PageSize)
		assert.Equal(t, "created_at", filter.OrderBy)
		assert.Equal(t, "desc", filter.OrderDir)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		filter := ListRequest{Page: 3, PageSize: 50, OrderBy: "number", OrderDir: "asc"}.ToFilter()

		assert.Equal(t, 3, filter.Page)
		assert.Equal(t, 50, filter.PageSize)
		assert.Equal(t, "number", filter.OrderBy)
		assert.Equal(t, "asc", filter.OrderDir)
	})
}
