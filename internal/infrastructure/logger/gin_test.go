package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveRequest(t *testing.T, level zapcore.Level, configure func(*gin.Engine, *zap.Logger), method, target string) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(level)
	zapLogger := zap.New(core)

	router := gin.New()
	configure(router, zapLogger)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w, recorded
}

func requestLog(t *testing.T, recorded *observer.ObservedLogs) *observer.LoggedEntry {
	t.Helper()
	for _, entry := range recorded.All() {
		if entry.Message == "request completed" {
			e := entry
			return &e
		}
	}
	require.FailNow(t, "request completed entry not logged")
	return nil
}

func fieldString(entry *observer.LoggedEntry, key string) (string, bool) {
	for _, field := range entry.Context {
		if field.Key == key {
			return field.String, true
		}
	}
	return "", false
}

func TestGinMiddleware(t *testing.T) {
	t.Run("successful request logged at info", func(t *testing.T) {
		w, recorded := serveRequest(t, zapcore.InfoLevel, func(r *gin.Engine, log *zap.Logger) {
			r.Use(GinMiddleware(log))
			r.GET("/api/v1/invoices", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"data": []string{}})
			})
		}, http.MethodGet, "/api/v1/invoices")

		assert.Equal(t, http.StatusOK, w.Code)
		entry := requestLog(t, recorded)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)
	})

	t.Run("client error logged at warn", func(t *testing.T) {
		_, recorded := serveRequest(t, zapcore.WarnLevel, func(r *gin.Engine, log *zap.Logger) {
			r.Use(GinMiddleware(log))
			r.POST("/api/v1/payments", func(c *gin.Context) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid amount"})
			})
		}, http.MethodPost, "/api/v1/payments")

		entry := requestLog(t, recorded)
		assert.Equal(t, zapcore.WarnLevel, entry.Level)
	})

	t.Run("server error logged at error", func(t *testing.T) {
		_, recorded := serveRequest(t, zapcore.ErrorLevel, func(r *gin.Engine, log *zap.Logger) {
			r.Use(GinMiddleware(log))
			r.GET("/api/v1/invoices", func(c *gin.Context) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			})
		}, http.MethodGet, "/api/v1/invoices")

		entry := requestLog(t, recorded)
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	})
}

func TestGinMiddleware_RequestID(t *testing.T) {
	_, recorded := serveRequest(t, zapcore.InfoLevel, func(r *gin.Engine, log *zap.Logger) {
		r.Use(func(c *gin.Context) {
			c.Set("request_id", "req-4c1d")
			c.Next()
		})
		r.Use(GinMiddleware(log))
		r.GET("/api/v1/invoices", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	}, http.MethodGet, "/api/v1/invoices")

	entry := requestLog(t, recorded)
	id, ok := fieldString(entry, "request_id")
	require.True(t, ok, "request_id should be in log fields")
	assert.Equal(t, "req-4c1d", id)
}

func TestGinMiddleware_CompanyID(t *testing.T) {
	companyID := uuid.New()

	t.Run("company scope surfaces in the entry", func(t *testing.T) {
		_, recorded := serveRequest(t, zapcore.InfoLevel, func(r *gin.Engine, log *zap.Logger) {
			r.Use(GinMiddleware(log))
			r.Use(func(c *gin.Context) {
				c.Set("company_id", companyID)
				c.Next()
			})
			r.GET("/api/v1/invoices", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
		}, http.MethodGet, "/api/v1/invoices")

		entry := requestLog(t, recorded)
		id, ok := fieldString(entry, "company_id")
		require.True(t, ok, "company_id should be in log fields")
		assert.Equal(t, companyID.String(), id)
	})

	t.Run("unscoped request logs without company", func(t *testing.T) {
		_, recorded := serveRequest(t, zapcore.InfoLevel, func(r *gin.Engine, log *zap.Logger) {
			r.Use(GinMiddleware(log))
			r.GET("/health", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
		}, http.MethodGet, "/health")

		entry := requestLog(t, recorded)
		_, ok := fieldString(entry, "company_id")
		assert.False(t, ok)
	})
}

func TestGinMiddleware_Query(t *testing.T) {
	_, recorded := serveRequest(t, zapcore.InfoLevel, func(r *gin.Engine, log *zap.Logger) {
		r.Use(GinMiddleware(log))
		r.GET("/api/v1/invoices", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	}, http.MethodGet, "/api/v1/invoices?status=SENT&page=2")

	entry := requestLog(t, recorded)
	query, ok := fieldString(entry, "query")
	require.True(t, ok, "query should be in log fields")
	assert.Contains(t, query, "status=SENT")
}

func TestRecovery(t *testing.T) {
	companyID := uuid.New()

	var w *httptest.ResponseRecorder
	var recorded *observer.ObservedLogs
	assert.NotPanics(t, func() {
		w, recorded = serveRequest(t, zapcore.ErrorLevel, func(r *gin.Engine, log *zap.Logger) {
			r.Use(Recovery(log))
			r.Use(func(c *gin.Context) {
				c.Set("company_id", companyID)
				c.Next()
			})
			r.GET("/api/v1/payments", func(c *gin.Context) {
				panic("settings provider exploded")
			})
		}, http.MethodGet, "/api/v1/payments")
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Equal(t, "panic recovered", logs[0].Message)
	id, ok := fieldString(&logs[0], "company_id")
	require.True(t, ok)
	assert.Equal(t, companyID.String(), id)
}

func TestGetGinLogger(t *testing.T) {
	t.Run("returns the request-scoped logger", func(t *testing.T) {
		var retrieved *zap.Logger
		serveRequest(t, zapcore.InfoLevel, func(r *gin.Engine, log *zap.Logger) {
			r.Use(GinMiddleware(log))
			r.GET("/api/v1/invoices", func(c *gin.Context) {
				retrieved = GetGinLogger(c)
				c.Status(http.StatusOK)
			})
		}, http.MethodGet, "/api/v1/invoices")

		assert.NotNil(t, retrieved)
	})

	t.Run("falls back to a no-op logger", func(t *testing.T) {
		var retrieved *zap.Logger
		serveRequest(t, zapcore.InfoLevel, func(r *gin.Engine, _ *zap.Logger) {
			r.GET("/api/v1/invoices", func(c *gin.Context) {
				retrieved = GetGinLogger(c)
				c.Status(http.StatusOK)
			})
		}, http.MethodGet, "/api/v1/invoices")

		require.NotNil(t, retrieved)
		assert.NotPanics(t, func() {
			retrieved.Info("noop")
		})
	})
}
