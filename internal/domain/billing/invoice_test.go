package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

// Test helpers
func createTestInvoice(t *testing.T) *Invoice {
	companyID := uuid.New()
	customerID := uuid.New()

	inv, err := NewInvoice(companyID, customerID, decimal.NewFromInt(200), valueobject.EUR, decimal.NewFromInt(2))
	require.NoError(t, err)
	return inv
}

func dec(t *testing.T, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// ============================================
// Status enum tests
// ============================================

func TestInvoiceStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  InvoiceStatus
		isValid bool
	}{
		{InvoiceStatusDraft, true},
		{InvoiceStatusSent, true},
		{InvoiceStatusViewed, true},
		{InvoiceStatusCompleted, true},
		{InvoiceStatus("OVERDUE"), false},
		{InvoiceStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestPaidStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  PaidStatus
		isValid bool
	}{
		{PaidStatusUnpaid, true},
		{PaidStatusPartiallyPaid, true},
		{PaidStatusPaid, true},
		{PaidStatus("SETTLED"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

// ============================================
// NewInvoice tests
// ============================================

func TestNewInvoice(t *testing.T) {
	t.Run("creates draft with full balance outstanding", func(t *testing.T) {
		inv := createTestInvoice(t)

		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.Equal(t, PaidStatusUnpaid, inv.PaidStatus)
		assert.True(t, inv.DueAmount.Equal(decimal.NewFromInt(200)))
		assert.True(t, inv.BaseDueAmount.Equal(decimal.NewFromInt(400)))
		assert.True(t, inv.BaseTotal.Equal(decimal.NewFromInt(400)))
		assert.False(t, inv.Sent)
		assert.False(t, inv.Viewed)
		assert.NotEmpty(t, inv.UniqueHash)
		assert.Equal(t, 1, inv.Version)
	})

	t.Run("rejects negative total", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), uuid.New(), decimal.NewFromInt(-1), valueobject.USD, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("rejects non-positive exchange rate", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), uuid.New(), decimal.NewFromInt(10), valueobject.USD, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("defaults currency", func(t *testing.T) {
		inv, err := NewInvoice(uuid.New(), uuid.New(), decimal.NewFromInt(10), "", decimal.NewFromInt(1))
		require.NoError(t, err)
		assert.Equal(t, valueobject.DefaultCurrency, inv.Currency)
	})

	t.Run("rejects malformed currency", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), uuid.New(), decimal.NewFromInt(10), "euro", decimal.NewFromInt(1))
		require.Error(t, err)
		assert.Equal(t, "INVALID_INPUT", shared.ErrorCode(err))
	})
}

// ============================================
// PreviousStatus tests
// ============================================

func TestInvoice_PreviousStatus(t *testing.T) {
	tests := []struct {
		name     string
		sent     bool
		viewed   bool
		expected InvoiceStatus
	}{
		{"never sent", false, false, InvoiceStatusDraft},
		{"sent only", true, false, InvoiceStatusSent},
		{"viewed wins over sent", true, true, InvoiceStatusViewed},
		{"viewed without sent", false, true, InvoiceStatusViewed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := createTestInvoice(t)
			inv.Sent = tt.sent
			inv.Viewed = tt.viewed
			assert.Equal(t, tt.expected, inv.PreviousStatus())
		})
	}
}

// ============================================
// ApplyPayment tests
// ============================================

func TestInvoice_ApplyPayment(t *testing.T) {
	t.Run("partial payment", func(t *testing.T) {
		inv := createTestInvoice(t)
		inv.MarkSent()

		err := inv.ApplyPayment(decimal.NewFromInt(50))
		require.NoError(t, err)

		assert.True(t, inv.DueAmount.Equal(decimal.NewFromInt(150)))
		assert.True(t, inv.BaseDueAmount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, InvoiceStatusSent, inv.Status)
		assert.Equal(t, PaidStatusPartiallyPaid, inv.PaidStatus)
	})

	t.Run("full settlement completes the invoice", func(t *testing.T) {
		inv := createTestInvoice(t)
		inv.Overdue = true

		err := inv.ApplyPayment(decimal.NewFromInt(200))
		require.NoError(t, err)

		assert.True(t, inv.DueAmount.IsZero())
		assert.True(t, inv.BaseDueAmount.IsZero())
		assert.Equal(t, InvoiceStatusCompleted, inv.Status)
		assert.Equal(t, PaidStatusPaid, inv.PaidStatus)
		assert.False(t, inv.Overdue, "settlement clears the overdue flag")
	})

	t.Run("overpayment rejected without mutation", func(t *testing.T) {
		inv := createTestInvoice(t)
		versionBefore := inv.Version
		dueBefore := inv.DueAmount

		err := inv.ApplyPayment(decimal.NewFromInt(201))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
		assert.True(t, inv.DueAmount.Equal(dueBefore))
		assert.Equal(t, versionBefore, inv.Version)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.Equal(t, PaidStatusUnpaid, inv.PaidStatus)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		inv := createTestInvoice(t)
		assert.ErrorIs(t, inv.ApplyPayment(decimal.Zero), shared.ErrInvalidAmount)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		inv := createTestInvoice(t)
		assert.ErrorIs(t, inv.ApplyPayment(decimal.NewFromInt(-5)), shared.ErrInvalidAmount)
	})

	t.Run("increments version", func(t *testing.T) {
		inv := createTestInvoice(t)
		v := inv.Version
		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(10)))
		assert.Equal(t, v+1, inv.Version)
	})

	t.Run("base mirror rounds half even", func(t *testing.T) {
		inv, err := NewInvoice(uuid.New(), uuid.New(), dec(t, "100"), valueobject.EUR, dec(t, "1.5"))
		require.NoError(t, err)

		require.NoError(t, inv.ApplyPayment(dec(t, "10.05")))
		// 10.05 * 1.5 = 15.075 -> 15.08
		assert.Equal(t, "134.92", inv.BaseDueAmount.StringFixed(2))
	})
}

// ============================================
// ReversePayment tests
// ============================================

func TestInvoice_ReversePayment(t *testing.T) {
	t.Run("restores balance and unpaid status", func(t *testing.T) {
		inv := createTestInvoice(t)
		inv.MarkSent()
		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(200)))
		require.Equal(t, InvoiceStatusCompleted, inv.Status)

		err := inv.ReversePayment(decimal.NewFromInt(200))
		require.NoError(t, err)

		assert.True(t, inv.DueAmount.Equal(decimal.NewFromInt(200)))
		assert.True(t, inv.BaseDueAmount.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, InvoiceStatusSent, inv.Status)
		assert.Equal(t, PaidStatusUnpaid, inv.PaidStatus)
	})

	t.Run("partial reversal leaves partially paid", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(200)))

		err := inv.ReversePayment(decimal.NewFromInt(50))
		require.NoError(t, err)

		assert.True(t, inv.DueAmount.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, PaidStatusPartiallyPaid, inv.PaidStatus)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
	})

	t.Run("reverse after apply is exact with fractional rate", func(t *testing.T) {
		inv, err := NewInvoice(uuid.New(), uuid.New(), dec(t, "333.33"), valueobject.GBP, dec(t, "1.337"))
		require.NoError(t, err)
		dueBefore := inv.DueAmount
		baseBefore := inv.BaseDueAmount

		amount := dec(t, "33.335")
		require.NoError(t, inv.ApplyPayment(amount))
		require.NoError(t, inv.ReversePayment(amount))

		assert.True(t, inv.DueAmount.Equal(dueBefore))
		assert.True(t, inv.BaseDueAmount.Equal(baseBefore))
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		inv := createTestInvoice(t)
		assert.ErrorIs(t, inv.ReversePayment(decimal.Zero), shared.ErrInvalidAmount)
		assert.ErrorIs(t, inv.ReversePayment(decimal.NewFromInt(-1)), shared.ErrInvalidAmount)
	})

	t.Run("reversal beyond total rejected without mutation", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(40)))
		dueBefore := inv.DueAmount
		baseBefore := inv.BaseDueAmount
		versionBefore := inv.Version

		err := inv.ReversePayment(decimal.NewFromInt(70))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
		assert.True(t, inv.DueAmount.Equal(dueBefore))
		assert.True(t, inv.BaseDueAmount.Equal(baseBefore))
		assert.Equal(t, versionBefore, inv.Version)
		assert.Equal(t, PaidStatusPartiallyPaid, inv.PaidStatus)
	})

	t.Run("viewed flag survives settle and reverse", func(t *testing.T) {
		inv := createTestInvoice(t)
		inv.MarkSent()
		inv.MarkViewed()
		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(200)))
		require.NoError(t, inv.ReversePayment(decimal.NewFromInt(200)))

		assert.Equal(t, InvoiceStatusViewed, inv.Status)
	})
}

// ============================================
// Flag transitions
// ============================================

func TestInvoice_MarkSent(t *testing.T) {
	inv := createTestInvoice(t)
	inv.MarkSent()

	assert.True(t, inv.Sent)
	assert.Equal(t, InvoiceStatusSent, inv.Status)
}

func TestInvoice_MarkViewed(t *testing.T) {
	t.Run("moves sent invoice to viewed", func(t *testing.T) {
		inv := createTestInvoice(t)
		inv.MarkSent()
		inv.MarkViewed()

		assert.True(t, inv.Viewed)
		assert.Equal(t, InvoiceStatusViewed, inv.Status)
	})

	t.Run("completed invoice keeps status", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(200)))
		inv.MarkViewed()

		assert.True(t, inv.Viewed)
		assert.Equal(t, InvoiceStatusCompleted, inv.Status)
	})
}

func TestInvoice_MarkOverdue(t *testing.T) {
	t.Run("flags unsettled invoice", func(t *testing.T) {
		inv := createTestInvoice(t)
		due := time.Now().AddDate(0, 0, -1)
		inv.DueDate = &due

		require.NoError(t, inv.MarkOverdue())
		assert.True(t, inv.Overdue)
	})

	t.Run("rejects settled invoice", func(t *testing.T) {
		inv := createTestInvoice(t)
		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(200)))

		assert.ErrorIs(t, inv.MarkOverdue(), shared.ErrInvalidState)
	})
}

func TestInvoice_IsForeignCurrency(t *testing.T) {
	inv := createTestInvoice(t)
	assert.True(t, inv.IsForeignCurrency(valueobject.USD))
	assert.False(t, inv.IsForeignCurrency(valueobject.EUR))
}
