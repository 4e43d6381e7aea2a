package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

type paymentServiceFixture struct {
	invoices  *MockInvoiceRepository
	payments  *MockPaymentRepository
	rateLogs  *MockExchangeRateLogRepository
	sequences *MockSequenceRepository
	settings  *MockCompanySettings
	service   *PaymentService
}

func newPaymentServiceFixture() *paymentServiceFixture {
	f := &paymentServiceFixture{
		invoices:  new(MockInvoiceRepository),
		payments:  new(MockPaymentRepository),
		rateLogs:  new(MockExchangeRateLogRepository),
		sequences: new(MockSequenceRepository),
		settings:  new(MockCompanySettings),
	}
	f.service = NewPaymentService(f.invoices, f.payments, f.rateLogs, f.sequences, f.settings, passthroughUoW{}, nil)
	return f
}

func newTestInvoice(t *testing.T, companyID, customerID uuid.UUID, total int64) *billing.Invoice {
	inv, err := billing.NewInvoice(companyID, customerID, decimal.NewFromInt(total), valueobject.USD, decimal.NewFromInt(1))
	require.NoError(t, err)
	return inv
}

func (f *paymentServiceFixture) expectNumbering(companyID, customerID uuid.UUID, seq, customerSeq int64) {
	f.sequences.On("NextCompanySequence", mock.Anything, companyID, billing.KindPayment).Return(seq, nil)
	f.sequences.On("NextCustomerSequence", mock.Anything, companyID, customerID, billing.KindPayment).Return(customerSeq, nil)
	f.settings.On("SerialFormat", mock.Anything, companyID, billing.KindPayment).Return(billing.SerialFormat{Prefix: "PAY-", Width: 6}, nil)
}

func TestPaymentService_CreatePayment(t *testing.T) {
	companyID := uuid.New()
	customerID := uuid.New()

	t.Run("linked payment applies to invoice", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoice := newTestInvoice(t, companyID, customerID, 200)

		f.invoices.On("FindByID", mock.Anything, companyID, invoice.ID).Return(invoice, nil)
		f.invoices.On("SaveWithLock", mock.Anything, invoice).Return(nil)
		f.expectNumbering(companyID, customerID, 7, 3)
		f.settings.On("BaseCurrency", mock.Anything, companyID).Return(valueobject.USD, nil)
		f.payments.On("Create", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)

		result, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
			CompanyID:  companyID,
			CustomerID: customerID,
			InvoiceID:  &invoice.ID,
			Amount:     decimal.NewFromInt(50),
			Currency:   valueobject.USD,
		})

		require.NoError(t, err)
		assert.Equal(t, "PAY-000007", result.Number)
		assert.Equal(t, int64(7), result.SequenceNumber)
		assert.Equal(t, int64(3), result.CustomerSequenceNumber)
		assert.NotEmpty(t, result.UniqueHash)

		assert.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, billing.PaidStatusPartiallyPaid, invoice.PaidStatus)

		f.invoices.AssertExpectations(t)
		f.payments.AssertExpectations(t)
		f.rateLogs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unlinked receipt skips invoice entirely", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.expectNumbering(companyID, customerID, 1, 1)
		f.settings.On("BaseCurrency", mock.Anything, companyID).Return(valueobject.USD, nil)
		f.payments.On("Create", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)

		result, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
			CompanyID:  companyID,
			CustomerID: customerID,
			Amount:     decimal.NewFromInt(25),
		})

		require.NoError(t, err)
		assert.Nil(t, result.InvoiceID)
		f.invoices.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("foreign currency writes a rate log", func(t *testing.T) {
		f := newPaymentServiceFixture()
		f.expectNumbering(companyID, customerID, 2, 1)
		f.settings.On("BaseCurrency", mock.Anything, companyID).Return(valueobject.USD, nil)
		f.rateLogs.On("Create", mock.Anything, mock.MatchedBy(func(l *billing.ExchangeRateLog) bool {
			return l.DocumentType == billing.DocumentTypePayment && l.Currency == valueobject.EUR
		})).Return(nil)
		f.payments.On("Create", mock.Anything, mock.AnythingOfType("*billing.Payment")).Return(nil)

		_, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
			CompanyID:    companyID,
			CustomerID:   customerID,
			Amount:       decimal.NewFromInt(10),
			Currency:     valueobject.EUR,
			ExchangeRate: decimal.NewFromFloat(1.1),
		})

		require.NoError(t, err)
		f.rateLogs.AssertExpectations(t)
	})

	t.Run("non-positive amount rejected before any repository call", func(t *testing.T) {
		f := newPaymentServiceFixture()

		_, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
			CompanyID:  companyID,
			CustomerID: customerID,
			Amount:     decimal.Zero,
		})

		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
		f.invoices.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
		f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("overpayment aborts without creating the payment", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoice := newTestInvoice(t, companyID, customerID, 100)
		f.invoices.On("FindByID", mock.Anything, companyID, invoice.ID).Return(invoice, nil)

		_, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
			CompanyID:  companyID,
			CustomerID: customerID,
			InvoiceID:  &invoice.ID,
			Amount:     decimal.NewFromInt(101),
		})

		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
		assert.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(100)))
		f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing invoice surfaces not found", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoiceID := uuid.New()
		f.invoices.On("FindByID", mock.Anything, companyID, invoiceID).Return(nil, shared.ErrNotFound)

		_, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
			CompanyID:  companyID,
			CustomerID: customerID,
			InvoiceID:  &invoiceID,
			Amount:     decimal.NewFromInt(10),
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("concurrency conflict propagates", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoice := newTestInvoice(t, companyID, customerID, 100)
		f.invoices.On("FindByID", mock.Anything, companyID, invoice.ID).Return(invoice, nil)
		f.invoices.On("SaveWithLock", mock.Anything, invoice).Return(shared.ErrConcurrencyConflict)

		_, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
			CompanyID:  companyID,
			CustomerID: customerID,
			InvoiceID:  &invoice.ID,
			Amount:     decimal.NewFromInt(10),
		})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_UpdatePayment(t *testing.T) {
	companyID := uuid.New()
	customerID := uuid.New()

	newLinkedPayment := func(t *testing.T, invoiceID uuid.UUID, amount int64) *billing.Payment {
		p, err := billing.NewPayment(companyID, customerID, &invoiceID, decimal.NewFromInt(amount), valueobject.USD, decimal.NewFromInt(1), time.Now())
		require.NoError(t, err)
		return p
	}

	t.Run("amount change on same invoice reverses then applies", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoice := newTestInvoice(t, companyID, customerID, 200)
		require.NoError(t, invoice.ApplyPayment(decimal.NewFromInt(50))) // due 150

		payment := newLinkedPayment(t, invoice.ID, 50)
		f.payments.On("FindByID", mock.Anything, companyID, payment.ID).Return(payment, nil)
		f.invoices.On("FindByID", mock.Anything, companyID, invoice.ID).Return(invoice, nil).Once()
		f.invoices.On("SaveWithLock", mock.Anything, invoice).Return(nil).Twice()
		f.payments.On("SaveWithLock", mock.Anything, payment).Return(nil)

		result, err := f.service.UpdatePayment(context.Background(), UpdatePaymentRequest{
			CompanyID:  companyID,
			PaymentID:  payment.ID,
			CustomerID: customerID,
			InvoiceID:  &invoice.ID,
			Amount:     decimal.NewFromInt(100),
		})

		require.NoError(t, err)
		assert.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, result.Amount.Equal(decimal.NewFromInt(100)))
		assert.True(t, payment.Amount.Equal(decimal.NewFromInt(100)))
		f.invoices.AssertExpectations(t)
	})

	t.Run("moving payment between invoices", func(t *testing.T) {
		f := newPaymentServiceFixture()
		oldInvoice := newTestInvoice(t, companyID, customerID, 100)
		require.NoError(t, oldInvoice.ApplyPayment(decimal.NewFromInt(40))) // due 60
		newInvoice := newTestInvoice(t, companyID, customerID, 300)

		payment := newLinkedPayment(t, oldInvoice.ID, 40)
		f.payments.On("FindByID", mock.Anything, companyID, payment.ID).Return(payment, nil)
		f.invoices.On("FindByID", mock.Anything, companyID, oldInvoice.ID).Return(oldInvoice, nil)
		f.invoices.On("FindByID", mock.Anything, companyID, newInvoice.ID).Return(newInvoice, nil)
		f.invoices.On("SaveWithLock", mock.Anything, oldInvoice).Return(nil)
		f.invoices.On("SaveWithLock", mock.Anything, newInvoice).Return(nil)
		f.payments.On("SaveWithLock", mock.Anything, payment).Return(nil)

		_, err := f.service.UpdatePayment(context.Background(), UpdatePaymentRequest{
			CompanyID:  companyID,
			PaymentID:  payment.ID,
			CustomerID: customerID,
			InvoiceID:  &newInvoice.ID,
			Amount:     decimal.NewFromInt(40),
		})

		require.NoError(t, err)
		assert.True(t, oldInvoice.DueAmount.Equal(decimal.NewFromInt(100)), "old invoice fully restored")
		assert.Equal(t, billing.PaidStatusUnpaid, oldInvoice.PaidStatus)
		assert.True(t, newInvoice.DueAmount.Equal(decimal.NewFromInt(260)))
		assert.Equal(t, newInvoice.ID, *payment.InvoiceID)
	})

	t.Run("clearing the link runs only the reversal", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoice := newTestInvoice(t, companyID, customerID, 100)
		require.NoError(t, invoice.ApplyPayment(decimal.NewFromInt(30))) // due 70

		payment := newLinkedPayment(t, invoice.ID, 30)
		f.payments.On("FindByID", mock.Anything, companyID, payment.ID).Return(payment, nil)
		f.invoices.On("FindByID", mock.Anything, companyID, invoice.ID).Return(invoice, nil).Once()
		f.invoices.On("SaveWithLock", mock.Anything, invoice).Return(nil).Once()
		f.payments.On("SaveWithLock", mock.Anything, payment).Return(nil)

		_, err := f.service.UpdatePayment(context.Background(), UpdatePaymentRequest{
			CompanyID:  companyID,
			PaymentID:  payment.ID,
			CustomerID: customerID,
			InvoiceID:  nil,
			Amount:     decimal.NewFromInt(30),
		})

		require.NoError(t, err)
		assert.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(100)))
		assert.Nil(t, payment.InvoiceID)
		f.invoices.AssertExpectations(t)
	})

	t.Run("customer change re-derives customer sequence", func(t *testing.T) {
		f := newPaymentServiceFixture()
		payment := newLinkedPayment(t, uuid.New(), 30)
		payment.InvoiceID = nil
		payment.CustomerSequenceNumber = 9

		newCustomer := uuid.New()
		f.payments.On("FindByID", mock.Anything, companyID, payment.ID).Return(payment, nil)
		f.sequences.On("NextCustomerSequence", mock.Anything, companyID, newCustomer, billing.KindPayment).Return(int64(2), nil)
		f.payments.On("SaveWithLock", mock.Anything, payment).Return(nil)

		_, err := f.service.UpdatePayment(context.Background(), UpdatePaymentRequest{
			CompanyID:  companyID,
			PaymentID:  payment.ID,
			CustomerID: newCustomer,
			Amount:     decimal.NewFromInt(30),
		})

		require.NoError(t, err)
		assert.Equal(t, newCustomer, payment.CustomerID)
		assert.Equal(t, int64(2), payment.CustomerSequenceNumber)
	})

	t.Run("missing payment surfaces not found", func(t *testing.T) {
		f := newPaymentServiceFixture()
		paymentID := uuid.New()
		f.payments.On("FindByID", mock.Anything, companyID, paymentID).Return(nil, shared.ErrNotFound)

		_, err := f.service.UpdatePayment(context.Background(), UpdatePaymentRequest{
			CompanyID:  companyID,
			PaymentID:  paymentID,
			CustomerID: customerID,
			Amount:     decimal.NewFromInt(10),
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaymentService_DeletePayments(t *testing.T) {
	companyID := uuid.New()
	customerID := uuid.New()

	t.Run("reverses linked payments and deletes the batch", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoice := newTestInvoice(t, companyID, customerID, 200)
		require.NoError(t, invoice.ApplyPayment(decimal.NewFromInt(80))) // due 120

		linked, err := billing.NewPayment(companyID, customerID, &invoice.ID, decimal.NewFromInt(80), valueobject.USD, decimal.NewFromInt(1), time.Now())
		require.NoError(t, err)
		unlinked, err := billing.NewPayment(companyID, customerID, nil, decimal.NewFromInt(15), valueobject.USD, decimal.NewFromInt(1), time.Now())
		require.NoError(t, err)

		missingID := uuid.New()
		ids := []uuid.UUID{linked.ID, unlinked.ID, missingID}

		f.payments.On("FindByIDs", mock.Anything, companyID, ids).Return([]*billing.Payment{linked, unlinked}, nil)
		f.invoices.On("FindByID", mock.Anything, companyID, invoice.ID).Return(invoice, nil)
		f.invoices.On("SaveWithLock", mock.Anything, invoice).Return(nil)
		f.rateLogs.On("DeleteForDocument", mock.Anything, companyID, billing.DocumentTypePayment, linked.ID).Return(nil)
		f.rateLogs.On("DeleteForDocument", mock.Anything, companyID, billing.DocumentTypePayment, unlinked.ID).Return(nil)
		f.payments.On("Delete", mock.Anything, companyID, linked.ID).Return(nil)
		f.payments.On("Delete", mock.Anything, companyID, unlinked.ID).Return(nil)

		err = f.service.DeletePayments(context.Background(), companyID, ids)

		require.NoError(t, err)
		assert.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, billing.PaidStatusUnpaid, invoice.PaidStatus)
		assert.Equal(t, billing.InvoiceStatusDraft, invoice.Status)
		f.payments.AssertExpectations(t)
	})

	t.Run("all ids unknown still succeeds", func(t *testing.T) {
		f := newPaymentServiceFixture()
		ids := []uuid.UUID{uuid.New()}
		f.payments.On("FindByIDs", mock.Anything, companyID, ids).Return([]*billing.Payment{}, nil)

		assert.NoError(t, f.service.DeletePayments(context.Background(), companyID, ids))
		f.payments.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("linked invoice already deleted is tolerated", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoiceID := uuid.New()
		payment, err := billing.NewPayment(companyID, customerID, &invoiceID, decimal.NewFromInt(10), valueobject.USD, decimal.NewFromInt(1), time.Now())
		require.NoError(t, err)

		ids := []uuid.UUID{payment.ID}
		f.payments.On("FindByIDs", mock.Anything, companyID, ids).Return([]*billing.Payment{payment}, nil)
		f.invoices.On("FindByID", mock.Anything, companyID, invoiceID).Return(nil, shared.ErrNotFound)
		f.rateLogs.On("DeleteForDocument", mock.Anything, companyID, billing.DocumentTypePayment, payment.ID).Return(nil)
		f.payments.On("Delete", mock.Anything, companyID, payment.ID).Return(nil)

		assert.NoError(t, f.service.DeletePayments(context.Background(), companyID, ids))
		f.payments.AssertExpectations(t)
	})

	t.Run("storage failure aborts the batch", func(t *testing.T) {
		f := newPaymentServiceFixture()
		payment, err := billing.NewPayment(companyID, customerID, nil, decimal.NewFromInt(10), valueobject.USD, decimal.NewFromInt(1), time.Now())
		require.NoError(t, err)

		ids := []uuid.UUID{payment.ID}
		storageErr := shared.WrapPersistence(errors.New("connection reset"))
		f.payments.On("FindByIDs", mock.Anything, companyID, ids).Return([]*billing.Payment{payment}, nil)
		f.rateLogs.On("DeleteForDocument", mock.Anything, companyID, billing.DocumentTypePayment, payment.ID).Return(nil)
		f.payments.On("Delete", mock.Anything, companyID, payment.ID).Return(storageErr)

		err = f.service.DeletePayments(context.Background(), companyID, ids)
		assert.ErrorIs(t, err, shared.ErrPersistenceFailure)
	})
}

func TestPaymentService_GetInvoiceBalance(t *testing.T) {
	companyID := uuid.New()

	t.Run("returns outstanding position", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoice := newTestInvoice(t, companyID, uuid.New(), 500)
		require.NoError(t, invoice.ApplyPayment(decimal.NewFromInt(200)))

		f.invoices.On("FindByID", mock.Anything, companyID, invoice.ID).Return(invoice, nil)

		balance, err := f.service.GetInvoiceBalance(context.Background(), companyID, invoice.ID)
		require.NoError(t, err)
		assert.True(t, balance.DueAmount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, billing.PaidStatusPartiallyPaid, balance.PaidStatus)
	})

	t.Run("not found", func(t *testing.T) {
		f := newPaymentServiceFixture()
		invoiceID := uuid.New()
		f.invoices.On("FindByID", mock.Anything, companyID, invoiceID).Return(nil, shared.ErrNotFound)

		_, err := f.service.GetInvoiceBalance(context.Background(), companyID, invoiceID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
