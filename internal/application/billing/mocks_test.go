package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

// passthroughUoW runs the unit of work inline; service tests exercise
// transactional behavior through the error paths.
type passthroughUoW struct{}

func (passthroughUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) List(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*billing.Invoice]), args.Error(1)
}

// MockPaymentRepository is a mock implementation of billing.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]*billing.Payment, error) {
	args := m.Called(ctx, companyID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) DetachFromInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, companyID, invoiceID)
	return args.Error(0)
}

func (m *MockPaymentRepository) List(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Payment], error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*billing.Payment]), args.Error(1)
}

// MockExchangeRateLogRepository is a mock implementation of billing.ExchangeRateLogRepository
type MockExchangeRateLogRepository struct {
	mock.Mock
}

func (m *MockExchangeRateLogRepository) Create(ctx context.Context, log *billing.ExchangeRateLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockExchangeRateLogRepository) DeleteForDocument(ctx context.Context, companyID uuid.UUID, docType billing.DocumentType, documentID uuid.UUID) error {
	args := m.Called(ctx, companyID, docType, documentID)
	return args.Error(0)
}

// MockSequenceRepository is a mock implementation of billing.SequenceRepository
type MockSequenceRepository struct {
	mock.Mock
}

func (m *MockSequenceRepository) NextCompanySequence(ctx context.Context, companyID uuid.UUID, kind billing.DocumentKind) (int64, error) {
	args := m.Called(ctx, companyID, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSequenceRepository) NextCustomerSequence(ctx context.Context, companyID, customerID uuid.UUID, kind billing.DocumentKind) (int64, error) {
	args := m.Called(ctx, companyID, customerID, kind)
	return args.Get(0).(int64), args.Error(1)
}

// MockCompanySettings is a mock implementation of billing.CompanySettingsProvider
type MockCompanySettings struct {
	mock.Mock
}

func (m *MockCompanySettings) BaseCurrency(ctx context.Context, companyID uuid.UUID) (valueobject.Currency, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(valueobject.Currency), args.Error(1)
}

func (m *MockCompanySettings) SerialFormat(ctx context.Context, companyID uuid.UUID, kind billing.DocumentKind) (billing.SerialFormat, error) {
	args := m.Called(ctx, companyID, kind)
	return args.Get(0).(billing.SerialFormat), args.Error(1)
}

// Compile-time interface checks
var (
	_ billing.InvoiceRepository         = (*MockInvoiceRepository)(nil)
	_ billing.PaymentRepository         = (*MockPaymentRepository)(nil)
	_ billing.ExchangeRateLogRepository = (*MockExchangeRateLogRepository)(nil)
	_ billing.SequenceRepository        = (*MockSequenceRepository)(nil)
	_ billing.CompanySettingsProvider   = (*MockCompanySettings)(nil)
	_ shared.UnitOfWork                 = passthroughUoW{}
)
