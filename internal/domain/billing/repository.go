package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

// InvoiceRepository defines persistence operations for invoices. Every
// read and write is scoped by an explicit company ID.
type InvoiceRepository interface {
	// Create persists a new invoice
	Create(ctx context.Context, invoice *Invoice) error

	// FindByID loads a company-scoped invoice; shared.ErrNotFound when the
	// id does not exist or belongs to another company
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Invoice, error)

	// SaveWithLock persists the invoice only if its stored version is one
	// behind the aggregate's; shared.ErrConcurrencyConflict on a lost race
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// Delete removes a company-scoped invoice
	Delete(ctx context.Context, companyID, id uuid.UUID) error

	// List returns a page of company-scoped invoices
	List(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Invoice], error)
}

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment
	Create(ctx context.Context, payment *Payment) error

	// FindByID loads a company-scoped payment; shared.ErrNotFound when the
	// id does not exist or belongs to another company
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Payment, error)

	// FindByIDs loads the company-scoped payments that exist among ids;
	// missing ids are silently omitted
	FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]*Payment, error)

	// SaveWithLock persists the payment only if its stored version is one
	// behind the aggregate's; shared.ErrConcurrencyConflict on a lost race
	SaveWithLock(ctx context.Context, payment *Payment) error

	// Delete removes a company-scoped payment
	Delete(ctx context.Context, companyID, id uuid.UUID) error

	// DetachFromInvoice clears the invoice link on every payment that
	// references the invoice, leaving the payments as unlinked receipts
	DetachFromInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) error

	// List returns a page of company-scoped payments
	List(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Payment], error)
}

// ExchangeRateLogRepository persists exchange-rate audit rows.
type ExchangeRateLogRepository interface {
	// Create appends an audit row
	Create(ctx context.Context, log *ExchangeRateLog) error

	// DeleteForDocument removes the audit rows of a deleted document
	DeleteForDocument(ctx context.Context, companyID uuid.UUID, docType DocumentType, documentID uuid.UUID) error
}

// SequenceRepository allocates gap-free sequence numbers. Allocation must
// happen inside the caller's transaction so a rollback releases the number
// along with everything else.
type SequenceRepository interface {
	// NextCompanySequence returns the next number in the (company, kind)
	// series, starting at 1
	NextCompanySequence(ctx context.Context, companyID uuid.UUID, kind DocumentKind) (int64, error)

	// NextCustomerSequence returns the next number in the
	// (company, customer, kind) series, starting at 1
	NextCustomerSequence(ctx context.Context, companyID, customerID uuid.UUID, kind DocumentKind) (int64, error)
}

// CompanySettingsProvider resolves per-company ledger configuration.
type CompanySettingsProvider interface {
	// BaseCurrency returns the company's base (home) currency
	BaseCurrency(ctx context.Context, companyID uuid.UUID) (valueobject.Currency, error)

	// SerialFormat returns the resolved numbering format for a document
	// kind, falling back to DefaultSerialFormats when unconfigured
	SerialFormat(ctx context.Context, companyID uuid.UUID, kind DocumentKind) (SerialFormat, error)
}
