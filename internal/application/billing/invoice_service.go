package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

// InvoiceService manages the invoice lifecycle outside of payment
// allocation: creation, delivery flags and deletion.
type InvoiceService struct {
	invoiceRepo  billing.InvoiceRepository
	paymentRepo  billing.PaymentRepository
	rateLogRepo  billing.ExchangeRateLogRepository
	sequenceRepo billing.SequenceRepository
	settings     billing.CompanySettingsProvider
	uow          shared.UnitOfWork
	logger       *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	rateLogRepo billing.ExchangeRateLogRepository,
	sequenceRepo billing.SequenceRepository,
	settings billing.CompanySettingsProvider,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		rateLogRepo:  rateLogRepo,
		sequenceRepo: sequenceRepo,
		settings:     settings,
		uow:          uow,
		logger:       logger,
	}
}

// CreateInvoiceRequest represents a request to raise an invoice
type CreateInvoiceRequest struct {
	CompanyID    uuid.UUID
	CustomerID   uuid.UUID
	Total        decimal.Decimal
	Currency     valueobject.Currency
	ExchangeRate decimal.Decimal
	DueDate      *time.Time
	Notes        string
	Send         bool // delivers immediately: the invoice starts SENT
}

// InvoiceResult is the application-level view of a persisted invoice
type InvoiceResult struct {
	InvoiceID              uuid.UUID             `json:"invoice_id"`
	Number                 string                `json:"number"`
	SequenceNumber         int64                 `json:"sequence_number"`
	CustomerSequenceNumber int64                 `json:"customer_sequence_number"`
	Total                  decimal.Decimal       `json:"total"`
	DueAmount              decimal.Decimal       `json:"due_amount"`
	BaseDueAmount          decimal.Decimal       `json:"base_due_amount"`
	Status                 billing.InvoiceStatus `json:"status"`
	PaidStatus             billing.PaidStatus    `json:"paid_status"`
	UniqueHash             string                `json:"unique_hash"`
}

// CreateInvoice raises an invoice with its full total outstanding,
// allocates both sequence scopes, and records an exchange-rate audit row
// for foreign-currency documents. Everything commits atomically.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error) {
	rate := req.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}

	var result *InvoiceResult
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		invoice, err := billing.NewInvoice(req.CompanyID, req.CustomerID, req.Total, req.Currency, rate)
		if err != nil {
			return err
		}
		invoice.DueDate = req.DueDate
		invoice.Notes = req.Notes

		sequence, err := s.sequenceRepo.NextCompanySequence(ctx, req.CompanyID, billing.KindInvoice)
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		customerSeq, err := s.sequenceRepo.NextCustomerSequence(ctx, req.CompanyID, req.CustomerID, billing.KindInvoice)
		if err != nil {
			return fmt.Errorf("failed to allocate customer sequence: %w", err)
		}
		format, err := s.settings.SerialFormat(ctx, req.CompanyID, billing.KindInvoice)
		if err != nil {
			return fmt.Errorf("failed to resolve serial format: %w", err)
		}
		invoice.AssignNumber(format.Format(sequence), sequence, customerSeq)

		if req.Send {
			invoice.MarkSent()
		}

		baseCurrency, err := s.settings.BaseCurrency(ctx, req.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to resolve base currency: %w", err)
		}
		if invoice.IsForeignCurrency(baseCurrency) {
			log := billing.NewExchangeRateLog(req.CompanyID, billing.DocumentTypeInvoice, invoice.ID, invoice.Currency, invoice.ExchangeRate)
			if err := s.rateLogRepo.Create(ctx, log); err != nil {
				return fmt.Errorf("failed to record exchange rate: %w", err)
			}
		}

		if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		result = invoiceResult(invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("company_id", req.CompanyID.String()),
		zap.String("invoice_id", result.InvoiceID.String()),
		zap.String("number", result.Number),
	)
	return result, nil
}

// MarkSent flags an invoice as delivered to the customer.
func (s *InvoiceService) MarkSent(ctx context.Context, companyID, invoiceID uuid.UUID) error {
	return s.uow.Do(ctx, func(ctx context.Context) error {
		invoice, err := s.invoiceRepo.FindByID(ctx, companyID, invoiceID)
		if err != nil {
			return err
		}
		invoice.MarkSent()
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		return nil
	})
}

// MarkViewed flags an invoice as opened by the customer.
func (s *InvoiceService) MarkViewed(ctx context.Context, companyID, invoiceID uuid.UUID) error {
	return s.uow.Do(ctx, func(ctx context.Context) error {
		invoice, err := s.invoiceRepo.FindByID(ctx, companyID, invoiceID)
		if err != nil {
			return err
		}
		invoice.MarkViewed()
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		return nil
	})
}

// DeleteInvoices removes a batch of invoices. Unknown ids are skipped and
// the call still succeeds. Payments allocated to a deleted invoice are
// detached and survive as unlinked receipts; the invoice's exchange-rate
// audit rows are removed. The whole batch is one transaction.
func (s *InvoiceService) DeleteInvoices(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) error {
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			_, err := s.invoiceRepo.FindByID(ctx, companyID, id)
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to load invoice: %w", err)
			}

			if err := s.paymentRepo.DetachFromInvoice(ctx, companyID, id); err != nil {
				return fmt.Errorf("failed to detach payments: %w", err)
			}
			if err := s.rateLogRepo.DeleteForDocument(ctx, companyID, billing.DocumentTypeInvoice, id); err != nil {
				return fmt.Errorf("failed to delete rate logs: %w", err)
			}
			if err := s.invoiceRepo.Delete(ctx, companyID, id); err != nil {
				return fmt.Errorf("failed to delete invoice: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("invoices deleted",
		zap.String("company_id", companyID.String()),
		zap.Int("requested", len(ids)),
	)
	return nil
}

// GetInvoice returns a single company-scoped invoice.
func (s *InvoiceService) GetInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) (*billing.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, companyID, invoiceID)
}

// ListInvoices returns a page of company-scoped invoices.
func (s *InvoiceService) ListInvoices(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	return s.invoiceRepo.List(ctx, companyID, filter)
}

func invoiceResult(inv *billing.Invoice) *InvoiceResult {
	return &InvoiceResult{
		InvoiceID:              inv.ID,
		Number:                 inv.Number,
		SequenceNumber:         inv.SequenceNumber,
		CustomerSequenceNumber: inv.CustomerSequenceNumber,
		Total:                  inv.Total,
		DueAmount:              inv.DueAmount,
		BaseDueAmount:          inv.BaseDueAmount,
		Status:                 inv.Status,
		PaidStatus:             inv.PaidStatus,
		UniqueHash:             inv.UniqueHash,
	}
}
