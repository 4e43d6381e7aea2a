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

// PaymentService is the reconciliation engine: it keeps invoice balances,
// payment rows, sequence counters and exchange-rate logs consistent under
// a single transaction per operation.
type PaymentService struct {
	invoiceRepo  billing.InvoiceRepository
	paymentRepo  billing.PaymentRepository
	rateLogRepo  billing.ExchangeRateLogRepository
	sequenceRepo billing.SequenceRepository
	settings     billing.CompanySettingsProvider
	uow          shared.UnitOfWork
	logger       *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	rateLogRepo billing.ExchangeRateLogRepository,
	sequenceRepo billing.SequenceRepository,
	settings billing.CompanySettingsProvider,
	uow shared.UnitOfWork,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		rateLogRepo:  rateLogRepo,
		sequenceRepo: sequenceRepo,
		settings:     settings,
		uow:          uow,
		logger:       logger,
	}
}

// CreatePaymentRequest represents a request to record a payment
type CreatePaymentRequest struct {
	CompanyID    uuid.UUID
	CustomerID   uuid.UUID
	InvoiceID    *uuid.UUID // nil records an unlinked receipt
	Amount       decimal.Decimal
	Currency     valueobject.Currency
	ExchangeRate decimal.Decimal
	PaymentDate  time.Time
	Notes        string
}

// UpdatePaymentRequest represents a request to rework an existing payment
type UpdatePaymentRequest struct {
	CompanyID  uuid.UUID
	PaymentID  uuid.UUID
	CustomerID uuid.UUID
	InvoiceID  *uuid.UUID // nil clears the invoice link
	Amount     decimal.Decimal
	Notes      string
}

// PaymentResult is the application-level view of a persisted payment
type PaymentResult struct {
	PaymentID              uuid.UUID       `json:"payment_id"`
	Number                 string          `json:"number"`
	SequenceNumber         int64           `json:"sequence_number"`
	CustomerSequenceNumber int64           `json:"customer_sequence_number"`
	Amount                 decimal.Decimal `json:"amount"`
	InvoiceID              *uuid.UUID      `json:"invoice_id,omitempty"`
	UniqueHash             string          `json:"unique_hash"`
}

// InvoiceBalance is a read-model of an invoice's outstanding position
type InvoiceBalance struct {
	InvoiceID     uuid.UUID             `json:"invoice_id"`
	DueAmount     decimal.Decimal       `json:"due_amount"`
	BaseDueAmount decimal.Decimal       `json:"base_due_amount"`
	Status        billing.InvoiceStatus `json:"status"`
	PaidStatus    billing.PaidStatus    `json:"paid_status"`
}

// CreatePayment records a payment and, when linked, allocates it against
// the invoice balance. The invoice mutation, sequence allocations, audit
// row and payment insert commit or roll back together.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	rate := req.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}

	var result *PaymentResult
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		if req.InvoiceID != nil {
			invoice, err := s.invoiceRepo.FindByID(ctx, req.CompanyID, *req.InvoiceID)
			if err != nil {
				return fmt.Errorf("failed to load invoice: %w", err)
			}
			if err := invoice.ApplyPayment(req.Amount); err != nil {
				return err
			}
			if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
				return fmt.Errorf("failed to save invoice: %w", err)
			}
		}

		payment, err := billing.NewPayment(req.CompanyID, req.CustomerID, req.InvoiceID, req.Amount, req.Currency, rate, req.PaymentDate)
		if err != nil {
			return err
		}
		payment.Notes = req.Notes

		if err := s.assignPaymentNumber(ctx, payment); err != nil {
			return err
		}

		if err := s.recordRateLog(ctx, payment); err != nil {
			return err
		}

		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		result = paymentResult(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("company_id", req.CompanyID.String()),
		zap.String("payment_id", result.PaymentID.String()),
		zap.String("number", result.Number),
		zap.String("amount", req.Amount.String()),
	)
	return result, nil
}

// UpdatePayment reworks an existing payment with reverse-then-apply
// semantics: the old amount is reversed on the old linked invoice, then
// the new amount is applied to the new linked invoice. The same order
// holds when old and new are the same invoice, so amount changes settle
// as one net adjustment. Clearing the link runs only the reversal.
func (s *PaymentService) UpdatePayment(ctx context.Context, req UpdatePaymentRequest) (*PaymentResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}

	var result *PaymentResult
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		payment, err := s.paymentRepo.FindByID(ctx, req.CompanyID, req.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}

		var oldInvoice *billing.Invoice
		if payment.InvoiceID != nil {
			oldInvoice, err = s.invoiceRepo.FindByID(ctx, req.CompanyID, *payment.InvoiceID)
			if err != nil {
				return fmt.Errorf("failed to load invoice: %w", err)
			}
			if err := oldInvoice.ReversePayment(payment.Amount); err != nil {
				return err
			}
			if err := s.invoiceRepo.SaveWithLock(ctx, oldInvoice); err != nil {
				return fmt.Errorf("failed to save invoice: %w", err)
			}
		}

		if req.InvoiceID != nil {
			newInvoice := oldInvoice
			if newInvoice == nil || newInvoice.ID != *req.InvoiceID {
				newInvoice, err = s.invoiceRepo.FindByID(ctx, req.CompanyID, *req.InvoiceID)
				if err != nil {
					return fmt.Errorf("failed to load invoice: %w", err)
				}
			}
			if err := newInvoice.ApplyPayment(req.Amount); err != nil {
				return err
			}
			if err := s.invoiceRepo.SaveWithLock(ctx, newInvoice); err != nil {
				return fmt.Errorf("failed to save invoice: %w", err)
			}
		}

		if req.CustomerID != payment.CustomerID {
			customerSeq, err := s.sequenceRepo.NextCustomerSequence(ctx, req.CompanyID, req.CustomerID, billing.KindPayment)
			if err != nil {
				return fmt.Errorf("failed to allocate customer sequence: %w", err)
			}
			payment.ReassignCustomer(req.CustomerID, customerSeq)
		}

		if err := payment.Reallocate(req.InvoiceID, req.Amount); err != nil {
			return err
		}
		payment.Notes = req.Notes

		if err := s.paymentRepo.SaveWithLock(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		result = paymentResult(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment updated",
		zap.String("company_id", req.CompanyID.String()),
		zap.String("payment_id", req.PaymentID.String()),
	)
	return result, nil
}

// DeletePayments removes a batch of payments, reversing each linked
// payment on its invoice. Unknown ids are skipped and the call still
// succeeds; the whole batch commits or rolls back as one transaction.
func (s *PaymentService) DeletePayments(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) error {
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		payments, err := s.paymentRepo.FindByIDs(ctx, companyID, ids)
		if err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}

		for _, payment := range payments {
			if payment.InvoiceID != nil {
				invoice, err := s.invoiceRepo.FindByID(ctx, companyID, *payment.InvoiceID)
				switch {
				case errors.Is(err, shared.ErrNotFound):
					// Linked invoice already gone; nothing to reverse.
				case err != nil:
					return fmt.Errorf("failed to load invoice: %w", err)
				default:
					if err := invoice.ReversePayment(payment.Amount); err != nil {
						return err
					}
					if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
						return fmt.Errorf("failed to save invoice: %w", err)
					}
				}
			}

			if err := s.rateLogRepo.DeleteForDocument(ctx, companyID, billing.DocumentTypePayment, payment.ID); err != nil {
				return fmt.Errorf("failed to delete rate logs: %w", err)
			}
			if err := s.paymentRepo.Delete(ctx, companyID, payment.ID); err != nil {
				return fmt.Errorf("failed to delete payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("payments deleted",
		zap.String("company_id", companyID.String()),
		zap.Int("requested", len(ids)),
	)
	return nil
}

// GetPayment returns a single company-scoped payment.
func (s *PaymentService) GetPayment(ctx context.Context, companyID, paymentID uuid.UUID) (*billing.Payment, error) {
	return s.paymentRepo.FindByID(ctx, companyID, paymentID)
}

// ListPayments returns a page of company-scoped payments.
func (s *PaymentService) ListPayments(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Payment], error) {
	return s.paymentRepo.List(ctx, companyID, filter)
}

// GetInvoiceBalance reads the outstanding position of an invoice.
func (s *PaymentService) GetInvoiceBalance(ctx context.Context, companyID, invoiceID uuid.UUID) (*InvoiceBalance, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceBalance{
		InvoiceID:     invoice.ID,
		DueAmount:     invoice.DueAmount,
		BaseDueAmount: invoice.BaseDueAmount,
		Status:        invoice.Status,
		PaidStatus:    invoice.PaidStatus,
	}, nil
}

// assignPaymentNumber allocates both sequence scopes and formats the
// serial number from the company's resolved numbering configuration.
func (s *PaymentService) assignPaymentNumber(ctx context.Context, payment *billing.Payment) error {
	sequence, err := s.sequenceRepo.NextCompanySequence(ctx, payment.CompanyID, billing.KindPayment)
	if err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}
	customerSeq, err := s.sequenceRepo.NextCustomerSequence(ctx, payment.CompanyID, payment.CustomerID, billing.KindPayment)
	if err != nil {
		return fmt.Errorf("failed to allocate customer sequence: %w", err)
	}
	format, err := s.settings.SerialFormat(ctx, payment.CompanyID, billing.KindPayment)
	if err != nil {
		return fmt.Errorf("failed to resolve serial format: %w", err)
	}
	payment.AssignNumber(format.Format(sequence), sequence, customerSeq)
	return nil
}

// recordRateLog writes an exchange-rate audit row when the payment is in
// a foreign currency. Base-currency payments leave no row.
func (s *PaymentService) recordRateLog(ctx context.Context, payment *billing.Payment) error {
	baseCurrency, err := s.settings.BaseCurrency(ctx, payment.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to resolve base currency: %w", err)
	}
	if !payment.IsForeignCurrency(baseCurrency) {
		return nil
	}
	log := billing.NewExchangeRateLog(payment.CompanyID, billing.DocumentTypePayment, payment.ID, payment.Currency, payment.ExchangeRate)
	if err := s.rateLogRepo.Create(ctx, log); err != nil {
		return fmt.Errorf("failed to record exchange rate: %w", err)
	}
	return nil
}

func paymentResult(p *billing.Payment) *PaymentResult {
	return &PaymentResult{
		PaymentID:              p.ID,
		Number:                 p.Number,
		SequenceNumber:         p.SequenceNumber,
		CustomerSequenceNumber: p.CustomerSequenceNumber,
		Amount:                 p.Amount,
		InvoiceID:              p.InvoiceID,
		UniqueHash:             p.UniqueHash,
	}
}
