package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

// Payment is the aggregate root for a cash receipt. A payment may be
// allocated to at most one invoice; an unlinked payment is a plain receipt
// on the customer account and never mutates any invoice balance.
type Payment struct {
	shared.CompanyAggregateRoot
	CustomerID uuid.UUID
	InvoiceID  *uuid.UUID // nil for unlinked receipts

	Number string // Formatted serial number, e.g. "PAY-000007"

	SequenceNumber         int64
	CustomerSequenceNumber int64

	Amount       decimal.Decimal
	Currency     valueobject.Currency
	ExchangeRate decimal.Decimal

	PaymentDate time.Time
	UniqueHash  string
	Notes       string
}

// NewPayment creates a payment receipt. Amount must be strictly positive.
func NewPayment(companyID, customerID uuid.UUID, invoiceID *uuid.UUID, amount decimal.Decimal, currency valueobject.Currency, exchangeRate decimal.Decimal, paymentDate time.Time) (*Payment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if err := valueobject.ValidateRate(exchangeRate); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if !currency.Valid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "malformed currency code")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	return &Payment{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		CustomerID:           customerID,
		InvoiceID:            invoiceID,
		Amount:               amount,
		Currency:             currency,
		ExchangeRate:         exchangeRate,
		PaymentDate:          paymentDate,
		UniqueHash:           NewUniqueHash(),
	}, nil
}

// IsLinked reports whether the payment is allocated to an invoice.
func (p *Payment) IsLinked() bool {
	return p.InvoiceID != nil
}

// BaseAmount returns the payment amount mirrored into the company base
// currency.
func (p *Payment) BaseAmount() decimal.Decimal {
	return valueobject.BaseAmount(p.Amount, p.ExchangeRate)
}

// Reallocate moves the payment onto a different invoice (or detaches it
// when invoiceID is nil) with a new amount. The caller is responsible for
// reversing the old allocation and applying the new one on the affected
// invoices before persisting.
func (p *Payment) Reallocate(invoiceID *uuid.UUID, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidAmount
	}
	p.InvoiceID = invoiceID
	p.Amount = amount
	p.Touch()
	p.IncrementVersion()
	return nil
}

// ReassignCustomer moves the payment to a different customer. The
// customer-scoped sequence number must be re-derived by the caller.
func (p *Payment) ReassignCustomer(customerID uuid.UUID, customerSequence int64) {
	p.CustomerID = customerID
	p.CustomerSequenceNumber = customerSequence
	p.Touch()
	p.IncrementVersion()
}

// AssignNumber records the allocated sequence positions and the formatted
// serial number.
func (p *Payment) AssignNumber(number string, sequence, customerSequence int64) {
	p.Number = number
	p.SequenceNumber = sequence
	p.CustomerSequenceNumber = customerSequence
}

// IsForeignCurrency reports whether the payment is denominated in a
// currency other than the company base currency.
func (p *Payment) IsForeignCurrency(baseCurrency valueobject.Currency) bool {
	return p.Currency != baseCurrency
}
