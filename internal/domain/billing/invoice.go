package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"     // Created, never sent
	InvoiceStatusSent      InvoiceStatus = "SENT"      // Delivered to the customer
	InvoiceStatusViewed    InvoiceStatus = "VIEWED"    // Opened by the customer
	InvoiceStatusCompleted InvoiceStatus = "COMPLETED" // Fully settled
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// PaidStatus represents the settlement status of an invoice
type PaidStatus string

const (
	PaidStatusUnpaid        PaidStatus = "UNPAID"
	PaidStatusPartiallyPaid PaidStatus = "PARTIALLY_PAID"
	PaidStatusPaid          PaidStatus = "PAID"
)

// IsValid checks if the status is a valid PaidStatus
func (s PaidStatus) IsValid() bool {
	switch s {
	case PaidStatusUnpaid, PaidStatusPartiallyPaid, PaidStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of PaidStatus
func (s PaidStatus) String() string {
	return string(s)
}

// Invoice is the aggregate root for a receivable document.
//
// DueAmount is the outstanding balance in the document currency;
// BaseDueAmount mirrors it in the company base currency. Both move together:
// every allocation adjusts DueAmount by the raw amount and BaseDueAmount by
// the half-even rounded product of that amount and the exchange rate, so a
// reversal restores both balances exactly.
type Invoice struct {
	shared.CompanyAggregateRoot
	CustomerID uuid.UUID
	Number     string // Formatted serial number, e.g. "INV-000042"

	SequenceNumber         int64 // Company-scoped allocation
	CustomerSequenceNumber int64 // Customer-scoped allocation

	Total         decimal.Decimal
	DueAmount     decimal.Decimal
	BaseTotal     decimal.Decimal
	BaseDueAmount decimal.Decimal

	Currency     valueobject.Currency
	ExchangeRate decimal.Decimal

	Status     InvoiceStatus
	PaidStatus PaidStatus

	Sent    bool
	Viewed  bool
	Overdue bool

	InvoiceDate time.Time
	DueDate     *time.Time

	UniqueHash string
	Notes      string
}

// NewInvoice creates a draft invoice with the full total outstanding.
// The base-currency mirror is derived from the exchange rate at creation.
func NewInvoice(companyID, customerID uuid.UUID, total decimal.Decimal, currency valueobject.Currency, exchangeRate decimal.Decimal) (*Invoice, error) {
	if total.IsNegative() {
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

	baseTotal := valueobject.BaseAmount(total, exchangeRate)
	return &Invoice{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		CustomerID:           customerID,
		Total:                total,
		DueAmount:            total,
		BaseTotal:            baseTotal,
		BaseDueAmount:        baseTotal,
		Currency:             currency,
		ExchangeRate:         exchangeRate,
		Status:               InvoiceStatusDraft,
		PaidStatus:           PaidStatusUnpaid,
		InvoiceDate:          time.Now(),
		UniqueHash:           NewUniqueHash(),
	}, nil
}

// PreviousStatus derives the pre-settlement status purely from the
// sent/viewed flags. It never reads a stored status field, so the result is
// stable regardless of how the balance has moved since.
func (inv *Invoice) PreviousStatus() InvoiceStatus {
	if inv.Viewed {
		return InvoiceStatusViewed
	}
	if inv.Sent {
		return InvoiceStatusSent
	}
	return InvoiceStatusDraft
}

// deriveStatus is the single canonical balance transition. Every path that
// moves the due amount (apply, reverse, delete reversal) goes through it.
// It validates the prospective balance first and leaves the aggregate
// untouched on rejection.
func (inv *Invoice) deriveStatus(newDue decimal.Decimal) error {
	if newDue.IsNegative() || newDue.GreaterThan(inv.Total) {
		return shared.ErrInvalidAmount
	}

	switch {
	case newDue.IsZero():
		inv.Status = InvoiceStatusCompleted
		inv.PaidStatus = PaidStatusPaid
		inv.Overdue = false
	case newDue.Equal(inv.Total):
		inv.Status = inv.PreviousStatus()
		inv.PaidStatus = PaidStatusUnpaid
	default:
		inv.Status = inv.PreviousStatus()
		inv.PaidStatus = PaidStatusPartiallyPaid
	}
	return nil
}

// ApplyPayment allocates a payment amount against the outstanding balance.
// Returns INVALID_AMOUNT if the amount is not positive or would overpay the
// invoice; in that case no field changes.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidAmount
	}

	newDue := inv.DueAmount.Sub(amount)
	if err := inv.deriveStatus(newDue); err != nil {
		return err
	}

	inv.DueAmount = newDue
	inv.BaseDueAmount = inv.BaseDueAmount.Sub(valueobject.BaseAmount(amount, inv.ExchangeRate))
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// ReversePayment undoes a previous allocation, restoring the balance. The
// base mirror grows by the identically rounded delta ApplyPayment removed,
// so reverse-after-apply is exact. Returns INVALID_AMOUNT for non-positive
// amounts.
func (inv *Invoice) ReversePayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidAmount
	}

	newDue := inv.DueAmount.Add(amount)
	if err := inv.deriveStatus(newDue); err != nil {
		return err
	}

	inv.DueAmount = newDue
	inv.BaseDueAmount = inv.BaseDueAmount.Add(valueobject.BaseAmount(amount, inv.ExchangeRate))
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// MarkSent flags the invoice as delivered and moves a draft to SENT.
func (inv *Invoice) MarkSent() {
	inv.Sent = true
	if inv.Status == InvoiceStatusDraft {
		inv.Status = InvoiceStatusSent
	}
	inv.Touch()
	inv.IncrementVersion()
}

// MarkViewed flags the invoice as opened by the customer. A completed
// invoice keeps its status; only the flag is recorded.
func (inv *Invoice) MarkViewed() {
	inv.Viewed = true
	if inv.Status != InvoiceStatusCompleted {
		inv.Status = InvoiceStatusViewed
	}
	inv.Touch()
	inv.IncrementVersion()
}

// MarkOverdue flags an unsettled invoice past its due date. Settled
// invoices are never overdue.
func (inv *Invoice) MarkOverdue() error {
	if inv.PaidStatus == PaidStatusPaid {
		return shared.ErrInvalidState
	}
	inv.Overdue = true
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// AssignNumber records the allocated sequence positions and the formatted
// serial number.
func (inv *Invoice) AssignNumber(number string, sequence, customerSequence int64) {
	inv.Number = number
	inv.SequenceNumber = sequence
	inv.CustomerSequenceNumber = customerSequence
}

// IsForeignCurrency reports whether the invoice is denominated in a
// currency other than the company base currency.
func (inv *Invoice) IsForeignCurrency(baseCurrency valueobject.Currency) bool {
	return inv.Currency != baseCurrency
}
