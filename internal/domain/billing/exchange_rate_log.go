package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

// DocumentType identifies the kind of document an exchange-rate log row
// refers to
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "INVOICE"
	DocumentTypePayment DocumentType = "PAYMENT"
)

// IsValid checks if the document type is valid
func (d DocumentType) IsValid() bool {
	return d == DocumentTypeInvoice || d == DocumentTypePayment
}

// ExchangeRateLog is an immutable audit row recording the exchange rate a
// foreign-currency document was booked at. Rows exist only for documents
// whose currency differs from the company base currency.
type ExchangeRateLog struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	DocumentType DocumentType
	DocumentID   uuid.UUID
	Currency     valueobject.Currency
	ExchangeRate decimal.Decimal
	RecordedAt   time.Time
}

// NewExchangeRateLog records the rate a document was booked at.
func NewExchangeRateLog(companyID uuid.UUID, docType DocumentType, documentID uuid.UUID, currency valueobject.Currency, rate decimal.Decimal) *ExchangeRateLog {
	return &ExchangeRateLog{
		ID:           uuid.New(),
		CompanyID:    companyID,
		DocumentType: docType,
		DocumentID:   documentID,
		Currency:     currency,
		ExchangeRate: rate,
		RecordedAt:   time.Now(),
	}
}
