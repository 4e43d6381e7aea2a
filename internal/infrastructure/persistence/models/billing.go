package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	CompanyAggregateModel
	CustomerID             uuid.UUID             `gorm:"type:uuid;not null;index"`
	Number                 string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_company_number,priority:2"`
	SequenceNumber         int64                 `gorm:"not null"`
	CustomerSequenceNumber int64                 `gorm:"not null"`
	Total                  decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	DueAmount              decimal.Decimal       `gorm:"type:decimal(18,4);not null;index"`
	BaseTotal              decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	BaseDueAmount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency               valueobject.Currency  `gorm:"type:varchar(3);not null"`
	ExchangeRate           decimal.Decimal       `gorm:"type:decimal(18,8);not null"`
	Status                 billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	PaidStatus             billing.PaidStatus    `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	Sent                   bool                  `gorm:"not null;default:false"`
	Viewed                 bool                  `gorm:"not null;default:false"`
	Overdue                bool                  `gorm:"not null;default:false;index"`
	InvoiceDate            time.Time             `gorm:"not null;index"`
	DueDate                *time.Time            `gorm:"index"`
	UniqueHash             string                `gorm:"type:varchar(40);not null;uniqueIndex"`
	Notes                  string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		CustomerID:             m.CustomerID,
		Number:                 m.Number,
		SequenceNumber:         m.SequenceNumber,
		CustomerSequenceNumber: m.CustomerSequenceNumber,
		Total:                  m.Total,
		DueAmount:              m.DueAmount,
		BaseTotal:              m.BaseTotal,
		BaseDueAmount:          m.BaseDueAmount,
		Currency:               m.Currency,
		ExchangeRate:           m.ExchangeRate,
		Status:                 m.Status,
		PaidStatus:             m.PaidStatus,
		Sent:                   m.Sent,
		Viewed:                 m.Viewed,
		Overdue:                m.Overdue,
		InvoiceDate:            m.InvoiceDate,
		DueDate:                m.DueDate,
		UniqueHash:             m.UniqueHash,
		Notes:                  m.Notes,
	}
	m.PopulateCompanyAggregateRoot(&inv.CompanyAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainCompanyAggregateRoot(inv.CompanyAggregateRoot)
	m.CustomerID = inv.CustomerID
	m.Number = inv.Number
	m.SequenceNumber = inv.SequenceNumber
	m.CustomerSequenceNumber = inv.CustomerSequenceNumber
	m.Total = inv.Total
	m.DueAmount = inv.DueAmount
	m.BaseTotal = inv.BaseTotal
	m.BaseDueAmount = inv.BaseDueAmount
	m.Currency = inv.Currency
	m.ExchangeRate = inv.ExchangeRate
	m.Status = inv.Status
	m.PaidStatus = inv.PaidStatus
	m.Sent = inv.Sent
	m.Viewed = inv.Viewed
	m.Overdue = inv.Overdue
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.UniqueHash = inv.UniqueHash
	m.Notes = inv.Notes
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	CompanyAggregateModel
	CustomerID             uuid.UUID            `gorm:"type:uuid;not null;index"`
	InvoiceID              *uuid.UUID           `gorm:"type:uuid;index"`
	Number                 string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_company_number,priority:2"`
	SequenceNumber         int64                `gorm:"not null"`
	CustomerSequenceNumber int64                `gorm:"not null"`
	Amount                 decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency               valueobject.Currency `gorm:"type:varchar(3);not null"`
	ExchangeRate           decimal.Decimal      `gorm:"type:decimal(18,8);not null"`
	PaymentDate            time.Time            `gorm:"not null;index"`
	UniqueHash             string               `gorm:"type:varchar(40);not null;uniqueIndex"`
	Notes                  string               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		CustomerID:             m.CustomerID,
		InvoiceID:              m.InvoiceID,
		Number:                 m.Number,
		SequenceNumber:         m.SequenceNumber,
		CustomerSequenceNumber: m.CustomerSequenceNumber,
		Amount:                 m.Amount,
		Currency:               m.Currency,
		ExchangeRate:           m.ExchangeRate,
		PaymentDate:            m.PaymentDate,
		UniqueHash:             m.UniqueHash,
		Notes:                  m.Notes,
	}
	m.PopulateCompanyAggregateRoot(&p.CompanyAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainCompanyAggregateRoot(p.CompanyAggregateRoot)
	m.CustomerID = p.CustomerID
	m.InvoiceID = p.InvoiceID
	m.Number = p.Number
	m.SequenceNumber = p.SequenceNumber
	m.CustomerSequenceNumber = p.CustomerSequenceNumber
	m.Amount = p.Amount
	m.Currency = p.Currency
	m.ExchangeRate = p.ExchangeRate
	m.PaymentDate = p.PaymentDate
	m.UniqueHash = p.UniqueHash
	m.Notes = p.Notes
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// ExchangeRateLogModel is the persistence model for exchange-rate audit rows.
type ExchangeRateLogModel struct {
	ID           uuid.UUID            `gorm:"type:uuid;primary_key"`
	CompanyID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	DocumentType billing.DocumentType `gorm:"type:varchar(20);not null;index:idx_rate_log_document,priority:1"`
	DocumentID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_rate_log_document,priority:2"`
	Currency     valueobject.Currency `gorm:"type:varchar(3);not null"`
	ExchangeRate decimal.Decimal      `gorm:"type:decimal(18,8);not null"`
	RecordedAt   time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExchangeRateLogModel) TableName() string {
	return "exchange_rate_logs"
}

// ToDomain converts the persistence model to a domain ExchangeRateLog.
func (m *ExchangeRateLogModel) ToDomain() *billing.ExchangeRateLog {
	return &billing.ExchangeRateLog{
		ID:           m.ID,
		CompanyID:    m.CompanyID,
		DocumentType: m.DocumentType,
		DocumentID:   m.DocumentID,
		Currency:     m.Currency,
		ExchangeRate: m.ExchangeRate,
		RecordedAt:   m.RecordedAt,
	}
}

// ExchangeRateLogModelFromDomain creates a new persistence model from a domain ExchangeRateLog.
func ExchangeRateLogModelFromDomain(l *billing.ExchangeRateLog) *ExchangeRateLogModel {
	return &ExchangeRateLogModel{
		ID:           l.ID,
		CompanyID:    l.CompanyID,
		DocumentType: l.DocumentType,
		DocumentID:   l.DocumentID,
		Currency:     l.Currency,
		ExchangeRate: l.ExchangeRate,
		RecordedAt:   l.RecordedAt,
	}
}

// SequenceCounterModel holds the last allocated number of one serial
// series. Company-wide series leave CustomerID as the zero UUID so the
// composite unique index stays usable for both scopes.
type SequenceCounterModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	CompanyID  uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_sequence_scope,priority:1"`
	CustomerID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_sequence_scope,priority:2"`
	Kind       billing.DocumentKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_sequence_scope,priority:3"`
	LastValue  int64                `gorm:"not null;default:0"`
	UpdatedAt  time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}

// CompanySettingModel holds per-company ledger settings: the base
// currency and the numbering templates per document kind.
type CompanySettingModel struct {
	CompanyID      uuid.UUID            `gorm:"type:uuid;primary_key"`
	BaseCurrency   valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	InvoiceFormat  string               `gorm:"type:varchar(50);not null;default:'INV-'"`
	InvoiceWidth   int                  `gorm:"not null;default:6"`
	PaymentFormat  string               `gorm:"type:varchar(50);not null;default:'PAY-'"`
	PaymentWidth   int                  `gorm:"not null;default:6"`
	EstimateFormat string               `gorm:"type:varchar(50);not null;default:'EST-'"`
	EstimateWidth  int                  `gorm:"not null;default:6"`
	CreatedAt      time.Time            `gorm:"not null"`
	UpdatedAt      time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CompanySettingModel) TableName() string {
	return "company_settings"
}

// FormatFor returns the stored numbering template and width for a kind.
func (m *CompanySettingModel) FormatFor(kind billing.DocumentKind) (string, int) {
	switch kind {
	case billing.KindPayment:
		return m.PaymentFormat, m.PaymentWidth
	case billing.KindEstimate:
		return m.EstimateFormat, m.EstimateWidth
	default:
		return m.InvoiceFormat, m.InvoiceWidth
	}
}
