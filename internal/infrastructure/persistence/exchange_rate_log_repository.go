package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/infrastructure/persistence/models"
)

// GormExchangeRateLogRepository implements billing.ExchangeRateLogRepository using GORM
type GormExchangeRateLogRepository struct {
	db *gorm.DB
}

// NewGormExchangeRateLogRepository creates a new GormExchangeRateLogRepository
func NewGormExchangeRateLogRepository(db *gorm.DB) *GormExchangeRateLogRepository {
	return &GormExchangeRateLogRepository{db: db}
}

var _ billing.ExchangeRateLogRepository = (*GormExchangeRateLogRepository)(nil)

// Create appends an exchange-rate audit row
func (r *GormExchangeRateLogRepository) Create(ctx context.Context, log *billing.ExchangeRateLog) error {
	model := models.ExchangeRateLogModelFromDomain(log)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return shared.WrapPersistence(err)
	}
	return nil
}

// DeleteForDocument removes the audit rows of a deleted document.
// Deleting zero rows is not an error; base-currency documents never
// had any.
func (r *GormExchangeRateLogRepository) DeleteForDocument(ctx context.Context, companyID uuid.UUID, docType billing.DocumentType, documentID uuid.UUID) error {
	err := dbFrom(ctx, r.db).
		Delete(&models.ExchangeRateLogModel{},
			"company_id = ? AND document_type = ? AND document_id = ?",
			companyID, docType, documentID).Error
	if err != nil {
		return shared.WrapPersistence(err)
	}
	return nil
}
