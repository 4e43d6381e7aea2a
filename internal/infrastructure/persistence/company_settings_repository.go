package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/domain/shared/valueobject"
	"github.com/ledgerd/backend/internal/infrastructure/persistence/models"
)

// GormCompanySettingsRepository implements billing.CompanySettingsProvider
// using GORM. Companies without a stored settings row fall back to the
// default currency and numbering formats.
type GormCompanySettingsRepository struct {
	db *gorm.DB
}

// NewGormCompanySettingsRepository creates a new GormCompanySettingsRepository
func NewGormCompanySettingsRepository(db *gorm.DB) *GormCompanySettingsRepository {
	return &GormCompanySettingsRepository{db: db}
}

var _ billing.CompanySettingsProvider = (*GormCompanySettingsRepository)(nil)

// BaseCurrency returns the company's base currency
func (r *GormCompanySettingsRepository) BaseCurrency(ctx context.Context, companyID uuid.UUID) (valueobject.Currency, error) {
	setting, err := r.load(ctx, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return valueobject.DefaultCurrency, nil
		}
		return "", err
	}
	return setting.BaseCurrency, nil
}

// SerialFormat resolves the company's numbering format for a document
// kind, expanding date placeholders against the current time.
func (r *GormCompanySettingsRepository) SerialFormat(ctx context.Context, companyID uuid.UUID, kind billing.DocumentKind) (billing.SerialFormat, error) {
	setting, err := r.load(ctx, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return billing.DefaultSerialFormats[kind], nil
		}
		return billing.SerialFormat{}, err
	}
	template, width := setting.FormatFor(kind)
	format := billing.ResolveFormat(template, width, time.Now())
	if err := format.Validate(); err != nil {
		return billing.SerialFormat{}, err
	}
	return format, nil
}

// Save upserts a company's settings row
func (r *GormCompanySettingsRepository) Save(ctx context.Context, setting *models.CompanySettingModel) error {
	if err := dbFrom(ctx, r.db).Save(setting).Error; err != nil {
		return shared.WrapPersistence(err)
	}
	return nil
}

func (r *GormCompanySettingsRepository) load(ctx context.Context, companyID uuid.UUID) (*models.CompanySettingModel, error) {
	var setting models.CompanySettingModel
	if err := dbFrom(ctx, r.db).
		First(&setting, "company_id = ?", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapPersistence(err)
	}
	return &setting, nil
}
