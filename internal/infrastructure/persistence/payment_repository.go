package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)

// Create persists a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return shared.WrapPersistence(err)
	}
	return nil
}

// FindByID finds a company-scoped payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := dbFrom(ctx, r.db).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapPersistence(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the company-scoped payments that exist among ids.
// Missing ids are silently omitted.
func (r *GormPaymentRepository) FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]*billing.Payment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var paymentModels []models.PaymentModel
	if err := dbFrom(ctx, r.db).
		Where("company_id = ? AND id IN ?", companyID, ids).
		Find(&paymentModels).Error; err != nil {
		return nil, shared.WrapPersistence(err)
	}
	payments := make([]*billing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments, nil
}

// SaveWithLock saves the payment with optimistic locking
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *billing.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	result := dbFrom(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", payment.ID, payment.Version-1).
		Select("*").Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return shared.WrapPersistence(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a company-scoped payment
func (r *GormPaymentRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).
		Delete(&models.PaymentModel{}, "company_id = ? AND id = ?", companyID, id)
	if result.Error != nil {
		return shared.WrapPersistence(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DetachFromInvoice clears the invoice link on every payment referencing
// the invoice. The payments survive as unlinked receipts.
func (r *GormPaymentRepository) DetachFromInvoice(ctx context.Context, companyID, invoiceID uuid.UUID) error {
	err := dbFrom(ctx, r.db).
		Model(&models.PaymentModel{}).
		Where("company_id = ? AND invoice_id = ?", companyID, invoiceID).
		Update("invoice_id", nil).Error
	if err != nil {
		return shared.WrapPersistence(err)
	}
	return nil
}

// List returns a page of company-scoped payments, newest first
func (r *GormPaymentRepository) List(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Payment], error) {
	db := dbFrom(ctx, r.db)

	var total int64
	countQuery := applyPaymentFilter(db.Model(&models.PaymentModel{}).
		Where("company_id = ?", companyID), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, shared.WrapPersistence(err)
	}

	var paymentModels []models.PaymentModel
	findQuery := applyPaymentFilter(db.Model(&models.PaymentModel{}).
		Where("company_id = ?", companyID), filter)
	if err := findQuery.
		Order(orderClause(filter, "payment_date")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&paymentModels).Error; err != nil {
		return nil, shared.WrapPersistence(err)
	}

	payments := make([]*billing.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return shared.NewPaginated(payments, total, filter.Page, filter.PageSize), nil
}

func applyPaymentFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if v, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", v)
	}
	if v, ok := filter.Filters["invoice_id"]; ok {
		query = query.Where("invoice_id = ?", v)
	}
	if v, ok := filter.Filters["number"]; ok {
		if s, isString := v.(string); isString && s != "" {
			query = query.Where("number ILIKE ?", "%"+s+"%")
		}
	}
	return query
}
