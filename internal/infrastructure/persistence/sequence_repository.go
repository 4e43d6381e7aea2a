package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/infrastructure/persistence/models"
)

// GormSequenceRepository implements billing.SequenceRepository using GORM.
// Counter rows are read under SELECT ... FOR UPDATE so two concurrent
// allocations in the same series serialize instead of handing out the
// same number. Callers run inside a unit of work, so a rollback releases
// the allocated number together with everything else.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

var _ billing.SequenceRepository = (*GormSequenceRepository)(nil)

// NextCompanySequence returns the next number in the (company, kind) series
func (r *GormSequenceRepository) NextCompanySequence(ctx context.Context, companyID uuid.UUID, kind billing.DocumentKind) (int64, error) {
	return r.next(ctx, companyID, uuid.Nil, kind)
}

// NextCustomerSequence returns the next number in the (company, customer, kind) series
func (r *GormSequenceRepository) NextCustomerSequence(ctx context.Context, companyID, customerID uuid.UUID, kind billing.DocumentKind) (int64, error) {
	if customerID == uuid.Nil {
		return 0, shared.NewDomainError("INVALID_INPUT", "customer id is required for a customer sequence")
	}
	return r.next(ctx, companyID, customerID, kind)
}

// next allocates the following number in one series. Company-wide series
// store the zero UUID in customer_id.
func (r *GormSequenceRepository) next(ctx context.Context, companyID, customerID uuid.UUID, kind billing.DocumentKind) (int64, error) {
	db := dbFrom(ctx, r.db)

	var counter models.SequenceCounterModel
	err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND customer_id = ? AND kind = ?", companyID, customerID, kind).
		First(&counter).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = models.SequenceCounterModel{
			ID:         uuid.New(),
			CompanyID:  companyID,
			CustomerID: customerID,
			Kind:       kind,
			LastValue:  1,
			UpdatedAt:  time.Now(),
		}
		if err := db.Create(&counter).Error; err != nil {
			// Another transaction created the counter between our lookup and
			// the insert; the unique scope index rejects the duplicate. Report
			// a conflict so the caller retries and takes the locked path.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return 0, shared.ErrConcurrencyConflict
			}
			return 0, shared.WrapPersistence(err)
		}
		return 1, nil
	}
	if err != nil {
		return 0, shared.WrapPersistence(err)
	}

	next := counter.LastValue + 1
	err = db.Model(&models.SequenceCounterModel{}).
		Where("id = ?", counter.ID).
		Updates(map[string]interface{}{
			"last_value": next,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return 0, shared.WrapPersistence(err)
	}
	return next, nil
}
