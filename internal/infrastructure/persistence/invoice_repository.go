package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledgerd/backend/internal/domain/billing"
	"github.com/ledgerd/backend/internal/domain/shared"
	"github.com/ledgerd/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)

// Create persists a new invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return shared.WrapPersistence(err)
	}
	return nil
}

// FindByID finds a company-scoped invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
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

// SaveWithLock saves the invoice with optimistic locking. The update only
// lands when the stored version is one behind the aggregate's.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := dbFrom(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
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

// Delete removes a company-scoped invoice
func (r *GormInvoiceRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).
		Delete(&models.InvoiceModel{}, "company_id = ? AND id = ?", companyID, id)
	if result.Error != nil {
		return shared.WrapPersistence(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns a page of company-scoped invoices, newest first
func (r *GormInvoiceRepository) List(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	db := dbFrom(ctx, r.db)

	var total int64
	countQuery := applyInvoiceFilter(db.Model(&models.InvoiceModel{}).
		Where("company_id = ?", companyID), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, shared.WrapPersistence(err)
	}

	var invoiceModels []models.InvoiceModel
	findQuery := applyInvoiceFilter(db.Model(&models.InvoiceModel{}).
		Where("company_id = ?", companyID), filter)
	if err := findQuery.
		Order(orderClause(filter, "invoice_date")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&invoiceModels).Error; err != nil {
		return nil, shared.WrapPersistence(err)
	}

	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return shared.NewPaginated(invoices, total, filter.Page, filter.PageSize), nil
}

func applyInvoiceFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if v, ok := filter.Filters["customer_id"]; ok {
		query = query.Where("customer_id = ?", v)
	}
	if v, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filter.Filters["paid_status"]; ok {
		query = query.Where("paid_status = ?", v)
	}
	if v, ok := filter.Filters["overdue"]; ok {
		query = query.Where("overdue = ?", v)
	}
	if v, ok := filter.Filters["number"]; ok {
		if s, isString := v.(string); isString && s != "" {
			query = query.Where("number ILIKE ?", "%"+s+"%")
		}
	}
	return query
}

// orderClause builds a safe ORDER BY from the filter, falling back to the
// given column. Only plain identifiers are accepted.
func orderClause(filter shared.Filter, fallback string) string {
	column := fallback
	if filter.OrderBy != "" && isPlainIdentifier(filter.OrderBy) {
		column = filter.OrderBy
	}
	dir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}

func isPlainIdentifier(s string) bool {
	for _, c := range s {
		if c != '_' && (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return s != ""
}
