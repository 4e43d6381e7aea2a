package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/ledgerd/backend/internal/domain/shared"
)

type txContextKey struct{}

// GormUnitOfWork runs an application operation inside a single database
// transaction. The transaction handle travels in the context so every
// repository call made by the operation joins the same transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a unit of work bound to the given connection
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

var _ shared.UnitOfWork = (*GormUnitOfWork)(nil)

// Do executes fn inside a transaction. Any error returned by fn rolls
// back everything written through the transactional context.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// dbFrom returns the transaction stored in the context, or the
// repository's own connection when called outside a unit of work.
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
