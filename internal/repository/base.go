// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"zenith/internal/database"
	"zenith/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type txKey struct{}

// Transactor runs a unit of work inside one database transaction. Repository
// calls made with the context handed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor returns a Transactor backed by db.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// nested calls join the outer transaction
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// writer returns the transaction bound to ctx, or the primary.
func writer(ctx context.Context, primary *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return primary.WithContext(ctx)
}

// reader returns the transaction bound to ctx, else the read replica when one
// is connected, else the primary.
func reader(ctx context.Context, primary *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	if database.ReadDB != nil {
		return database.ReadDB.WithContext(ctx)
	}
	return primary.WithContext(ctx)
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// isForeignKeyError reports a delete or insert rejected by a foreign key.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

func notFoundOr(err error, notFound *models.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return models.NewInternalError(err)
}

func paginate(q *gorm.DB, page models.PageRequest) *gorm.DB {
	if page.Sort.Column != "" {
		q = q.Order(page.Sort.Clause())
	}
	// stable ordering across pages
	q = q.Order("id ASC")
	if page.Size > 0 {
		q = q.Limit(page.Size).Offset(page.Offset())
	}
	return q
}
