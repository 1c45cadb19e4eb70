package repo

import (
	"context"

	"github.com/angelmondragon/accounts-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds the base to a transaction handle.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// NewestFirst orders rows by created_at then id, both descending, and skips
// everything at or before cursor when one is supplied.
func NewestFirst(table string, cursor *pagination.Cursor) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if cursor != nil {
			q = q.Where(
				"("+table+".created_at < ?) OR ("+table+".created_at = ? AND "+table+".id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		}
		return q.Order(table + ".created_at DESC").Order(table + ".id DESC")
	}
}

// OldestFirst orders rows by created_at then id, both ascending.
func OldestFirst(table string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Order(table + ".created_at ASC").Order(table + ".id ASC")
	}
}

// NextCursor trims a buffered result to limit and returns the cursor for the
// following page, or "" when rows ran out.
func NextCursor[T any](rows []T, limit int, key func(T) pagination.Cursor) ([]T, string) {
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, pagination.EncodeCursor(key(rows[len(rows)-1]))
}
