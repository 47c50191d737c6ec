// Package option provides composable gorm query modifiers shared by
// the repositories.
package option

import (
	"time"

	"github.com/salestrackpro/salestrack/pkg/db/pagination"
	"gorm.io/gorm"
)

// Option mutates a gorm statement before execution.
type Option interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type optionFunc func(stmt *gorm.DB) *gorm.DB

func (f optionFunc) Apply(stmt *gorm.DB) *gorm.DB { return f(stmt) }

// ApplyPagination applies cursor-based pagination. It fetches one row
// beyond the page size so the caller can detect whether more pages
// remain.
func ApplyPagination(page pagination.Pagination) Option {
	return optionFunc(func(stmt *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 10
		}

		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil && cursor != nil && cursor.CreatedAt != "" {
				if createdAt, perr := time.Parse(time.RFC3339, cursor.CreatedAt); perr == nil {
					stmt = stmt.Where(
						"(created_at < ?) OR (created_at = ? AND id < ?)",
						createdAt, createdAt, cursor.ID,
					)
				}
			}
		}

		return stmt.Limit(size + 1)
	})
}
