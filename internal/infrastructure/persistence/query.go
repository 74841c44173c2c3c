package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// findPage counts the rows matched by query, then loads one ordered page.
// filter.PageSize <= 0 loads every row.
func findPage[T any](query *gorm.DB, filter shared.Filter, sortFields map[string]bool, defaultSort string) ([]T, int64, error) {
	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	field := ValidateSortField(filter.OrderBy, sortFields, defaultSort)
	q := base.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		q = q.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	items := make([]T, 0)
	if err := q.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// applyListingFilters applies search, status and category filters shared by
// services and products
func applyListingFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := likePattern(term)
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "category":
			query = query.Where("category = ?", value)
		}
	}
	return query
}

// applyStatusFilter applies an optional status filter
func applyStatusFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	return query
}

// likePattern builds a case-insensitive contains pattern with LIKE wildcards escaped
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

// saveVersioned inserts an aggregate that was never stored, or updates it
// only if the row is still at the version it was loaded with. A lost race
// returns shared.ErrConflict.
func saveVersioned(ctx context.Context, db *gorm.DB, agg shared.AggregateRoot) error {
	loaded := agg.PersistedVersion()
	if loaded == 0 {
		if err := conn(ctx, db).Create(agg).Error; err != nil {
			return err
		}
		agg.MarkPersisted()
		return nil
	}

	result := conn(ctx, db).Model(agg).Where("version = ?", loaded).Select("*").Updates(agg)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConflict
	}
	agg.MarkPersisted()
	return nil
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// isUniqueViolation recognizes unique constraint failures from PostgreSQL
// (SQLSTATE 23505) and SQLite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint failed")
}
