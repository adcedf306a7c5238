package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// ListQuery carries the search, filter, sort and window of a list request.
// A zero Limit returns every row.
type ListQuery struct {
	Search  string
	Filters map[string]string
	Sort    string
	Limit   int
	Offset  int
}

type filterFunc func(tx *gorm.DB, value string) *gorm.DB

// listSpec describes what a list endpoint may search, filter and sort on.
type listSpec struct {
	searchColumn string
	sorts        map[string]string
	defaultSort  string
	filters      map[string]filterFunc
	preloads     []string
}

func equals(column string) filterFunc {
	return func(tx *gorm.DB, value string) *gorm.DB {
		return tx.Where(column+" = ?", value)
	}
}

// equalsID binds value as an integer key. Values that are not ids match
// no rows.
func equalsID(column string) filterFunc {
	return func(tx *gorm.DB, value string) *gorm.DB {
		id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return tx.Where("1 = 0")
		}
		return tx.Where(column+" = ?", id)
	}
}

// escapeLike makes user input literal inside a LIKE pattern using '!' as
// the escape character, which all supported databases accept.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func orderClause(sort string, spec listSpec) (string, error) {
	if sort == "" {
		sort = spec.defaultSort
	}
	desc := strings.HasPrefix(sort, "-")
	key := strings.TrimPrefix(sort, "-")
	column, ok := spec.sorts[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidSort, key)
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	clause := column + " " + dir
	if column != "id" {
		clause += ", id " + dir
	}
	return clause, nil
}

func list[T any](ctx context.Context, db *gorm.DB, q ListQuery, spec listSpec, scopes ...func(*gorm.DB) *gorm.DB) ([]T, int64, error) {
	order, err := orderClause(q.Sort, spec)
	if err != nil {
		return nil, 0, err
	}

	tx := db.WithContext(ctx).Model(new(T))
	for _, scope := range scopes {
		tx = scope(tx)
	}
	if q.Search != "" && spec.searchColumn != "" {
		tx = tx.Where(spec.searchColumn+" LIKE ? ESCAPE '!'", escapeLike(q.Search)+"%")
	}
	for key, value := range q.Filters {
		filter, ok := spec.filters[key]
		if !ok || value == "" {
			continue
		}
		tx = filter(tx, value)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	find := tx.Order(order).Offset(q.Offset)
	if q.Limit > 0 {
		find = find.Limit(q.Limit)
	}
	for _, p := range spec.preloads {
		find = find.Preload(p)
	}

	items := make([]T, 0)
	if err := find.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
