// Package service holds the business rules of the blog: validation,
// authorization, status transitions and the orchestration of repository calls.
package service

import (
	"strings"

	"zenith/internal/models"
)

// Pagination defaults.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortFields maps API field names (lower-cased) to columns.
type SortFields struct {
	columns map[string]string
	def     models.Sort
}

func sortFields(def models.Sort, pairs ...string) SortFields {
	cols := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		cols[strings.ToLower(pairs[i])] = pairs[i+1]
	}
	return SortFields{columns: cols, def: def}
}

// Allow-lists per resource.
var (
	PostSortFields = sortFields(models.Sort{Column: "created_at", Desc: true},
		"createdAt", "created_at",
		"updatedAt", "updated_at",
		"publishedAt", "published_at",
		"title", "title",
		"status", "status",
		"readingTime", "reading_time_minutes",
	)
	CommentSortFields = sortFields(models.Sort{Column: "created_at", Desc: true},
		"createdAt", "created_at",
		"updatedAt", "updated_at",
		"status", "status",
	)
	UserSortFields = sortFields(models.Sort{Column: "created_at", Desc: true},
		"createdAt", "created_at",
		"username", "username",
		"email", "email",
		"role", "role",
	)
	TaxonomySortFields = sortFields(models.Sort{Column: "name"},
		"name", "name",
		"createdAt", "created_at",
	)
)

// PageInput is the raw pagination query of a listing request.
type PageInput struct {
	Page          int
	Size          int
	SortBy        string
	SortDirection string
}

// ResolvePage validates in against fields. A missing sortBy selects the
// resource default; a missing direction means descending.
func ResolvePage(in PageInput, fields SortFields) (models.PageRequest, error) {
	if in.Page < 0 {
		return models.PageRequest{}, models.NewValidationError("page must not be negative")
	}
	size := in.Size
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}

	sort, err := ResolveSort(in.SortBy, in.SortDirection, fields)
	if err != nil {
		return models.PageRequest{}, err
	}
	return models.PageRequest{Page: in.Page, Size: size, Sort: sort}, nil
}

// ResolveSort maps a client sort field and direction onto an allow-listed column.
func ResolveSort(sortBy, direction string, fields SortFields) (models.Sort, error) {
	sortBy = strings.TrimSpace(sortBy)
	direction = strings.ToLower(strings.TrimSpace(direction))

	desc := true
	switch direction {
	case "", "desc":
	case "asc":
		desc = false
	default:
		return models.Sort{}, models.NewValidationError("invalid sort direction: " + direction + " (expected asc or desc)")
	}

	if sortBy == "" {
		if direction == "" {
			return fields.def, nil
		}
		return models.Sort{Column: fields.def.Column, Desc: desc}, nil
	}

	column, ok := fields.columns[strings.ToLower(sortBy)]
	if !ok {
		return models.Sort{}, models.NewValidationError("invalid sort field: " + sortBy)
	}
	return models.Sort{Column: column, Desc: desc}, nil
}
