package models

// Sort is a validated ORDER BY clause. Column is always taken from an
// allow-list, never from raw input.
type Sort struct {
	Column string
	Desc   bool
}

// Clause renders the ORDER BY fragment.
func (s Sort) Clause() string {
	if s.Desc {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

// PageRequest is a resolved pagination request.
type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          bool  `json:"last"`
}

// NewPage assembles a Page from a result slice and the total row count.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          req.Page+1 >= totalPages,
	}
}

// MapPage converts the content of a page, keeping its metadata.
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}
	return Page[R]{
		Content:       out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Last:          p.Last,
	}
}
