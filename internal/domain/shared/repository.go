package shared

const (
	// DefaultPageSize applies when a listing does not ask for one
	DefaultPageSize = 20
	// MaxPageSize caps every listing page
	MaxPageSize = 100
)

// Filter narrows and orders a repository listing. Filters holds exact-match
// column filters such as status, category or document_type.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]string
}

// DefaultFilter returns the first page, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: DefaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]string),
	}
}

// WithPage overrides paging with the positive arguments
func (f Filter) WithPage(page, pageSize int) Filter {
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = min(pageSize, MaxPageSize)
	}
	return f
}

// WithOrder overrides ordering with the non-empty arguments. Repositories
// still check the column against their whitelist.
func (f Filter) WithOrder(orderBy, orderDir string) Filter {
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	return f
}

// Where adds an exact-match filter; an empty value leaves the filter unset
func (f Filter) Where(key, value string) Filter {
	if value == "" {
		return f
	}
	if f.Filters == nil {
		f.Filters = make(map[string]string)
	}
	f.Filters[key] = value
	return f
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps one page of items with its position in the full listing
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if pageSize <= 0 {
		pageSize = 1
	}
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}
