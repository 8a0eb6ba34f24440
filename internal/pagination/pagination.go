package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize clamps the params into a usable range: page starts at 1 and the
// limit is bounded so a single request cannot pull the whole table.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Result[T any] struct {
	Data            []T   `json:"data"`
	Total           int64 `json:"total"`
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalPages      int   `json:"total_pages"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// Build assembles the page envelope from a slice and the exact row count.
func Build[T any](data []T, total int64, p Params) Result[T] {
	p = p.Normalize()
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data:            data,
		Total:           total,
		Page:            p.Page,
		Limit:           p.Limit,
		TotalPages:      totalPages,
		HasNextPage:     int64(p.Page)*int64(p.Limit) < total,
		HasPreviousPage: p.Page > 1,
	}
}
