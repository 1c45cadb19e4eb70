package pagination

// DefaultPageSize is the page size for numbered admin listings.
const DefaultPageSize = 20

// Page addresses a numbered page (1-based) for offset listings.
type Page struct {
	Number int
	Size   int
}

// NormalizePage clamps number to >= 1 and size into (0, MaxLimit].
func NormalizePage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxLimit {
		size = MaxLimit
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PageInfo describes where a numbered page sits in the full result set.
type PageInfo struct {
	Number     int   `json:"number"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

func (p Page) Info(total int64) PageInfo {
	pages := 0
	if total > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return PageInfo{
		Number:     p.Number,
		Size:       p.Size,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Number < pages,
		HasPrev:    p.Number > 1,
	}
}
