package issuequery

import "slices"

const (
	DefaultLimit = 10
	MaxLimit     = 500
)

// SearchOptions addresses one page of hits and names the facets to compute.
// The zero value returns the first DefaultLimit hits and no facets.
type SearchOptions struct {
	offset int
	limit  int
	facets []string
}

func NewSearchOptions() SearchOptions {
	return SearchOptions{limit: DefaultLimit}
}

func (o SearchOptions) SetOffset(offset int) SearchOptions {
	o.offset = max(offset, 0)
	return o
}

// SetLimit sets the page size. Zero or negative falls back to DefaultLimit
// and values above MaxLimit are clamped.
func (o SearchOptions) SetLimit(limit int) SearchOptions {
	switch {
	case limit <= 0:
		o.limit = DefaultLimit
	case limit > MaxLimit:
		o.limit = MaxLimit
	default:
		o.limit = limit
	}
	return o
}

// SetPage addresses page p (1-based) of the given size.
func (o SearchOptions) SetPage(page, pageSize int) SearchOptions {
	o = o.SetLimit(pageSize)
	o.offset = (max(page, 1) - 1) * o.limit
	return o
}

func (o SearchOptions) AddFacets(names ...string) SearchOptions {
	o.facets = append(slices.Clone(o.facets), names...)
	return o
}

func (o SearchOptions) Offset() int { return o.offset }

func (o SearchOptions) Limit() int {
	if o.limit <= 0 {
		return DefaultLimit
	}
	return o.limit
}

func (o SearchOptions) Facets() []string { return slices.Clone(o.facets) }

func (o SearchOptions) HasFacet(name string) bool {
	return slices.Contains(o.facets, name)
}
