// Package typesense serves issue searches from a Typesense collection.
//
// Documents are expected to use the model field names, times as epoch
// milliseconds and MissingValue for absent keyword values. Aggregations
// Typesense cannot nest are evaluated with additional searches.
package typesense

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"golang.org/x/sync/errgroup"

	"basegraph.app/issuesearch/common/logger"
	"basegraph.app/issuesearch/internal/backend"
)

const (
	// maxFacetValues bounds unbounded terms aggregations.
	maxFacetValues = 10000
	// maxPerPage is the largest page Typesense returns.
	maxPerPage = 250

	defaultConcurrency = 8
)

// Params is one Typesense search.
type Params struct {
	FilterBy       string
	SortBy         string
	Page           int
	PerPage        int
	FacetBy        string
	MaxFacetValues int
}

type FacetCount struct {
	Value string
	Count int64
}

type FacetStats struct {
	Min *float64
	Max *float64
}

type Result struct {
	Found  int64
	Keys   []string
	Facets map[string][]FacetCount
	Stats  map[string]FacetStats
}

// Searcher runs searches against one collection.
type Searcher interface {
	Search(ctx context.Context, p Params) (*Result, error)
}

type Backend struct {
	searcher    Searcher
	concurrency int
}

type Option func(*Backend)

// WithConcurrency bounds the aggregation searches in flight per request.
func WithConcurrency(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func New(s Searcher, opts ...Option) *Backend {
	b := &Backend{searcher: s, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Search(ctx context.Context, req backend.Request) (*backend.Response, error) {
	filterBy := FilterBy(req.Filter)

	hits, err := b.hits(ctx, filterBy, req)
	if err != nil {
		return nil, err
	}

	resp := &backend.Response{
		Total:        hits.Found,
		Hits:         hits.Keys,
		Aggregations: make(map[string]backend.AggregationResult, len(req.Aggregations)),
	}
	results := make([]backend.AggregationResult, len(req.Aggregations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, agg := range req.Aggregations {
		scope := filterBy
		if agg.Scope != nil {
			scope = FilterBy(agg.Scope)
		}
		g.Go(func() error {
			res, err := b.aggregate(gctx, scope, agg)
			if err != nil {
				return fmt.Errorf("computing aggregation %s: %w", agg.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, agg := range req.Aggregations {
		resp.Aggregations[agg.Name] = results[i]
	}

	slog.DebugContext(ctx, "typesense search completed",
		"found", resp.Total,
		"aggregations", len(req.Aggregations),
		"filter_by", logger.Truncate(filterBy, 200))
	return resp, nil
}

// hits fetches the window [Offset, Offset+Limit). A window that fits one
// aligned page is a single search. Any other window is read from the
// maxPerPage pages covering it, fetched concurrently and trimmed.
func (b *Backend) hits(ctx context.Context, filterBy string, req backend.Request) (*Result, error) {
	base := Params{FilterBy: filterBy, SortBy: SortBy(req.Sort)}

	if req.Limit <= 0 {
		base.Page = 1
		return b.searcher.Search(ctx, base)
	}
	if req.Limit <= maxPerPage && req.Offset%req.Limit == 0 {
		base.Page, base.PerPage = req.Offset/req.Limit+1, req.Limit
		return b.searcher.Search(ctx, base)
	}

	first := req.Offset / maxPerPage
	last := (req.Offset + req.Limit - 1) / maxPerPage
	pages := make([]*Result, last-first+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i := range pages {
		p := base
		p.Page, p.PerPage = first+i+1, maxPerPage
		g.Go(func() error {
			res, err := b.searcher.Search(gctx, p)
			if err != nil {
				return fmt.Errorf("fetching page %d: %w", p.Page, err)
			}
			pages[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{Found: pages[0].Found}
	var keys []string
	for _, res := range pages {
		keys = append(keys, res.Keys...)
	}
	skip := min(req.Offset-first*maxPerPage, len(keys))
	keys = keys[skip:]
	out.Keys = keys[:min(req.Limit, len(keys))]
	return out, nil
}

// count returns the number of documents matching filterBy.
func (b *Backend) count(ctx context.Context, filterBy string) (int64, error) {
	res, err := b.searcher.Search(ctx, Params{FilterBy: filterBy, Page: 1})
	if err != nil {
		return 0, err
	}
	return res.Found, nil
}

func (b *Backend) aggregate(ctx context.Context, scope string, agg backend.Aggregation) (backend.AggregationResult, error) {
	switch agg.Kind {
	case backend.KindFilter:
		f := and(scope, FilterBy(agg.Filter))
		n, err := b.count(ctx, f)
		if err != nil {
			return backend.AggregationResult{}, err
		}
		sub, err := b.aggregateAll(ctx, f, agg.Sub)
		return backend.AggregationResult{Count: n, Sub: sub}, err

	case backend.KindTerms:
		return b.terms(ctx, scope, agg)

	case backend.KindRanges:
		res := backend.AggregationResult{}
		for _, r := range agg.Ranges {
			f := and(scope, fmt.Sprintf("%s:>=%d && %s:<%d", agg.Field, r.From.UnixMilli(), agg.Field, r.To.UnixMilli()))
			n, err := b.count(ctx, f)
			if err != nil {
				return res, err
			}
			sub, err := b.aggregateAll(ctx, f, agg.Sub)
			if err != nil {
				return res, err
			}
			res.Count += n
			res.Buckets = append(res.Buckets, backend.Bucket{Key: r.Key, Count: n, Sub: sub})
		}
		return res, nil

	case backend.KindMin, backend.KindMax:
		out, err := b.searcher.Search(ctx, Params{FilterBy: scope, Page: 1, FacetBy: agg.Field, MaxFacetValues: 1})
		if err != nil {
			return backend.AggregationResult{}, err
		}
		res := backend.AggregationResult{Count: out.Found}
		if out.Found > 0 {
			stats := out.Stats[agg.Field]
			res.Value = stats.Max
			if agg.Kind == backend.KindMin {
				res.Value = stats.Min
			}
		}
		return res, nil
	}
	return backend.AggregationResult{}, fmt.Errorf("unsupported aggregation kind %d", agg.Kind)
}

func (b *Backend) aggregateAll(ctx context.Context, scope string, aggs []backend.Aggregation) (map[string]backend.AggregationResult, error) {
	if len(aggs) == 0 {
		return nil, nil
	}
	out := make(map[string]backend.AggregationResult, len(aggs))
	for _, a := range aggs {
		r, err := b.aggregate(ctx, scope, a)
		if err != nil {
			return nil, err
		}
		out[a.Name] = r
	}
	return out, nil
}

// terms reads a facet. Ordering, include patterns and size are applied here
// because facet_by only returns the most frequent values.
func (b *Backend) terms(ctx context.Context, scope string, agg backend.Aggregation) (backend.AggregationResult, error) {
	var include *regexp.Regexp
	if agg.Include != "" {
		re, err := regexp.Compile(agg.Include)
		if err != nil {
			return backend.AggregationResult{}, fmt.Errorf("compiling include pattern: %w", err)
		}
		include = re
	}

	limit := maxFacetValues
	if agg.Size > 0 && include == nil && !agg.OrderByTerm {
		// One extra slot for MissingValue.
		limit = agg.Size + 1
	}
	out, err := b.searcher.Search(ctx, Params{FilterBy: scope, Page: 1, FacetBy: agg.Field, MaxFacetValues: limit})
	if err != nil {
		return backend.AggregationResult{}, err
	}

	res := backend.AggregationResult{Count: out.Found}
	for _, c := range out.Facets[agg.Field] {
		if c.Value == MissingValue {
			continue
		}
		if include != nil && !include.MatchString(c.Value) {
			continue
		}
		res.Buckets = append(res.Buckets, backend.Bucket{Key: c.Value, Count: c.Count})
	}

	slices.SortFunc(res.Buckets, func(x, y backend.Bucket) int {
		if !agg.OrderByTerm {
			if c := cmp.Compare(y.Count, x.Count); c != 0 {
				return c
			}
		}
		return cmp.Compare(x.Key, y.Key)
	})
	if agg.Size > 0 && len(res.Buckets) > agg.Size {
		res.Buckets = res.Buckets[:agg.Size]
	}
	if agg.Missing {
		n, err := b.count(ctx, and(scope, agg.Field+":="+quote(MissingValue)))
		if err != nil {
			return res, err
		}
		res.Missing = n
	}

	for i, bucket := range res.Buckets {
		if len(agg.Sub) == 0 {
			break
		}
		sub, err := b.aggregateAll(ctx, and(scope, agg.Field+":="+quote(bucket.Key)), agg.Sub)
		if err != nil {
			return res, err
		}
		res.Buckets[i].Sub = sub
	}
	return res, nil
}

