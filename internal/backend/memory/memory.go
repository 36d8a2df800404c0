// Package memory is an in-process search backend over issue documents.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"sync"

	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/filter"
	"basegraph.app/issuesearch/internal/model"
)

type Backend struct {
	mu   sync.RWMutex
	docs map[string]model.IssueDoc
}

func New(docs ...model.IssueDoc) *Backend {
	b := &Backend{docs: make(map[string]model.IssueDoc, len(docs))}
	b.Index(docs...)
	return b
}

// Index adds or replaces documents by key.
func (b *Backend) Index(docs ...model.IssueDoc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range docs {
		b.docs[d.Key] = d
	}
}

func (b *Backend) Delete(keys ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.docs, k)
	}
}

func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

func (b *Backend) Search(ctx context.Context, req backend.Request) (*backend.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	all := make([]*model.IssueDoc, 0, len(b.docs))
	for k := range b.docs {
		d := b.docs[k]
		all = append(all, &d)
	}
	b.mu.RUnlock()

	hits := selectDocs(all, req.Filter)
	sortDocs(hits, req.Sort)

	resp := &backend.Response{
		Total:        int64(len(hits)),
		Aggregations: make(map[string]backend.AggregationResult, len(req.Aggregations)),
	}
	if req.Limit > 0 && req.Offset < len(hits) {
		end := min(req.Offset+req.Limit, len(hits))
		for _, d := range hits[req.Offset:end] {
			resp.Hits = append(resp.Hits, d.Key)
		}
	}

	for _, agg := range req.Aggregations {
		docs := hits
		if agg.Scope != nil {
			docs = selectDocs(all, agg.Scope)
		}
		res, err := aggregate(docs, agg)
		if err != nil {
			return nil, fmt.Errorf("computing aggregation %s: %w", agg.Name, err)
		}
		resp.Aggregations[agg.Name] = res
	}
	return resp, nil
}

func selectDocs(docs []*model.IssueDoc, f filter.Node) []*model.IssueDoc {
	out := make([]*model.IssueDoc, 0, len(docs))
	for _, d := range docs {
		if matches(d, f) {
			out = append(out, d)
		}
	}
	return out
}

func sortDocs(docs []*model.IssueDoc, fields []backend.SortField) {
	slices.SortStableFunc(docs, func(a, b *model.IssueDoc) int {
		for _, sf := range fields {
			c := compareField(a, b, sf.Field)
			if c == 0 {
				continue
			}
			if !sf.Asc {
				c = -c
			}
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}

// compareField orders missing values first.
func compareField(a, b *model.IssueDoc, field string) int {
	if isNumeric(field) {
		av, aok := numericValue(a, field)
		bv, bok := numericValue(b, field)
		return compareMissing(aok, bok, func() int { return cmp.Compare(av, bv) })
	}
	av, bv := stringValues(a, field), stringValues(b, field)
	return compareMissing(len(av) > 0, len(bv) > 0, func() int { return cmp.Compare(av[0], bv[0]) })
}

func compareMissing(aok, bok bool, both func() int) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	return both()
}

func aggregate(docs []*model.IssueDoc, agg backend.Aggregation) (backend.AggregationResult, error) {
	res := backend.AggregationResult{Count: int64(len(docs))}
	switch agg.Kind {
	case backend.KindFilter:
		docs = selectDocs(docs, agg.Filter)
		res.Count = int64(len(docs))
	case backend.KindTerms:
		buckets, missing, err := termBuckets(docs, agg)
		if err != nil {
			return res, err
		}
		res.Buckets, res.Missing = buckets, missing
		return res, nil
	case backend.KindRanges:
		for _, r := range agg.Ranges {
			var in []*model.IssueDoc
			for _, d := range docs {
				t, ok := timeValue(d, agg.Field)
				if ok && !t.Before(r.From) && t.Before(r.To) {
					in = append(in, d)
				}
			}
			bucket := backend.Bucket{Key: r.Key, Count: int64(len(in))}
			sub, err := aggregateAll(in, agg.Sub)
			if err != nil {
				return res, err
			}
			bucket.Sub = sub
			res.Buckets = append(res.Buckets, bucket)
		}
		return res, nil
	case backend.KindMin, backend.KindMax:
		for _, d := range docs {
			v, ok := numericValue(d, agg.Field)
			if !ok {
				continue
			}
			if res.Value == nil ||
				(agg.Kind == backend.KindMin && v < *res.Value) ||
				(agg.Kind == backend.KindMax && v > *res.Value) {
				res.Value = &v
			}
		}
		return res, nil
	default:
		return res, fmt.Errorf("unsupported aggregation kind %d", agg.Kind)
	}

	sub, err := aggregateAll(docs, agg.Sub)
	if err != nil {
		return res, err
	}
	res.Sub = sub
	return res, nil
}

func aggregateAll(docs []*model.IssueDoc, aggs []backend.Aggregation) (map[string]backend.AggregationResult, error) {
	if len(aggs) == 0 {
		return nil, nil
	}
	out := make(map[string]backend.AggregationResult, len(aggs))
	for _, a := range aggs {
		r, err := aggregate(docs, a)
		if err != nil {
			return nil, err
		}
		out[a.Name] = r
	}
	return out, nil
}

func termBuckets(docs []*model.IssueDoc, agg backend.Aggregation) ([]backend.Bucket, int64, error) {
	var include *regexp.Regexp
	if agg.Include != "" {
		re, err := regexp.Compile(agg.Include)
		if err != nil {
			return nil, 0, fmt.Errorf("compiling include pattern: %w", err)
		}
		include = re
	}

	groups := make(map[string][]*model.IssueDoc)
	var missing int64
	for _, d := range docs {
		values := stringValues(d, agg.Field)
		if len(values) == 0 {
			missing++
			continue
		}
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			if include != nil && !include.MatchString(v) {
				continue
			}
			groups[v] = append(groups[v], d)
		}
	}

	buckets := make([]backend.Bucket, 0, len(groups))
	for k, in := range groups {
		sub, err := aggregateAll(in, agg.Sub)
		if err != nil {
			return nil, 0, err
		}
		buckets = append(buckets, backend.Bucket{Key: k, Count: int64(len(in)), Sub: sub})
	}
	slices.SortFunc(buckets, func(a, b backend.Bucket) int {
		if !agg.OrderByTerm {
			if c := cmp.Compare(b.Count, a.Count); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if agg.Size > 0 && len(buckets) > agg.Size {
		buckets = buckets[:agg.Size]
	}
	if !agg.Missing {
		missing = 0
	}
	return buckets, missing, nil
}
