package search

import (
	"cmp"
	"slices"

	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/issuequery"
)

func project(resp *backend.Response, opts issuequery.SearchOptions) *SearchResult {
	result := &SearchResult{
		Total:  resp.Total,
		Keys:   slices.Clone(resp.Hits),
		Facets: Facets{},
	}
	if result.Keys == nil {
		result.Keys = []string{}
	}
	for _, f := range termFacets {
		if opts.HasFacet(f.name) {
			result.Facets[f.name] = projectTermFacet(f, resp.Aggregations)
		}
	}
	return result
}

// projectTermFacet merges the top values with the selected ones, drops empty
// buckets and orders by count then value.
func projectTermFacet(f termFacet, aggs map[string]backend.AggregationResult) []FacetValue {
	res := aggs[f.name]
	seen := make(map[string]struct{}, len(res.Buckets))
	values := make([]FacetValue, 0, len(res.Buckets)+1)

	add := func(buckets []backend.Bucket) {
		for _, b := range buckets {
			if b.Count <= 0 {
				continue
			}
			if _, dup := seen[b.Key]; dup {
				continue
			}
			seen[b.Key] = struct{}{}
			values = append(values, FacetValue{Value: b.Key, Count: b.Count})
		}
	}
	add(res.Buckets)
	if sel, ok := aggs[f.name+selectedSuffix]; ok {
		add(sel.Buckets)
	}
	if f.missing && res.Missing > 0 {
		values = append(values, FacetValue{Value: "", Count: res.Missing})
	}

	sortFacetValues(values)
	return values
}

func sortFacetValues(values []FacetValue) {
	slices.SortFunc(values, func(a, b FacetValue) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
}

func bucketKeys(buckets []backend.Bucket) []string {
	keys := make([]string, 0, len(buckets))
	for _, b := range buckets {
		if b.Count > 0 {
			keys = append(keys, b.Key)
		}
	}
	return keys
}
