// Package backend defines the contract between the issue search layer and a
// document search engine.
package backend

import (
	"context"
	"time"

	"basegraph.app/issuesearch/internal/filter"
)

// Backend executes one compiled search request.
type Backend interface {
	Search(ctx context.Context, req Request) (*Response, error)
}

// SortField orders hits by one document field. Missing values sort as the
// smallest value in both directions.
type SortField struct {
	Field string
	Asc   bool
}

type Request struct {
	Filter       filter.Node
	Sort         []SortField
	Offset       int
	Limit        int
	Aggregations []Aggregation
}

type AggregationKind int

const (
	// KindTerms buckets documents by field value.
	KindTerms AggregationKind = iota
	// KindFilter counts documents matching Filter.
	KindFilter
	// KindRanges buckets a time field into half-open ranges.
	KindRanges
	KindMin
	KindMax
)

// Aggregation describes one aggregation. Top-level aggregations run over the
// documents matching Scope, or the request filter when Scope is nil.
// Sub-aggregations run over the documents of their parent bucket.
type Aggregation struct {
	Name  string
	Kind  AggregationKind
	Field string
	Scope filter.Node

	// KindFilter.
	Filter filter.Node

	// KindTerms. Size zero means unbounded.
	Size        int
	OrderByTerm bool
	Include     string
	Missing     bool

	// KindRanges.
	Ranges []TimeRange

	Sub []Aggregation
}

// TimeRange covers [From, To).
type TimeRange struct {
	Key  string
	From time.Time
	To   time.Time
}

type Response struct {
	Total        int64
	Hits         []string
	Aggregations map[string]AggregationResult
}

type AggregationResult struct {
	// Count is the number of documents the aggregation ran over.
	Count int64
	// Value holds min and max results: epoch milliseconds for time fields.
	Value   *float64
	Buckets []Bucket
	// Missing counts documents lacking the field when requested.
	Missing int64
	Sub     map[string]AggregationResult
}

type Bucket struct {
	Key   string
	Count int64
	Sub   map[string]AggregationResult
}

// Terms returns a terms aggregation ordered by count.
func Terms(name, field string, size int) Aggregation {
	return Aggregation{Name: name, Kind: KindTerms, Field: field, Size: size}
}

func Filtered(name string, f filter.Node, sub ...Aggregation) Aggregation {
	return Aggregation{Name: name, Kind: KindFilter, Filter: f, Sub: sub}
}

func Max(name, field string) Aggregation {
	return Aggregation{Name: name, Kind: KindMax, Field: field}
}

func Min(name, field string) Aggregation {
	return Aggregation{Name: name, Kind: KindMin, Field: field}
}

// ScopeOrDefault returns the filter an aggregation runs under.
func (a Aggregation) ScopeOrDefault(requestFilter filter.Node) filter.Node {
	if a.Scope != nil {
		return a.Scope
	}
	return requestFilter
}
