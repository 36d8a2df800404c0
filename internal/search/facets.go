package search

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"basegraph.app/issuesearch/internal/apperr"
	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/criteria"
	"basegraph.app/issuesearch/internal/datebucket"
	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/model"
)

// DefaultFacetSize caps the values reported per term facet, selected
// values excepted.
const DefaultFacetSize = 15

const (
	FacetCreatedAt = criteria.DimCreatedAt

	selectedSuffix = "__selected"
	minCreatedAt   = "minCreatedAt"
)

type termFacet struct {
	name  string
	field string
	// missing reports documents without a value under "".
	missing  bool
	selected func(q *issuequery.Query) []string
}

var termFacets = []termFacet{
	{name: criteria.DimSeverities, field: model.FieldSeverity, selected: func(q *issuequery.Query) []string { return stringsOf(q.Severities()) }},
	{name: criteria.DimStatuses, field: model.FieldStatus, selected: func(q *issuequery.Query) []string { return stringsOf(q.Statuses()) }},
	{name: criteria.DimResolutions, field: model.FieldResolution, missing: true, selected: func(q *issuequery.Query) []string { return stringsOf(q.Resolutions()) }},
	{name: criteria.DimTypes, field: model.FieldType, selected: func(q *issuequery.Query) []string { return stringsOf(q.Types()) }},
	{name: criteria.DimProjectUUIDs, field: model.FieldProjectUUID, selected: (*issuequery.Query).ProjectUUIDs},
	{name: criteria.DimModuleUUIDs, field: model.FieldModuleUUID, selected: (*issuequery.Query).ModuleUUIDs},
	{name: criteria.DimFileUUIDs, field: model.FieldComponentUUID, selected: (*issuequery.Query).FileUUIDs},
	{name: criteria.DimDirectories, field: model.FieldDirectoryPath, selected: (*issuequery.Query).Directories},
	{name: criteria.DimRules, field: model.FieldRuleID, selected: (*issuequery.Query).Rules},
	{name: criteria.DimLanguages, field: model.FieldLanguage, selected: (*issuequery.Query).Languages},
	{name: criteria.DimAssignees, field: model.FieldAssigneeUUID, missing: true, selected: (*issuequery.Query).AssigneeUUIDs},
	{name: criteria.DimAuthors, field: model.FieldAuthorLogin, selected: (*issuequery.Query).Authors},
	{name: criteria.DimTags, field: model.FieldTags, selected: (*issuequery.Query).Tags},
	{name: criteria.DimOwaspTop10, field: model.FieldOwaspTop10, selected: (*issuequery.Query).OwaspTop10},
	{name: criteria.DimSansTop25, field: model.FieldSansTop25, selected: (*issuequery.Query).SansTop25},
	{name: criteria.DimCWE, field: model.FieldCWE, selected: (*issuequery.Query).CWE},
}

// FacetNames lists every supported facet.
func FacetNames() []string {
	names := make([]string, 0, len(termFacets)+1)
	for _, f := range termFacets {
		names = append(names, f.name)
	}
	return append(names, FacetCreatedAt)
}

func validateFacets(names []string) error {
	supported := FacetNames()
	for _, n := range names {
		if !slices.Contains(supported, n) {
			return apperr.InvalidArgumentf("Unsupported facet: %s", n)
		}
	}
	return nil
}

// FacetValue is one bucket of a facet.
type FacetValue struct {
	Value string `json:"val"`
	Count int64  `json:"count"`
}

// Facets maps facet names to their values. Facets that could not be computed,
// such as a creation histogram over zero issues, are absent.
type Facets map[string][]FacetValue

func (f Facets) Names() []string {
	names := make([]string, 0, len(f))
	for n := range f {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (f Facets) Get(name string) ([]FacetValue, bool) {
	v, ok := f[name]
	return v, ok
}

// Counts returns one facet as a value to count map.
func (f Facets) Counts(name string) map[string]int64 {
	values, ok := f[name]
	if !ok {
		return nil
	}
	out := make(map[string]int64, len(values))
	for _, v := range values {
		out[v.Value] = v.Count
	}
	return out
}

// termFacetAggregations computes each requested facet with every filter
// except its own, so selecting a value does not hide its siblings.
func termFacetAggregations(q *issuequery.Query, crit criteria.Criteria, opts issuequery.SearchOptions) []backend.Aggregation {
	var aggs []backend.Aggregation
	for _, f := range termFacets {
		if !opts.HasFacet(f.name) {
			continue
		}
		scope := crit.FilterExcluding(f.name)

		agg := backend.Terms(f.name, f.field, DefaultFacetSize)
		agg.Scope = scope
		agg.Missing = f.missing
		aggs = append(aggs, agg)

		selected := nonEmpty(f.selected(q))
		if len(selected) == 0 {
			continue
		}
		sel := backend.Terms(f.name+selectedSuffix, f.field, len(selected))
		sel.Scope = scope
		sel.Include = exactPattern(selected)
		aggs = append(aggs, sel)
	}
	return aggs
}

// createdAtFacet runs the creation date histogram. Without a lower bound the
// earliest matching creation date is looked up first. Zero matches yield no
// facet.
func (ix *IssueIndex) createdAtFacet(ctx context.Context, q *issuequery.Query, crit criteria.Criteria) ([]FacetValue, bool, error) {
	f := crit.Filter()

	var start time.Time
	if after := q.CreatedAfter(); after != nil {
		start = after.Date
		if !after.Inclusive {
			start = start.Add(time.Millisecond)
		}
	} else {
		resp, err := ix.search(ctx, backend.Request{
			Filter:       f,
			Aggregations: []backend.Aggregation{backend.Min(minCreatedAt, model.FieldCreatedAt)},
		}, "looking up earliest creation date")
		if err != nil {
			return nil, false, err
		}
		v := resp.Aggregations[minCreatedAt].Value
		if resp.Total == 0 || v == nil {
			return nil, false, nil
		}
		start = time.UnixMilli(int64(*v))
	}

	end := ix.now()
	if before := q.CreatedBefore(); before != nil {
		end = *before
	}

	plan := datebucket.NewPlan(start, end, ix.location)
	ranges := make([]backend.TimeRange, len(plan.Buckets))
	for i, b := range plan.Buckets {
		ranges[i] = backend.TimeRange{Key: b.Key, From: b.From, To: b.To}
	}
	resp, err := ix.search(ctx, backend.Request{
		Filter: f,
		Aggregations: []backend.Aggregation{{
			Name:   FacetCreatedAt,
			Kind:   backend.KindRanges,
			Field:  model.FieldCreatedAt,
			Ranges: ranges,
		}},
	}, "computing creation date histogram")
	if err != nil {
		return nil, false, err
	}
	if resp.Total == 0 {
		return nil, false, nil
	}

	counts := make(map[string]int64, len(plan.Buckets))
	for _, b := range resp.Aggregations[FacetCreatedAt].Buckets {
		counts[b.Key] = b.Count
	}
	values := make([]FacetValue, len(plan.Buckets))
	for i, b := range plan.Buckets {
		values[i] = FacetValue{Value: b.Key, Count: counts[b.Key]}
	}
	return values, true, nil
}

// exactPattern matches any of values literally.
func exactPattern(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = regexp.QuoteMeta(v)
	}
	return "^(?:" + strings.Join(quoted, "|") + ")$"
}

// substringPattern matches values containing text. It returns false when the
// resulting expression does not compile.
func substringPattern(text string) (string, bool) {
	if text == "" {
		return "", true
	}
	pattern := fmt.Sprintf("^(?:.*%s.*)$", regexp.QuoteMeta(text))
	if _, err := regexp.Compile(pattern); err != nil {
		return "", false
	}
	return pattern, true
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func stringsOf[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
