package search

import (
	"context"
	"log/slog"

	"basegraph.app/issuesearch/internal/apperr"
	"basegraph.app/issuesearch/internal/authz"
	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/criteria"
	"basegraph.app/issuesearch/internal/filter"
	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/model"
)

// MaxTagPageSize bounds ListTags.
const MaxTagPageSize = issuequery.MaxLimit

const listAgg = "values"

// ListTags returns up to size distinct tags of the issues visible to identity,
// alphabetically. An empty organizationUUID spans every organization. When
// textQuery is set only tags containing it are returned.
func (ix *IssueIndex) ListTags(ctx context.Context, identity authz.Identity, organizationUUID, textQuery string, size int) ([]string, error) {
	if size > MaxTagPageSize {
		return nil, apperr.InvalidArgumentf("Page size must be lower than or equals to %d", MaxTagPageSize)
	}

	ctx, sc := ix.begin(ctx, "list_tags", &identity)
	defer sc.End()

	include, ok := substringPattern(textQuery)
	if !ok || size <= 0 {
		return []string{}, nil
	}

	scope, err := ix.resolver.Resolve(ctx, identity, true)
	if err != nil {
		err = apperr.BackendUnavailable(err, "resolving authorization scope")
		sc.RecordError(err)
		return nil, err
	}

	nodes := []filter.Node{criteria.AuthorizationClause{Scope: scope}.Node()}
	if organizationUUID != "" {
		nodes = append(nodes, filter.In(model.FieldOrganizationUUID, organizationUUID))
	}

	tags, err := ix.listTerms(ctx, filter.AllOf(nodes...), model.FieldTags, include, size)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}
	slog.DebugContext(ctx, "tags listed", "count", len(tags))
	return tags, nil
}

// ListAuthors returns up to size distinct author logins of the issues
// matching q, alphabetically. size is not capped.
func (ix *IssueIndex) ListAuthors(ctx context.Context, identity authz.Identity, q *issuequery.Query, textQuery string, size int) ([]string, error) {
	if q == nil {
		return nil, apperr.InvalidArgument("Query is required")
	}

	ctx, sc := ix.begin(ctx, "list_authors", &identity)
	defer sc.End()

	include, ok := substringPattern(textQuery)
	if !ok || size <= 0 {
		return []string{}, nil
	}

	params, err := ix.params(ctx, identity, q)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	authors, err := ix.listTerms(ctx, criteria.Compile(q, params).Filter(), model.FieldAuthorLogin, include, size)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}
	slog.DebugContext(ctx, "authors listed", "count", len(authors))
	return authors, nil
}

func (ix *IssueIndex) listTerms(ctx context.Context, f filter.Node, field, include string, size int) ([]string, error) {
	agg := backend.Terms(listAgg, field, size)
	agg.OrderByTerm = true
	agg.Include = include

	resp, err := ix.search(ctx, backend.Request{Filter: f, Aggregations: []backend.Aggregation{agg}}, "listing "+field)
	if err != nil {
		return nil, err
	}
	return bucketKeys(resp.Aggregations[listAgg].Buckets), nil
}

// CountTags returns the most used tags of the issues matching q,
// most frequent first.
func (ix *IssueIndex) CountTags(ctx context.Context, identity authz.Identity, q *issuequery.Query, size int) ([]FacetValue, error) {
	if q == nil {
		return nil, apperr.InvalidArgument("Query is required")
	}

	ctx, sc := ix.begin(ctx, "count_tags", &identity)
	defer sc.End()

	if size <= 0 {
		return []FacetValue{}, nil
	}

	params, err := ix.params(ctx, identity, q)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	resp, err := ix.search(ctx, backend.Request{
		Filter:       criteria.Compile(q, params).Filter(),
		Aggregations: []backend.Aggregation{backend.Terms(listAgg, model.FieldTags, size)},
	}, "counting tags")
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	buckets := resp.Aggregations[listAgg].Buckets
	values := make([]FacetValue, 0, len(buckets))
	for _, b := range buckets {
		if b.Count > 0 {
			values = append(values, FacetValue{Value: b.Key, Count: b.Count})
		}
	}
	sortFacetValues(values)
	return values, nil
}
