// Package search is the issue index: it answers issue searches, tag and
// author listings, branch statistics and security standard reports on top of
// a search backend.
package search

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"basegraph.app/issuesearch/common/id"
	"basegraph.app/issuesearch/common/logger"
	"basegraph.app/issuesearch/internal/apperr"
	"basegraph.app/issuesearch/internal/authz"
	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/criteria"
	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/securitystandard"
	"basegraph.app/issuesearch/internal/store"
)

const component = "issuesearch.search"

type IssueIndex struct {
	backend  backend.Backend
	resolver *authz.Resolver
	views    store.ViewStore
	catalog  *securitystandard.Catalog
	location *time.Location
	now      func() time.Time
}

type Option func(*IssueIndex)

// WithLocation sets the time zone creation date histograms are bucketed in.
func WithLocation(loc *time.Location) Option {
	return func(ix *IssueIndex) { ix.location = loc }
}

func WithClock(now func() time.Time) Option {
	return func(ix *IssueIndex) { ix.now = now }
}

func WithCatalog(c *securitystandard.Catalog) Option {
	return func(ix *IssueIndex) { ix.catalog = c }
}

func NewIssueIndex(b backend.Backend, permissions store.PermissionStore, views store.ViewStore, opts ...Option) *IssueIndex {
	ix := &IssueIndex{
		backend:  b,
		resolver: authz.NewResolver(permissions),
		views:    views,
		catalog:  securitystandard.Default(),
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

type SearchResult struct {
	Total  int64    `json:"total"`
	Keys   []string `json:"keys"`
	Facets Facets   `json:"facets,omitempty"`
}

func (ix *IssueIndex) begin(ctx context.Context, op string, identity *authz.Identity) (context.Context, *logger.SpanContext) {
	fields := logger.LogFields{
		SearchID:  logger.Ptr(id.New()),
		Operation: logger.Ptr(op),
		Component: component,
	}
	if identity != nil && identity.UserUUID != "" {
		fields.UserUUID = logger.Ptr(identity.UserUUID)
	}
	ctx = logger.WithLogFields(ctx, fields)
	sc := logger.StartSpan(ctx, "issuesearch."+op)
	return sc.Context(), sc
}

// params resolves the per-call state the criteria compiler needs.
func (ix *IssueIndex) params(ctx context.Context, identity authz.Identity, q *issuequery.Query) (criteria.Params, error) {
	scope, err := ix.resolver.Resolve(ctx, identity, q.CheckAuthorization())
	if err != nil {
		return criteria.Params{}, apperr.BackendUnavailable(err, "resolving authorization scope")
	}

	keys := criteria.ViewLookupKeys(q)
	members := make(map[string][]string, len(keys))
	for _, k := range keys {
		m, err := ix.views.Members(ctx, k)
		if err != nil {
			return criteria.Params{}, apperr.BackendUnavailable(err, "resolving view members")
		}
		members[k] = m
	}
	return criteria.Params{Scope: scope, ViewMembers: members}, nil
}

func (ix *IssueIndex) search(ctx context.Context, req backend.Request, op string) (*backend.Response, error) {
	resp, err := ix.backend.Search(ctx, req)
	if err != nil {
		return nil, apperr.BackendUnavailable(err, op)
	}
	return resp, nil
}

// Search returns one page of issue keys matching q, with the facets named
// in opts. The term facets and the creation date histogram are computed
// concurrently.
func (ix *IssueIndex) Search(ctx context.Context, identity authz.Identity, q *issuequery.Query, opts issuequery.SearchOptions) (*SearchResult, error) {
	if q == nil {
		return nil, apperr.InvalidArgument("Query is required")
	}
	if err := validateFacets(opts.Facets()); err != nil {
		return nil, err
	}

	ctx, sc := ix.begin(ctx, "search", &identity)
	defer sc.End()
	if org := q.OrganizationUUID(); org != "" {
		ctx = logger.WithLogFields(ctx, logger.LogFields{OrganizationUUID: logger.Ptr(org)})
	}

	params, err := ix.params(ctx, identity, q)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}
	crit := criteria.Compile(q, params)

	req := backend.Request{
		Filter:       crit.Filter(),
		Sort:         criteria.Sort(q),
		Offset:       opts.Offset(),
		Limit:        opts.Limit(),
		Aggregations: termFacetAggregations(q, crit, opts),
	}

	var (
		resp       *backend.Response
		createdAt  []FacetValue
		hasCreated bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := ix.search(gctx, req, "searching issues")
		resp = r
		return err
	})
	if opts.HasFacet(FacetCreatedAt) {
		g.Go(func() error {
			v, ok, err := ix.createdAtFacet(gctx, q, crit)
			createdAt, hasCreated = v, ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "issue search failed", "error", err)
		return nil, err
	}

	result := project(resp, opts)
	if hasCreated {
		result.Facets[FacetCreatedAt] = createdAt
	}

	sc.SetAttributes(
		attribute.Int64("issuesearch.total", result.Total),
		attribute.Int("issuesearch.hits", len(result.Keys)),
	)
	slog.DebugContext(ctx, "issue search completed",
		"total", result.Total,
		"hits", len(result.Keys),
		"facets", len(result.Facets))
	return result, nil
}
