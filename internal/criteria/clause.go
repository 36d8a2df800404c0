package criteria

import (
	"time"

	"basegraph.app/issuesearch/internal/authz"
	"basegraph.app/issuesearch/internal/filter"
	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/model"
)

// Clause is one constraint of a compiled query. Dimension names the facet
// the clause belongs to; clauses outside any facet use DimensionNone.
type Clause interface {
	Dimension() string
	Node() filter.Node
}

const DimensionNone = ""

// Facet dimensions. They double as the facet names accepted by search options.
const (
	DimIssues        = "issues"
	DimOrganization  = "organization"
	DimSeverities    = "severities"
	DimStatuses      = "statuses"
	DimResolutions   = "resolutions"
	DimTypes         = "types"
	DimProjectUUIDs  = "projectUuids"
	DimModuleUUIDs   = "moduleUuids"
	DimModuleRoots   = "moduleRootUuids"
	DimComponents    = "componentUuids"
	DimFileUUIDs     = "fileUuids"
	DimDirectories   = "directories"
	DimRules         = "rules"
	DimLanguages     = "languages"
	DimAssignees     = "assignees"
	DimAuthors       = "authors"
	DimTags          = "tags"
	DimCreatedAt     = "createdAt"
	DimOwaspTop10    = "owaspTop10"
	DimSansTop25     = "sansTop25"
	DimCWE           = "cwe"
	DimResolved      = "resolved"
	DimAssigned      = "assigned"
	DimBranch        = "branch"
	DimViews         = "views"
	DimAuthorization = "authorization"
)

type KeyClause struct {
	Keys []string
}

func (c KeyClause) Dimension() string { return DimIssues }
func (c KeyClause) Node() filter.Node { return filter.In(model.FieldKey, c.Keys...) }

// TermsClause restricts a keyword field to a set of values.
type TermsClause struct {
	Dim    string
	Field  string
	Values []string
}

func (c TermsClause) Dimension() string { return c.Dim }
func (c TermsClause) Node() filter.Node { return filter.In(c.Field, c.Values...) }

// ModuleRootClause matches every component below the given modules,
// the modules themselves included.
type ModuleRootClause struct {
	ModuleUUIDs []string
}

func (c ModuleRootClause) Dimension() string { return DimModuleRoots }
func (c ModuleRootClause) Node() filter.Node {
	return filter.In(model.FieldModulePath, c.ModuleUUIDs...)
}

// BranchClause selects the branch issues are read from. Without a branch only
// main branches are searched.
type BranchClause struct {
	BranchUUID string
	MainBranch *bool
}

func (c BranchClause) Dimension() string { return DimBranch }
func (c BranchClause) Node() filter.Node {
	if c.BranchUUID == "" {
		return filter.Is(model.FieldIsMainBranch, true)
	}
	branch := filter.In(model.FieldBranchUUID, c.BranchUUID)
	if c.MainBranch == nil {
		return branch
	}
	return filter.AllOf(branch, filter.Is(model.FieldIsMainBranch, *c.MainBranch))
}

// ViewClause restricts issues to the branches aggregated by portfolios,
// applications or one application branch.
type ViewClause struct {
	Members []string
}

func (c ViewClause) Dimension() string { return DimViews }
func (c ViewClause) Node() filter.Node {
	if len(c.Members) == 0 {
		return filter.MatchNone{}
	}
	return filter.In(model.FieldBranchUUID, c.Members...)
}

// DateRangeClause bounds a time field. Exact pins the field to one instant.
type DateRangeClause struct {
	Field  string
	After  *issuequery.PeriodStart
	Before *time.Time
	Exact  *time.Time
}

func (c DateRangeClause) Dimension() string { return DimCreatedAt }
func (c DateRangeClause) Node() filter.Node {
	var nodes []filter.Node
	if c.After != nil || c.Before != nil {
		r := filter.Range{Field: c.Field}
		if c.After != nil {
			from := c.After.Date
			r.From, r.IncludeFrom = &from, c.After.Inclusive
		}
		if c.Before != nil {
			to := *c.Before
			r.To = &to
		}
		nodes = append(nodes, r)
	}
	if c.Exact != nil {
		at := *c.Exact
		nodes = append(nodes, filter.Range{Field: c.Field, From: &at, To: &at, IncludeFrom: true, IncludeTo: true})
	}
	return filter.AllOf(nodes...)
}

// CreatedAfterByProjectClause applies one creation lower bound per listed
// project. Issues of unlisted projects are left unconstrained.
type CreatedAfterByProjectClause struct {
	Bounds map[string]issuequery.PeriodStart
}

func (c CreatedAfterByProjectClause) Dimension() string { return DimCreatedAt }
func (c CreatedAfterByProjectClause) Node() filter.Node {
	projects := sortedKeys(c.Bounds)
	branches := make([]filter.Node, 0, len(projects)+1)
	for _, p := range projects {
		b := c.Bounds[p]
		from := b.Date
		branches = append(branches, filter.AllOf(
			filter.In(model.FieldProjectUUID, p),
			filter.Range{Field: model.FieldCreatedAt, From: &from, IncludeFrom: b.Inclusive},
		))
	}
	branches = append(branches, filter.Negate(filter.In(model.FieldProjectUUID, projects...)))
	return filter.AnyOf(branches...)
}

// ResolvedClause splits issues on the presence of a resolution.
type ResolvedClause struct {
	Resolved bool
}

func (c ResolvedClause) Dimension() string { return DimResolved }
func (c ResolvedClause) Node() filter.Node {
	if c.Resolved {
		return filter.Has(model.FieldResolution)
	}
	return filter.Negate(filter.Has(model.FieldResolution))
}

type AssignedClause struct {
	Assigned bool
}

func (c AssignedClause) Dimension() string { return DimAssigned }
func (c AssignedClause) Node() filter.Node {
	if c.Assigned {
		return filter.Has(model.FieldAssigneeUUID)
	}
	return filter.Negate(filter.Has(model.FieldAssigneeUUID))
}

// AuthorizationClause restricts issues to visible projects.
type AuthorizationClause struct {
	Scope authz.Scope
}

func (c AuthorizationClause) Dimension() string { return DimAuthorization }
func (c AuthorizationClause) Node() filter.Node {
	if c.Scope.Unrestricted() {
		return filter.MatchAll{}
	}
	projects := c.Scope.ProjectUUIDs()
	if len(projects) == 0 {
		return filter.MatchNone{}
	}
	return filter.In(model.FieldProjectUUID, projects...)
}
