// Package criteria compiles an issue query into backend filters and sorts.
//
// Compilation is pure: everything that needs I/O (authorization scope, view
// memberships) is resolved by the caller and passed in Params.
package criteria

import (
	"maps"
	"slices"

	"basegraph.app/issuesearch/internal/authz"
	"basegraph.app/issuesearch/internal/filter"
	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/model"
)

type Params struct {
	Scope authz.Scope
	// ViewMembers maps every key returned by ViewLookupKeys to its members.
	ViewMembers map[string][]string
}

// Criteria is the ordered list of clauses of one query.
type Criteria struct {
	clauses []Clause
}

func (c Criteria) Clauses() []Clause { return slices.Clone(c.clauses) }

// Filter is the conjunction of every clause.
func (c Criteria) Filter() filter.Node {
	return c.FilterExcluding()
}

// FilterExcluding is the conjunction of every clause outside dims. Sticky
// facets are computed with their own dimension excluded.
func (c Criteria) FilterExcluding(dims ...string) filter.Node {
	nodes := make([]filter.Node, 0, len(c.clauses))
	for _, cl := range c.clauses {
		if cl.Dimension() != DimensionNone && slices.Contains(dims, cl.Dimension()) {
			continue
		}
		nodes = append(nodes, cl.Node())
	}
	return filter.AllOf(nodes...)
}

// ApplicationBranchMode reports whether the query reads one branch of an
// application rather than the main branches of portfolios.
func ApplicationBranchMode(q *issuequery.Query) bool {
	return len(q.ViewUUIDs()) > 0 && q.BranchUUID() != ""
}

// ViewLookupKeys lists the views whose members Compile needs.
func ViewLookupKeys(q *issuequery.Query) []string {
	if ApplicationBranchMode(q) {
		return []string{q.BranchUUID()}
	}
	return q.ViewUUIDs()
}

func Compile(q *issuequery.Query, params Params) Criteria {
	var cl []Clause
	add := func(dim, field string, values []string) {
		if len(values) > 0 {
			cl = append(cl, TermsClause{Dim: dim, Field: field, Values: values})
		}
	}

	cl = append(cl, AuthorizationClause{Scope: params.Scope})

	if keys := q.IssueKeys(); len(keys) > 0 {
		cl = append(cl, KeyClause{Keys: keys})
	}
	add(DimOrganization, model.FieldOrganizationUUID, nonEmpty(q.OrganizationUUID()))

	cl = append(cl, componentClauses(q)...)

	if len(q.ViewUUIDs()) > 0 {
		var members []string
		for _, k := range ViewLookupKeys(q) {
			members = append(members, params.ViewMembers[k]...)
		}
		slices.Sort(members)
		cl = append(cl, ViewClause{Members: slices.Compact(members)})
	}
	if !ApplicationBranchMode(q) {
		cl = append(cl, BranchClause{BranchUUID: q.BranchUUID(), MainBranch: q.MainBranch()})
	}

	add(DimSeverities, model.FieldSeverity, stringsOf(q.Severities()))
	add(DimStatuses, model.FieldStatus, stringsOf(q.Statuses()))
	add(DimResolutions, model.FieldResolution, stringsOf(q.Resolutions()))
	add(DimTypes, model.FieldType, stringsOf(q.Types()))
	add(DimRules, model.FieldRuleID, q.Rules())
	add(DimLanguages, model.FieldLanguage, q.Languages())
	add(DimTags, model.FieldTags, q.Tags())
	add(DimAssignees, model.FieldAssigneeUUID, q.AssigneeUUIDs())
	add(DimAuthors, model.FieldAuthorLogin, q.Authors())
	add(DimOwaspTop10, model.FieldOwaspTop10, q.OwaspTop10())
	add(DimSansTop25, model.FieldSansTop25, q.SansTop25())
	add(DimCWE, model.FieldCWE, q.CWE())

	if r := q.Resolved(); r != nil {
		cl = append(cl, ResolvedClause{Resolved: *r})
	}
	if a := q.Assigned(); a != nil {
		cl = append(cl, AssignedClause{Assigned: *a})
	}

	if q.CreatedAfter() != nil || q.CreatedBefore() != nil || q.CreatedAt() != nil {
		cl = append(cl, DateRangeClause{
			Field:  model.FieldCreatedAt,
			After:  q.CreatedAfter(),
			Before: q.CreatedBefore(),
			Exact:  q.CreatedAt(),
		})
	}
	if bounds := q.CreatedAfterByProjects(); len(bounds) > 0 {
		cl = append(cl, CreatedAfterByProjectClause{Bounds: bounds})
	}

	return Criteria{clauses: cl}
}

func componentClauses(q *issuequery.Query) []Clause {
	var cl []Clause
	if components := q.ComponentUUIDs(); len(components) > 0 {
		cl = append(cl, TermsClause{Dim: DimComponents, Field: model.FieldComponentUUID, Values: components})
	}
	if q.OnComponentOnly() {
		return cl
	}
	if v := q.ProjectUUIDs(); len(v) > 0 {
		cl = append(cl, TermsClause{Dim: DimProjectUUIDs, Field: model.FieldProjectUUID, Values: v})
	}
	if v := q.ModuleUUIDs(); len(v) > 0 {
		cl = append(cl, TermsClause{Dim: DimModuleUUIDs, Field: model.FieldModuleUUID, Values: v})
	}
	if v := q.ModuleRootUUIDs(); len(v) > 0 {
		cl = append(cl, ModuleRootClause{ModuleUUIDs: v})
	}
	if v := q.Directories(); len(v) > 0 {
		cl = append(cl, TermsClause{Dim: DimDirectories, Field: model.FieldDirectoryPath, Values: v})
	}
	if v := q.FileUUIDs(); len(v) > 0 {
		cl = append(cl, TermsClause{Dim: DimFileUUIDs, Field: model.FieldComponentUUID, Values: v})
	}
	return cl
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func stringsOf[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
