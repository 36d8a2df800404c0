package issuequery

import (
	"maps"
	"slices"
	"time"

	"basegraph.app/issuesearch/internal/apperr"
	"basegraph.app/issuesearch/internal/model"
)

// Builder accumulates filter values. It is not safe for concurrent use.
type Builder struct {
	q   Query
	now func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{
		q:   Query{checkAuthorization: true},
		now: time.Now,
	}
}

// Clock overrides the time source used to reject future start bounds.
func (b *Builder) Clock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) IssueKeys(v ...string) *Builder { b.q.issueKeys = v; return b }
func (b *Builder) Severities(v ...model.Severity) *Builder {
	b.q.severities = v
	return b
}
func (b *Builder) Statuses(v ...model.Status) *Builder { b.q.statuses = v; return b }
func (b *Builder) Resolutions(v ...model.Resolution) *Builder {
	b.q.resolutions = v
	return b
}
func (b *Builder) Types(v ...model.RuleType) *Builder   { b.q.types = v; return b }
func (b *Builder) ComponentUUIDs(v ...string) *Builder  { b.q.components = v; return b }
func (b *Builder) ModuleRootUUIDs(v ...string) *Builder { b.q.moduleRoots = v; return b }
func (b *Builder) ModuleUUIDs(v ...string) *Builder     { b.q.modules = v; return b }
func (b *Builder) ProjectUUIDs(v ...string) *Builder    { b.q.projects = v; return b }
func (b *Builder) Directories(v ...string) *Builder     { b.q.directories = v; return b }
func (b *Builder) FileUUIDs(v ...string) *Builder       { b.q.files = v; return b }
func (b *Builder) ViewUUIDs(v ...string) *Builder       { b.q.views = v; return b }
func (b *Builder) Rules(v ...string) *Builder           { b.q.rules = v; return b }
func (b *Builder) Languages(v ...string) *Builder       { b.q.languages = v; return b }
func (b *Builder) Tags(v ...string) *Builder            { b.q.tags = v; return b }
func (b *Builder) OwaspTop10(v ...string) *Builder      { b.q.owaspTop10 = v; return b }
func (b *Builder) SansTop25(v ...string) *Builder       { b.q.sansTop25 = v; return b }
func (b *Builder) CWE(v ...string) *Builder             { b.q.cwe = v; return b }
func (b *Builder) AssigneeUUIDs(v ...string) *Builder   { b.q.assignees = v; return b }
func (b *Builder) Authors(v ...string) *Builder         { b.q.authors = v; return b }
func (b *Builder) BranchUUID(v string) *Builder         { b.q.branch = v; return b }
func (b *Builder) OrganizationUUID(v string) *Builder   { b.q.organization = v; return b }
func (b *Builder) MainBranch(v bool) *Builder           { b.q.mainBranch = &v; return b }
func (b *Builder) Resolved(v bool) *Builder             { b.q.resolved = &v; return b }
func (b *Builder) Assigned(v bool) *Builder             { b.q.assigned = &v; return b }
func (b *Builder) Sort(v string) *Builder               { b.q.sort = v; return b }
func (b *Builder) Asc(v bool) *Builder                  { b.q.asc = v; return b }
func (b *Builder) CheckAuthorization(v bool) *Builder   { b.q.checkAuthorization = v; return b }
func (b *Builder) OnComponentOnly(v bool) *Builder      { b.q.onComponentOnly = v; return b }

// CreatedAfter sets an inclusive global lower bound.
func (b *Builder) CreatedAfter(t time.Time) *Builder {
	return b.CreatedAfterPeriod(t, true)
}

func (b *Builder) CreatedAfterPeriod(t time.Time, inclusive bool) *Builder {
	b.q.createdAfter = &PeriodStart{Date: t, Inclusive: inclusive}
	return b
}

// CreatedBefore sets the exclusive global upper bound.
func (b *Builder) CreatedBefore(t time.Time) *Builder {
	b.q.createdBefore = &t
	return b
}

func (b *Builder) CreatedAt(t time.Time) *Builder {
	b.q.createdAt = &t
	return b
}

func (b *Builder) CreatedAfterByProjects(m map[string]PeriodStart) *Builder {
	b.q.createdAfterByProjects = m
	return b
}

// Build validates cross-field invariants and returns an immutable query.
func (b *Builder) Build() (*Query, error) {
	q := b.q
	if q.sort != "" && !slices.Contains(SortKeys, q.sort) {
		return nil, apperr.InvalidArgumentf("Unsupported sort: %s", q.sort)
	}
	if q.createdAfter != nil {
		if q.createdBefore != nil && !q.createdAfter.Date.Before(*q.createdBefore) {
			return nil, apperr.InvalidArgument("Start bound cannot be larger or equal to end bound")
		}
		if q.createdAfter.Date.After(b.now()) {
			return nil, apperr.InvalidArgument("Start bound cannot be in the future")
		}
	}

	out := &Query{
		issueKeys:    slices.Clone(q.issueKeys),
		severities:   slices.Clone(q.severities),
		statuses:     slices.Clone(q.statuses),
		resolutions:  slices.Clone(q.resolutions),
		types:        slices.Clone(q.types),
		components:   slices.Clone(q.components),
		moduleRoots:  slices.Clone(q.moduleRoots),
		modules:      slices.Clone(q.modules),
		projects:     slices.Clone(q.projects),
		directories:  slices.Clone(q.directories),
		files:        slices.Clone(q.files),
		views:        slices.Clone(q.views),
		rules:        slices.Clone(q.rules),
		languages:    slices.Clone(q.languages),
		tags:         slices.Clone(q.tags),
		owaspTop10:   slices.Clone(q.owaspTop10),
		sansTop25:    slices.Clone(q.sansTop25),
		cwe:          slices.Clone(q.cwe),
		assignees:    slices.Clone(q.assignees),
		authors:      slices.Clone(q.authors),
		branch:       q.branch,
		mainBranch:   clonePtr(q.mainBranch),
		resolved:     clonePtr(q.resolved),
		assigned:     clonePtr(q.assigned),
		organization: q.organization,

		createdAfter:  clonePtr(q.createdAfter),
		createdBefore: clonePtr(q.createdBefore),
		createdAt:     clonePtr(q.createdAt),

		sort:               q.sort,
		asc:                q.asc,
		checkAuthorization: q.checkAuthorization,
		onComponentOnly:    q.onComponentOnly,
	}
	if q.createdAfterByProjects != nil {
		out.createdAfterByProjects = maps.Clone(q.createdAfterByProjects)
	}
	return out, nil
}
