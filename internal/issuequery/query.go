// Package issuequery holds the validated description of one issue search.
package issuequery

import (
	"maps"
	"slices"
	"time"

	"basegraph.app/issuesearch/internal/model"
)

const (
	SortByStatus       = "STATUS"
	SortBySeverity     = "SEVERITY"
	SortByCreationDate = "CREATION_DATE"
	SortByUpdateDate   = "UPDATE_DATE"
	SortByCloseDate    = "CLOSE_DATE"
	SortByFileLine     = "FILE_LINE"
)

// SortKeys lists every accepted sort key.
var SortKeys = []string{
	SortByStatus,
	SortBySeverity,
	SortByCreationDate,
	SortByUpdateDate,
	SortByCloseDate,
	SortByFileLine,
}

// PeriodStart is a creation-date lower bound.
type PeriodStart struct {
	Date      time.Time
	Inclusive bool
}

// Query is immutable once built. Slice and map accessors return copies.
type Query struct {
	issueKeys    []string
	severities   []model.Severity
	statuses     []model.Status
	resolutions  []model.Resolution
	types        []model.RuleType
	components   []string
	moduleRoots  []string
	modules      []string
	projects     []string
	directories  []string
	files        []string
	views        []string
	rules        []string
	languages    []string
	tags         []string
	owaspTop10   []string
	sansTop25    []string
	cwe          []string
	assignees    []string
	authors      []string
	branch       string
	mainBranch   *bool
	resolved     *bool
	assigned     *bool
	organization string

	createdAfterByProjects map[string]PeriodStart
	createdAfter           *PeriodStart
	createdBefore          *time.Time
	createdAt              *time.Time

	sort               string
	asc                bool
	checkAuthorization bool
	onComponentOnly    bool
}

func (q *Query) IssueKeys() []string                { return slices.Clone(q.issueKeys) }
func (q *Query) Severities() []model.Severity       { return slices.Clone(q.severities) }
func (q *Query) Statuses() []model.Status           { return slices.Clone(q.statuses) }
func (q *Query) Resolutions() []model.Resolution    { return slices.Clone(q.resolutions) }
func (q *Query) Types() []model.RuleType            { return slices.Clone(q.types) }
func (q *Query) ComponentUUIDs() []string           { return slices.Clone(q.components) }
func (q *Query) ModuleRootUUIDs() []string          { return slices.Clone(q.moduleRoots) }
func (q *Query) ModuleUUIDs() []string              { return slices.Clone(q.modules) }
func (q *Query) ProjectUUIDs() []string             { return slices.Clone(q.projects) }
func (q *Query) Directories() []string              { return slices.Clone(q.directories) }
func (q *Query) FileUUIDs() []string                { return slices.Clone(q.files) }
func (q *Query) ViewUUIDs() []string                { return slices.Clone(q.views) }
func (q *Query) Rules() []string                    { return slices.Clone(q.rules) }
func (q *Query) Languages() []string                { return slices.Clone(q.languages) }
func (q *Query) Tags() []string                     { return slices.Clone(q.tags) }
func (q *Query) OwaspTop10() []string               { return slices.Clone(q.owaspTop10) }
func (q *Query) SansTop25() []string                { return slices.Clone(q.sansTop25) }
func (q *Query) CWE() []string                      { return slices.Clone(q.cwe) }
func (q *Query) AssigneeUUIDs() []string            { return slices.Clone(q.assignees) }
func (q *Query) Authors() []string                  { return slices.Clone(q.authors) }
func (q *Query) BranchUUID() string                 { return q.branch }
func (q *Query) OrganizationUUID() string           { return q.organization }
func (q *Query) Sort() string                       { return q.sort }
func (q *Query) Asc() bool                          { return q.asc }
func (q *Query) CheckAuthorization() bool           { return q.checkAuthorization }
func (q *Query) OnComponentOnly() bool              { return q.onComponentOnly }
func (q *Query) MainBranch() *bool                  { return clonePtr(q.mainBranch) }
func (q *Query) Resolved() *bool                    { return clonePtr(q.resolved) }
func (q *Query) Assigned() *bool                    { return clonePtr(q.assigned) }
func (q *Query) CreatedAfter() *PeriodStart         { return clonePtr(q.createdAfter) }
func (q *Query) CreatedBefore() *time.Time          { return clonePtr(q.createdBefore) }
func (q *Query) CreatedAt() *time.Time              { return clonePtr(q.createdAt) }
func (q *Query) CreatedAfterByProjects() map[string]PeriodStart {
	if q.createdAfterByProjects == nil {
		return nil
	}
	return maps.Clone(q.createdAfterByProjects)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
