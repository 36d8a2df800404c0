package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/model"
)

// queryFlags holds the query filters shared by search, authors and
// count-tags.
type queryFlags struct {
	issues          []string
	severities      []string
	statuses        []string
	resolutions     []string
	types           []string
	components      []string
	moduleRoots     []string
	modules         []string
	projects        []string
	directories     []string
	files           []string
	views           []string
	rules           []string
	languages       []string
	tags            []string
	owasp           []string
	sans            []string
	cwe             []string
	assignees       []string
	authors         []string
	branch          string
	organization    string
	mainBranch      bool
	resolved        bool
	assigned        bool
	createdAfter    string
	createdBefore   string
	createdAt       string
	sort            string
	asc             bool
	onComponentOnly bool
	skipAuthz       bool
}

var (
	searchQuery queryFlags
	authorQuery queryFlags
	tagQuery    queryFlags

	flagPage     int
	flagPageSize int
	flagFacets   []string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search issues and compute facets",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := searchQuery.build(cmd.Flags(), current.location())
		if err != nil {
			return err
		}
		opts := issuequery.NewSearchOptions().
			SetPage(flagPage, flagPageSize).
			AddFacets(flagFacets...)

		res, err := current.index.Search(cmd.Context(), identity(), q, opts)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func registerSearchFlags() {
	searchQuery.register(searchCmd.Flags())
	searchCmd.Flags().IntVar(&flagPage, "page", 1, "1-based page number")
	searchCmd.Flags().IntVar(&flagPageSize, "page-size", issuequery.DefaultLimit, fmt.Sprintf("hits per page (at most %d)", issuequery.MaxLimit))
	searchCmd.Flags().StringSliceVar(&flagFacets, "facets", nil, "facets to compute, e.g. severities,assignees,createdAt")
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.issues, "issues", nil, "issue keys")
	fs.StringSliceVar(&f.severities, "severities", nil, "severities (INFO, MINOR, MAJOR, CRITICAL, BLOCKER)")
	fs.StringSliceVar(&f.statuses, "statuses", nil, "statuses")
	fs.StringSliceVar(&f.resolutions, "resolutions", nil, "resolutions")
	fs.StringSliceVar(&f.types, "types", nil, "rule types")
	fs.StringSliceVar(&f.components, "components", nil, "component uuids")
	fs.StringSliceVar(&f.moduleRoots, "module-roots", nil, "module uuids including their submodules")
	fs.StringSliceVar(&f.modules, "modules", nil, "module uuids")
	fs.StringSliceVar(&f.projects, "projects", nil, "project uuids")
	fs.StringSliceVar(&f.directories, "directories", nil, "directory paths")
	fs.StringSliceVar(&f.files, "files", nil, "file uuids")
	fs.StringSliceVar(&f.views, "views", nil, "portfolio or application uuids")
	fs.StringSliceVar(&f.rules, "rules", nil, "rule keys")
	fs.StringSliceVar(&f.languages, "languages", nil, "languages")
	fs.StringSliceVar(&f.tags, "tags", nil, "tags")
	fs.StringSliceVar(&f.owasp, "owasp-top10", nil, "OWASP Top 10 categories")
	fs.StringSliceVar(&f.sans, "sans-top25", nil, "SANS Top 25 categories")
	fs.StringSliceVar(&f.cwe, "cwe", nil, "CWE identifiers")
	fs.StringSliceVar(&f.assignees, "assignees", nil, "assignee uuids")
	fs.StringSliceVar(&f.authors, "authors", nil, "author logins")
	fs.StringVar(&f.branch, "branch", "", "branch uuid")
	fs.StringVar(&f.organization, "organization", "", "organization uuid")
	fs.BoolVar(&f.mainBranch, "main-branch", true, "whether --branch is the main branch")
	fs.BoolVar(&f.resolved, "resolved", false, "only resolved (true) or unresolved (false) issues")
	fs.BoolVar(&f.assigned, "assigned", false, "only assigned (true) or unassigned (false) issues")
	fs.StringVar(&f.createdAfter, "created-after", "", "inclusive lower creation bound (RFC 3339 or YYYY-MM-DD)")
	fs.StringVar(&f.createdBefore, "created-before", "", "exclusive upper creation bound (RFC 3339 or YYYY-MM-DD)")
	fs.StringVar(&f.createdAt, "created-at", "", "exact creation instant (RFC 3339)")
	fs.StringVar(&f.sort, "sort", "", "sort key (STATUS, SEVERITY, CREATION_DATE, UPDATE_DATE, CLOSE_DATE, FILE_LINE)")
	fs.BoolVar(&f.asc, "asc", false, "sort ascending")
	fs.BoolVar(&f.onComponentOnly, "on-component-only", false, "ignore issues of components below --components")
	fs.BoolVar(&f.skipAuthz, "skip-authorization", false, "do not restrict results to visible projects")
}

// build turns flags into a query. Tri-state flags only apply when set.
func (f *queryFlags) build(fs *pflag.FlagSet, loc *time.Location) (*issuequery.Query, error) {
	b := issuequery.NewBuilder().
		IssueKeys(f.issues...).
		Severities(convert[model.Severity](f.severities)...).
		Statuses(convert[model.Status](f.statuses)...).
		Resolutions(convert[model.Resolution](f.resolutions)...).
		Types(convert[model.RuleType](f.types)...).
		ComponentUUIDs(f.components...).
		ModuleRootUUIDs(f.moduleRoots...).
		ModuleUUIDs(f.modules...).
		ProjectUUIDs(f.projects...).
		Directories(f.directories...).
		FileUUIDs(f.files...).
		ViewUUIDs(f.views...).
		Rules(f.rules...).
		Languages(f.languages...).
		Tags(f.tags...).
		OwaspTop10(f.owasp...).
		SansTop25(f.sans...).
		CWE(f.cwe...).
		AssigneeUUIDs(f.assignees...).
		Authors(f.authors...).
		BranchUUID(f.branch).
		OrganizationUUID(f.organization).
		Sort(f.sort).
		Asc(f.asc).
		OnComponentOnly(f.onComponentOnly).
		CheckAuthorization(!f.skipAuthz)

	if fs.Changed("main-branch") {
		b.MainBranch(f.mainBranch)
	}
	if fs.Changed("resolved") {
		b.Resolved(f.resolved)
	}
	if fs.Changed("assigned") {
		b.Assigned(f.assigned)
	}

	for _, d := range []struct {
		value string
		set   func(time.Time) *issuequery.Builder
	}{
		{f.createdAfter, b.CreatedAfter},
		{f.createdBefore, b.CreatedBefore},
		{f.createdAt, b.CreatedAt},
	} {
		if d.value == "" {
			continue
		}
		t, err := parseDate(d.value, loc)
		if err != nil {
			return nil, err
		}
		d.set(t)
	}

	return b.Build()
}

// parseDate accepts RFC 3339 instants and calendar dates, the latter at
// midnight in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", s)
}

func convert[T ~string](in []string) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}
