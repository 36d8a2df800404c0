package search_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/issuesearch/internal/apperr"
	"basegraph.app/issuesearch/internal/authz"
	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/model"
	"basegraph.app/issuesearch/internal/search"
	"basegraph.app/issuesearch/internal/store"
)

func mustBuild(b *issuequery.Builder) *issuequery.Query {
	q, err := b.Build()
	Expect(err).NotTo(HaveOccurred())
	return q
}

func line(n int) *int { return &n }

var _ = Describe("IssueIndex.Search", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("paging", func() {
		It("returns the requested page and the full total", func() {
			docs := make([]model.IssueDoc, 12)
			for i := range docs {
				docs[i] = newIssue(fmt.Sprintf("I%02d", i))
			}
			f := newFixture(docs...)

			res, err := f.index.Search(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()),
				issuequery.NewSearchOptions().SetPage(2, 10))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Total).To(Equal(int64(12)))
			Expect(res.Keys).To(HaveLen(2))
		})
	})

	Describe("sorting", func() {
		It("orders by file then line", func() {
			a, b, c := newIssue("I1"), newIssue("I2"), newIssue("I3")
			a.FilePath, a.Line = "src/A.java", line(10)
			b.FilePath, b.Line = "src/A.java", line(2)
			c.FilePath, c.Line = "src/B.java", line(1)
			f := newFixture(a, b, c)

			q := mustBuild(issuequery.NewBuilder().Sort(issuequery.SortByFileLine).Asc(true))
			res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Keys).To(Equal([]string{"I2", "I1", "I3"}))
		})

		It("lists the most recent issues first by default", func() {
			old, recent := newIssue("OLD"), newIssue("RECENT")
			old.CreatedAt = date("2014-01-01T00:00:00Z")
			recent.CreatedAt = date("2014-06-01T00:00:00Z")
			f := newFixture(old, recent)

			res, err := f.index.Search(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()), issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Keys).To(Equal([]string{"RECENT", "OLD"}))
		})
	})

	Describe("authorization", func() {
		var f *fixture

		BeforeEach(func() {
			other := newIssue("P2-ISSUE")
			other.ProjectUUID, other.BranchUUID, other.ModuleUUID = "P2", "P2", "P2"
			f = newFixture(newIssue("P1-ISSUE"), other)
			f.permissions.Grant(store.Grant{ProjectUUID: "P2", UserUUID: "u-john"})
		})

		DescribeTable("restricts hits to visible projects",
			func(identity authz.Identity, check bool, expected []string) {
				q := mustBuild(issuequery.NewBuilder().CheckAuthorization(check))
				res, err := f.index.Search(ctx, identity, q, issuequery.NewSearchOptions())
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Keys).To(ConsistOf(expected))
			},
			Entry("anonymous sees public projects", authz.Anonymous(), true, []string{"P1-ISSUE"}),
			Entry("granted user sees its projects", authz.Identity{UserUUID: "u-john"}, true, []string{"P1-ISSUE", "P2-ISSUE"}),
			Entry("other user sees public projects", authz.Identity{UserUUID: "u-max"}, true, []string{"P1-ISSUE"}),
			Entry("root sees everything", authz.Identity{Root: true}, true, []string{"P1-ISSUE", "P2-ISSUE"}),
			Entry("disabled check sees everything", authz.Anonymous(), false, []string{"P1-ISSUE", "P2-ISSUE"}),
		)

		It("returns nothing when no project is visible", func() {
			idx := search.NewIssueIndex(f.backend, store.NewMemoryPermissionStore(), f.views)
			res, err := idx.Search(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()), issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Total).To(BeZero())
			Expect(res.Keys).To(BeEmpty())
		})
	})

	Describe("branches", func() {
		var f *fixture

		BeforeEach(func() {
			onBranch := newIssue("ON-BRANCH")
			onBranch.BranchUUID, onBranch.IsMainBranch = "B1", false
			onSibling := newIssue("ON-SIBLING")
			onSibling.BranchUUID, onSibling.IsMainBranch = "B2", false
			f = newFixture(newIssue("ON-MAIN"), onBranch, onSibling)
		})

		It("searches the main branch by default", func() {
			res, err := f.index.Search(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()), issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Keys).To(Equal([]string{"ON-MAIN"}))
		})

		It("searches one branch only", func() {
			q := mustBuild(issuequery.NewBuilder().BranchUUID("B1").MainBranch(false))
			res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Keys).To(Equal([]string{"ON-BRANCH"}))
		})

		It("finds nothing when the branch is declared main but is not", func() {
			q := mustBuild(issuequery.NewBuilder().BranchUUID("B1").MainBranch(true))
			res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Keys).To(BeEmpty())
		})
	})

	Describe("views", func() {
		It("expands portfolios into their member branches", func() {
			other := newIssue("P3-ISSUE")
			other.ProjectUUID, other.BranchUUID = "P3", "P3"
			f := newFixture(newIssue("P1-ISSUE"), other)
			f.permissions.Grant(store.Grant{ProjectUUID: "P3", GroupUUID: model.GroupAnyone})
			f.views.SetMembers("PORTFOLIO", "P1")

			q := mustBuild(issuequery.NewBuilder().ViewUUIDs("PORTFOLIO"))
			res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Keys).To(Equal([]string{"P1-ISSUE"}))

			q = mustBuild(issuequery.NewBuilder().ViewUUIDs("EMPTY"))
			res, err = f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Total).To(BeZero())
		})
	})

	Describe("creation dates", func() {
		var f *fixture

		BeforeEach(func() {
			first, second := newIssue("FIRST"), newIssue("SECOND")
			first.CreatedAt = date("2014-09-01T00:00:00Z")
			second.CreatedAt = date("2014-09-02T00:00:00Z")
			f = newFixture(first, second)
		})

		It("includes the lower bound and excludes the upper bound", func() {
			q := mustBuild(issuequery.NewBuilder().
				CreatedAfter(date("2014-09-01T00:00:00Z")).
				CreatedBefore(date("2014-09-02T00:00:00Z")))
			res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Keys).To(Equal([]string{"FIRST"}))
		})

		It("matches an exact creation instant", func() {
			q := mustBuild(issuequery.NewBuilder().CreatedAt(date("2014-09-02T00:00:00Z")))
			res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Keys).To(Equal([]string{"SECOND"}))
		})

		It("applies per project lower bounds", func() {
			q := mustBuild(issuequery.NewBuilder().CreatedAfterByProjects(map[string]issuequery.PeriodStart{
				"P1": {Date: date("2014-09-01T12:00:00Z"), Inclusive: true},
			}))
			res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Keys).To(Equal([]string{"SECOND"}))
		})
	})

	Describe("creation lower bound", func() {
		var f *fixture

		BeforeEach(func() {
			i1, i2 := newIssue("I1"), newIssue("I2")
			i1.CreatedAt = date("2014-09-20T00:00:00Z")
			i2.CreatedAt = date("2014-09-23T00:00:00Z")
			f = newFixture(i1, i2)
		})

		DescribeTable("returns the issues created from the bound on",
			func(after string, inclusive bool, expected []string) {
				q := mustBuild(issuequery.NewBuilder().CreatedAfterPeriod(date(after), inclusive))
				res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Keys).To(Equal(expected))
				Expect(res.Total).To(Equal(int64(len(expected))))
			},
			Entry("before both", "2014-09-19T00:00:00Z", true, []string{"I2", "I1"}),
			Entry("between both", "2014-09-21T00:00:00Z", true, []string{"I2"}),
			Entry("after both", "2014-09-25T00:00:00Z", true, []string{}),
			Entry("inclusive bound on a creation instant", "2014-09-20T00:00:00Z", true, []string{"I2", "I1"}),
			Entry("exclusive bound on a creation instant", "2014-09-20T00:00:00Z", false, []string{"I2"}),
		)
	})

	Describe("severity filter", func() {
		var f *fixture

		BeforeEach(func() {
			info, major := newIssue("INFO-ISSUE"), newIssue("MAJOR-ISSUE")
			info.Severity = model.SeverityInfo
			major.Severity = model.SeverityMajor
			f = newFixture(info, major)
		})

		DescribeTable("keeps only the selected severities",
			func(severities []model.Severity, expected []string) {
				q := mustBuild(issuequery.NewBuilder().Severities(severities...).Sort(issuequery.SortBySeverity).Asc(true))
				res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Keys).To(Equal(expected))
			},
			Entry("absent severity", []model.Severity{model.SeverityBlocker}, []string{}),
			Entry("one severity", []model.Severity{model.SeverityInfo}, []string{"INFO-ISSUE"}),
			Entry("several severities", []model.Severity{model.SeverityInfo, model.SeverityMajor}, []string{"INFO-ISSUE", "MAJOR-ISSUE"}),
		)
	})

	Describe("sort keys", func() {
		var f *fixture

		BeforeEach(func() {
			a, b, c := newIssue("A"), newIssue("B"), newIssue("C")
			a.Severity, a.Status = model.SeverityInfo, model.StatusOpen
			b.Severity, b.Status = model.SeverityBlocker, model.StatusClosed
			c.Severity, c.Status = model.SeverityMajor, model.StatusReopened
			closedA, closedB, closedC := date("2014-09-03T00:00:00Z"), date("2014-09-02T00:00:00Z"), date("2014-09-01T00:00:00Z")
			a.ClosedAt, b.ClosedAt, c.ClosedAt = &closedA, &closedB, &closedC
			f = newFixture(a, b, c)
		})

		DescribeTable("orders hits",
			func(sort string, asc bool, expected []string) {
				q := mustBuild(issuequery.NewBuilder().Sort(sort).Asc(asc))
				res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions())
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Keys).To(Equal(expected))
			},
			Entry("severity ascending", issuequery.SortBySeverity, true, []string{"A", "C", "B"}),
			Entry("severity descending", issuequery.SortBySeverity, false, []string{"B", "C", "A"}),
			Entry("status ascending", issuequery.SortByStatus, true, []string{"B", "A", "C"}),
			Entry("status descending", issuequery.SortByStatus, false, []string{"C", "A", "B"}),
			Entry("close date ascending", issuequery.SortByCloseDate, true, []string{"C", "B", "A"}),
			Entry("close date descending", issuequery.SortByCloseDate, false, []string{"A", "B", "C"}),
		)
	})

	Describe("errors", func() {
		It("rejects unsupported facets before reaching the backend", func() {
			f := newFixture(newIssue("I1"))
			counting := &countingBackend{inner: f.backend}
			idx := search.NewIssueIndex(counting, f.permissions, f.views)

			_, err := idx.Search(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()),
				issuequery.NewSearchOptions().AddFacets("colors"))
			Expect(apperr.IsInvalidArgument(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Unsupported facet: colors"))
			Expect(counting.calls.Load()).To(BeZero())
		})

		It("reports backend failures as unavailable", func() {
			f := newFixture()
			idx := search.NewIssueIndex(&countingBackend{err: errors.New("connection reset")}, f.permissions, f.views)

			_, err := idx.Search(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()),
				issuequery.NewSearchOptions().AddFacets(search.FacetCreatedAt, "rules"))
			Expect(apperr.IsBackendUnavailable(err)).To(BeTrue())
		})

		It("reports permission lookup failures as unavailable", func() {
			f := newFixture()
			idx := search.NewIssueIndex(f.backend, failingPermissions{}, f.views)

			_, err := idx.Search(ctx, authz.Identity{UserUUID: "u-john"}, mustBuild(issuequery.NewBuilder()), issuequery.NewSearchOptions())
			Expect(apperr.IsBackendUnavailable(err)).To(BeTrue())
		})

		It("requires a query", func() {
			f := newFixture()
			_, err := f.index.Search(ctx, authz.Anonymous(), nil, issuequery.NewSearchOptions())
			Expect(apperr.IsInvalidArgument(err)).To(BeTrue())
		})
	})
})
