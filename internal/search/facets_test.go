package search_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/issuesearch/internal/authz"
	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/model"
	"basegraph.app/issuesearch/internal/search"
)

var _ = Describe("Facets", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("term facets", func() {
		var f *fixture

		BeforeEach(func() {
			steph, marcel, nobody, fixed := newIssue("I1"), newIssue("I2"), newIssue("I3"), newIssue("I4")
			steph.AssigneeUUID, steph.AuthorLogin = "steph", "bob"
			marcel.AssigneeUUID, marcel.AuthorLogin = "marcel", "alice"
			nobody.AuthorLogin = "bob"
			fixed.AssigneeUUID = "steph"
			fixed.Status, fixed.Resolution = model.StatusResolved, model.ResolutionFixed
			f = newFixture(steph, marcel, nobody, fixed)
		})

		It("keeps sibling values of the selected facet", func() {
			q := mustBuild(issuequery.NewBuilder().AssigneeUUIDs("steph").Resolved(false))
			res, err := f.index.Search(ctx, authz.Anonymous(), q,
				issuequery.NewSearchOptions().AddFacets("assignees", "authors"))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Keys).To(Equal([]string{"I1"}))
			assignees, ok := res.Facets.Get("assignees")
			Expect(ok).To(BeTrue())
			Expect(assignees).To(Equal([]search.FacetValue{
				{Value: "", Count: 1},
				{Value: "marcel", Count: 1},
				{Value: "steph", Count: 1},
			}))
			Expect(res.Facets.Counts("authors")).To(Equal(map[string]int64{"bob": 1}))
		})

		It("does not report selected values without hits", func() {
			q := mustBuild(issuequery.NewBuilder().AssigneeUUIDs("steph", "j-b").Resolved(false))
			res, err := f.index.Search(ctx, authz.Anonymous(), q,
				issuequery.NewSearchOptions().AddFacets("assignees"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Facets.Counts("assignees")).NotTo(HaveKey("j-b"))
		})

		It("reports unresolved issues under an empty resolution", func() {
			res, err := f.index.Search(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()),
				issuequery.NewSearchOptions().AddFacets("resolutions", "statuses"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Facets.Counts("resolutions")).To(Equal(map[string]int64{"": 3, "FIXED": 1}))
			Expect(res.Facets.Counts("statuses")).To(Equal(map[string]int64{"OPEN": 3, "RESOLVED": 1}))
		})

		It("has no missing bucket for authors", func() {
			res, err := f.index.Search(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()),
				issuequery.NewSearchOptions().AddFacets("authors"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Facets.Counts("authors")).To(Equal(map[string]int64{"bob": 2, "alice": 1}))
		})

		It("omits facets that were not requested", func() {
			res, err := f.index.Search(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()), issuequery.NewSearchOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Facets.Names()).To(BeEmpty())
		})
	})

	It("reports selected values beyond the facet size", func() {
		var docs []model.IssueDoc
		for i := range search.DefaultFacetSize {
			for j := range 2 {
				d := newIssue(fmt.Sprintf("R%02d-%d", i, j))
				d.RuleID = fmt.Sprintf("java:S%02d", i)
				docs = append(docs, d)
			}
		}
		rare := newIssue("RARE")
		rare.RuleID = "java:rare"
		f := newFixture(append(docs, rare)...)

		q := mustBuild(issuequery.NewBuilder().Rules("java:rare"))
		res, err := f.index.Search(ctx, authz.Anonymous(), q, issuequery.NewSearchOptions().AddFacets("rules"))
		Expect(err).NotTo(HaveOccurred())

		rules, _ := res.Facets.Get("rules")
		Expect(rules).To(HaveLen(search.DefaultFacetSize + 1))
		Expect(rules[len(rules)-1]).To(Equal(search.FacetValue{Value: "java:rare", Count: 1}))
	})

	Describe("creation date histogram", func() {
		var f *fixture

		BeforeEach(func() {
			keys := []string{"2014-09-01T00:30:00Z", "2014-09-01T12:00:00Z", "2014-09-02T12:00:00Z", "2014-09-05T12:00:00Z"}
			docs := make([]model.IssueDoc, len(keys))
			for i, k := range keys {
				docs[i] = newIssue(fmt.Sprintf("I%d", i))
				docs[i].CreatedAt = date(k)
			}
			f = newFixture(docs...)
		})

		It("buckets by day in the configured time zone", func() {
			q := mustBuild(issuequery.NewBuilder().
				CreatedAfter(date("2014-08-31T00:00:00-01:00")).
				CreatedBefore(date("2014-09-06T00:00:00-01:00")))
			res, err := f.index.Search(ctx, authz.Anonymous(), q,
				issuequery.NewSearchOptions().AddFacets(search.FacetCreatedAt))
			Expect(err).NotTo(HaveOccurred())

			values, ok := res.Facets.Get(search.FacetCreatedAt)
			Expect(ok).To(BeTrue())
			Expect(values).To(Equal([]search.FacetValue{
				{Value: "2014-08-31", Count: 1},
				{Value: "2014-09-01", Count: 1},
				{Value: "2014-09-02", Count: 1},
				{Value: "2014-09-03", Count: 0},
				{Value: "2014-09-04", Count: 0},
				{Value: "2014-09-05", Count: 1},
			}))
		})

		It("starts at the oldest issue without a lower bound", func() {
			q := mustBuild(issuequery.NewBuilder().CreatedBefore(date("2014-09-10T00:00:00Z")))
			res, err := f.index.Search(ctx, authz.Anonymous(), q,
				issuequery.NewSearchOptions().AddFacets(search.FacetCreatedAt))
			Expect(err).NotTo(HaveOccurred())

			values, _ := res.Facets.Get(search.FacetCreatedAt)
			Expect(values).To(HaveLen(10))
			Expect(values[0]).To(Equal(search.FacetValue{Value: "2014-08-31", Count: 1}))
			Expect(values[9].Value).To(Equal("2014-09-09"))
		})

		It("switches to weeks over longer periods", func() {
			q := mustBuild(issuequery.NewBuilder().
				CreatedAfter(date("2014-09-01T00:00:00-01:00")).
				CreatedBefore(date("2014-10-01T00:00:00-01:00")))
			res, err := f.index.Search(ctx, authz.Anonymous(), q,
				issuequery.NewSearchOptions().AddFacets(search.FacetCreatedAt))
			Expect(err).NotTo(HaveOccurred())

			values, _ := res.Facets.Get(search.FacetCreatedAt)
			Expect(values[0]).To(Equal(search.FacetValue{Value: "2014-09-01", Count: 3}))
			Expect(values).To(HaveLen(5))
		})

		DescribeTable("measures the span from the first included instant",
			func(inclusive bool, wantLen int, wantFirst search.FacetValue) {
				q := mustBuild(issuequery.NewBuilder().
					CreatedAfterPeriod(date("2014-09-01T00:00:00-01:00"), inclusive).
					CreatedBefore(date("2014-09-21T00:00:00-01:00")))
				res, err := f.index.Search(ctx, authz.Anonymous(), q,
					issuequery.NewSearchOptions().AddFacets(search.FacetCreatedAt))
				Expect(err).NotTo(HaveOccurred())

				values, ok := res.Facets.Get(search.FacetCreatedAt)
				Expect(ok).To(BeTrue())
				Expect(values).To(HaveLen(wantLen))
				Expect(values[0]).To(Equal(wantFirst))
			},
			Entry("inclusive bound spans twenty days and uses weeks", true, 3,
				search.FacetValue{Value: "2014-09-01", Count: 3}),
			Entry("exclusive bound stays under twenty days and uses days", false, 20,
				search.FacetValue{Value: "2014-09-01", Count: 1}),
		)

		It("is absent when nothing matches", func() {
			q := mustBuild(issuequery.NewBuilder().ProjectUUIDs("UNKNOWN"))
			res, err := f.index.Search(ctx, authz.Anonymous(), q,
				issuequery.NewSearchOptions().AddFacets(search.FacetCreatedAt))
			Expect(err).NotTo(HaveOccurred())

			_, ok := res.Facets.Get(search.FacetCreatedAt)
			Expect(ok).To(BeFalse())
		})
	})
})
