package search_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/issuesearch/internal/apperr"
	"basegraph.app/issuesearch/internal/authz"
	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/model"
	"basegraph.app/issuesearch/internal/search"
)

var _ = Describe("Listing", func() {
	var (
		ctx context.Context
		f   *fixture
	)

	BeforeEach(func() {
		ctx = context.Background()

		a, b, c := newIssue("I1"), newIssue("I2"), newIssue("I3")
		a.Tags, a.AuthorLogin = []string{"convention", "java8", "bug"}, "luke.skywalker"
		b.Tags, b.AuthorLogin = []string{"convention", "bug"}, "luke@skywalker.name"
		c.Tags, c.AuthorLogin = []string{"convention"}, "name++"
		hidden := newIssue("HIDDEN")
		hidden.ProjectUUID, hidden.BranchUUID, hidden.OrganizationUUID = "P2", "P2", "org-2"
		hidden.Tags, hidden.AuthorLogin = []string{"secret"}, "vader"
		f = newFixture(a, b, c, hidden)
	})

	Describe("ListTags", func() {
		DescribeTable("lists visible tags alphabetically",
			func(textQuery string, size int, expected []string) {
				tags, err := f.index.ListTags(ctx, authz.Anonymous(), "", textQuery, size)
				Expect(err).NotTo(HaveOccurred())
				Expect(tags).To(Equal(expected))
			},
			Entry("first tag only", "", 1, []string{"bug"}),
			Entry("first two tags", "", 2, []string{"bug", "convention"}),
			Entry("every visible tag", "", 100, []string{"bug", "convention", "java8"}),
			Entry("tags containing the text", "vent", 5, []string{"convention"}),
			Entry("regex syntax is literal", "invalidRegexp[", 5, []string{}),
			Entry("zero size", "", 0, []string{}),
		)

		It("restricts to one organization", func() {
			f.permissions.Grant(storeGrantAnyone("P2"))

			tags, err := f.index.ListTags(ctx, authz.Anonymous(), "org-2", "", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(tags).To(Equal([]string{"secret"}))

			tags, err = f.index.ListTags(ctx, authz.Anonymous(), "", "", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(tags).To(ContainElement("secret"))
		})

		It("rejects page sizes above the maximum", func() {
			_, err := f.index.ListTags(ctx, authz.Anonymous(), "", "", 501)
			Expect(apperr.IsInvalidArgument(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Page size must be lower than or equals to 500"))
		})
	})

	Describe("ListAuthors", func() {
		DescribeTable("lists authors alphabetically",
			func(textQuery string, size int, expected []string) {
				authors, err := f.index.ListAuthors(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()), textQuery, size)
				Expect(err).NotTo(HaveOccurred())
				Expect(authors).To(Equal(expected))
			},
			Entry("every author", "", 10, []string{"luke.skywalker", "luke@skywalker.name", "name++"}),
			Entry("first author", "", 1, []string{"luke.skywalker"}),
			Entry("no size cap", "", math.MaxInt32, []string{"luke.skywalker", "luke@skywalker.name", "name++"}),
			Entry("authors containing the text", "uke", 5, []string{"luke.skywalker", "luke@skywalker.name"}),
			Entry("quantifiers are literal", "nam+", 5, []string{}),
			Entry("literal plus", "name+", 5, []string{"name++"}),
			Entry("wildcards are literal", ".*", 5, []string{}),
		)

		It("honors the query filters", func() {
			q := mustBuild(issuequery.NewBuilder().Tags("java8"))
			authors, err := f.index.ListAuthors(ctx, authz.Anonymous(), q, "", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(authors).To(Equal([]string{"luke.skywalker"}))
		})
	})

	Describe("CountTags", func() {
		It("counts the tags of unresolved issues, most used first", func() {
			resolved := newIssue("RESOLVED")
			resolved.Tags = []string{"java8", "java8-legacy"}
			resolved.Status, resolved.Resolution = model.StatusClosed, model.ResolutionFixed
			f.backend.Index(resolved)

			q := mustBuild(issuequery.NewBuilder().ProjectUUIDs("P1").Resolved(false))
			counts, err := f.index.CountTags(ctx, authz.Anonymous(), q, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(Equal([]search.FacetValue{
				{Value: "convention", Count: 3},
				{Value: "bug", Count: 2},
				{Value: "java8", Count: 1},
			}))
		})

		It("keeps the most used tags within size", func() {
			counts, err := f.index.CountTags(ctx, authz.Anonymous(), mustBuild(issuequery.NewBuilder()), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(Equal([]search.FacetValue{{Value: "convention", Count: 3}}))
		})
	})
})
