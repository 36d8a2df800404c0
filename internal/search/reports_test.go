package search_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/issuesearch/internal/apperr"
	"basegraph.app/issuesearch/internal/model"
	"basegraph.app/issuesearch/internal/search"
)

func branchIssue(key, branch string, t model.RuleType, resolution model.Resolution) model.IssueDoc {
	d := newIssue(key)
	d.BranchUUID, d.IsMainBranch, d.Type = branch, false, t
	if resolution != "" {
		d.Status, d.Resolution = model.StatusResolved, resolution
	}
	return d
}

func securityIssue(key, branch string, t model.RuleType, status model.Status, resolution model.Resolution, severity model.Severity) model.IssueDoc {
	d := newIssue(key)
	d.BranchUUID, d.Type, d.Status, d.Resolution, d.Severity = branch, t, status, resolution, severity
	d.OwaspTop10 = []string{"a1"}
	d.SansTop25 = []string{"porous-defenses"}
	d.CWE = []string{"79"}
	return d
}

func statsByCategory(stats []search.CategoryStatistics) map[string]search.CategoryStatistics {
	out := make(map[string]search.CategoryStatistics, len(stats))
	for _, s := range stats {
		out[s.Category] = s
	}
	return out
}

var _ = Describe("Reports", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("SearchBranchStatistics", func() {
		var f *fixture

		BeforeEach(func() {
			sub := branchIssue("B3-SUB-RESOLVED", "branch3", model.RuleTypeCodeSmell, model.ResolutionFixed)
			sub.ComponentUUID = "branch3-module"
			f = newFixture(
				newIssue("MAIN"),
				branchIssue("B1-BUG", "branch1", model.RuleTypeBug, ""),
				branchIssue("B1-VULN", "branch1", model.RuleTypeVulnerability, ""),
				branchIssue("B1-SMELL", "branch1", model.RuleTypeCodeSmell, ""),
				branchIssue("B1-RESOLVED", "branch1", model.RuleTypeCodeSmell, model.ResolutionFixed),
				branchIssue("B2-RESOLVED", "branch2", model.RuleTypeBug, model.ResolutionWontFix),
				branchIssue("B3-SMELL-1", "branch3", model.RuleTypeCodeSmell, ""),
				branchIssue("B3-SMELL-2", "branch3", model.RuleTypeCodeSmell, ""),
				branchIssue("B3-SMELL-3", "branch3", model.RuleTypeCodeSmell, ""),
				sub,
			)
		})

		It("counts unresolved issues per branch", func() {
			stats, err := f.index.SearchBranchStatistics(ctx, "P1", []string{"branch1", "branch2", "branch3"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal([]model.BranchStatistics{
				{BranchUUID: "branch1", Bugs: 1, Vulnerabilities: 1, CodeSmells: 1},
				{BranchUUID: "branch3", CodeSmells: 3},
			}))
		})

		It("ignores other projects", func() {
			stats, err := f.index.SearchBranchStatistics(ctx, "P2", []string{"branch1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(BeEmpty())
		})

		It("returns nothing without branches", func() {
			counting := &countingBackend{inner: f.backend}
			idx := search.NewIssueIndex(counting, f.permissions, f.views)

			stats, err := idx.SearchBranchStatistics(ctx, "P1", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(BeEmpty())
			Expect(counting.calls.Load()).To(BeZero())
		})
	})

	Describe("GetSecurityStandardReport", func() {
		var f *fixture

		BeforeEach(func() {
			f = newFixture(
				securityIssue("V-MAJOR", "P1", model.RuleTypeVulnerability, model.StatusOpen, "", model.SeverityMajor),
				securityIssue("V-CRITICAL", "P1", model.RuleTypeVulnerability, model.StatusOpen, "", model.SeverityCritical),
				securityIssue("V-CLOSED", "P1", model.RuleTypeVulnerability, model.StatusClosed, model.ResolutionFixed, model.SeverityBlocker),
				securityIssue("H-OPEN", "P1", model.RuleTypeSecurityHotspot, model.StatusOpen, "", model.SeverityMajor),
				securityIssue("H-REVIEW", "P1", model.RuleTypeSecurityHotspot, model.StatusResolved, model.ResolutionFixed, model.SeverityMajor),
				securityIssue("OTHER-BRANCH", "P9", model.RuleTypeVulnerability, model.StatusOpen, "", model.SeverityBlocker),
			)
		})

		It("reports one branch", func() {
			stats, err := f.index.GetOwaspTop10Report(ctx, "P1", false, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(11))

			a1 := statsByCategory(stats)["a1"]
			Expect(a1.Vulnerabilities).To(Equal(int64(2)))
			Expect(*a1.VulnerabilityRating).To(Equal(4))
			Expect(a1.OpenSecurityHotspots).To(Equal(int64(1)))
			Expect(a1.ToReviewSecurityHotspots).To(Equal(int64(1)))
			Expect(a1.Children).To(BeEmpty())

			Expect(statsByCategory(stats)["a2"].VulnerabilityRating).To(BeNil())
		})

		It("adds CWE children on demand", func() {
			stats, err := f.index.GetOwaspTop10Report(ctx, "P1", false, true)
			Expect(err).NotTo(HaveOccurred())

			children := statsByCategory(stats)["a1"].Children
			Expect(children).To(HaveLen(1))
			Expect(children[0].Category).To(Equal("79"))
			Expect(children[0].Vulnerabilities).To(Equal(int64(2)))
		})

		It("reports SANS Top 25 without an unknown category", func() {
			stats, err := f.index.GetSansTop25Report(ctx, "P1", false, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(statsByCategory(stats)).NotTo(HaveKey(model.UnknownStandard))
			Expect(statsByCategory(stats)["porous-defenses"].Vulnerabilities).To(Equal(int64(2)))
		})

		It("reports every member of a portfolio", func() {
			f.views.SetMembers("PORTFOLIO", "P1", "P9")

			stats, err := f.index.GetOwaspTop10Report(ctx, "PORTFOLIO", true, false)
			Expect(err).NotTo(HaveOccurred())
			a1 := statsByCategory(stats)["a1"]
			Expect(a1.Vulnerabilities).To(Equal(int64(3)))
			Expect(*a1.VulnerabilityRating).To(Equal(5))
		})

		It("reports nothing for an empty portfolio", func() {
			stats, err := f.index.GetOwaspTop10Report(ctx, "EMPTY", true, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(statsByCategory(stats)["a1"].Vulnerabilities).To(BeZero())
		})

		It("rejects unknown standards", func() {
			_, err := f.index.GetSecurityStandardReport(ctx, "cwe-top-25", "P1", false, false)
			Expect(apperr.IsInvalidArgument(err)).To(BeTrue())
		})
	})
})
