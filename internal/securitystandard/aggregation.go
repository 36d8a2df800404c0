package securitystandard

import (
	"cmp"
	"slices"
	"strconv"

	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/filter"
	"basegraph.app/issuesearch/internal/model"
)

const (
	aggVulnerabilities = "vulnerabilities"
	aggRating          = "rating"
	aggOpenHotspots    = "openHotspots"
	aggToReview        = "toReviewHotspots"
	aggWontFix         = "wontFixHotspots"
	aggCWE             = "cwe"
)

// CategoryStatistics counts the security issues of one category.
// VulnerabilityRating runs from 1 (A) to 5 (E) and is nil without
// vulnerabilities.
type CategoryStatistics struct {
	Category                 string               `json:"category"`
	Vulnerabilities          int64                `json:"vulnerabilities"`
	VulnerabilityRating      *int                 `json:"vulnerabilityRating,omitempty"`
	OpenSecurityHotspots     int64                `json:"openSecurityHotspots"`
	ToReviewSecurityHotspots int64                `json:"toReviewSecurityHotspots"`
	WontFixSecurityHotspots  int64                `json:"wontFixSecurityHotspots"`
	Children                 []CategoryStatistics `json:"children,omitempty"`
}

// ReportFilter limits documents to vulnerabilities and hotspots.
func ReportFilter() filter.Node {
	return filter.In(model.FieldType, string(model.RuleTypeVulnerability), string(model.RuleTypeSecurityHotspot))
}

// CategoryFilter matches the issues counted in one category. Issues lacking
// the standard's attribute belong to no category.
func CategoryFilter(std Standard, category string) filter.Node {
	if category == model.UnknownStandard {
		return filter.AllOf(
			filter.Has(std.Field),
			filter.Negate(filter.In(std.Field, std.CategoryKeys()...)),
		)
	}
	return filter.In(std.Field, category)
}

// Aggregations returns one filter aggregation per reported category.
func Aggregations(std Standard, includeCWE bool) []backend.Aggregation {
	keys := std.ReportKeys()
	aggs := make([]backend.Aggregation, 0, len(keys))
	for _, k := range keys {
		sub := statisticsAggregations()
		if includeCWE {
			cwe := backend.Terms(aggCWE, model.FieldCWE, 0)
			cwe.Sub = statisticsAggregations()
			sub = append(sub, cwe)
		}
		aggs = append(aggs, backend.Filtered(k, CategoryFilter(std, k), sub...))
	}
	return aggs
}

func statisticsAggregations() []backend.Aggregation {
	vulnerability := filter.In(model.FieldType, string(model.RuleTypeVulnerability))
	hotspot := filter.In(model.FieldType, string(model.RuleTypeSecurityHotspot))
	return []backend.Aggregation{
		backend.Filtered(aggVulnerabilities,
			filter.AllOf(vulnerability, filter.Negate(filter.In(model.FieldStatus, string(model.StatusClosed)))),
			backend.Max(aggRating, model.FieldSeverityValue)),
		backend.Filtered(aggOpenHotspots,
			filter.AllOf(hotspot, filter.In(model.FieldStatus, string(model.StatusOpen), string(model.StatusReopened)))),
		backend.Filtered(aggToReview,
			filter.AllOf(hotspot,
				filter.In(model.FieldStatus, string(model.StatusResolved)),
				filter.In(model.FieldResolution, string(model.ResolutionFixed)))),
		backend.Filtered(aggWontFix,
			filter.AllOf(hotspot,
				filter.In(model.FieldStatus, string(model.StatusResolved)),
				filter.In(model.FieldResolution, string(model.ResolutionWontFix)))),
	}
}

// Statistics shapes the results of Aggregations, in catalog order.
func Statistics(std Standard, includeCWE bool, results map[string]backend.AggregationResult) []CategoryStatistics {
	keys := std.ReportKeys()
	out := make([]CategoryStatistics, 0, len(keys))
	for _, k := range keys {
		res := results[k]
		stats := statisticsOf(k, res.Sub)
		if includeCWE {
			stats.Children = cweChildren(res.Sub[aggCWE])
		}
		out = append(out, stats)
	}
	return out
}

func statisticsOf(category string, sub map[string]backend.AggregationResult) CategoryStatistics {
	vulns := sub[aggVulnerabilities]
	stats := CategoryStatistics{
		Category:                 category,
		Vulnerabilities:          vulns.Count,
		OpenSecurityHotspots:     sub[aggOpenHotspots].Count,
		ToReviewSecurityHotspots: sub[aggToReview].Count,
		WontFixSecurityHotspots:  sub[aggWontFix].Count,
	}
	if vulns.Count > 0 {
		if v := vulns.Sub[aggRating].Value; v != nil {
			rating := int(*v)
			stats.VulnerabilityRating = &rating
		}
	}
	return stats
}

func cweChildren(res backend.AggregationResult) []CategoryStatistics {
	children := make([]CategoryStatistics, 0, len(res.Buckets))
	for _, b := range res.Buckets {
		children = append(children, statisticsOf(b.Key, b.Sub))
	}
	slices.SortFunc(children, func(a, b CategoryStatistics) int {
		return compareCWE(a.Category, b.Category)
	})
	return children
}

// compareCWE orders numeric CWE identifiers numerically, then other values
// lexically, with unknown last.
func compareCWE(a, b string) int {
	if (a == model.UnknownStandard) != (b == model.UnknownStandard) {
		if a == model.UnknownStandard {
			return 1
		}
		return -1
	}
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(an, bn)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return cmp.Compare(a, b)
}
