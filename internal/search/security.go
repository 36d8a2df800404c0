package search

import (
	"context"
	"log/slog"

	"basegraph.app/issuesearch/common/logger"
	"basegraph.app/issuesearch/internal/apperr"
	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/criteria"
	"basegraph.app/issuesearch/internal/filter"
	"basegraph.app/issuesearch/internal/model"
	"basegraph.app/issuesearch/internal/securitystandard"
)

type CategoryStatistics = securitystandard.CategoryStatistics

// GetSecurityStandardReport aggregates the vulnerabilities and hotspots of a
// branch, or of every branch of a portfolio, into the categories of one
// security standard. includeCWE adds per-CWE children to each category.
func (ix *IssueIndex) GetSecurityStandardReport(ctx context.Context, standard, rootUUID string, isPortfolio, includeCWE bool) ([]CategoryStatistics, error) {
	std, ok := ix.catalog.Standard(standard)
	if !ok {
		return nil, apperr.InvalidArgumentf("Unsupported security standard: %s", standard)
	}

	ctx, sc := ix.begin(ctx, "security_report", nil)
	defer sc.End()
	ctx = logger.WithLogFields(ctx, logger.LogFields{Standard: logger.Ptr(standard)})

	var scope filter.Node
	if isPortfolio {
		members, err := ix.views.Members(ctx, rootUUID)
		if err != nil {
			err = apperr.BackendUnavailable(err, "resolving portfolio members")
			sc.RecordError(err)
			return nil, err
		}
		scope = criteria.ViewClause{Members: members}.Node()
	} else {
		scope = filter.In(model.FieldBranchUUID, rootUUID)
	}

	resp, err := ix.search(ctx, backend.Request{
		Filter:       filter.AllOf(securitystandard.ReportFilter(), scope),
		Aggregations: securitystandard.Aggregations(std, includeCWE),
	}, "computing security report")
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	stats := securitystandard.Statistics(std, includeCWE, resp.Aggregations)
	slog.DebugContext(ctx, "security report computed",
		"root_uuid", rootUUID,
		"portfolio", isPortfolio,
		"categories", len(stats))
	return stats, nil
}

func (ix *IssueIndex) GetOwaspTop10Report(ctx context.Context, rootUUID string, isPortfolio, includeCWE bool) ([]CategoryStatistics, error) {
	return ix.GetSecurityStandardReport(ctx, securitystandard.OwaspTop10, rootUUID, isPortfolio, includeCWE)
}

func (ix *IssueIndex) GetSansTop25Report(ctx context.Context, rootUUID string, isPortfolio, includeCWE bool) ([]CategoryStatistics, error) {
	return ix.GetSecurityStandardReport(ctx, securitystandard.SansTop25, rootUUID, isPortfolio, includeCWE)
}
