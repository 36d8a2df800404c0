package search

import (
	"context"
	"log/slog"

	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/filter"
	"basegraph.app/issuesearch/internal/model"
)

const (
	branchAgg = "branches"
	typeAgg   = "types"
)

// SearchBranchStatistics counts the unresolved bugs, vulnerabilities and code
// smells of the given non-main branches of a project. Branches without
// unresolved issues are omitted. Results follow the order of branchUUIDs.
func (ix *IssueIndex) SearchBranchStatistics(ctx context.Context, projectUUID string, branchUUIDs []string) ([]model.BranchStatistics, error) {
	if len(branchUUIDs) == 0 {
		return []model.BranchStatistics{}, nil
	}

	ctx, sc := ix.begin(ctx, "branch_statistics", nil)
	defer sc.End()

	f := filter.AllOf(
		filter.In(model.FieldProjectUUID, projectUUID),
		filter.In(model.FieldBranchUUID, branchUUIDs...),
		filter.Is(model.FieldIsMainBranch, false),
		filter.Negate(filter.Has(model.FieldResolution)),
	)
	agg := backend.Terms(branchAgg, model.FieldBranchUUID, len(branchUUIDs))
	agg.Sub = []backend.Aggregation{backend.Terms(typeAgg, model.FieldType, 0)}

	resp, err := ix.search(ctx, backend.Request{Filter: f, Aggregations: []backend.Aggregation{agg}}, "computing branch statistics")
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	byBranch := make(map[string]model.BranchStatistics)
	for _, b := range resp.Aggregations[branchAgg].Buckets {
		if b.Count == 0 {
			continue
		}
		stats := model.BranchStatistics{BranchUUID: b.Key}
		for _, t := range b.Sub[typeAgg].Buckets {
			switch model.RuleType(t.Key) {
			case model.RuleTypeBug:
				stats.Bugs = t.Count
			case model.RuleTypeVulnerability:
				stats.Vulnerabilities = t.Count
			case model.RuleTypeCodeSmell:
				stats.CodeSmells = t.Count
			}
		}
		byBranch[b.Key] = stats
	}

	out := make([]model.BranchStatistics, 0, len(byBranch))
	for _, uuid := range branchUUIDs {
		if stats, ok := byBranch[uuid]; ok {
			out = append(out, stats)
			delete(byBranch, uuid)
		}
	}
	slog.DebugContext(ctx, "branch statistics computed", "project_uuid", projectUUID, "branches", len(out))
	return out, nil
}
