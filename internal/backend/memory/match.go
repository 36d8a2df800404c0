package memory

import (
	"slices"

	"basegraph.app/issuesearch/internal/filter"
	"basegraph.app/issuesearch/internal/model"
)

func matches(doc *model.IssueDoc, n filter.Node) bool {
	switch f := n.(type) {
	case nil, filter.MatchAll:
		return true
	case filter.MatchNone:
		return false
	case filter.Terms:
		for _, v := range stringValues(doc, f.Field) {
			if slices.Contains(f.Values, v) {
				return true
			}
		}
		return false
	case filter.Flag:
		if f.Field == model.FieldIsMainBranch {
			return doc.IsMainBranch == f.Value
		}
		return false
	case filter.Exists:
		return len(stringValues(doc, f.Field)) > 0
	case filter.Range:
		t, ok := timeValue(doc, f.Field)
		if !ok {
			return false
		}
		if f.From != nil {
			if t.Before(*f.From) || (!f.IncludeFrom && t.Equal(*f.From)) {
				return false
			}
		}
		if f.To != nil {
			if t.After(*f.To) || (!f.IncludeTo && t.Equal(*f.To)) {
				return false
			}
		}
		return true
	case filter.And:
		for _, c := range f.Nodes {
			if !matches(doc, c) {
				return false
			}
		}
		return true
	case filter.Or:
		for _, c := range f.Nodes {
			if matches(doc, c) {
				return true
			}
		}
		return false
	case filter.Not:
		return !matches(doc, f.Node)
	}
	return false
}
