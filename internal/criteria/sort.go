package criteria

import (
	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/issuequery"
	"basegraph.app/issuesearch/internal/model"
)

// Sort returns the hit order of q. The issue key always breaks ties.
func Sort(q *issuequery.Query) []backend.SortField {
	asc := q.Asc()
	var fields []backend.SortField
	switch q.Sort() {
	case issuequery.SortByStatus:
		fields = []backend.SortField{{Field: model.FieldStatus, Asc: asc}}
	case issuequery.SortBySeverity:
		fields = []backend.SortField{{Field: model.FieldSeverityValue, Asc: asc}}
	case issuequery.SortByCreationDate:
		fields = []backend.SortField{{Field: model.FieldCreatedAt, Asc: asc}}
	case issuequery.SortByUpdateDate:
		fields = []backend.SortField{{Field: model.FieldUpdatedAt, Asc: asc}}
	case issuequery.SortByCloseDate:
		fields = []backend.SortField{{Field: model.FieldClosedAt, Asc: asc}}
	case issuequery.SortByFileLine:
		fields = []backend.SortField{
			{Field: model.FieldFilePath, Asc: asc},
			{Field: model.FieldLine, Asc: asc},
			{Field: model.FieldKey, Asc: asc},
		}
	default:
		fields = []backend.SortField{
			{Field: model.FieldCreatedAt, Asc: false},
			{Field: model.FieldProjectUUID, Asc: true},
			{Field: model.FieldFilePath, Asc: true},
			{Field: model.FieldLine, Asc: true},
			{Field: model.FieldKey, Asc: true},
		}
	}
	if fields[len(fields)-1].Field != model.FieldKey {
		fields = append(fields, backend.SortField{Field: model.FieldKey, Asc: true})
	}
	return fields
}
