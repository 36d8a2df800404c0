package typesense

import (
	"fmt"
	"strings"

	"basegraph.app/issuesearch/internal/backend"
	"basegraph.app/issuesearch/internal/model"
)

// maxSortFields is the number of sort_by clauses Typesense accepts.
const maxSortFields = 3

// FieldFileLineKey is a sortable string field the collection carries in
// place of the filePath, line and key sort chain. See FileLineKey.
const FieldFileLineKey = "fileLineKey"

const fileLineSep = "\x1f"

// FileLineKey returns the FieldFileLineKey value of doc. Ordering these
// values lexically orders documents by file path, then line, then key, with
// missing paths and lines first.
func FileLineKey(doc model.IssueDoc) string {
	line := ""
	if doc.Line != nil {
		line = fmt.Sprintf("%010d", *doc.Line)
	}
	return doc.FilePath + fileLineSep + line + fileLineSep + doc.Key
}

// SortBy renders sort fields as a sort_by expression. A filePath, line, key
// chain sorted in one direction becomes a single FieldFileLineKey clause.
// When more clauses remain than Typesense accepts, the middle ones are
// dropped and the last one, the key tie-breaker, is kept.
func SortBy(fields []backend.SortField) string {
	fields = collapseFileLine(fields)
	if len(fields) > maxSortFields {
		fields = append(fields[:maxSortFields-1:maxSortFields-1], fields[len(fields)-1])
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "desc"
		missing := "last"
		if f.Asc {
			dir = "asc"
			missing = "first"
		}
		parts[i] = fmt.Sprintf("%s(missing_values: %s):%s", f.Field, missing, dir)
	}
	return strings.Join(parts, ",")
}

func collapseFileLine(fields []backend.SortField) []backend.SortField {
	chain := []string{model.FieldFilePath, model.FieldLine, model.FieldKey}
	out := make([]backend.SortField, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		if i+len(chain) <= len(fields) && isChain(fields[i:i+len(chain)], chain) {
			out = append(out, backend.SortField{Field: FieldFileLineKey, Asc: fields[i].Asc})
			i += len(chain) - 1
			continue
		}
		out = append(out, fields[i])
	}
	return out
}

func isChain(fields []backend.SortField, chain []string) bool {
	for i, f := range fields {
		if f.Field != chain[i] || f.Asc != fields[0].Asc {
			return false
		}
	}
	return true
}
