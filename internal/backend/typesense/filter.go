package typesense

import (
	"fmt"
	"strconv"
	"strings"

	"basegraph.app/issuesearch/internal/filter"
	"basegraph.app/issuesearch/internal/model"
)

// MissingValue is indexed in place of absent keyword values so that
// presence can be filtered and counted.
const MissingValue = "_missing_"

const noMatch = model.FieldKey + ":=`" + MissingValue + "`"

// FilterBy renders a filter tree as a filter_by expression. Match-all renders
// as the empty string. Negations are pushed down to the leaves because
// filter_by has no general NOT operator.
func FilterBy(n filter.Node) string {
	return render(n, false)
}

func render(n filter.Node, negated bool) string {
	switch f := n.(type) {
	case nil, filter.MatchAll:
		if negated {
			return noMatch
		}
		return ""
	case filter.MatchNone:
		if negated {
			return ""
		}
		return noMatch
	case filter.Terms:
		if len(f.Values) == 0 {
			return render(filter.MatchNone{}, negated)
		}
		op := ":="
		if negated {
			op = ":!="
		}
		return f.Field + op + "[" + quoteAll(f.Values) + "]"
	case filter.Flag:
		return f.Field + ":=" + strconv.FormatBool(f.Value != negated)
	case filter.Exists:
		if negated {
			return f.Field + ":=" + quote(MissingValue)
		}
		return f.Field + ":!=" + quote(MissingValue)
	case filter.Range:
		return renderRange(f, negated)
	case filter.And:
		if negated {
			return join(f.Nodes, " || ", true)
		}
		return join(f.Nodes, " && ", false)
	case filter.Or:
		if negated {
			return join(f.Nodes, " && ", true)
		}
		return join(f.Nodes, " || ", false)
	case filter.Not:
		return render(f.Node, !negated)
	}
	panic(fmt.Sprintf("typesense: unsupported filter node %T", n))
}

func renderRange(r filter.Range, negated bool) string {
	var lower, upper string
	if r.From != nil {
		op := ">"
		if r.IncludeFrom {
			op = ">="
		}
		if negated {
			op = "<"
			if !r.IncludeFrom {
				op = "<="
			}
		}
		lower = r.Field + ":" + op + strconv.FormatInt(r.From.UnixMilli(), 10)
	}
	if r.To != nil {
		op := "<"
		if r.IncludeTo {
			op = "<="
		}
		if negated {
			op = ">"
			if !r.IncludeTo {
				op = ">="
			}
		}
		upper = r.Field + ":" + op + strconv.FormatInt(r.To.UnixMilli(), 10)
	}

	sep := " && "
	if negated {
		sep = " || "
	}
	switch {
	case lower == "" && upper == "":
		return render(filter.MatchAll{}, negated)
	case lower == "":
		return upper
	case upper == "":
		return lower
	}
	return "(" + lower + sep + upper + ")"
}

func join(nodes []filter.Node, sep string, negated bool) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s := render(n, negated)
		if s == "" {
			// A match-all operand decides a disjunction and drops out of a
			// conjunction.
			if sep == " || " {
				return ""
			}
			continue
		}
		parts = append(parts, s)
	}
	switch len(parts) {
	case 0:
		if sep == " || " {
			return noMatch
		}
		return ""
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// and combines two rendered expressions.
func and(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return "(" + a + ") && (" + b + ")"
}

func quote(v string) string {
	return "`" + strings.ReplaceAll(v, "`", "") + "`"
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return strings.Join(quoted, ",")
}
