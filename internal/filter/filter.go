// Package filter is the backend-neutral boolean filter tree produced by the
// criteria compiler and evaluated by search backends.
package filter

import (
	"slices"
	"time"
)

// Node is one element of a filter tree.
type Node interface {
	node()
}

// Terms matches documents whose field holds any of Values. Multi-valued
// fields match when at least one value is listed.
type Terms struct {
	Field  string
	Values []string
}

// Flag matches a boolean field.
type Flag struct {
	Field string
	Value bool
}

// Range matches time fields. Nil bounds are open.
type Range struct {
	Field       string
	From        *time.Time
	To          *time.Time
	IncludeFrom bool
	IncludeTo   bool
}

// Exists matches documents holding at least one value for Field.
type Exists struct {
	Field string
}

type And struct {
	Nodes []Node
}

type Or struct {
	Nodes []Node
}

type Not struct {
	Node Node
}

type MatchAll struct{}

type MatchNone struct{}

func (Terms) node()     {}
func (Flag) node()      {}
func (Range) node()     {}
func (Exists) node()    {}
func (And) node()       {}
func (Or) node()        {}
func (Not) node()       {}
func (MatchAll) node()  {}
func (MatchNone) node() {}

func In(field string, values ...string) Node {
	return Terms{Field: field, Values: slices.Clone(values)}
}

func Is(field string, value bool) Node {
	return Flag{Field: field, Value: value}
}

func Has(field string) Node {
	return Exists{Field: field}
}

// AllOf returns the conjunction of nodes, simplified.
func AllOf(nodes ...Node) Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case nil, MatchAll:
			continue
		case MatchNone:
			return MatchNone{}
		case And:
			out = append(out, v.Nodes...)
		default:
			out = append(out, n)
		}
	}
	switch len(out) {
	case 0:
		return MatchAll{}
	case 1:
		return out[0]
	}
	return And{Nodes: out}
}

// AnyOf returns the disjunction of nodes, simplified. An empty disjunction
// matches nothing.
func AnyOf(nodes ...Node) Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case nil, MatchNone:
			continue
		case MatchAll:
			return MatchAll{}
		case Or:
			out = append(out, v.Nodes...)
		default:
			out = append(out, n)
		}
	}
	switch len(out) {
	case 0:
		return MatchNone{}
	case 1:
		return out[0]
	}
	return Or{Nodes: out}
}

func Negate(n Node) Node {
	switch v := n.(type) {
	case nil, MatchAll:
		return MatchNone{}
	case MatchNone:
		return MatchAll{}
	case Not:
		return v.Node
	}
	return Not{Node: n}
}
