// Package jql builds Jira filter expressions from typed clauses.
//
// Values are never interpolated raw: every literal is quoted and escaped, and
// free text used with the contains operator also has the text-search
// reserved characters escaped.
package jql

import (
	"strings"
	"unicode"
)

// Op is a clause operator.
type Op string

const (
	Equals   Op = "="
	Contains Op = "~"
	In       Op = "in"
)

// Clause is a single field predicate.
type Clause struct {
	Field  string
	Op     Op
	Values []string
}

// Value returns the first value, or "" when there is none.
func (c Clause) Value() string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0]
}

// String renders the clause.
func (c Clause) String() string {
	switch c.Op {
	case Contains:
		return c.Field + " ~ " + Text(c.Value())
	case In:
		quoted := make([]string, len(c.Values))
		for i, v := range c.Values {
			quoted[i] = Quote(v)
		}
		return c.Field + " in (" + strings.Join(quoted, ", ") + ")"
	default:
		return c.Field + " = " + Quote(c.Value())
	}
}

// Query is an AND-joined list of clauses.
type Query struct {
	clauses []Clause
}

// New returns an empty query.
func New() *Query {
	return &Query{}
}

// Eq adds `field = "value"`.
func (q *Query) Eq(field, value string) *Query {
	q.clauses = append(q.clauses, Clause{Field: field, Op: Equals, Values: []string{value}})
	return q
}

// Contains adds `field ~ "text"`.
func (q *Query) Contains(field, text string) *Query {
	q.clauses = append(q.clauses, Clause{Field: field, Op: Contains, Values: []string{text}})
	return q
}

// In adds `field in ("a", "b")`. Blank values are dropped and an empty set
// adds no clause.
func (q *Query) In(field string, values []string) *Query {
	var kept []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return q
	}
	q.clauses = append(q.clauses, Clause{Field: field, Op: In, Values: kept})
	return q
}

// Clauses returns a copy of the clauses in insertion order.
func (q *Query) Clauses() []Clause {
	out := make([]Clause, len(q.clauses))
	copy(out, q.clauses)
	return out
}

// String renders the query with AND between clauses.
func (q *Query) String() string {
	parts := make([]string, len(q.clauses))
	for i, c := range q.clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// Quote returns s as a JQL string literal. Backslashes and double quotes are
// escaped; control characters are dropped.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\' || r == '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// textReserved are the characters the text-search operator treats as syntax.
const textReserved = `+-&|!(){}[]^~*?\:`

// Text returns s as a literal for the contains operator: reserved search
// characters are backslash-escaped before quoting.
func Text(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(textReserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return Quote(b.String())
}
