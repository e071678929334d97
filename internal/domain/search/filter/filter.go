// Package filter builds the backend's OData-style filter expressions.
package filter

import (
	"fmt"
	"strings"
)

// Condition is a single equality clause over an index field.
type Condition struct {
	key     string
	value   string
	numeric bool
}

// Eq creates a string equality condition. The value is escaped when the
// expression is rendered.
func Eq(key, value string) Condition {
	return Condition{key: key, value: value}
}

// EqInt creates a numeric equality condition.
func EqInt(key string, value int) Condition {
	return Condition{key: key, value: fmt.Sprintf("%d", value), numeric: true}
}

// Expression is a conjunction of equality conditions. The zero value
// renders to the empty string, meaning no filter is sent at all.
type Expression struct {
	conds []Condition
}

// New creates an Expression from the given conditions. Conditions with an
// empty key are dropped.
func New(conds ...Condition) Expression {
	kept := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c.key != "" {
			kept = append(kept, c)
		}
	}
	return Expression{conds: kept}
}

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conds) == 0 }

// And returns a new expression with the condition appended.
func (e Expression) And(c Condition) Expression {
	out := Expression{conds: make([]Condition, 0, len(e.conds)+1)}
	out.conds = append(out.conds, e.conds...)
	if c.key != "" {
		out.conds = append(out.conds, c)
	}
	return out
}

// String renders the expression in the backend's filter syntax, joining
// conditions with "and". String values are quoted and escaped; doubling
// embedded single quotes is what keeps a malicious value from altering
// the expression structure.
func (e Expression) String() string {
	if len(e.conds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.conds))
	for _, c := range e.conds {
		if c.numeric {
			parts = append(parts, fmt.Sprintf("%s eq %s", c.key, c.value))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s eq '%s'", c.key, Escape(c.value)))
	}
	return strings.Join(parts, " and ")
}

// Escape doubles embedded single quotes for safe embedding inside a
// quoted filter literal.
func Escape(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
