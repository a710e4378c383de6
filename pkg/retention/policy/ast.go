package policy

import (
	"strings"
	"time"
)

// Unit is the measure a clause retains by.
type Unit string

const (
	UnitKeepAll  Unit = "keep_all"
	UnitKeepNone Unit = "keep_none"
	UnitFiles    Unit = "files"
	UnitSize     Unit = "size"
	UnitTxs      Unit = "txs"
	UnitHours    Unit = "hours"
	UnitDays     Unit = "days"
)

// IsTime reports whether the unit is an age unit.
func (u Unit) IsTime() bool {
	return u == UnitHours || u == UnitDays
}

// Clause is one parsed retention rule.
type Clause struct {
	// Unit is the measure this clause retains by.
	Unit Unit

	// Amount is the threshold after suffix expansion. Zero for literals.
	Amount int64

	// Text is the canonical rendering of the clause, keeping the amount as written.
	Text string

	// Offset is the byte offset of the clause in the source text.
	Offset int
}

// Duration returns the age threshold of a time clause.
func (c Clause) Duration() time.Duration {
	switch c.Unit {
	case UnitHours:
		return time.Duration(c.Amount) * time.Hour
	case UnitDays:
		return time.Duration(c.Amount) * 24 * time.Hour
	default:
		return 0
	}
}

// Policy is a parsed retention policy.
type Policy struct {
	// Source is the text the policy was parsed from.
	Source string

	// Clauses in declared order.
	Clauses []Clause
}

// String returns the canonical description: clauses joined by '+'.
func (p *Policy) String() string {
	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		parts[i] = c.Text
	}
	return strings.Join(parts, "+")
}
