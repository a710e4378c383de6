package policy

import (
	"fmt"
	"strings"
)

// ParseError describes why a retention policy could not be parsed.
type ParseError struct {
	// Input is the full policy text.
	Input string

	// Clause is the offending clause, trimmed. Empty when the whole input is at fault.
	Clause string

	// Offset is the byte offset of the clause in Input.
	Offset int

	// Message describes the problem.
	Message string

	// Suggestion is an optional hint for fixing the clause.
	Suggestion string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("invalid retention policy %q: %s", e.Input, e.Message))
	if e.Clause != "" {
		sb.WriteString(fmt.Sprintf(" (clause %q at offset %d)", e.Clause, e.Offset))
	} else if e.Offset > 0 {
		sb.WriteString(fmt.Sprintf(" (at offset %d)", e.Offset))
	}
	if e.Suggestion != "" {
		sb.WriteString("; ")
		sb.WriteString(e.Suggestion)
	}
	return sb.String()
}

// suggestUnit proposes the closest known unit for an unknown one.
func suggestUnit(unknown string) string {
	best := ""
	minDistance := 1000
	for _, u := range knownUnits {
		if d := levenshteinDistance(strings.ToLower(unknown), u); d < minDistance {
			minDistance = d
			best = u
		}
	}
	if minDistance < 3 {
		return fmt.Sprintf("did you mean '%s'?", best)
	}
	return fmt.Sprintf("valid units: %s", strings.Join(knownUnits, ", "))
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
