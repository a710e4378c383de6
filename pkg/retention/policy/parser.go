package policy

import (
	"fmt"
	"math"
	"strings"
)

// Separator joins clauses of a composite policy.
const Separator = "+"

// knownUnits lists the units accepted after an amount, used for suggestions.
var knownUnits = []string{"files", "size", "txs", "entries", "hours", "days"}

var unitAliases = map[string]Unit{
	"files":   UnitFiles,
	"size":    UnitSize,
	"txs":     UnitTxs,
	"entries": UnitTxs,
	"hours":   UnitHours,
	"days":    UnitDays,
}

var literals = map[string]Unit{
	"keep_all":  UnitKeepAll,
	"true":      UnitKeepAll,
	"keep_none": UnitKeepNone,
	"false":     UnitKeepNone,
}

// Parse parses retention-policy text. It returns a *ParseError for any input
// that does not match the grammar.
func Parse(text string) (*Policy, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Input: text, Message: "policy is empty"}
	}

	p := &Policy{Source: text}
	offset := 0
	for _, raw := range strings.Split(text, Separator) {
		lead := len(raw) - len(strings.TrimLeft(raw, " \t"))
		clause, err := parseClause(text, strings.TrimSpace(raw), offset+lead)
		if err != nil {
			return nil, err
		}
		p.Clauses = append(p.Clauses, clause)
		offset += len(raw) + len(Separator)
	}

	return p, nil
}

func parseClause(input, text string, offset int) (Clause, error) {
	fail := func(format string, args ...any) *ParseError {
		return &ParseError{
			Input:   input,
			Clause:  text,
			Offset:  offset,
			Message: fmt.Sprintf(format, args...),
		}
	}

	if text == "" {
		return Clause{}, fail("empty clause")
	}

	if unit, ok := literals[strings.ToLower(text)]; ok {
		return Clause{Unit: unit, Text: text, Offset: offset}, nil
	}

	fields := strings.Fields(text)
	if len(fields) != 2 {
		perr := fail("expected \"<amount> <unit>\" or keep_all")
		if len(fields) == 1 {
			perr.Suggestion = "separate the amount from the unit with a space, e.g. '10 files'"
		}
		return Clause{}, perr
	}
	amountText, unitText := fields[0], fields[1]

	unit, ok := unitAliases[strings.ToLower(unitText)]
	if !ok {
		perr := fail("unknown unit %q", unitText)
		perr.Suggestion = suggestUnit(unitText)
		return Clause{}, perr
	}

	amount, err := parseAmount(amountText, unit)
	if err != nil {
		return Clause{}, fail("invalid amount %q: %v", amountText, err)
	}

	return Clause{
		Unit:   unit,
		Amount: amount,
		Text:   amountText + " " + strings.ToLower(unitText),
		Offset: offset,
	}, nil
}

// parseAmount parses a positive integer with an optional k/m/g suffix.
func parseAmount(text string, unit Unit) (int64, error) {
	if text[0] < '0' || text[0] > '9' {
		return 0, fmt.Errorf("not a number")
	}

	digits := text
	multiplier := int64(1)

	if last := text[len(text)-1]; last < '0' || last > '9' {
		if unit.IsTime() {
			return 0, fmt.Errorf("%s take no suffix", unit)
		}
		base := int64(1000)
		if unit == UnitSize {
			base = 1024
		}
		switch last {
		case 'k', 'K':
			multiplier = base
		case 'm', 'M':
			multiplier = base * base
		case 'g', 'G':
			multiplier = base * base * base
		default:
			return 0, fmt.Errorf("unknown suffix %q", string(last))
		}
		digits = text[:len(text)-1]
	}

	if digits == "" {
		return 0, fmt.Errorf("missing number")
	}

	var n int64
	for _, ch := range digits {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("not a number")
		}
		d := int64(ch - '0')
		if n > (math.MaxInt64-d)/10 {
			return 0, fmt.Errorf("out of range")
		}
		n = n*10 + d
	}

	if n == 0 {
		return 0, fmt.Errorf("must be positive")
	}
	if n > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("out of range")
	}
	n *= multiplier

	// Durations are stored as int64 nanoseconds.
	if unit.IsTime() {
		per := timeUnitNanos(unit)
		if n > math.MaxInt64/per {
			return 0, fmt.Errorf("out of range")
		}
	}

	return n, nil
}

func timeUnitNanos(unit Unit) int64 {
	if unit == UnitDays {
		return 24 * 3600 * 1e9
	}
	return 3600 * 1e9
}
