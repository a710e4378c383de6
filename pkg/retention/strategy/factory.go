package strategy

import (
	"fmt"
	"time"

	"mercator-hq/walkeeper/pkg/retention/policy"
	"mercator-hq/walkeeper/pkg/wal"
)

// Compiler turns retention-policy text into a strategy and its description.
type Compiler interface {
	Compile(text string) (Strategy, string, error)
}

// Factory compiles retention policies against a segment directory and clock.
type Factory struct {
	dir   wal.SegmentDirectory
	clock wal.Clock
}

// NewFactory creates a factory. A nil clock defaults to the system clock.
func NewFactory(dir wal.SegmentDirectory, clock wal.Clock) *Factory {
	if clock == nil {
		clock = wal.NewSystemClock()
	}
	return &Factory{dir: dir, clock: clock}
}

// Compile parses text and builds the strategy it describes. The description
// is the canonical form of the policy. Parse failures are returned as
// *policy.ParseError.
func (f *Factory) Compile(text string) (Strategy, string, error) {
	p, err := policy.Parse(text)
	if err != nil {
		return nil, "", err
	}
	s, err := f.Build(p)
	if err != nil {
		return nil, "", err
	}
	return s, p.String(), nil
}

// Build creates the strategy for a parsed policy.
func (f *Factory) Build(p *policy.Policy) (Strategy, error) {
	if len(p.Clauses) == 0 {
		return nil, fmt.Errorf("policy %q has no clauses", p.Source)
	}

	strategies := make([]Strategy, 0, len(p.Clauses))
	for _, c := range p.Clauses {
		s, err := f.clause(c)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}

	if len(strategies) == 1 {
		return strategies[0], nil
	}
	return NewComposite(strategies...), nil
}

func (f *Factory) clause(c policy.Clause) (Strategy, error) {
	switch c.Unit {
	case policy.UnitKeepAll:
		return KeepAll{}, nil
	case policy.UnitKeepNone:
		return NewKeepFiles(f.dir, 1), nil
	case policy.UnitFiles:
		return NewKeepFiles(f.dir, c.Amount), nil
	case policy.UnitSize:
		return NewKeepSize(f.dir, c.Amount), nil
	case policy.UnitTxs:
		return NewKeepTransactions(f.dir, c.Amount), nil
	case policy.UnitHours, policy.UnitDays:
		return NewKeepAge(f.dir, f.clock, c.Duration()), nil
	default:
		return nil, fmt.Errorf("unsupported retention unit %q", c.Unit)
	}
}

// FormatDuration renders d compactly, largest unit first: 1d2h3m, 45s, 0ns.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0ns"
	}

	units := []struct {
		suffix string
		size   time.Duration
	}{
		{"d", 24 * time.Hour},
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
		{"ms", time.Millisecond},
		{"µs", time.Microsecond},
		{"ns", time.Nanosecond},
	}

	out := ""
	for _, u := range units {
		if n := d / u.size; n > 0 {
			out += fmt.Sprintf("%d%s", n, u.suffix)
			d -= n * u.size
		}
	}
	return out
}
