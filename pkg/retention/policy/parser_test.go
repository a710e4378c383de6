package policy

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParse_ValidPolicies(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantUnits   []Unit
		wantAmounts []int64
		wantString  string
	}{
		{"keep all", "keep_all", []Unit{UnitKeepAll}, []int64{0}, "keep_all"},
		{"true literal", "true", []Unit{UnitKeepAll}, []int64{0}, "true"},
		{"keep none", "keep_none", []Unit{UnitKeepNone}, []int64{0}, "keep_none"},
		{"files", "10 files", []Unit{UnitFiles}, []int64{10}, "10 files"},
		{"size binary suffix", "250M size", []Unit{UnitSize}, []int64{250 << 20}, "250M size"},
		{"size kilo", "512k size", []Unit{UnitSize}, []int64{512 << 10}, "512k size"},
		{"txs", "100000 txs", []Unit{UnitTxs}, []int64{100000}, "100000 txs"},
		{"txs decimal suffix", "100k txs", []Unit{UnitTxs}, []int64{100000}, "100k txs"},
		{"entries alias", "500 entries", []Unit{UnitTxs}, []int64{500}, "500 entries"},
		{"hours", "24 hours", []Unit{UnitHours}, []int64{24}, "24 hours"},
		{"days", "7 days", []Unit{UnitDays}, []int64{7}, "7 days"},
		{"composite", "7 days+10 files", []Unit{UnitDays, UnitFiles}, []int64{7, 10}, "7 days+10 files"},
		{"composite with spaces", "  7 days +  10 files ", []Unit{UnitDays, UnitFiles}, []int64{7, 10}, "7 days+10 files"},
		{"upper case unit", "10 FILES", []Unit{UnitFiles}, []int64{10}, "10 files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if len(p.Clauses) != len(tt.wantUnits) {
				t.Fatalf("got %d clauses, want %d", len(p.Clauses), len(tt.wantUnits))
			}
			for i, c := range p.Clauses {
				if c.Unit != tt.wantUnits[i] {
					t.Errorf("clause %d unit = %q, want %q", i, c.Unit, tt.wantUnits[i])
				}
				if c.Amount != tt.wantAmounts[i] {
					t.Errorf("clause %d amount = %d, want %d", i, c.Amount, tt.wantAmounts[i])
				}
			}
			if got := p.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
		})
	}
}

func TestParse_InvalidPolicies(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantClause string
		wantOffset int
		wantInMsg  string
	}{
		{"empty", "", "", 0, "policy is empty"},
		{"blank", "   ", "", 0, "policy is empty"},
		{"non numeric amount", "banana files", "banana files", 0, "not a number"},
		{"unknown unit", "10 filez", "10 filez", 0, "unknown unit"},
		{"unknown suffix", "10x size", "10x size", 0, "unknown suffix"},
		{"zero", "0 files", "0 files", 0, "must be positive"},
		{"negative", "-5 files", "-5 files", 0, "not a number"},
		{"suffix on time", "7k days", "7k days", 0, "take no suffix"},
		{"missing unit", "10", "10", 0, "expected"},
		{"glued unit", "10files", "10files", 0, "expected"},
		{"trailing separator", "10 files+", "", 9, "empty clause"},
		{"double separator", "7 days++10 files", "", 7, "empty clause"},
		{"unknown combinator", "7 days,10 files", "7 days,10 files", 0, "expected"},
		{"bad second clause", "7 days+ten files", "ten files", 7, "not a number"},
		{"overflow", "99999999999999999999 txs", "99999999999999999999 txs", 0, "out of range"},
		{"suffix overflow", "9999999999999G size", "9999999999999G size", 0, "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if perr.Clause != tt.wantClause {
				t.Errorf("Clause = %q, want %q", perr.Clause, tt.wantClause)
			}
			if perr.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", perr.Offset, tt.wantOffset)
			}
			if !strings.Contains(perr.Error(), tt.wantInMsg) {
				t.Errorf("Error() = %q, want it to contain %q", perr.Error(), tt.wantInMsg)
			}
		})
	}
}

func TestParse_UnknownUnitSuggestion(t *testing.T) {
	_, err := Parse("10 filez")

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Suggestion != "did you mean 'files'?" {
		t.Errorf("Suggestion = %q, want did you mean 'files'?", perr.Suggestion)
	}

	_, err = Parse("10 parsecs")
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if !strings.HasPrefix(perr.Suggestion, "valid units:") {
		t.Errorf("Suggestion = %q, want list of valid units", perr.Suggestion)
	}
}

func TestClause_Duration(t *testing.T) {
	p, err := Parse("36 hours+2 days")
	if err != nil {
		t.Fatal(err)
	}
	if d := p.Clauses[0].Duration(); d != 36*time.Hour {
		t.Errorf("hours duration = %v, want 36h", d)
	}
	if d := p.Clauses[1].Duration(); d != 48*time.Hour {
		t.Errorf("days duration = %v, want 48h", d)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"files", "files", 0},
		{"filez", "files", 1},
		{"", "txs", 3},
		{"day", "days", 1},
		{"hour", "hours", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
