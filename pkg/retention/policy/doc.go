// Package policy parses retention-policy text into clauses.
//
// # Grammar
//
// A policy is one or more clauses joined by '+':
//
//	policy  = clause { "+" clause }
//	clause  = literal | amount " " unit
//	literal = "keep_all" | "true" | "keep_none" | "false"
//	amount  = digits [ "k" | "m" | "g" ]
//	unit    = "files" | "size" | "txs" | "entries" | "hours" | "days"
//
// Examples:
//
//	keep_all
//	10 files
//	250M size
//	100k txs
//	7 days+10 files
//
// Size suffixes are binary (250M is 250 MiB). Count suffixes are decimal
// (100k txs is 100000 transactions). Time units accept no suffix.
//
// # Errors
//
// Parsing is total: any clause that does not match the grammar produces a
// [*ParseError] naming the clause and its byte offset. There is no fallback
// to a default policy. Unknown units carry a suggestion:
//
//	_, err := policy.Parse("10 filez")
//	// invalid retention policy "10 filez": unknown unit "filez" (clause "10 filez" at offset 0); did you mean 'files'?
package policy
