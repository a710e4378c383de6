// Package strategy implements retention strategies: rules that decide which
// WAL versions below a boundary are safe to delete.
//
// Every strategy answers one question through [Strategy.Candidates]: given an
// exclusive upper bound, which existing versions may go? Answers are computed
// fresh on every call from the [wal.SegmentDirectory], never cached, because
// segments come and go between calls.
//
// The [Factory] compiles retention-policy text (see package policy) into a
// strategy. A policy with several clauses becomes a [Composite] that only
// offers a version when every clause offers it.
package strategy
