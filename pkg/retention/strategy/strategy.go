package strategy

import (
	"fmt"
	"strings"
	"time"

	"mercator-hq/walkeeper/pkg/wal"
)

// Strategy selects versions that may be deleted.
type Strategy interface {
	// Candidates returns, in ascending order, the existing versions strictly
	// below upTo that the strategy allows to delete.
	Candidates(upTo wal.Version) ([]wal.Version, error)

	// String describes the strategy.
	String() string
}

// KeepAll never offers anything for deletion.
type KeepAll struct{}

// Candidates implements Strategy.
func (KeepAll) Candidates(wal.Version) ([]wal.Version, error) { return nil, nil }

func (KeepAll) String() string { return "keep_all" }

// KeepFiles retains the n newest segments below the boundary.
type KeepFiles struct {
	dir wal.SegmentDirectory
	n   int64
}

// NewKeepFiles creates a strategy retaining n segments.
func NewKeepFiles(dir wal.SegmentDirectory, n int64) *KeepFiles {
	return &KeepFiles{dir: dir, n: n}
}

// Candidates implements Strategy.
func (s *KeepFiles) Candidates(upTo wal.Version) ([]wal.Version, error) {
	lo, hi, ok, err := bounds(s.dir, upTo)
	if err != nil || !ok {
		return nil, err
	}
	oldestKept := hi - wal.Version(s.n) + 1
	if oldestKept <= lo {
		return nil, nil
	}
	return versionRange(lo, oldestKept), nil
}

func (s *KeepFiles) String() string { return fmt.Sprintf("%d files", s.n) }

// KeepSize retains segments, newest first, until their cumulative size
// exceeds a byte limit. The segment that crosses the limit is retained.
type KeepSize struct {
	dir   wal.SegmentDirectory
	limit int64
}

// NewKeepSize creates a strategy retaining limit bytes of segments.
func NewKeepSize(dir wal.SegmentDirectory, limit int64) *KeepSize {
	return &KeepSize{dir: dir, limit: limit}
}

// Candidates implements Strategy.
func (s *KeepSize) Candidates(upTo wal.Version) ([]wal.Version, error) {
	return walkNewestFirst(s.dir, upTo, func(v wal.Version, total *int64) (bool, error) {
		size, err := s.dir.SizeOf(v)
		if err != nil {
			return false, err
		}
		*total += size
		return *total > s.limit, nil
	})
}

func (s *KeepSize) String() string { return fmt.Sprintf("%d bytes", s.limit) }

// KeepTransactions retains the segments holding the n most recent transactions.
type KeepTransactions struct {
	dir wal.SegmentDirectory
	n   int64
}

// NewKeepTransactions creates a strategy retaining n transactions.
func NewKeepTransactions(dir wal.SegmentDirectory, n int64) *KeepTransactions {
	return &KeepTransactions{dir: dir, n: n}
}

// Candidates implements Strategy.
func (s *KeepTransactions) Candidates(upTo wal.Version) ([]wal.Version, error) {
	return walkNewestFirst(s.dir, upTo, func(v wal.Version, total *int64) (bool, error) {
		count, err := s.dir.TransactionCount(v)
		if err != nil {
			return false, err
		}
		*total += count
		return *total >= s.n, nil
	})
}

func (s *KeepTransactions) String() string { return fmt.Sprintf("%d txs", s.n) }

// KeepAge retains segments whose newest transaction is younger than maxAge.
type KeepAge struct {
	dir    wal.SegmentDirectory
	clock  wal.Clock
	maxAge time.Duration
}

// NewKeepAge creates a strategy retaining segments for maxAge.
func NewKeepAge(dir wal.SegmentDirectory, clock wal.Clock, maxAge time.Duration) *KeepAge {
	return &KeepAge{dir: dir, clock: clock, maxAge: maxAge}
}

// Candidates implements Strategy.
func (s *KeepAge) Candidates(upTo wal.Version) ([]wal.Version, error) {
	lo, hi, ok, err := bounds(s.dir, upTo)
	if err != nil || !ok {
		return nil, err
	}

	// Newest-transaction times grow with the version, so expired segments
	// form a prefix. A segment with no recorded commit time has an unknown
	// age and ends the prefix.
	now := s.clock.Nanos()
	end := lo
	for v := lo; v <= hi; v++ {
		newest, err := s.dir.NewestTransactionTime(v)
		if err != nil {
			return nil, err
		}
		if newest.IsZero() || now-newest.UnixNano() <= s.maxAge.Nanoseconds() {
			break
		}
		end = v + 1
	}
	return versionRange(lo, end), nil
}

func (s *KeepAge) String() string { return FormatDuration(s.maxAge) }

// Composite offers a version only when every child offers it.
type Composite struct {
	children []Strategy
}

// NewComposite combines strategies under intersection.
func NewComposite(children ...Strategy) *Composite {
	return &Composite{children: children}
}

// Children returns the combined strategies in declared order.
func (c *Composite) Children() []Strategy {
	return c.children
}

// Candidates implements Strategy.
func (c *Composite) Candidates(upTo wal.Version) ([]wal.Version, error) {
	if len(c.children) == 0 {
		return nil, nil
	}

	result, err := c.children[0].Candidates(upTo)
	if err != nil {
		return nil, err
	}
	for _, child := range c.children[1:] {
		if len(result) == 0 {
			return nil, nil
		}
		next, err := child.Candidates(upTo)
		if err != nil {
			return nil, err
		}
		result = intersect(result, next)
	}
	return result, nil
}

func (c *Composite) String() string {
	parts := make([]string, len(c.children))
	for i, child := range c.children {
		parts[i] = child.String()
	}
	return strings.Join(parts, "+")
}

// bounds returns the range of existing versions below upTo.
func bounds(dir wal.SegmentDirectory, upTo wal.Version) (lo, hi wal.Version, ok bool, err error) {
	lo, err = dir.LowestVersion()
	if err != nil {
		return 0, 0, false, fmt.Errorf("lowest version: %w", err)
	}
	hi, err = dir.HighestVersion()
	if err != nil {
		return 0, 0, false, fmt.Errorf("highest version: %w", err)
	}
	if lo == wal.NoVersion || hi == wal.NoVersion {
		return 0, 0, false, nil
	}
	if upTo-1 < hi {
		hi = upTo - 1
	}
	return lo, hi, hi >= lo, nil
}

// walkNewestFirst visits versions from the newest below upTo downward. When
// reached reports true for a version, that version is retained and every
// older version is returned.
func walkNewestFirst(dir wal.SegmentDirectory, upTo wal.Version, reached func(v wal.Version, total *int64) (bool, error)) ([]wal.Version, error) {
	lo, hi, ok, err := bounds(dir, upTo)
	if err != nil || !ok {
		return nil, err
	}

	var total int64
	for v := hi; v >= lo; v-- {
		done, err := reached(v, &total)
		if err != nil {
			return nil, err
		}
		if done {
			return versionRange(lo, v), nil
		}
	}
	return nil, nil
}

// versionRange returns [from, to).
func versionRange(from, to wal.Version) []wal.Version {
	if to <= from {
		return nil
	}
	out := make([]wal.Version, 0, to-from)
	for v := from; v < to; v++ {
		out = append(out, v)
	}
	return out
}

// intersect merges two ascending slices.
func intersect(a, b []wal.Version) []wal.Version {
	var out []wal.Version
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
