package wal

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryDirectory is an in-memory SegmentDirectory. It is safe for
// concurrent use and implements Evictor.
type MemoryDirectory struct {
	mu       sync.RWMutex
	segments map[Version]SegmentInfo
}

// NewMemoryDirectory creates a directory holding the given segments.
func NewMemoryDirectory(segments ...SegmentInfo) *MemoryDirectory {
	d := &MemoryDirectory{segments: make(map[Version]SegmentInfo, len(segments))}
	for _, s := range segments {
		d.segments[s.Version] = s
	}
	return d
}

// Append adds the next segment. The version must directly follow the current
// highest version, or the directory must be empty.
func (d *MemoryDirectory) Append(info SegmentInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.segments) > 0 {
		hi := d.highestLocked()
		if info.Version != hi+1 {
			return fmt.Errorf("append version %d: expected %d", info.Version, hi+1)
		}
	}
	d.segments[info.Version] = info
	return nil
}

// Evict forgets a version.
func (d *MemoryDirectory) Evict(v Version) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.segments, v)
	return nil
}

// Segments returns all segments in ascending version order.
func (d *MemoryDirectory) Segments() []SegmentInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]SegmentInfo, 0, len(d.segments))
	for _, s := range d.segments {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// HighestVersion implements SegmentDirectory.
func (d *MemoryDirectory) HighestVersion() (Version, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.highestLocked(), nil
}

// LowestVersion implements SegmentDirectory.
func (d *MemoryDirectory) LowestVersion() (Version, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	lo := NoVersion
	for v := range d.segments {
		if lo == NoVersion || v < lo {
			lo = v
		}
	}
	return lo, nil
}

// PathFor implements SegmentDirectory.
func (d *MemoryDirectory) PathFor(v Version) (string, error) {
	s, err := d.get(v)
	return s.Path, err
}

// SizeOf implements SegmentDirectory.
func (d *MemoryDirectory) SizeOf(v Version) (int64, error) {
	s, err := d.get(v)
	return s.SizeBytes, err
}

// TransactionCount implements SegmentDirectory.
func (d *MemoryDirectory) TransactionCount(v Version) (int64, error) {
	s, err := d.get(v)
	return s.TxCount, err
}

// NewestTransactionTime implements SegmentDirectory.
func (d *MemoryDirectory) NewestTransactionTime(v Version) (time.Time, error) {
	s, err := d.get(v)
	return s.NewestTxTime, err
}

func (d *MemoryDirectory) get(v Version) (SegmentInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.segments[v]
	if !ok {
		return SegmentInfo{}, fmt.Errorf("version %d: %w", v, ErrSegmentNotFound)
	}
	return s, nil
}

func (d *MemoryDirectory) highestLocked() Version {
	hi := NoVersion
	for v := range d.segments {
		if v > hi {
			hi = v
		}
	}
	return hi
}
