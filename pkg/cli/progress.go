package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressReporter reports progress of a batch of file operations.
type ProgressReporter interface {
	// Start begins a batch of total items.
	Start(total int)
	// Advance records one finished item of size bytes.
	Advance(name string, size int64)
	// Finish ends the batch and prints a summary line.
	Finish()
	// Error reports the failure that ended the batch.
	Error(err error)
}

// FileProgress prints a single updating status line.
type FileProgress struct {
	mu      sync.Mutex
	writer  io.Writer
	verb    string
	total   int
	done    int
	bytes   uint64
	last    string
	started time.Time
}

// NewProgressReporter returns a reporter writing to w, labelled with verb
// ("restore", "archive"). A nil w writes to os.Stderr.
func NewProgressReporter(w io.Writer, verb string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	if verb == "" {
		verb = "progress"
	}
	return &FileProgress{writer: w, verb: verb}
}

func (p *FileProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.bytes = 0
	p.last = ""
	p.started = time.Now()
	p.render()
}

func (p *FileProgress) Advance(name string, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if size > 0 {
		p.bytes += uint64(size)
	}
	p.last = name
	p.render()
}

func (p *FileProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\r%s: %d/%d files, %s in %s\n",
		p.verb, p.done, p.total, humanize.IBytes(p.bytes), time.Since(p.started).Round(time.Millisecond))
}

func (p *FileProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n%s failed after %d/%d files: %v\n", p.verb, p.done, p.total, err)
}

func (p *FileProgress) render() {
	if p.total == 0 {
		return
	}

	var rate uint64
	if elapsed := time.Since(p.started).Seconds(); elapsed > 0 {
		rate = uint64(float64(p.bytes) / elapsed)
	}
	fmt.Fprintf(p.writer, "\r%s: %d/%d files, %s (%s/s) %s",
		p.verb, p.done, p.total, humanize.IBytes(p.bytes), humanize.IBytes(rate), p.last)
}
