package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestFileProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "restore")

	progress.Start(2)
	progress.Advance("neostore.transaction.db.0", 1024)
	progress.Advance("neostore.transaction.db.1", 2048)
	progress.Finish()

	out := buf.String()
	for _, want := range []string{"restore: 1/2 files", "neostore.transaction.db.1", "restore: 2/2 files, 3.0 KiB in"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%q", want, out)
		}
	}
}

func TestFileProgress_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "restore")

	progress.Start(0)
	progress.Finish()

	if got := buf.String(); !strings.HasPrefix(got, "\rrestore: 0/0 files") {
		t.Errorf("output = %q", got)
	}
}

func TestFileProgress_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "archive")

	progress.Start(3)
	progress.Advance("a", 10)
	progress.Error(errors.New("disk full"))

	if got := buf.String(); !strings.Contains(got, "archive failed after 1/3 files: disk full") {
		t.Errorf("output = %q", got)
	}
}

func TestFileProgress_Defaults(t *testing.T) {
	p := NewProgressReporter(nil, "").(*FileProgress)
	if p.writer == nil {
		t.Error("nil writer should default to stderr")
	}
	if p.verb != "progress" {
		t.Errorf("verb = %q, want %q", p.verb, "progress")
	}
}
