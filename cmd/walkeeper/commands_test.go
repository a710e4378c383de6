package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mercator-hq/walkeeper/pkg/cli"
	"mercator-hq/walkeeper/pkg/config"
	"mercator-hq/walkeeper/pkg/retention"
)

const testPrefix = "neostore.transaction.db"

// testEnv is a config file plus five segment files 0..4 on disk.
type testEnv struct {
	dir     string
	walDir  string
	cfgPath string
}

func newTestEnv(t *testing.T, policy string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:     dir,
		walDir:  filepath.Join(dir, "wal"),
		cfgPath: filepath.Join(dir, "walkeeper.yaml"),
	}
	if err := os.MkdirAll(env.walDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for v := 0; v < 5; v++ {
		name := filepath.Join(env.walDir, fmt.Sprintf("%s.%d", testPrefix, v))
		if err := os.WriteFile(name, bytes.Repeat([]byte{'x'}, 100), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := fmt.Sprintf(`retention:
  policy: %q
  schedule: ""
segments:
  directory: %s
  catalog:
    driver: sqlite
    path: %s
checkpoint:
  path: %s
telemetry:
  logging:
    level: error
  metrics:
    enabled: false
`, policy, env.walDir, filepath.Join(dir, "segments.db"), filepath.Join(dir, "checkpoint.yaml"))
	if err := os.WriteFile(env.cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

// run executes the root command with args against the env's config.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config", e.cfgPath}, args...)...)
}

func (e *testEnv) segmentExists(v int) bool {
	_, err := os.Stat(filepath.Join(e.walDir, fmt.Sprintf("%s.%d", testPrefix, v)))
	return err == nil
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	_, err := rootCmd.ExecuteC()
	return out.String(), err
}

// resetFlags restores every flag to its default; cobra keeps flag state
// between executions of the same command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"run", "prune", "describe", "validate", "segments", "checkpoint", "restore", "version", "completion"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == rootCmd {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "walkeeper "+Version) {
		t.Errorf("output = %q, want version line", out)
	}
}

func TestValidatePolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		wantOut  string
		wantCode int
	}{
		{name: "single clause", policy: "7 days", wantOut: "policy valid: 7 days"},
		{name: "composite canonical", policy: "7 days + 10 files", wantOut: "policy valid: 7 days+10 files"},
		{name: "keep all", policy: "keep_all", wantOut: "policy valid: keep_all"},
		{name: "unknown unit", policy: "10 fils", wantCode: cli.ExitConfigError},
		{name: "zero amount", policy: "0 files", wantCode: cli.ExitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "validate", "--policy", tt.policy)
			if tt.wantCode != 0 {
				if err == nil {
					t.Fatal("expected error")
				}
				if code := cli.ExitCode(err); code != tt.wantCode {
					t.Errorf("ExitCode = %d, want %d", code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output = %q, want %q", out, tt.wantOut)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	env := newTestEnv(t, "2 files")

	out, err := env.run(t, "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, want := range []string{"configuration valid", "policy:   2 files", "on demand only"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateConfig_MissingExplicitFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "validate")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfigError {
		t.Errorf("ExitCode = %d, want %d", code, cli.ExitConfigError)
	}
}

func TestSegmentsScanListStats(t *testing.T) {
	env := newTestEnv(t, "2 files")

	out, err := env.run(t, "segments", "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "registered 5 segments") {
		t.Errorf("scan output = %q", out)
	}

	out, err = env.run(t, "segments", "list", "-o", "csv")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("list returned %d lines, want header + 5:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "VERSION,SIZE") {
		t.Errorf("header = %q", lines[0])
	}

	out, err = env.run(t, "segments", "stats", "-o", "json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats statsView
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, out)
	}
	if stats.Segments != 5 || stats.SizeBytes != 500 || stats.Range != "0-4" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSegmentsRegister_RejectsGap(t *testing.T) {
	env := newTestEnv(t, "2 files")
	if _, err := env.run(t, "segments", "scan"); err != nil {
		t.Fatal(err)
	}

	_, err := env.run(t, "segments", "register", "--version", "9", "--path", "x")
	if err == nil {
		t.Fatal("expected error registering a non-contiguous version")
	}
}

func TestCheckpointSetShow(t *testing.T) {
	env := newTestEnv(t, "2 files")

	if _, err := env.run(t, "checkpoint", "set", "3", "--tx", "1200"); err != nil {
		t.Fatalf("checkpoint set: %v", err)
	}
	out, err := env.run(t, "checkpoint", "show")
	if err != nil {
		t.Fatalf("checkpoint show: %v", err)
	}
	if !strings.Contains(out, "log version 3, transaction 1200") {
		t.Errorf("show output = %q", out)
	}

	_, err = env.run(t, "checkpoint", "set", "-2")
	if err == nil {
		t.Error("expected error for negative version")
	}
}

func TestPrune_RespectsPolicyAndFloor(t *testing.T) {
	env := newTestEnv(t, "2 files")
	if _, err := env.run(t, "segments", "scan"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.run(t, "checkpoint", "set", "1"); err != nil {
		t.Fatal(err)
	}

	// Boundary 4: strategy keeps 2 and 3, offers 0 and 1; the floor at 1 keeps 1.
	out, err := env.run(t, "prune", "--dry-run", "-o", "json")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	var plan struct {
		Selected []int64 `json:"selected"`
		Clamped  []int64 `json:"clamped"`
	}
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	if fmt.Sprint(plan.Selected) != "[0]" || fmt.Sprint(plan.Clamped) != "[1]" {
		t.Errorf("plan selected=%v clamped=%v, want [0] and [1]", plan.Selected, plan.Clamped)
	}
	if !env.segmentExists(0) {
		t.Fatal("dry run deleted a segment")
	}

	out, err = env.run(t, "prune")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(out, "deleted:   0") {
		t.Errorf("prune output = %q", out)
	}
	if env.segmentExists(0) {
		t.Error("segment 0 should be deleted")
	}
	for v := 1; v < 5; v++ {
		if !env.segmentExists(v) {
			t.Errorf("segment %d should be kept", v)
		}
	}

	out, err = env.run(t, "segments", "stats")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "versions 1-4") {
		t.Errorf("catalog not updated after prune: %q", out)
	}
}

func TestPrune_WithoutCheckpointDeletesNothing(t *testing.T) {
	env := newTestEnv(t, "1 files")
	if _, err := env.run(t, "segments", "scan"); err != nil {
		t.Fatal(err)
	}

	_, err := env.run(t, "prune")
	if err == nil {
		t.Fatal("expected error without a checkpoint marker")
	}
	for v := 0; v < 5; v++ {
		if !env.segmentExists(v) {
			t.Errorf("segment %d deleted without a recovery floor", v)
		}
	}
}

func TestPrune_PolicyOverride(t *testing.T) {
	env := newTestEnv(t, "keep_all")
	if _, err := env.run(t, "segments", "scan"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.run(t, "checkpoint", "set", "4"); err != nil {
		t.Fatal(err)
	}

	if _, err := env.run(t, "prune", "--policy", "1 files", "--boundary", "3"); err != nil {
		t.Fatalf("prune: %v", err)
	}
	// Boundary 3 keeps version 2 as the newest eligible segment.
	for v, kept := range []bool{false, false, true, true, true} {
		if env.segmentExists(v) != kept {
			t.Errorf("segment %d exists = %v, want %v", v, !kept, kept)
		}
	}
}

func TestPrune_InvalidPolicyOverride(t *testing.T) {
	env := newTestEnv(t, "2 files")

	_, err := env.run(t, "prune", "--policy", "banana files")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfigError {
		t.Errorf("ExitCode = %d, want %d", code, cli.ExitConfigError)
	}
}

func TestDescribe(t *testing.T) {
	env := newTestEnv(t, "7 days + 2 files")
	if _, err := env.run(t, "segments", "scan"); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "describe")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	for _, want := range []string{"policy:   7 days+2 files", "rules:    7d, 2 files", "segments: 0-4", "floor:    unavailable"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDescribe_NormalizedRules(t *testing.T) {
	env := newTestEnv(t, "250M size")

	out, err := env.run(t, "describe", "-o", "json")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	var view describeView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if view.Policy != "250M size" || len(view.Rules) != 1 || view.Rules[0] != "262144000 bytes" {
		t.Errorf("policy = %q, rules = %v", view.Policy, view.Rules)
	}
}

func TestRestore(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "seg.7")
	if err := os.WriteFile(src, []byte("segment payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := newTestEnv(t, "2 files")
	archiveDir := filepath.Join(dir, "archive")
	restoreDir := filepath.Join(dir, "restored")

	archived, err := archiveWith(archiveDir, src)
	if err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "restore", archived, "--to", restoreDir)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !strings.Contains(out, "restored 1 segments") {
		t.Errorf("output = %q", out)
	}
	got, err := os.ReadFile(filepath.Join(restoreDir, "seg.7"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "segment payload" {
		t.Errorf("restored content = %q", got)
	}

	_, err = env.run(t, "restore", archived, "--to", restoreDir)
	if err == nil {
		t.Error("restore should refuse to overwrite")
	}
	var cmdErr *cli.CommandError
	if !errors.As(err, &cmdErr) {
		t.Errorf("error = %T, want *cli.CommandError", err)
	}
}

func archiveWith(dir, src string) (string, error) {
	a, err := retention.NewFileArchiver(dir, retention.CodecZstd)
	if err != nil {
		return "", err
	}
	return a.Archive(context.Background(), 7, src)
}

func TestRunDryRun(t *testing.T) {
	env := newTestEnv(t, "12 hours+100M size")

	out, err := env.run(t, "run", "--dry-run", "--no-server")
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	if !strings.Contains(out, `policy "12 hours+100M size"`) {
		t.Errorf("output = %q", out)
	}
}

func TestPolicyReloader(t *testing.T) {
	env := newTestEnv(t, "2 files")
	cfg, err := config.LoadConfig(env.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	a, err := newApp(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	r := &policyReloader{engine: a.engine, applied: cfg.Retention.Policy, logger: a.logger}

	cfg.Retention.Policy = "3 days + 5 files"
	r.apply(cfg)
	if got := a.engine.DescribeCurrentStrategy(); got != "3 days+5 files" {
		t.Errorf("after reload: %q, want %q", got, "3 days+5 files")
	}

	cfg.Retention.Policy = "3 dayz"
	r.apply(cfg)
	if got := a.engine.DescribeCurrentStrategy(); got != "3 days+5 files" {
		t.Errorf("invalid reload replaced policy: %q", got)
	}
	if r.applied != "3 days + 5 files" {
		t.Errorf("applied = %q", r.applied)
	}
}

func TestConfiguredPolicyFollowsGlobalConfig(t *testing.T) {
	previous := config.GetConfig()
	t.Cleanup(func() { config.SetConfig(previous) })

	config.SetConfig(nil)
	if got := configuredPolicy(); got != "" {
		t.Errorf("configuredPolicy() = %q without a configuration", got)
	}

	cfg := config.Default()
	cfg.Retention.Policy = "2 days"
	config.SetConfig(cfg)
	if got := configuredPolicy(); got != "2 days" {
		t.Errorf("configuredPolicy() = %q, want %q", got, "2 days")
	}
}
