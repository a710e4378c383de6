package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/walkeeper/pkg/retention/strategy"
	"mercator-hq/walkeeper/pkg/telemetry/logging"
	"mercator-hq/walkeeper/pkg/telemetry/metrics"
	"mercator-hq/walkeeper/pkg/telemetry/tracing"
	"mercator-hq/walkeeper/pkg/wal"
)

// Config wires an Engine to its collaborators.
type Config struct {
	// Policy is the initial retention policy text. Required.
	Policy string

	// Directory lists the existing segments. Required. If it implements
	// wal.Evictor, deleted versions are evicted from it.
	Directory wal.SegmentDirectory

	// Floor reports the lowest version recovery needs. Required.
	Floor wal.RecoveryFloor

	// FS deletes segment files. Defaults to wal.OSFileSystem.
	FS wal.FileSystem

	// Clock drives age-based strategies. Defaults to the system clock.
	Clock wal.Clock

	// Compiler turns policy text into strategies. Defaults to a
	// strategy.Factory over Directory and Clock.
	Compiler strategy.Compiler

	// Archiver, when set, stores each segment before it is deleted.
	Archiver Archiver

	// Metrics records pass and policy metrics. Optional.
	Metrics *metrics.Collector

	// Tracer creates a span per pass. Optional.
	Tracer trace.Tracer

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnChange is called after a new policy takes effect.
	OnChange func(previous, current string)
}

// Snapshot is the active strategy together with its description. A snapshot
// is immutable; Apply replaces it as a whole.
type Snapshot struct {
	Strategy    strategy.Strategy
	Description string
	AppliedAt   time.Time
}

// Result describes one prune pass.
type Result struct {
	PassID string `json:"pass_id"`

	// Boundary is the exclusive upper bound the caller supplied.
	Boundary wal.Version `json:"boundary"`

	// EffectiveBoundary is min(Boundary, Floor).
	EffectiveBoundary wal.Version `json:"effective_boundary"`

	// Floor is the lowest version recovery required during the pass.
	Floor wal.Version `json:"floor"`

	// Deleted lists the removed versions in deletion order.
	Deleted []wal.Version `json:"deleted"`

	// Clamped lists candidates withheld because recovery still needs them.
	Clamped []wal.Version `json:"clamped,omitempty"`

	// Strategy is the description of the policy the pass ran with.
	Strategy string `json:"strategy"`

	Duration time.Duration `json:"duration_ns"`
}

// Engine applies a retention policy to a segment directory.
type Engine struct {
	dir      wal.SegmentDirectory
	floor    wal.RecoveryFloor
	fs       wal.FileSystem
	compiler strategy.Compiler
	archiver Archiver
	metrics  *metrics.Collector
	tracer   trace.Tracer
	logger   *slog.Logger
	onChange func(previous, current string)

	current atomic.Pointer[Snapshot]

	// applyMu orders policy applications; readers use current without it.
	applyMu sync.Mutex

	// passMu serializes prune passes from candidate selection to the last deletion.
	passMu sync.Mutex
}

// NewEngine creates an engine and compiles the initial policy.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Directory == nil {
		return nil, errors.New("retention engine requires a segment directory")
	}
	if cfg.Floor == nil {
		return nil, errors.New("retention engine requires a recovery floor")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = wal.NewSystemClock()
	}
	fs := cfg.FS
	if fs == nil {
		fs = wal.OSFileSystem{}
	}
	compiler := cfg.Compiler
	if compiler == nil {
		compiler = strategy.NewFactory(cfg.Directory, clock)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(tracing.InstrumentationName)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		dir:      cfg.Directory,
		floor:    cfg.Floor,
		fs:       fs,
		compiler: compiler,
		archiver: cfg.Archiver,
		metrics:  cfg.Metrics,
		tracer:   tracer,
		logger:   logger.With("component", "retention.engine"),
		onChange: cfg.OnChange,
	}

	s, desc, err := compiler.Compile(cfg.Policy)
	if err != nil {
		e.metrics.RecordPolicyApplied("", "", err)
		return nil, fmt.Errorf("initial retention policy: %w", err)
	}
	e.current.Store(&Snapshot{Strategy: s, Description: desc, AppliedAt: time.Now()})
	e.metrics.RecordPolicyApplied("", desc, nil)

	e.logger.Info("retention engine started", "policy", desc)
	return e, nil
}

// Apply compiles text and, on success, makes it the active policy. On
// failure the previous policy stays in effect and the compile error is
// returned; a malformed policy yields a *policy.ParseError in the chain.
func (e *Engine) Apply(text string) error {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	previous := e.current.Load()

	s, desc, err := e.compiler.Compile(text)
	if err != nil {
		e.metrics.RecordPolicyApplied(previous.Description, "", err)
		e.logger.Warn("retention policy rejected",
			"policy", text,
			"current", previous.Description,
			"error", err,
		)
		return fmt.Errorf("apply retention policy: %w", err)
	}

	e.current.Store(&Snapshot{Strategy: s, Description: desc, AppliedAt: time.Now()})
	e.metrics.RecordPolicyApplied(previous.Description, desc, nil)
	e.logger.Info("retention policy changed", "old", previous.Description, "new", desc)

	if e.onChange != nil {
		e.onChange(previous.Description, desc)
	}
	return nil
}

// Snapshot returns the active policy.
func (e *Engine) Snapshot() Snapshot {
	return *e.current.Load()
}

// DescribeCurrentStrategy returns the description of the active policy.
func (e *Engine) DescribeCurrentStrategy() string {
	return e.current.Load().Description
}

// MightHaveLogsToPrune reports whether the active strategy offers any
// version below upTo. It deletes nothing and ignores the recovery floor.
// A strategy error is logged and reported as false.
func (e *Engine) MightHaveLogsToPrune(upTo wal.Version) bool {
	candidates, err := e.current.Load().Strategy.Candidates(upTo)
	if err != nil {
		e.logger.Warn("cannot evaluate retention strategy", "boundary", upTo, "error", err)
		return false
	}
	return len(candidates) > 0
}

// PruneLogs deletes the segments the active policy selects below upTo,
// oldest first, never touching a version the recovery floor still needs.
// The context is checked once before the pass starts; a started pass runs
// to completion or to its first failure. Failures are reported as
// *DeletionError, and the returned Result lists what was deleted before it.
func (e *Engine) PruneLogs(ctx context.Context, upTo wal.Version) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.passMu.Lock()
	defer e.passMu.Unlock()

	snap := e.current.Load()
	passID := uuid.NewString()
	start := time.Now()

	ctx = logging.WithPassID(ctx, passID)
	ctx, span := e.tracer.Start(ctx, "retention.prune",
		tracing.PassStartAttributes(passID, snap.Description, int64(upTo)))
	defer span.End()

	result := &Result{
		PassID:            passID,
		Boundary:          upTo,
		EffectiveBoundary: upTo,
		Floor:             wal.NoVersion,
		Strategy:          snap.Description,
	}

	candidates, err := e.prune(ctx, snap, result)
	result.Duration = time.Since(start)

	tracing.SetPassResult(span, int64(result.Floor), candidates, len(result.Deleted), len(result.Clamped))
	tracing.SetError(span, err)

	if err != nil {
		e.metrics.RecordPass(metrics.OutcomeFailed, result.Duration)
		e.logger.ErrorContext(ctx, "prune pass failed",
			"boundary", upTo,
			"deleted", len(result.Deleted),
			"error", err,
		)
		return result, err
	}

	e.metrics.RecordPass(metrics.OutcomeCompleted, result.Duration)
	if len(result.Deleted) > 0 {
		e.logger.InfoContext(ctx, "prune pass completed",
			"boundary", upTo,
			"floor", result.Floor,
			"deleted", len(result.Deleted),
			"duration", result.Duration,
		)
	} else {
		e.logger.DebugContext(ctx, "prune pass completed, nothing deleted", "boundary", upTo)
	}
	return result, nil
}

// Plan is the outcome of candidate selection for one boundary.
type Plan struct {
	Boundary          wal.Version   `json:"boundary"`
	EffectiveBoundary wal.Version   `json:"effective_boundary"`
	Floor             wal.Version   `json:"floor"`
	Candidates        []wal.Version `json:"candidates"`
	Selected          []wal.Version `json:"selected"`
	Clamped           []wal.Version `json:"clamped,omitempty"`
	Strategy          string        `json:"strategy"`
}

// Plan reports what a pass with boundary upTo would delete right now,
// without deleting anything.
func (e *Engine) Plan(upTo wal.Version) (*Plan, error) {
	return e.plan(e.current.Load(), upTo)
}

func (e *Engine) plan(snap *Snapshot, upTo wal.Version) (*Plan, error) {
	p := &Plan{
		Boundary:          upTo,
		EffectiveBoundary: upTo,
		Floor:             wal.NoVersion,
		Strategy:          snap.Description,
	}

	candidates, err := snap.Strategy.Candidates(upTo)
	if err != nil {
		return p, fmt.Errorf("select candidates: %w", err)
	}
	p.Candidates = candidates

	floor, err := e.floor.LowestRequiredVersion()
	if err != nil {
		return p, fmt.Errorf("read recovery floor: %w", err)
	}
	p.Floor = floor
	if floor < p.EffectiveBoundary {
		p.EffectiveBoundary = floor
	}

	lowest, err := e.dir.LowestVersion()
	if err != nil {
		return p, fmt.Errorf("lowest version: %w", err)
	}

	for _, v := range candidates {
		switch {
		case lowest == wal.NoVersion || v < lowest:
			// already deleted by an earlier pass
		case v >= p.EffectiveBoundary:
			p.Clamped = append(p.Clamped, v)
		default:
			p.Selected = append(p.Selected, v)
		}
	}
	return p, nil
}

// prune selects and deletes within a pass and returns the candidate count.
func (e *Engine) prune(ctx context.Context, snap *Snapshot, result *Result) (int, error) {
	p, err := e.plan(snap, result.Boundary)
	result.Floor = p.Floor
	result.EffectiveBoundary = p.EffectiveBoundary
	result.Clamped = p.Clamped
	if err != nil {
		return len(p.Candidates), err
	}

	if len(p.Clamped) > 0 {
		e.metrics.RecordClamped(len(p.Clamped))
		e.logger.DebugContext(ctx, "candidates withheld by recovery floor",
			"floor", p.Floor,
			"boundary", p.Boundary,
			"clamped", len(p.Clamped),
			"first", p.Clamped[0],
		)
	}

	span := trace.SpanFromContext(ctx)
	for _, v := range p.Selected {
		deleted, err := e.remove(ctx, v)
		if deleted {
			result.Deleted = append(result.Deleted, v)
			tracing.AddSegmentEvent(span, "deleted", int64(v))
		}
		if err != nil {
			var derr *DeletionError
			if errors.As(err, &derr) {
				e.metrics.RecordDeletionFailure(derr.Stage)
			}
			e.logger.ErrorContext(ctx, "segment deletion failed", "version", v, "error", err)
			return len(p.Candidates), err
		}
	}

	e.recordVersions(p.Floor)
	return len(p.Candidates), nil
}

// remove archives, deletes and evicts one segment. deleted reports whether
// the segment file is gone, which holds even when eviction then fails.
func (e *Engine) remove(ctx context.Context, v wal.Version) (deleted bool, err error) {
	path, err := e.dir.PathFor(v)
	if err != nil {
		return false, &DeletionError{Version: v, Stage: StageResolve, Cause: err}
	}

	// Size is informational; a directory that cannot report it still prunes.
	size, err := e.dir.SizeOf(v)
	if err != nil {
		size = 0
	}

	if e.archiver != nil {
		dst, err := e.archiver.Archive(ctx, v, path)
		if err != nil {
			return false, &DeletionError{Version: v, Path: path, Stage: StageArchive, Cause: err}
		}
		if dst != "" {
			e.metrics.RecordArchived(e.archiver.Codec())
			e.logger.DebugContext(ctx, "segment archived", "version", v, "archive", dst)
		}
	}

	if err := e.fs.Delete(path); err != nil {
		return false, &DeletionError{Version: v, Path: path, Stage: StageDelete, Cause: err}
	}
	e.metrics.RecordDeleted(size)
	e.logger.InfoContext(ctx, "segment deleted", "version", v, "path", path)

	if ev, ok := e.dir.(wal.Evictor); ok {
		if err := ev.Evict(v); err != nil {
			return true, &DeletionError{Version: v, Path: path, Stage: StageEvict, Cause: err}
		}
	}
	return true, nil
}

func (e *Engine) recordVersions(floor wal.Version) {
	if e.metrics == nil {
		return
	}
	lowest, err := e.dir.LowestVersion()
	if err != nil {
		return
	}
	highest, err := e.dir.HighestVersion()
	if err != nil {
		return
	}
	e.metrics.SetVersions(int64(lowest), int64(highest), int64(floor))
}
