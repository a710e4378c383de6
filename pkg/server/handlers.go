package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mercator-hq/walkeeper/pkg/retention"
	"mercator-hq/walkeeper/pkg/retention/policy"
	"mercator-hq/walkeeper/pkg/wal"
)

// maxPolicyBytes bounds PUT /v1/retention/policy bodies.
const maxPolicyBytes = 64 << 10

// Engine is the part of retention.Engine the server drives.
type Engine interface {
	Snapshot() retention.Snapshot
	MightHaveLogsToPrune(upTo wal.Version) bool
	PruneLogs(ctx context.Context, upTo wal.Version) (*retention.Result, error)
	Apply(text string) error
}

// Scheduler reports the periodic pass state. Optional.
type Scheduler interface {
	NextRun() *time.Time
	LastResult() *retention.Result
}

// RetentionStatus is the body of GET /v1/retention.
type RetentionStatus struct {
	Policy               string            `json:"policy"`
	ConfiguredPolicy     string            `json:"configured_policy,omitempty"`
	AppliedAt            time.Time         `json:"applied_at"`
	LowestVersion        wal.Version       `json:"lowest_version"`
	HighestVersion       wal.Version       `json:"highest_version"`
	Floor                *wal.Version      `json:"floor,omitempty"`
	FloorError           string            `json:"floor_error,omitempty"`
	MightHaveLogsToPrune bool              `json:"might_have_logs_to_prune"`
	NextRun              *time.Time        `json:"next_run,omitempty"`
	LastPass             *retention.Result `json:"last_pass,omitempty"`
}

// PruneResponse is the body of POST /v1/retention/prune. A failed pass
// carries both the partial result and the error.
type PruneResponse struct {
	Result *retention.Result `json:"result,omitempty"`
	Error  *ErrorDetail      `json:"error,omitempty"`
}

// PolicyRequest is the JSON form of PUT /v1/retention/policy. Plain text
// bodies are accepted as the policy itself.
type PolicyRequest struct {
	Policy string `json:"policy"`
}

// PolicyResponse is the body of a successful policy change.
type PolicyResponse struct {
	Previous  string    `json:"previous"`
	Policy    string    `json:"policy"`
	AppliedAt time.Time `json:"applied_at"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()

	lowest, err := s.dir.LowestVersion()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, errorTypeUnavailable, err.Error())
		return
	}
	highest, err := s.dir.HighestVersion()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, errorTypeUnavailable, err.Error())
		return
	}

	status := RetentionStatus{
		Policy:         snap.Description,
		AppliedAt:      snap.AppliedAt,
		LowestVersion:  lowest,
		HighestVersion: highest,
	}
	if s.configured != nil {
		status.ConfiguredPolicy = s.configured()
	}
	if highest != wal.NoVersion {
		status.MightHaveLogsToPrune = s.engine.MightHaveLogsToPrune(highest)
	}
	if floor, err := s.floor.LowestRequiredVersion(); err != nil {
		status.FloorError = err.Error()
	} else {
		status.Floor = &floor
	}
	if s.scheduler != nil {
		status.NextRun = s.scheduler.NextRun()
		status.LastPass = s.scheduler.LastResult()
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	var boundary wal.Version
	if raw := r.URL.Query().Get("boundary"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errorTypeInvalidRequest,
				"boundary must be a non-negative integer")
			return
		}
		boundary = wal.Version(n)
	} else {
		highest, err := s.dir.HighestVersion()
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, errorTypeUnavailable, err.Error())
			return
		}
		if highest == wal.NoVersion {
			writeJSON(w, http.StatusOK, PruneResponse{Result: &retention.Result{
				Boundary: wal.NoVersion,
				Strategy: s.engine.Snapshot().Description,
			}})
			return
		}
		boundary = highest
	}

	result, err := s.engine.PruneLogs(r.Context(), boundary)
	if err != nil {
		detail := &ErrorDetail{Type: errorTypePruneFailed, Message: err.Error()}
		var derr *retention.DeletionError
		if errors.As(err, &derr) {
			v := int64(derr.Version)
			detail.Version = &v
		}
		writeJSON(w, http.StatusInternalServerError, PruneResponse{Result: result, Error: detail})
		return
	}
	writeJSON(w, http.StatusOK, PruneResponse{Result: result})
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPolicyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, errorTypeInvalidRequest, "policy body too large")
		return
	}

	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req PolicyRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, errorTypeInvalidRequest, "invalid JSON body: "+err.Error())
			return
		}
		text = req.Policy
	}

	previous := s.engine.Snapshot().Description
	if err := s.engine.Apply(text); err != nil {
		var perr *policy.ParseError
		if errors.As(err, &perr) {
			writeError(w, http.StatusBadRequest, errorTypeInvalidPolicy, perr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, errorTypeInternal, err.Error())
		return
	}

	snap := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, PolicyResponse{
		Previous:  previous,
		Policy:    snap.Description,
		AppliedAt: snap.AppliedAt,
	})
}
