package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/dronemesh/pkg/cache"
	"github.com/matzehuels/dronemesh/pkg/errors"
	"github.com/matzehuels/dronemesh/pkg/observability"
)

// Run is the stored summary of an Execute call, as returned by the API.
type Run struct {
	ID         string            `json:"run_id"`
	CreatedAt  time.Time         `json:"created_at"`
	Nodes      int               `json:"nodes"`
	Percentage int               `json:"percentage"`
	Floor      int               `json:"floor"`
	FloorMode  string            `json:"floor_mode"`
	Edges      int               `json:"edges"`
	Removed    [][2]int          `json:"removed"`
	Reason     string            `json:"reason"`
	MeshHash   string            `json:"mesh_hash,omitempty"`
	Artifacts  map[string][]byte `json:"artifacts,omitempty"`
}

// NewRun summarizes a pipeline result.
func NewRun(opts Options, res *Result) *Run {
	removed := make([][2]int, len(res.Thin.Removed))
	for i, e := range res.Thin.Removed {
		removed[i] = [2]int{int(e.A), int(e.B)}
	}
	return &Run{
		ID:         res.RunID,
		CreatedAt:  time.Now().UTC(),
		Nodes:      res.Stats.Nodes,
		Percentage: opts.Percentage,
		Floor:      res.Thin.Floor,
		FloorMode:  res.Thin.Mode.String(),
		Edges:      res.Thin.EdgesAfter,
		Removed:    removed,
		Reason:     res.Thin.Reason.String(),
		MeshHash:   res.MeshHash,
		Artifacts:  res.Artifacts,
	}
}

// SaveRun stores run under its run key.
func (r *Runner) SaveRun(ctx context.Context, run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if err := r.Cache.Set(ctx, r.Keyer.RunKey(run.ID), data, cache.TTLRun); err != nil {
		return errors.Wrap(errors.ErrCodeCache, err, "store run %s", run.ID)
	}
	observability.Cache().OnCacheSet(ctx, "run", len(data))
	return nil
}

// LoadRun fetches a stored run. Unknown or malformed IDs yield RUN_NOT_FOUND.
func (r *Runner) LoadRun(ctx context.Context, id string) (*Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %q not found", id)
	}
	data, hit, err := r.Cache.Get(ctx, r.Keyer.RunKey(id))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCache, err, "load run %s", id)
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "run")
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %q not found", id)
	}
	observability.Cache().OnCacheHit(ctx, "run")

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode run %s", id)
	}
	return &run, nil
}
