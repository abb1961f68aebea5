package thin

import (
	"errors"
	"fmt"

	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/mesh/rank"
)

// ErrNilMesh is returned by [Thin] when called without a mesh.
var ErrNilMesh = errors.New("mesh must not be nil")

// FloorMode selects how the degree floor is enforced.
type FloorMode int

const (
	// FloorPreRemoval stops when either candidate already has degree <= floor.
	// A removal may leave an endpoint exactly at the floor.
	FloorPreRemoval FloorMode = iota
	// FloorStrict also stops when a removal would take either candidate to or
	// below the floor, so every endpoint keeps degree > floor.
	FloorStrict
)

var floorModeNames = map[FloorMode]string{
	FloorPreRemoval: "pre-removal",
	FloorStrict:     "strict",
}

func (m FloorMode) String() string {
	if s, ok := floorModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("FloorMode(%d)", int(m))
}

// ParseFloorMode converts "pre-removal" (or "") and "strict" to a FloorMode.
func ParseFloorMode(s string) (FloorMode, error) {
	switch s {
	case "", "pre-removal":
		return FloorPreRemoval, nil
	case "strict":
		return FloorStrict, nil
	}
	return 0, fmt.Errorf("unknown floor mode: %q (must be 'pre-removal' or 'strict')", s)
}

// Reason records why thinning stopped.
type Reason int

const (
	// ReasonExhausted means fewer than two nodes remain in the queue.
	ReasonExhausted Reason = iota
	// ReasonNoPartner means the top node shares no edge with any other node.
	ReasonNoPartner
	// ReasonFloor means one of the two candidates is at the degree floor.
	ReasonFloor
)

func (r Reason) String() string {
	switch r {
	case ReasonExhausted:
		return "exhausted"
	case ReasonNoPartner:
		return "no-partner"
	case ReasonFloor:
		return "floor"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Step describes one removal, passed to the observer set with [WithObserver].
type Step struct {
	Iteration int
	Edge      mesh.Edge
	// DegreeA and DegreeB are the endpoint degrees after the removal.
	DegreeA, DegreeB int
}

// Result summarizes a thinning run.
type Result struct {
	Floor       int
	Mode        FloorMode
	Reason      Reason
	Iterations  int
	EdgesBefore int
	EdgesAfter  int
	// Removed lists the removed edges in removal order.
	Removed []mesh.Edge
}

type config struct {
	mode     FloorMode
	observer func(Step)
}

// Option configures [Thin].
type Option func(*config)

// WithFloorMode selects the floor check. The default is [FloorPreRemoval].
func WithFloorMode(m FloorMode) Option {
	return func(c *config) { c.mode = m }
}

// WithObserver registers fn to be called after every removal.
func WithObserver(fn func(Step)) Option {
	return func(c *config) { c.observer = fn }
}

// Floor derives the degree floor from a node count and a removal percentage,
// truncating: n*percentage/100.
func Floor(n, percentage int) int {
	return n * percentage / 100
}

// Thin removes edges from g until the stopping condition is reached and
// returns the removed edges. Each iteration pairs the highest-degree node
// with the nearest node in degree order that it still shares an edge with.
//
// This is a greedy degree-equalization heuristic. It stops at the first pair
// it may not remove and makes no claim of removing the maximum number of
// edges for a given floor.
//
// With the default [FloorPreRemoval] check a touched node can end exactly at
// the floor: five nodes with floor 2 finish at degree 2 everywhere. Pass
// WithFloorMode(FloorStrict) when every touched node must keep a degree above
// the floor; the same mesh then finishes with every degree at 3 or more.
//
// Thin runs synchronously to completion and mutates g in place. Errors are
// contract violations between the mesh and the priority structure.
func Thin(g *mesh.Mesh, floor int, opts ...Option) (*Result, error) {
	if g == nil {
		return nil, ErrNilMesh
	}
	cfg := config{mode: FloorPreRemoval}
	for _, opt := range opts {
		opt(&cfg)
	}

	q := rank.New(g)
	q.Initialize(g.NodeIDs())

	res := &Result{
		Floor:       floor,
		Mode:        cfg.mode,
		Reason:      ReasonExhausted,
		EdgesBefore: g.EdgeCount(),
	}

	for q.Size() >= 2 {
		first, err := q.Peek()
		if err != nil {
			return res, fmt.Errorf("peek: %w", err)
		}

		second, ok := partner(g, q, first.Node)
		if !ok {
			res.Reason = ReasonNoPartner
			break
		}
		if atFloor(g.Degree(first.Node), floor, cfg.mode) || atFloor(g.Degree(second.Node), floor, cfg.mode) {
			res.Reason = ReasonFloor
			break
		}

		e := normalized(first.Node, second.Node)
		e.Weight, _ = g.Weight(e.A, e.B)
		if err := g.RemoveEdge(first.Node, second.Node); err != nil {
			return res, fmt.Errorf("remove %d--%d: %w", first.Node, second.Node, err)
		}
		if err := q.Refresh(0); err != nil {
			return res, fmt.Errorf("refresh first: %w", err)
		}
		// Refreshing the first entry can shift the second one.
		idx, ok := q.IndexOf(second.Node)
		if !ok {
			return res, fmt.Errorf("refresh second: node %d: %w", second.Node, rank.ErrIndexOutOfRange)
		}
		if err := q.Refresh(idx); err != nil {
			return res, fmt.Errorf("refresh second: %w", err)
		}

		res.Iterations++
		res.Removed = append(res.Removed, e)
		if cfg.observer != nil {
			cfg.observer(Step{
				Iteration: res.Iterations,
				Edge:      e,
				DegreeA:   g.Degree(e.A),
				DegreeB:   g.Degree(e.B),
			})
		}
	}

	res.EdgesAfter = g.EdgeCount()
	return res, nil
}

// partner scans the queue from index 1 for the first node sharing an edge
// with top.
func partner(g *mesh.Mesh, q *rank.Queue, top mesh.NodeID) (rank.Entry, bool) {
	for i := 1; i < q.Size(); i++ {
		e, ok := q.At(i)
		if !ok {
			break
		}
		if g.HasEdge(top, e.Node) {
			return e, true
		}
	}
	return rank.Entry{}, false
}

func atFloor(degree, floor int, mode FloorMode) bool {
	if mode == FloorStrict {
		return degree-1 <= floor
	}
	return degree <= floor
}

func normalized(a, b mesh.NodeID) mesh.Edge {
	if a > b {
		a, b = b, a
	}
	return mesh.Edge{A: a, B: b}
}
