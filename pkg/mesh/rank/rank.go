// Package rank maintains nodes in descending degree order for edge thinning.
//
// A [Queue] is a secondary index over a mesh: it stores node handles, never
// edges, and learns degrees only through a [DegreeSource]. After the caller
// changes a node's degree it must call [Queue.Refresh] on that node's index
// to restore the order; the queue does not observe the mesh on its own.
//
// Entries are ordered by degree descending, ties broken by insertion order
// ascending, so the order is total and two queues built from the same input
// always agree.
package rank

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/matzehuels/dronemesh/pkg/mesh"
)

var (
	// ErrEmpty is returned by [Queue.Peek] on a queue with no entries.
	ErrEmpty = errors.New("priority structure is empty")

	// ErrIndexOutOfRange is returned by [Queue.Refresh] for an index outside
	// [0, Size()).
	ErrIndexOutOfRange = errors.New("index out of range")
)

// DegreeSource answers the current degree of a node. [*mesh.Mesh]
// implements it.
type DegreeSource interface {
	Degree(id mesh.NodeID) int
}

// Entry is a node handle together with the degree last read for it.
type Entry struct {
	Node   mesh.NodeID
	Degree int
	// Seq is the insertion order, used to break ties between equal degrees.
	Seq int
	// Index is the entry's position when it was returned (0 = highest degree).
	Index int
}

// before reports whether e sorts ahead of o.
func (e *Entry) before(o *Entry) bool {
	if e.Degree != o.Degree {
		return e.Degree > o.Degree
	}
	return e.Seq < o.Seq
}

// Queue is a randomly indexable sequence of entries kept in degree order.
//
// The zero value is not usable - use [New].
// Queue is not safe for concurrent use.
type Queue struct {
	src     DegreeSource
	entries []*Entry
}

// New creates an empty queue reading degrees from src.
func New(src DegreeSource) *Queue {
	return &Queue{src: src}
}

// Initialize replaces the queue contents with one entry per node, in the
// given order as insertion order, sorted by their current degrees.
func (q *Queue) Initialize(nodes []mesh.NodeID) {
	q.entries = make([]*Entry, len(nodes))
	for i, id := range nodes {
		q.entries[i] = &Entry{Node: id, Degree: q.src.Degree(id), Seq: i}
	}
	slices.SortStableFunc(q.entries, func(a, b *Entry) int {
		switch {
		case a.before(b):
			return -1
		case b.before(a):
			return 1
		}
		return 0
	})
}

// Size returns the number of entries.
func (q *Queue) Size() int { return len(q.entries) }

// Peek returns the highest-degree entry without removing it.
func (q *Queue) Peek() (Entry, error) {
	if len(q.entries) == 0 {
		return Entry{}, ErrEmpty
	}
	return q.at(0), nil
}

// At returns the entry at index, or false if index is outside the queue.
func (q *Queue) At(index int) (Entry, bool) {
	if index < 0 || index >= len(q.entries) {
		return Entry{}, false
	}
	return q.at(index), true
}

func (q *Queue) at(i int) Entry {
	e := *q.entries[i]
	e.Index = i
	return e
}

// IndexOf returns the current index of the entry for node.
func (q *Queue) IndexOf(node mesh.NodeID) (int, bool) {
	for i, e := range q.entries {
		if e.Node == node {
			return i, true
		}
	}
	return -1, false
}

// Refresh re-reads the degree of the entry at index and moves it to its
// sorted position. The entry may move in either direction; all other entries
// keep their relative order. Runs in O(Size()) because of the shift.
func (q *Queue) Refresh(index int) error {
	if index < 0 || index >= len(q.entries) {
		return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, index, len(q.entries))
	}
	e := q.entries[index]
	e.Degree = q.src.Degree(e.Node)

	rest := slices.Delete(q.entries, index, index+1)
	pos := sort.Search(len(rest), func(i int) bool { return e.before(rest[i]) })
	q.entries = slices.Insert(rest, pos, e)
	return nil
}

// Entries returns a snapshot of all entries in order.
func (q *Queue) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	for i := range q.entries {
		out[i] = q.at(i)
	}
	return out
}
