// Package thin removes edges from a dense mesh while respecting a degree floor.
//
// # Algorithm
//
// [Thin] builds a [rank.Queue] over every node of the mesh and repeats:
//
//  1. Take the highest-degree node (the queue head).
//  2. Scan the queue from index 1 for the first node it still shares an edge
//     with.
//  3. Stop if there is none, or if either node is at the floor.
//  4. Remove that edge and refresh both entries in the queue.
//
// Always attacking the globally highest-degree node and pairing it with its
// nearest neighbor in degree order drives the degree distribution toward
// uniformity. The result is greedy: it stops at the first pair it may not
// remove.
//
// # Floor
//
// The floor is usually derived from the node count and a removal percentage
// with [Floor]. Two checks are available:
//
//   - [FloorPreRemoval] (default) compares the current degrees with the floor,
//     so a removal can take a node down to exactly the floor.
//   - [FloorStrict] refuses any removal that would take a node to or below
//     the floor.
//
// A floor <= 0 removes edges until no two candidates share an edge. A floor
// at or above N-1 stops before the first removal.
//
// # Determinism
//
// The queue breaks degree ties by node handle order and the mesh reports
// adjacency deterministically, so identical inputs always produce the same
// sequence of removed edges.
//
// [rank.Queue]: github.com/matzehuels/dronemesh/pkg/mesh/rank
package thin
