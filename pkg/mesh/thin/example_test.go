package thin_test

import (
	"fmt"

	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/mesh/thin"
)

func ExampleThin() {
	m, _ := mesh.Complete(5, 5)
	floor := thin.Floor(5, 40)

	res, _ := thin.Thin(m, floor)

	fmt.Println("Floor:", res.Floor)
	fmt.Println("Removed:", res.Removed)
	fmt.Println("Edges:", res.EdgesBefore, "->", res.EdgesAfter)
	fmt.Println("Stopped:", res.Reason)
	// Output:
	// Floor: 2
	// Removed: [0--1 2--3 0--4 1--2 3--4]
	// Edges: 10 -> 5
	// Stopped: floor
}

func ExampleWithFloorMode() {
	m, _ := mesh.Complete(5, 5)

	res, _ := thin.Thin(m, 2, thin.WithFloorMode(thin.FloorStrict))

	fmt.Println("Removed:", res.Removed)
	fmt.Println("Min degree:", m.DegreeStats().Min)
	// Output:
	// Removed: [0--1 2--3]
	// Min degree: 3
}
