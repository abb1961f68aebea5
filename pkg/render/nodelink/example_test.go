package nodelink_test

import (
	"fmt"

	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/mesh/thin"
	"github.com/matzehuels/dronemesh/pkg/render/nodelink"
)

func ExampleToDOT() {
	m, _ := mesh.Complete(4, 5)
	_, _ = thin.Thin(m, 2)

	fmt.Print(nodelink.ToDOT(m, nodelink.Options{Layout: "fdp"}))
	// Output:
	// graph G {
	//   layout=fdp;
	//   node [shape=ellipse, fontsize=12];
	//
	//   0 [node_id="Drone:0", label="Drone:0"];
	//   1 [node_id="Drone:1", label="Drone:1"];
	//   2 [node_id="Drone:2", label="Drone:2"];
	//   3 [node_id="Drone:3", label="Drone:3"];
	//
	//   0 -- 2 [weight=5];
	//   0 -- 3 [weight=5];
	//   1 -- 2 [weight=5];
	//   1 -- 3 [weight=5];
	// }
}
