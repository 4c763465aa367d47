// Package par implements the L4 placement engine of spec §4.4: initial
// placement (LOC application plus deterministic sequential fill),
// congestion/unroutable cost evaluation, move proposals, and a
// Metropolis-criterion simulated-annealing refinement loop.
//
// The original's PAREngine/PARGraph base classes live in the external
// xbpar library, which is not present anywhere in the retrieved
// example pack (confirmed via Greenpak4PAREngine.h's unresolved
// #include "xbpar.h"); this package is therefore original work
// grounded directly in spec §4.4's textual description rather than a
// port of existing code.
package par

import (
	"fmt"

	"github.com/gp4par/gp4par/internal/gperr"
	"github.com/gp4par/gp4par/internal/gplog"
	"github.com/gp4par/gp4par/pkg/builder"
	"github.com/gp4par/gp4par/pkg/device"
	"github.com/gp4par/gp4par/pkg/graph"
	"github.com/gp4par/gp4par/pkg/netlist"
)

// ApplyLOC mates every LOC'd netlist cell to its named device site
// (spec §4.4.1 step 1). Fails with a netlist error naming the cell if
// the site does not exist, is of an incompatible label, or is already
// occupied.
func ApplyLOC(r *builder.Result, nl *netlist.Netlist) error {
	siteByDescription := make(map[string]graph.NodeID)
	for id := 0; id < r.DeviceGraph.NumNodes(); id++ {
		nodeID := graph.NodeID(id)
		e := r.Entity(nodeID)
		siteByDescription[e.Description()] = nodeID
	}

	for _, c := range nl.CellsInOrder() {
		loc, ok := c.LOC()
		if !ok {
			continue
		}
		cellID, ok := r.CellNode(c)
		if !ok {
			return gperr.NewNetlistError("apply_loc", "cell has no graph node", c.Name)
		}

		siteID, ok := siteByDescription[loc]
		if !ok {
			return gperr.NewNetlistError("apply_loc", fmt.Sprintf("LOC %q does not name a device site", loc), c.Name)
		}
		cellLabel := r.NetlistGraph.Node(cellID).Primary
		if !r.DeviceGraph.MatchesLabel(siteID, cellLabel) {
			return gperr.NewNetlistError("apply_loc", fmt.Sprintf("LOC %q is not compatible with cell type", loc), c.Name)
		}
		if _, _, mated := r.DeviceGraph.Node(siteID).Mate(); mated {
			occupant := r.Entity(siteID)
			occupantCell := findCellForEntity(r, nl, occupant)
			return gperr.NewNetlistError("apply_loc", fmt.Sprintf("two cells LOC'd to site %q", loc), c.Name, occupantCell)
		}

		graph.Mate(r.NetlistGraph, cellID, r.DeviceGraph, siteID)
		r.Entity(siteID).SetUsed(true)
	}
	logPlacementSummary("apply_loc", countMated(r), r.NetlistGraph.NumNodes())
	return nil
}

func countMated(r *builder.Result) int {
	mated := 0
	for id := 0; id < r.NetlistGraph.NumNodes(); id++ {
		if _, _, ok := r.NetlistGraph.Node(graph.NodeID(id)).Mate(); ok {
			mated++
		}
	}
	return mated
}

func findCellForEntity(r *builder.Result, nl *netlist.Netlist, e *device.Entity) string {
	id, ok := r.EntityNode(e)
	if !ok {
		return "?"
	}
	mg, mid, ok := r.DeviceGraph.Node(id).Mate()
	if !ok || mg != r.NetlistGraph {
		return "?"
	}
	return r.Cell(mid).Name
}

// InitialPlace mates every still-unmated netlist node to the first
// unmated device node carrying a compatible label, in label then index
// order (spec §4.4.1 step 2: "deterministic, first-fit by index").
// Fails with a resource-exhaustion error naming the label if no site
// remains.
func InitialPlace(r *builder.Result, labelName func(graph.Label) string) error {
	numNetlistNodes := r.NetlistGraph.NumNodes()

	for id := 0; id < numNetlistNodes; id++ {
		nodeID := graph.NodeID(id)
		n := r.NetlistGraph.Node(nodeID)
		if _, _, mated := n.Mate(); mated {
			continue
		}

		label := n.Primary
		site, ok := firstUnmatedSite(r.DeviceGraph, label)
		if !ok {
			return gperr.NewResourceError(labelName(label), 1, 0)
		}
		graph.Mate(r.NetlistGraph, nodeID, r.DeviceGraph, site)
		r.Entity(site).SetUsed(true)
	}
	logPlacementSummary("initial_place", countMated(r), numNetlistNodes)
	return nil
}

func firstUnmatedSite(deviceGraph *graph.Graph, label graph.Label) (graph.NodeID, bool) {
	count := deviceGraph.NumNodesWithLabel(label)
	for i := 0; i < count; i++ {
		id := deviceGraph.NodeByLabelAndIndex(label, i)
		if _, _, mated := deviceGraph.Node(id).Mate(); !mated {
			return id, true
		}
	}
	return 0, false
}

// logPlacementSummary emits a notice-level summary of the placement
// that just completed, used by ApplyLOC and InitialPlace.
func logPlacementSummary(stage string, placed, total int) {
	gplog.WithStage(stage).Infof("placed %d/%d netlist nodes", placed, total)
}
