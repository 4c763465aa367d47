package par

import (
	"github.com/gp4par/gp4par/pkg/builder"
	"github.com/gp4par/gp4par/pkg/device"
	"github.com/gp4par/gp4par/pkg/graph"
)

// unroutablePenalty is the fixed per-edge penalty applied when an edge
// has no path given the current placement. It is large enough to
// dominate any congestion score (spec §4.4.2: "the unroutable
// component dominating by construction").
const unroutablePenalty = 1000

// crossConnectionBudget is the per-matrix physical limit the step
// penalty in the congestion cost discourages exceeding (spec §4.4.2).
const crossConnectionBudget = 10

// UnroutableEdge names a netlist edge that has no device-graph path
// given the current placement, for diagnostic reporting on annealer
// failure (spec §4.4.4).
type UnroutableEdge struct {
	SrcCell, DstCell string
	SrcPort, DstPort string
}

// Cost is the total placement score (spec §4.4.2): congestion cost
// plus unroutable cost.
type Cost struct {
	Congestion      int
	Unroutable      int
	UnroutableEdges []UnroutableEdge
}

// Total returns the combined cost the annealer minimizes.
func (c Cost) Total() int { return c.Congestion + c.Unroutable }

// Evaluate scores the current placement recorded in r's graphs.
func Evaluate(r *builder.Result) Cost {
	var c0, c1 int
	var unroutable int
	var bad []UnroutableEdge

	numNodes := r.NetlistGraph.NumNodes()
	for id := 0; id < numNodes; id++ {
		srcNodeID := graph.NodeID(id)
		srcNode := r.NetlistGraph.Node(srcNodeID)
		srcMate, srcDevID, srcMated := srcNode.Mate()
		if !srcMated || srcMate != r.DeviceGraph {
			continue
		}
		srcEntity := r.Entity(srcDevID)

		for _, edge := range srcNode.Edges {
			dstNode := r.NetlistGraph.Node(edge.Dest)
			dstMate, dstDevID, dstMated := dstNode.Mate()
			if !dstMated || dstMate != r.DeviceGraph {
				continue
			}
			dstEntity := r.Entity(dstDevID)

			if isBadEdge(srcEntity, dstEntity, edge.DestPort) {
				if srcEntity.Matrix == 0 {
					c0++
				} else {
					c1++
				}
			}

			if !IsDestReachable(r, srcEntity, dstEntity, edge.DestPort) {
				unroutable += unroutablePenalty
				bad = append(bad, UnroutableEdge{
					SrcCell: r.Cell(srcNodeID).Name,
					DstCell: r.Cell(edge.Dest).Name,
					SrcPort: edge.SrcPort,
					DstPort: edge.DestPort,
				})
			}
		}
	}

	step := 0
	if max(c0, c1) > crossConnectionBudget {
		step = 20
	}

	return Cost{
		Congestion:      c0*c0 + c1*c1 + step,
		Unroutable:      unroutable,
		UnroutableEdges: bad,
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// isBadEdge reports whether a mated netlist edge is a "bad edge" (spec
// §4.4.2): its endpoints are in different matrices, the destination
// port is a general fabric input, and the source has no dual.
func isBadEdge(src, dst *device.Entity, dstPort string) bool {
	return src.Matrix != dst.Matrix && dst.IsGeneralFabricInput(dstPort) && src.Dual() == nil
}

// IsDestReachable answers the base-engine predicate spec §4.4.2
// describes: a general-fabric destination port is always reachable
// given the current placement (cross-matrix availability is a cost,
// via isBadEdge, not an unroutability); a dedicated or power-rail port
// is reachable only if an explicit device-graph edge was installed
// between the two specific entities for that port (spec §4.2.1).
func IsDestReachable(r *builder.Result, src, dst *device.Entity, dstPort string) bool {
	if dst.IsGeneralFabricInput(dstPort) {
		return true
	}

	srcID, ok := r.EntityNode(src)
	if !ok {
		return false
	}
	dstID, ok := r.EntityNode(dst)
	if !ok {
		return false
	}
	for _, e := range r.DeviceGraph.Node(srcID).Edges {
		if e.Dest == dstID && e.DestPort == dstPort {
			return true
		}
	}
	return false
}
