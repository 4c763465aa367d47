package par

import (
	"math"
	"math/rand"

	"github.com/gp4par/gp4par/internal/gplog"
	"github.com/gp4par/gp4par/pkg/builder"
	"github.com/gp4par/gp4par/pkg/device"
	"github.com/gp4par/gp4par/pkg/graph"
)

// Options configures the annealing loop (spec §4.4.3/§4.4.4). Rand must
// be supplied by the caller and never self-seeded (spec §5: "the PRNG
// is never seeded from wall-clock time or any other non-reproducible
// source"), so that two runs with the same seed and inputs produce a
// bit-identical placement.
type Options struct {
	Rand               *rand.Rand
	InitialTemperature float64
	CoolingRate        float64 // applied geometrically: T *= CoolingRate each round
	MovesPerRound      int
	MaxRounds          int
}

// DefaultOptions returns reasonable annealer parameters (the geometric
// cooling schedule decided in the project's open-question log).
func DefaultOptions(rng *rand.Rand) Options {
	return Options{
		Rand:               rng,
		InitialTemperature: 100.0,
		CoolingRate:        0.95,
		MovesPerRound:      64,
		MaxRounds:          200,
	}
}

// Anneal refines the placement already established by ApplyLOC and
// InitialPlace (spec §4.4.3/§4.4.4): it repeatedly proposes swapping a
// suboptimally-placed netlist node to a different compatible device
// site, accepting the move unconditionally if it improves cost and
// with Metropolis-criterion probability otherwise, cooling the
// temperature geometrically each round. Terminates when cost reaches
// zero or the round budget is exhausted, always leaving the
// best-seen placement committed to the graphs (even if it is the
// placement Anneal started with).
func Anneal(r *builder.Result, opts Options) Cost {
	best := Evaluate(r)
	bestSnapshot := snapshotPlacement(r)

	temperature := opts.InitialTemperature
	round := 0
	for round = 0; round < opts.MaxRounds && best.Total() > 0; round++ {
		for move := 0; move < opts.MovesPerRound; move++ {
			candidates := findSuboptimalPlacements(r)
			if len(candidates) == 0 {
				break
			}
			node := candidates[opts.Rand.Intn(len(candidates))]

			before := Evaluate(r)
			undo, moved := proposeMove(r, node, opts.Rand)
			if !moved {
				continue
			}
			after := Evaluate(r)

			delta := after.Total() - before.Total()
			if delta > 0 && !accept(delta, temperature, opts.Rand) {
				undo()
				continue
			}

			if after.Total() < best.Total() {
				best = after
				bestSnapshot = snapshotPlacement(r)
			}
		}
		temperature *= opts.CoolingRate
	}

	restorePlacement(r, bestSnapshot)
	gplog.WithStage("anneal").Infof("finished after %d round(s): cost=%d (congestion=%d, %d unroutable edge(s))",
		round, best.Total(), best.Congestion, len(best.UnroutableEdges))
	return best
}

func accept(delta int, temperature float64, rng *rand.Rand) bool {
	if temperature <= 0 {
		return false
	}
	p := math.Exp(-float64(delta) / temperature)
	return rng.Float64() < p
}

// findSuboptimalPlacements returns the set of movable netlist nodes
// participating in a bad edge or an unroutable edge (spec §4.4.3).
func findSuboptimalPlacements(r *builder.Result) []graph.NodeID {
	seen := make(map[graph.NodeID]bool)
	var out []graph.NodeID
	add := func(id graph.NodeID) {
		if !seen[id] && isMovable(r, id) {
			seen[id] = true
			out = append(out, id)
		}
	}

	numNodes := r.NetlistGraph.NumNodes()
	for id := 0; id < numNodes; id++ {
		srcID := graph.NodeID(id)
		srcNode := r.NetlistGraph.Node(srcID)
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

			bad := isBadEdge(srcEntity, dstEntity, edge.DestPort)
			unroutable := !IsDestReachable(r, srcEntity, dstEntity, edge.DestPort)
			if bad || unroutable {
				add(srcID)
				add(edge.Dest)
			}
		}
	}
	return out
}

// isMovable reports whether a netlist node may be relocated: its
// device label must have more than one candidate site, and it must
// not be pinned by a LOC constraint. LOC pinning is recorded by
// ApplyLOC having mated the node before InitialPlace ever ran, but
// since both LOC'd and auto-placed nodes end up mated identically,
// movability is instead tracked by the cell's own LOC attribute.
func isMovable(r *builder.Result, id graph.NodeID) bool {
	cell := r.Cell(id)
	if cell == nil {
		return false
	}
	if _, locked := cell.LOC(); locked {
		return false
	}
	label := r.NetlistGraph.Node(id).Primary
	return r.DeviceGraph.NumNodesWithLabel(label) > 1
}

// proposeMove attempts to relocate node to a different compatible
// device site (spec §4.4.3): candidate sites in the opposite matrix
// from the node's current site are tried first (since that is what
// resolves a bad edge), falling back to same-matrix sites, then to any
// compatible site at all. If the chosen site is occupied, the
// occupant is displaced to the node's old site (a swap) unless the
// occupant is LOC-locked, in which case that site is skipped. Returns
// an undo function that restores the pre-move state, and whether a
// move was actually made.
func proposeMove(r *builder.Result, node graph.NodeID, rng *rand.Rand) (undo func(), moved bool) {
	netlistNode := r.NetlistGraph.Node(node)
	_, curSiteID, mated := netlistNode.Mate()
	if !mated {
		return func() {}, false
	}
	curEntity := r.Entity(curSiteID)
	label := netlistNode.Primary

	sites := candidateSites(r, node, label, curSiteID, curEntity.Matrix)
	if len(sites) == 0 {
		return func() {}, false
	}
	targetSiteID := sites[rng.Intn(len(sites))]
	if targetSiteID == curSiteID {
		return func() {}, false
	}

	targetNode := r.DeviceGraph.Node(targetSiteID)
	occMate, occID, occupied := targetNode.Mate()

	if occupied {
		if occMate != r.NetlistGraph {
			return func() {}, false
		}
		if occCell := r.Cell(occID); occCell != nil {
			if _, locked := occCell.LOC(); locked {
				return func() {}, false
			}
		}

		graph.Unmate(r.NetlistGraph, node)
		graph.Unmate(r.NetlistGraph, occID)
		graph.Mate(r.NetlistGraph, node, r.DeviceGraph, targetSiteID)
		graph.Mate(r.NetlistGraph, occID, r.DeviceGraph, curSiteID)

		return func() {
			graph.Unmate(r.NetlistGraph, node)
			graph.Unmate(r.NetlistGraph, occID)
			graph.Mate(r.NetlistGraph, node, r.DeviceGraph, curSiteID)
			graph.Mate(r.NetlistGraph, occID, r.DeviceGraph, targetSiteID)
		}, true
	}

	graph.Unmate(r.NetlistGraph, node)
	graph.Mate(r.NetlistGraph, node, r.DeviceGraph, targetSiteID)
	r.Entity(targetSiteID).SetUsed(true)

	return func() {
		graph.Unmate(r.NetlistGraph, node)
		graph.Mate(r.NetlistGraph, node, r.DeviceGraph, curSiteID)
	}, true
}

// candidateSites returns the device sites node may be relocated to,
// trying progressively less selective fallbacks (spec §4.4.3 step 4):
// routable sites on the opposite matrix first (since that is what
// resolves a bad edge), then routable sites on the same matrix, then
// any compatible site regardless of routability, so a move is always
// possible even if it cannot yet fix every dedicated-port connection.
func candidateSites(r *builder.Result, node graph.NodeID, label graph.Label, exclude graph.NodeID, curMatrix int) []graph.NodeID {
	count := r.DeviceGraph.NumNodesWithLabel(label)
	var opposite, same, routableOpposite, routableSame []graph.NodeID
	for i := 0; i < count; i++ {
		id := r.DeviceGraph.NodeByLabelAndIndex(label, i)
		if id == exclude {
			continue
		}
		candidate := r.Entity(id)
		routable := isRoutableSite(r, node, candidate)
		if candidate.Matrix == curMatrix {
			same = append(same, id)
			if routable {
				routableSame = append(routableSame, id)
			}
		} else {
			opposite = append(opposite, id)
			if routable {
				routableOpposite = append(routableOpposite, id)
			}
		}
	}
	switch {
	case len(routableOpposite) > 0:
		return routableOpposite
	case len(routableSame) > 0:
		return routableSame
	case len(opposite) > 0:
		return opposite
	default:
		return same
	}
}

// isRoutableSite reports whether relocating node to candidate would
// keep every dedicated/power-rail port connection touching node
// reachable (spec §4.4.2's IsDestReachable predicate), evaluated
// hypothetically against a site node is not actually mated to yet.
// General-fabric connections are always reachable and so never
// disqualify a candidate; the annealer's cost function, not this
// filter, is what steers those toward less congested matrices.
func isRoutableSite(r *builder.Result, node graph.NodeID, candidate *device.Entity) bool {
	netNode := r.NetlistGraph.Node(node)
	for _, edge := range netNode.Edges {
		_, dstDevID, dstMated := r.NetlistGraph.Node(edge.Dest).Mate()
		if !dstMated {
			continue
		}
		if !IsDestReachable(r, candidate, r.Entity(dstDevID), edge.DestPort) {
			return false
		}
	}

	numNodes := r.NetlistGraph.NumNodes()
	for id := 0; id < numNodes; id++ {
		srcID := graph.NodeID(id)
		if srcID == node {
			continue
		}
		srcNode := r.NetlistGraph.Node(srcID)
		_, srcDevID, srcMated := srcNode.Mate()
		if !srcMated {
			continue
		}
		for _, edge := range srcNode.Edges {
			if edge.Dest != node {
				continue
			}
			if !IsDestReachable(r, r.Entity(srcDevID), candidate, edge.DestPort) {
				return false
			}
		}
	}
	return true
}

// placementSnapshot maps every netlist node to the device node it was
// mated to (or -1 if unmated) at the moment the snapshot was taken.
type placementSnapshot []graph.NodeID

func snapshotPlacement(r *builder.Result) placementSnapshot {
	numNodes := r.NetlistGraph.NumNodes()
	snap := make(placementSnapshot, numNodes)
	for id := 0; id < numNodes; id++ {
		nodeID := graph.NodeID(id)
		if _, devID, mated := r.NetlistGraph.Node(nodeID).Mate(); mated {
			snap[id] = devID
		} else {
			snap[id] = -1
		}
	}
	return snap
}

func restorePlacement(r *builder.Result, snap placementSnapshot) {
	numNodes := r.NetlistGraph.NumNodes()
	for id := 0; id < numNodes; id++ {
		nodeID := graph.NodeID(id)
		graph.Unmate(r.NetlistGraph, nodeID)
	}
	for id := 0; id < numNodes; id++ {
		devID := snap[id]
		if devID < 0 {
			continue
		}
		nodeID := graph.NodeID(id)
		if _, _, mated := r.DeviceGraph.Node(devID).Mate(); mated {
			// Already restored as the mate of an earlier netlist node in
			// this same pass (both sides of a mate are cleared together
			// by Unmate, so this can only happen if the snapshot itself
			// were inconsistent).
			continue
		}
		graph.Mate(r.NetlistGraph, nodeID, r.DeviceGraph, devID)
	}
	gplog.WithStage("anneal").Debugf("restored best-seen placement (%d nodes)", numNodes)
}
