// Package builder implements the L3 graph builder of spec §4.3: turns
// a (netlist, device) pair into a netlist graph, a device graph, and a
// label map, then runs the two-pass helper inference of §4.3.1.
//
// Grounded on _examples/original_source/src/gp4par/make_graphs.cpp's
// BuildGraphs(): MakeDeviceNodes -> MakeDeviceEdges -> build inverse
// label map -> MakeNetlistNodes -> MakeNetlistEdges -> InferExtraNodes,
// and its ReplicateVREF() helper for Pass B's voltage-reference
// cloning.
package builder

import (
	"fmt"

	"github.com/gp4par/gp4par/internal/gperr"
	"github.com/gp4par/gp4par/pkg/device"
	"github.com/gp4par/gp4par/pkg/graph"
	"github.com/gp4par/gp4par/pkg/labelmap"
	"github.com/gp4par/gp4par/pkg/netlist"
)

// Result bundles everything the builder produces: the two graphs, the
// label map, and the cross-indices between graph nodes and the domain
// objects they represent. pkg/par and pkg/commit navigate the graphs
// through this Result rather than re-deriving the indices.
type Result struct {
	NetlistGraph *graph.Graph
	DeviceGraph  *graph.Graph
	Labels       *labelmap.Map

	cellNode   map[*netlist.Cell]graph.NodeID
	entityNode map[*device.Entity]graph.NodeID
}

// CellNode returns the netlist graph node for a cell.
func (r *Result) CellNode(c *netlist.Cell) (graph.NodeID, bool) {
	id, ok := r.cellNode[c]
	return id, ok
}

// EntityNode returns the device graph node for an entity.
func (r *Result) EntityNode(e *device.Entity) (graph.NodeID, bool) {
	id, ok := r.entityNode[e]
	return id, ok
}

// Cell returns the netlist cell behind a netlist graph node.
func (r *Result) Cell(id graph.NodeID) *netlist.Cell {
	return r.NetlistGraph.Node(id).UserData.(*netlist.Cell)
}

// Entity returns the device entity behind a device graph node.
func (r *Result) Entity(id graph.NodeID) *device.Entity {
	return r.DeviceGraph.Node(id).UserData.(*device.Entity)
}

// BuildGraphs runs the mandatory ordering of spec §4.3: device nodes,
// device edges, the inverse label map, netlist nodes, netlist edges,
// then helper inference. The label index is rebuilt after every pass
// that mutates either graph.
func BuildGraphs(nl *netlist.Netlist, dev *device.Device) (*Result, error) {
	r := &Result{
		NetlistGraph: graph.New(),
		DeviceGraph:  graph.New(),
		Labels:       labelmap.New(),
		cellNode:     make(map[*netlist.Cell]graph.NodeID),
		entityNode:   make(map[*device.Entity]graph.NodeID),
	}

	declareCanonicalTypes(r.Labels)
	makeDeviceNodes(r, dev)
	makeDeviceEdges(r, dev)
	r.DeviceGraph.RebuildLabelIndex()

	// Helper inference (spec §4.3.1) runs against the netlist data
	// model itself rather than against the already-built G_N, so that
	// Pass B's "remove the stale G_N edge" never needs a graph
	// edge-removal primitive: G_N nodes and edges are created exactly
	// once, from the post-inference netlist, instead of being built,
	// mutated, and partially un-built. The observable result — a fully
	// built, internally consistent netlist graph, with the label index
	// rebuilt before anything else observes it — is identical to
	// running inference after graph construction; only the bookkeeping
	// path differs.
	if _, err := InferExtraNodes(nl); err != nil {
		return nil, err
	}

	if err := makeNetlistNodes(r, nl); err != nil {
		return nil, err
	}
	if err := makeNetlistEdges(r, nl); err != nil {
		return nil, err
	}
	r.NetlistGraph.RebuildLabelIndex()

	return r, nil
}

// makeDeviceNodes creates one G_D node per device entity, assigning
// the canonical label for its kind plus alternate labels encoding
// substitutability (spec §3.1: a 4-LUT site hosts a 2-LUT/3-LUT; a
// DFFSR site hosts a plain DFF).
func makeDeviceNodes(r *Result, dev *device.Device) {
	for _, e := range dev.Entities() {
		label := r.Labels.Allocate(canonicalTypeName(e))
		id := r.DeviceGraph.AddNode(label, e)
		r.entityNode[e] = id

		for _, alt := range alternateTypeNames(e) {
			altLabel := r.Labels.Allocate(alt)
			r.DeviceGraph.AddAlternateLabel(id, altLabel)
		}
	}
}

// makeDeviceEdges installs the general-fabric edges (quadratic in
// entity count per spec §4.3 step 2 — acceptable at target device
// sizes) plus a small table of dedicated edges (spec §3.3's
// "dedicated edges" for hard-IP paths). A full fabric/dedicated edge
// table is the device database's responsibility (spec §1, "Device
// database" is out of scope); this table covers the paths the spec's
// own concrete scenarios and DRC checks exercise (VREF -> ACMP/DAC).
func makeDeviceEdges(r *Result, dev *device.Device) {
	entities := dev.Entities()
	for _, src := range entities {
		srcID := r.entityNode[src]
		for _, dst := range entities {
			if src == dst {
				continue
			}
			dstID := r.entityNode[dst]

			// General fabric: same matrix only. Cross-matrix signal
			// availability is modeled separately via duals and
			// cross-connections (spec §4.2.2/§4.4.2), not as plain G_D
			// edges, since the physical switch matrix is per-region.
			if src.Matrix == dst.Matrix {
				for _, outPort := range src.OutputPorts() {
					for _, inPort := range dst.InputPorts() {
						if dst.IsGeneralFabricInput(inPort) {
							r.DeviceGraph.AddEdge(srcID, outPort, dstID, inPort)
						}
					}
				}
			}

			for _, ded := range dedicatedEdges(src, dst) {
				r.DeviceGraph.AddEdge(srcID, ded.srcPort, dstID, ded.dstPort)
			}
		}
	}
}

type dedicatedEdge struct {
	srcPort, dstPort string
}

// dedicatedEdges lists the hard-IP paths that bypass general fabric
// routing (spec §3.3): a voltage reference feeding a comparator's VREF
// input or a DAC's reference input. Both sides must share a matrix —
// the hardware does not route dedicated paths across matrices.
func dedicatedEdges(src, dst *device.Entity) []dedicatedEdge {
	if src.Matrix != dst.Matrix {
		return nil
	}
	if src.Kind != device.KindVoltageReference {
		return nil
	}
	switch dst.Kind {
	case device.KindComparator:
		return []dedicatedEdge{{srcPort: "OUT", dstPort: "VREF"}}
	case device.KindDAC:
		return []dedicatedEdge{{srcPort: "OUT", dstPort: "VREF"}}
	default:
		return nil
	}
}

// makeNetlistNodes creates one G_N node per cell, resolving its label
// from its type name. Fails with a netlist error naming the cell if
// the type is unknown (spec §4.3 step 4).
func makeNetlistNodes(r *Result, nl *netlist.Netlist) error {
	for _, c := range nl.CellsInOrder() {
		label, ok := r.Labels.Resolve(c.Type)
		if !ok {
			return gperr.NewNetlistError("build_graphs", fmt.Sprintf("unknown cell type %q", c.Type), c.Name)
		}
		id := r.NetlistGraph.AddNode(label, c)
		r.cellNode[c] = id
	}
	return nil
}

// makeNetlistEdges creates one G_N edge per (driver, load) pair on
// every net (spec §4.3 step 5). A net whose driver is a top-level
// input port contributes no edge of its own — the input-buffer cell is
// the netlist-side proxy for that pin, and its own output net (if any)
// carries the actual edges.
func makeNetlistEdges(r *Result, nl *netlist.Netlist) error {
	topLevelInputs := make(map[string]bool)
	for _, p := range nl.Ports {
		if p.Dir == netlist.DirInput {
			topLevelInputs[p.Name] = true
		}
	}

	for _, net := range nl.NetsInOrder() {
		if net.Driver == nil {
			if len(net.Loads) > 0 {
				return gperr.NewNetlistError("build_graphs", fmt.Sprintf("net %q has loads but no driver", net.Name))
			}
			continue
		}
		if topLevelInputs[net.Driver.Cell] {
			// The driver is a top-level input port name masquerading as a
			// cell reference; this net's edges come from the IBUF cell's
			// own output net instead.
			continue
		}

		driverID, ok := r.cellNode[lookupCell(nl, net.Driver.Cell)]
		if !ok {
			return gperr.NewNetlistError("build_graphs", fmt.Sprintf("net %q driven by unknown cell %q", net.Name, net.Driver.Cell))
		}
		for _, load := range net.Loads {
			loadCell := lookupCell(nl, load.Cell)
			if loadCell == nil {
				return gperr.NewNetlistError("build_graphs", fmt.Sprintf("net %q loads unknown cell %q", net.Name, load.Cell))
			}
			loadID := r.cellNode[loadCell]
			r.NetlistGraph.AddEdge(driverID, portTag(net.Driver.Port, net.Driver.Bit), loadID, portTag(load.Port, load.Bit))
		}
	}
	return nil
}

func lookupCell(nl *netlist.Netlist, name string) *netlist.Cell {
	return nl.Cells[name]
}

// portTag renders a port name tagged with its bit index for multi-bit
// ports (spec §4.3 step 5: "Multi-bit ports become edges tagged with
// port[i]").
func portTag(port string, bit int) string {
	if bit < 0 {
		return port
	}
	return fmt.Sprintf("%s[%d]", port, bit)
}
