// Package graph implements the labelled bidirectional multigraph described
// in spec §3.1/§4.1: two graphs (netlist and device) whose nodes carry a
// primary label plus zero or more alternate labels, support O(1)
// label-indexed lookup, and mate across graphs under a partial-involution
// constraint.
//
// Nodes are identified by a stable index (NodeID) into an arena rather than
// by pointer (spec §9, "Back-references from domain objects to graph
// nodes"): every edge, mate, and back-reference is an index, which avoids
// the cyclic-pointer graph the original C++ implementation builds with raw
// pointers.
package graph

import "fmt"

// NodeID identifies a node within a single Graph. IDs are stable for the
// lifetime of the graph and are never reused, even if a node were removable
// (the core never removes nodes, only adds them during helper inference).
type NodeID int

// invalidNodeID is never a valid NodeID; used as the zero value for
// "no mate".
const invalidNodeID NodeID = -1

// Edge is a directed connection from a node's output port to a node's
// input port, stored on the source node (spec §3.1: "every edge ... is
// stored on its source node and is enumerable from that node in O(deg)
// time; reverse traversal is not required").
type Edge struct {
	Dest     NodeID
	SrcPort  string
	DestPort string
}

// Node is one graph vertex: a primary label, zero or more alternate
// labels, an opaque back-reference to the owning domain object (a netlist
// cell or a device entity), the edges it sources, and its current mate (or
// invalidNodeID).
type Node struct {
	ID        NodeID
	Primary   Label
	Alternate []Label
	UserData  interface{}
	Edges     []Edge
	mate      mateRef
}

// mateRef names a node in a specific (possibly different) graph. Mating is
// always cross-graph in this core (netlist <-> device), so a bare NodeID
// is ambiguous without knowing which graph it indexes into.
type mateRef struct {
	graph *Graph
	id    NodeID
}

// Mate returns the graph and NodeID this node is currently mated to, or
// false if unmated.
func (n *Node) Mate() (*Graph, NodeID, bool) {
	if n.mate.graph == nil {
		return nil, invalidNodeID, false
	}
	return n.mate.graph, n.mate.id, true
}

// Label names the "type" of a node (spec §3.1/§3.4): a small nonnegative
// integer allocated monotonically by the builder, shared between the
// netlist graph and the device graph so that a node in one can be matched
// against a node in the other purely by label.
type Label int

// Graph is a labelled multigraph with O(1) indexed access to "the i-th node
// with label L" (spec §4.1). It is not safe for concurrent use — the core
// is strictly single-threaded (spec §5).
type Graph struct {
	nodes      []*Node
	labelIndex map[Label][]NodeID // rebuilt by RebuildLabelIndex
	dirty      bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		labelIndex: make(map[Label][]NodeID),
	}
}

// AddNode creates a new node with the given primary label and opaque
// back-reference, returning its NodeID. The label index is marked dirty;
// callers must call RebuildLabelIndex before relying on label-indexed
// lookups.
func (g *Graph) AddNode(label Label, userData interface{}) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{
		ID:       id,
		Primary:  label,
		UserData: userData,
	})
	g.dirty = true
	return id
}

// AddAlternateLabel records an additional label a node may be matched
// under (spec §3.1: substitutability, e.g. a 4-LUT site hosting a 2-LUT).
func (g *Graph) AddAlternateLabel(node NodeID, label Label) {
	n := g.mustNode(node)
	n.Alternate = append(n.Alternate, label)
	g.dirty = true
}

// AddEdge records a directed, port-tagged connection from source to dest.
// Multiple edges between the same two nodes with different port pairs are
// allowed (spec §3.1).
func (g *Graph) AddEdge(source NodeID, srcPort string, dest NodeID, destPort string) {
	src := g.mustNode(source)
	g.mustNode(dest) // validates dest exists
	src.Edges = append(src.Edges, Edge{Dest: dest, SrcPort: srcPort, DestPort: destPort})
}

// Node returns the node with the given ID. Panics (programmer error, spec
// §4.1) if the ID is out of range.
func (g *Graph) Node(id NodeID) *Node {
	return g.mustNode(id)
}

// NumNodes returns the total number of nodes in the graph.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

func (g *Graph) mustNode(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		panic(fmt.Sprintf("graph: node id %d out of range (have %d nodes)", id, len(g.nodes)))
	}
	return g.nodes[id]
}

// MatchesLabel reports whether the node's primary or any alternate label
// equals the given label (spec §4.1 matches_label).
func (g *Graph) MatchesLabel(id NodeID, label Label) bool {
	n := g.mustNode(id)
	if n.Primary == label {
		return true
	}
	for _, alt := range n.Alternate {
		if alt == label {
			return true
		}
	}
	return false
}

// RebuildLabelIndex rebuilds the label → []NodeID index. Idempotent;
// invalidated by any mutation that adds nodes or changes a node's label
// set (spec §4.1). Helper inference (builder §4.3.1) must call this after
// each mutating pass before anything else observes the graph.
func (g *Graph) RebuildLabelIndex() {
	idx := make(map[Label][]NodeID, len(g.labelIndex))
	for _, n := range g.nodes {
		idx[n.Primary] = append(idx[n.Primary], n.ID)
		for _, alt := range n.Alternate {
			idx[alt] = append(idx[alt], n.ID)
		}
	}
	g.labelIndex = idx
	g.dirty = false
}

// NodeByLabelAndIndex returns the i-th node (0-based, in the order created,
// including alternate-label matches) carrying the given label. Panics if
// the index is out of range (programmer error, spec §4.1).
func (g *Graph) NodeByLabelAndIndex(label Label, i int) NodeID {
	ids := g.labelIndex[label]
	if i < 0 || i >= len(ids) {
		panic(fmt.Sprintf("graph: label %d has no node at index %d (have %d)", label, i, len(ids)))
	}
	return ids[i]
}

// NumNodesWithLabel returns the count of nodes carrying the given label
// (primary or alternate).
func (g *Graph) NumNodesWithLabel(label Label) int {
	return len(g.labelIndex[label])
}

// IndexStale reports whether the graph has been mutated since the last
// RebuildLabelIndex call. Exposed so callers (the builder) can assert they
// rebuilt after every mutating pass, per spec §4.3's ordering requirement.
func (g *Graph) IndexStale() bool {
	return g.dirty
}

// Mate establishes a is-mated-to relationship between a node in this graph
// and a node in another graph, enforcing the partial-involution invariant
// of spec §3.1: at most one of each pair has a mate at any time. Fails fast
// (programmer error) if either side is already mated, matching spec §4.1
// failure semantics.
func Mate(a *Graph, aID NodeID, b *Graph, bID NodeID) {
	an := a.mustNode(aID)
	bn := b.mustNode(bID)
	if an.mate.graph != nil {
		panic(fmt.Sprintf("graph: node %d is already mated", aID))
	}
	if bn.mate.graph != nil {
		panic(fmt.Sprintf("graph: node %d is already mated", bID))
	}
	an.mate = mateRef{graph: b, id: bID}
	bn.mate = mateRef{graph: a, id: aID}
}

// Unmate clears the mate relationship for a node, and for its mate if one
// exists. No-op if the node is already unmated.
func Unmate(a *Graph, aID NodeID) {
	an := a.mustNode(aID)
	if an.mate.graph == nil {
		return
	}
	bn := an.mate.graph.mustNode(an.mate.id)
	bn.mate = mateRef{}
	an.mate = mateRef{}
}
