// Package labelmap implements the label allocator of spec §3.4: a
// single allocation call reserves one label simultaneously for both
// graphs and records a human-readable description for diagnostics,
// with alias support so closely-related primitive type names (e.g.
// GP_DFFR, GP_DFFS) resolve to the same canonical label.
//
// Grounded on Greenpak4PAREngine::GetLabelName in
// _examples/original_source/src/gp4par (declared alongside the engine
// that owns label allocation in the original; the label-name lookup
// itself has no owner of its own in the original code, so it is
// pulled out here as a small standalone package rather than folded
// into pkg/builder, matching spec §3.4 treating label allocation as
// its own concern).
package labelmap

import (
	"fmt"

	"github.com/gp4par/gp4par/pkg/graph"
)

// Map allocates and names labels. The zero value is ready to use.
type Map struct {
	next    graph.Label
	names   map[graph.Label]string
	aliases map[string]graph.Label // type name -> canonical label
}

// New creates an empty label map.
func New() *Map {
	return &Map{
		names:   make(map[graph.Label]string),
		aliases: make(map[string]graph.Label),
	}
}

// Allocate reserves a new label for the named primitive type and
// records its diagnostic name. The same label is usable in both the
// netlist graph and the device graph (spec §3.1: labels are shared
// between graphs).
func (m *Map) Allocate(typeName string) graph.Label {
	if l, ok := m.aliases[typeName]; ok {
		return l
	}
	if m.names == nil {
		m.names = make(map[graph.Label]string)
		m.aliases = make(map[string]graph.Label)
	}
	l := m.next
	m.next++
	m.names[l] = typeName
	m.aliases[typeName] = l
	return l
}

// Alias records that an additional type name resolves to the same
// label as an already-allocated canonical type name (spec §4.3 step 3:
// "DFF with initial value 1 aliases the same label as plain DFF; DFFR
// and DFFS alias DFFSR"). Panics if canonical has not been allocated
// yet — aliasing is always defined relative to an existing label.
func (m *Map) Alias(alias, canonical string) {
	l, ok := m.aliases[canonical]
	if !ok {
		panic(fmt.Sprintf("labelmap: cannot alias %q to unallocated type %q", alias, canonical))
	}
	m.aliases[alias] = l
}

// Resolve returns the label for a known type name and true, or
// (0, false) if the type name has never been allocated or aliased —
// the caller (the builder, building G_N nodes) turns a false result
// into an unknown-cell-type netlist error (spec §4.3 step 4).
func (m *Map) Resolve(typeName string) (graph.Label, bool) {
	l, ok := m.aliases[typeName]
	return l, ok
}

// Name returns the human-readable diagnostic name for a label, used in
// "out of sites of type L" and unroutable-edge diagnostics (spec §9,
// supplementing GetLabelName from the original PAR engine).
func (m *Map) Name(l graph.Label) string {
	if n, ok := m.names[l]; ok {
		return n
	}
	return fmt.Sprintf("label#%d", int(l))
}
