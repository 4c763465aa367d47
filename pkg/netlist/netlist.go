// Package netlist implements the consumed netlist model of spec §3.2:
// cells, top-level ports, and nets with a single driver and a list of
// loads, plus the LOC placement-constraint attribute (spec §3.5/§6.4).
//
// The core only consumes this object graph; parsing the synthesis
// tool's JSON dialect into it is deliberately out of scope (spec §1,
// "Netlist frontend"). pkg/netlist nonetheless includes a JSON loader
// for test fixtures, grounded on the teacher's (deleted) pkg/spec JSON
// loader pattern: decode into a file-shaped struct, then convert into
// validated domain types.
package netlist

import (
	"fmt"
	"sort"
)

// Direction is a top-level port's signal direction.
type Direction int

const (
	DirInput Direction = iota
	DirOutput
	DirInout
)

// Port is a top-level input/output/inout of the netlist's top module.
type Port struct {
	Name  string
	Dir   Direction
	Width int
}

// Endpoint names a (cell, port) pair, optionally qualified with a bit
// index for multi-bit ports (spec §3.2: "loads ... with an optional
// bit index").
type Endpoint struct {
	Cell string
	Port string
	Bit  int // -1 if the port is not multi-bit or the whole port is meant
}

// Cell is a named, typed instance: a type name, a parameter map, an
// attribute map, and a port→connection map (spec §3.2).
type Cell struct {
	Name       string
	Type       string
	Parameters map[string]string
	Attributes map[string]string

	// Connections maps each port name to the ordered list of net names
	// driving/loading each bit of that port (spec §3.2: "ordered-bit-list
	// connection map").
	Connections map[string][]string
}

// LOC returns the cell's LOC attribute value and whether it is set
// (spec §6.4).
func (c *Cell) LOC() (string, bool) {
	v, ok := c.Attributes["LOC"]
	return v, ok
}

// HasAttribute reports whether the named attribute is present,
// regardless of value — used for boolean-flavored attributes like
// "ignore-no-load" (spec §4.3.1 Pass A, §4.6).
func (c *Cell) HasAttribute(name string) bool {
	_, ok := c.Attributes[name]
	return ok
}

// Net is a maximal connected set of bit-slices: one driver and zero or
// more loads (spec §3.2).
type Net struct {
	Name   string
	Driver *Endpoint // nil if undriven
	Loads  []Endpoint
}

// Netlist is the top module: its ports, cells, and nets.
type Netlist struct {
	Ports []Port
	Cells map[string]*Cell
	Nets  map[string]*Net

	// nextSuffix supports cloning cells with a fresh unique name during
	// helper inference Pass B (spec §4.3.1), mirroring the original's
	// monotonic counter in ReplicateVREF.
	nextSuffix int
}

// New creates an empty netlist.
func New() *Netlist {
	return &Netlist{
		Cells: make(map[string]*Cell),
		Nets:  make(map[string]*Net),
	}
}

// AddCell inserts a cell, failing if the name is already taken.
func (n *Netlist) AddCell(c *Cell) error {
	if _, exists := n.Cells[c.Name]; exists {
		return fmt.Errorf("netlist: duplicate cell name %q", c.Name)
	}
	if c.Parameters == nil {
		c.Parameters = map[string]string{}
	}
	if c.Attributes == nil {
		c.Attributes = map[string]string{}
	}
	if c.Connections == nil {
		c.Connections = map[string][]string{}
	}
	n.Cells[c.Name] = c
	return nil
}

// AddNet inserts a net, failing if the name is already taken.
func (n *Netlist) AddNet(net *Net) error {
	if _, exists := n.Nets[net.Name]; exists {
		return fmt.Errorf("netlist: duplicate net name %q", net.Name)
	}
	n.Nets[net.Name] = net
	return nil
}

// FreshName returns a unique cell/net name derived from base, used by
// helper inference when cloning cells (spec §4.3.1 Pass B: "create a
// fresh unique name", grounded on the original's ReplicateVREF counter).
func (n *Netlist) FreshName(base string) string {
	for {
		n.nextSuffix++
		candidate := fmt.Sprintf("%s_dup%d", base, n.nextSuffix)
		if _, cellTaken := n.Cells[candidate]; cellTaken {
			continue
		}
		if _, netTaken := n.Nets[candidate]; netTaken {
			continue
		}
		return candidate
	}
}

// CellsInOrder returns cells sorted by name, giving deterministic
// iteration order for graph construction (spec §5 determinism).
func (n *Netlist) CellsInOrder() []*Cell {
	names := make([]string, 0, len(n.Cells))
	for name := range n.Cells {
		names = append(names, name)
	}
	sort.Strings(names)
	cells := make([]*Cell, len(names))
	for i, name := range names {
		cells[i] = n.Cells[name]
	}
	return cells
}

// NetsInOrder returns nets sorted by name, for the same reason.
func (n *Netlist) NetsInOrder() []*Net {
	names := make([]string, 0, len(n.Nets))
	for name := range n.Nets {
		names = append(names, name)
	}
	sort.Strings(names)
	nets := make([]*Net, len(names))
	for i, name := range names {
		nets[i] = n.Nets[name]
	}
	return nets
}
