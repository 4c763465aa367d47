package netlist

import (
	"encoding/json"
	"fmt"
)

// file is the on-disk JSON shape, grounded on the teacher's (deleted)
// pkg/spec JSON loader: a flat file struct decoded with encoding/json,
// then converted into the validated domain types above. This is a test
// fixture format, not the real synthesis tool's dialect (spec §1/§6.1:
// the frontend's file format is opaque to the core).
type file struct {
	Ports []filePort `json:"ports"`
	Cells []fileCell `json:"cells"`
	Nets  []fileNet  `json:"nets"`
}

type filePort struct {
	Name  string `json:"name"`
	Dir   string `json:"dir"`
	Width int    `json:"width"`
}

type fileCell struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Parameters map[string]string `json:"parameters"`
	Attributes map[string]string `json:"attributes"`
}

type fileNet struct {
	Name   string        `json:"name"`
	Driver *fileEndpoint `json:"driver"`
	Loads  []fileEndpoint `json:"loads"`
}

type fileEndpoint struct {
	Cell string `json:"cell"`
	Port string `json:"port"`
	Bit  int    `json:"bit"`
}

// LoadJSON decodes a fixture netlist from JSON bytes.
func LoadJSON(data []byte) (*Netlist, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("netlist: decode: %w", err)
	}

	n := New()

	for _, p := range f.Ports {
		dir, err := parseDirection(p.Dir)
		if err != nil {
			return nil, err
		}
		n.Ports = append(n.Ports, Port{Name: p.Name, Dir: dir, Width: p.Width})
	}

	for _, c := range f.Cells {
		if err := n.AddCell(&Cell{
			Name:       c.Name,
			Type:       c.Type,
			Parameters: c.Parameters,
			Attributes: c.Attributes,
		}); err != nil {
			return nil, err
		}
	}

	for _, fn := range f.Nets {
		net := &Net{Name: fn.Name}
		if fn.Driver != nil {
			net.Driver = &Endpoint{Cell: fn.Driver.Cell, Port: fn.Driver.Port, Bit: fn.Driver.Bit}
		}
		for _, l := range fn.Loads {
			net.Loads = append(net.Loads, Endpoint{Cell: l.Cell, Port: l.Port, Bit: l.Bit})
		}
		if err := n.AddNet(net); err != nil {
			return nil, err
		}

		if net.Driver != nil {
			if cell, ok := n.Cells[net.Driver.Cell]; ok {
				cell.Connections[net.Driver.Port] = append(cell.Connections[net.Driver.Port], net.Name)
			}
		}
		for _, l := range net.Loads {
			if cell, ok := n.Cells[l.Cell]; ok {
				cell.Connections[l.Port] = append(cell.Connections[l.Port], net.Name)
			}
		}
	}

	return n, nil
}

func parseDirection(s string) (Direction, error) {
	switch s {
	case "input":
		return DirInput, nil
	case "output":
		return DirOutput, nil
	case "inout":
		return DirInout, nil
	default:
		return 0, fmt.Errorf("netlist: unknown port direction %q", s)
	}
}
