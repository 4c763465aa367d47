package builder

import (
	"testing"

	"github.com/gp4par/gp4par/pkg/device"
	"github.com/gp4par/gp4par/pkg/devicedb"
	"github.com/gp4par/gp4par/pkg/netlist"
)

func testDevice(t *testing.T) *device.Device {
	t.Helper()
	d, err := devicedb.Build(devicedb.DefaultSLG46620())
	if err != nil {
		t.Fatalf("devicedb.Build: %v", err)
	}
	return d
}

func TestBuildGraphsAssignsLabelsToEveryCell(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "ibuf1", Type: "GP_IBUF"})
	nl.AddCell(&netlist.Cell{Name: "obuf1", Type: "GP_OBUF"})
	nl.AddCell(&netlist.Cell{Name: "lut1", Type: "GP_2LUT"})
	nl.AddNet(&netlist.Net{
		Name:   "n1",
		Driver: &netlist.Endpoint{Cell: "ibuf1", Port: "OUT", Bit: -1},
		Loads:  []netlist.Endpoint{{Cell: "lut1", Port: "IN0", Bit: -1}},
	})
	nl.AddNet(&netlist.Net{
		Name:   "n2",
		Driver: &netlist.Endpoint{Cell: "lut1", Port: "OUT", Bit: -1},
		Loads:  []netlist.Endpoint{{Cell: "obuf1", Port: "IO", Bit: -1}},
	})

	r, err := BuildGraphs(nl, testDevice(t))
	if err != nil {
		t.Fatalf("BuildGraphs: %v", err)
	}
	if r.NetlistGraph.NumNodes() != 3 {
		t.Fatalf("NumNodes() = %d, want 3", r.NetlistGraph.NumNodes())
	}

	lutID, ok := r.CellNode(nl.Cells["lut1"])
	if !ok {
		t.Fatal("lut1 has no graph node")
	}
	edges := r.NetlistGraph.Node(lutID).Edges
	if len(edges) != 1 || edges[0].DestPort != "IO" {
		t.Errorf("lut1 edges = %+v, want one edge to IO", edges)
	}
}

func TestBuildGraphsRejectsUnknownCellType(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "mystery1", Type: "GP_MYSTERY"})

	if _, err := BuildGraphs(nl, testDevice(t)); err == nil {
		t.Error("expected error for unknown cell type")
	}
}

func TestDeviceLUT4HasAlternateLabelsForSmallerLUTs(t *testing.T) {
	nl := netlist.New()
	r, err := BuildGraphs(nl, testDevice(t))
	if err != nil {
		t.Fatalf("BuildGraphs: %v", err)
	}

	lut2Label, ok := r.Labels.Resolve("GP_2LUT")
	if !ok {
		t.Fatal("GP_2LUT label not allocated")
	}
	if got := r.DeviceGraph.NumNodesWithLabel(lut2Label); got == 0 {
		t.Error("expected at least one device node matching GP_2LUT (LUT2, LUT3, or LUT4 sites)")
	}
}

func TestHelperInferenceSplitsMultiDrivenVREF(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "vref1", Type: "GP_VREF"})
	nl.AddCell(&netlist.Cell{Name: "acmp1", Type: "GP_ACMP"})
	nl.AddCell(&netlist.Cell{Name: "dac1", Type: "GP_DAC"})
	nl.AddNet(&netlist.Net{
		Name:   "vref_net",
		Driver: &netlist.Endpoint{Cell: "vref1", Port: "OUT", Bit: -1},
		Loads: []netlist.Endpoint{
			{Cell: "acmp1", Port: "VREF", Bit: -1},
			{Cell: "dac1", Port: "VREF", Bit: -1},
		},
	})

	if _, err := BuildGraphs(nl, testDevice(t)); err != nil {
		t.Fatalf("BuildGraphs: %v", err)
	}

	vrefCount := 0
	for _, c := range nl.Cells {
		if c.Type == "GP_VREF" {
			vrefCount++
		}
	}
	if vrefCount != 2 {
		t.Errorf("expected 2 GP_VREF cells after Pass B, got %d", vrefCount)
	}

	// original net should now drive only one analog load
	if got := len(nl.Nets["vref_net"].Loads); got != 1 {
		t.Errorf("original vref net loads = %d, want 1", got)
	}
}

func TestHelperInferenceSynthesizesDummyComparator(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "vref1", Type: "GP_VREF"})
	nl.AddCell(&netlist.Cell{Name: "obuf1", Type: "GP_OBUF"})
	nl.AddNet(&netlist.Net{
		Name:   "vref_net",
		Driver: &netlist.Endpoint{Cell: "vref1", Port: "OUT", Bit: -1},
		Loads:  []netlist.Endpoint{{Cell: "obuf1", Port: "IO", Bit: -1}},
	})

	if _, err := BuildGraphs(nl, testDevice(t)); err != nil {
		t.Fatalf("BuildGraphs: %v", err)
	}

	found := false
	for _, c := range nl.Cells {
		if c.Type == "GP_ACMP" {
			found = true
			if !c.HasAttribute("ignore-no-load") {
				t.Error("dummy comparator must carry the ignore-no-load attribute")
			}
		}
	}
	if !found {
		t.Error("expected a synthesized dummy comparator")
	}
}

func TestHelperInferencePassARejectsMoreThanOneComparator(t *testing.T) {
	// Pass A runs before Pass B (spec §4.3.1), so a net that already
	// carries more than one comparator alongside an IOB load hits this
	// fatal check for real during ordinary InferExtraNodes execution —
	// Pass A's check fires first on such a net, so Pass B never gets to
	// split its comparators.
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "vref1", Type: "GP_VREF"})
	nl.AddCell(&netlist.Cell{Name: "acmp1", Type: "GP_ACMP"})
	nl.AddCell(&netlist.Cell{Name: "acmp2", Type: "GP_ACMP"})
	nl.AddCell(&netlist.Cell{Name: "obuf1", Type: "GP_OBUF"})
	nl.AddNet(&netlist.Net{
		Name:   "vref_net",
		Driver: &netlist.Endpoint{Cell: "vref1", Port: "OUT", Bit: -1},
		Loads: []netlist.Endpoint{
			{Cell: "acmp1", Port: "VREF", Bit: -1},
			{Cell: "acmp2", Port: "VREF", Bit: -1},
			{Cell: "obuf1", Port: "IO", Bit: -1},
		},
	})

	if _, err := reserveSharedAnalogResources(nl); err == nil {
		t.Error("expected fatal error for >1 comparator sharing a reference")
	}
}

// TestHelperInferenceOrdersDummyComparatorBeforeSplit exercises spec §8
// Concrete Scenario 6: one voltage reference simultaneously drives an
// IOB with no comparator of its own and a second, unrelated analog
// load (a DAC). Pass A must synthesize the dummy comparator before
// Pass B decides how many analog loads need splitting off, or the DAC
// and the dummy comparator are left stranded together on one
// reference with nothing to split them apart.
func TestHelperInferenceOrdersDummyComparatorBeforeSplit(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "vref1", Type: "GP_VREF"})
	nl.AddCell(&netlist.Cell{Name: "obuf1", Type: "GP_OBUF"})
	nl.AddCell(&netlist.Cell{Name: "dac1", Type: "GP_DAC"})
	nl.AddNet(&netlist.Net{
		Name:   "vref_net",
		Driver: &netlist.Endpoint{Cell: "vref1", Port: "OUT", Bit: -1},
		Loads: []netlist.Endpoint{
			{Cell: "obuf1", Port: "IO", Bit: -1},
			{Cell: "dac1", Port: "VREF", Bit: -1},
		},
	})

	if _, err := BuildGraphs(nl, testDevice(t)); err != nil {
		t.Fatalf("BuildGraphs: %v", err)
	}

	var dummyACMP string
	for _, c := range nl.Cells {
		if c.Type == "GP_ACMP" {
			dummyACMP = c.Name
		}
	}
	if dummyACMP == "" {
		t.Fatal("Pass A should have synthesized a dummy comparator to reserve the reference for the IOB")
	}

	vrefCount := 0
	for _, c := range nl.Cells {
		if c.Type == "GP_VREF" {
			vrefCount++
		}
	}
	if vrefCount != 2 {
		t.Fatalf("expected Pass B to have split the reference in two (once the dummy comparator gave it a second analog load to contend with), got %d GP_VREF cells", vrefCount)
	}

	// No net may retain more than one analog load; had Pass B run first
	// (the bug being guarded against) it would have seen only dac1 at
	// split time, missed the not-yet-created dummy comparator, and left
	// both analog loads stuck together on one reference forever.
	for name, net := range nl.Nets {
		analogLoads := 0
		for _, load := range net.Loads {
			if c := nl.Cells[load.Cell]; c != nil && isAnalogLoadType(c.Type) {
				analogLoads++
			}
		}
		if analogLoads > 1 {
			t.Errorf("net %q still drives %d analog loads after InferExtraNodes", name, analogLoads)
		}
	}
}
