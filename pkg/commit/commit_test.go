package commit

import (
	"testing"

	"github.com/gp4par/gp4par/pkg/builder"
	"github.com/gp4par/gp4par/pkg/device"
	"github.com/gp4par/gp4par/pkg/devicedb"
	"github.com/gp4par/gp4par/pkg/netlist"
	"github.com/gp4par/gp4par/pkg/par"
)

func placedResult(t *testing.T, nl *netlist.Netlist) (*builder.Result, *device.Device) {
	t.Helper()
	dev, err := devicedb.Build(devicedb.DefaultSLG46620())
	if err != nil {
		t.Fatalf("devicedb.Build: %v", err)
	}
	r, err := builder.BuildGraphs(nl, dev)
	if err != nil {
		t.Fatalf("BuildGraphs: %v", err)
	}
	if err := par.ApplyLOC(r, nl); err != nil {
		t.Fatalf("ApplyLOC: %v", err)
	}
	if err := par.InitialPlace(r, r.Labels.Name); err != nil {
		t.Fatalf("InitialPlace: %v", err)
	}
	return r, dev
}

func TestCommitWiresLUTInput(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "lut_a", Type: "GP_2LUT"})
	nl.AddCell(&netlist.Cell{Name: "lut_b", Type: "GP_2LUT"})
	nl.AddNet(&netlist.Net{
		Name:   "n1",
		Driver: &netlist.Endpoint{Cell: "lut_a", Port: "OUT", Bit: -1},
		Loads:  []netlist.Endpoint{{Cell: "lut_b", Port: "IN0", Bit: -1}},
	})
	r, dev := placedResult(t, nl)

	if err := Commit(r, dev); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	lutBID, _ := r.CellNode(nl.Cells["lut_b"])
	_, lutBSiteID, _ := r.NetlistGraph.Node(lutBID).Mate()
	lutBSite := r.Entity(lutBSiteID)

	in0 := lutBSite.Input("IN0")
	if in0.IsZero() {
		t.Fatal("IN0 was not wired")
	}

	lutAID, _ := r.CellNode(nl.Cells["lut_a"])
	_, lutASiteID, _ := r.NetlistGraph.Node(lutAID).Mate()
	lutASite := r.Entity(lutASiteID)
	if !in0.Equal(device.Output{Src: lutASite, Port: "OUT"}) {
		t.Errorf("IN0 wired to %+v, want lut_a's site output", in0)
	}
}

func TestCommitRejectsPowerRailAsDestination(t *testing.T) {
	// Power rails have no inputs in pkg/device's InputPorts/generalIn
	// tables, so this scenario is only reachable if a future cell type
	// were mistakenly mapped onto GP_VDD/GP_VSS; Commit must refuse to
	// silently accept it (commit.cpp: "Power rail should not be driven").
	rail := &device.Entity{Kind: device.KindPowerRail}
	err := wireInput(rail, "IN", device.Output{})
	if err == nil {
		t.Error("expected an error wiring a power rail as a destination")
	}
}

func TestCommitAllocatesCrossConnectionOncePerSource(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "vref1", Type: "GP_VREF"})
	nl.AddCell(&netlist.Cell{Name: "acmp1", Type: "GP_ACMP"})
	nl.AddCell(&netlist.Cell{Name: "acmp2", Type: "GP_ACMP"})
	nl.AddNet(&netlist.Net{
		Name:   "vref_net",
		Driver: &netlist.Endpoint{Cell: "vref1", Port: "OUT", Bit: -1},
		Loads: []netlist.Endpoint{
			{Cell: "acmp1", Port: "VREF", Bit: -1},
			{Cell: "acmp2", Port: "VREF", Bit: -1},
		},
	})
	r, dev := placedResult(t, nl)

	if err := Commit(r, dev); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	// Pass B's split means each comparator now has its own VREF
	// instance, so there should be no cross-matrix sharing to dedupe
	// here; this mainly guards against Commit ever double-allocating
	// for same-source same-destination-matrix edges.
	if dev.CrossConnectionsUsed(0)+dev.CrossConnectionsUsed(1) > 4 {
		t.Errorf("unexpectedly high cross-connection usage: %d/%d",
			dev.CrossConnectionsUsed(0), dev.CrossConnectionsUsed(1))
	}
}

func TestCommitAppliesLUTTruthTableFromINITParameter(t *testing.T) {
	// INIT=6 is 0b0110: a 2-input XOR (out = in0 xor in1), exercising
	// every bit position of a 2-LUT's 4-entry table.
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{
		Name:       "xor1",
		Type:       "GP_2LUT",
		Parameters: map[string]string{"INIT": "6"},
	})
	r, dev := placedResult(t, nl)

	if err := Commit(r, dev); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	id, _ := r.CellNode(nl.Cells["xor1"])
	_, siteID, _ := r.NetlistGraph.Node(id).Mate()
	site := r.Entity(siteID)

	want := [16]bool{false, true, true, false}
	if got := site.LUT.TruthTable; got != want {
		t.Errorf("TruthTable = %v, want %v (INIT=6, a 2-input XOR)", got, want)
	}
}

func TestCommitAppliesFlipflopInitValue(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{
		Name:       "dff1",
		Type:       "GP_DFF",
		Parameters: map[string]string{"INIT": "1"},
	})
	r, dev := placedResult(t, nl)

	if err := Commit(r, dev); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	id, _ := r.CellNode(nl.Cells["dff1"])
	_, siteID, _ := r.NetlistGraph.Node(id).Mate()
	site := r.Entity(siteID)

	if !site.DFF.InitValue {
		t.Error("InitValue = false, want true (INIT=1)")
	}
}
