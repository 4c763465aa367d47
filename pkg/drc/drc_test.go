package drc

import (
	"testing"

	"github.com/gp4par/gp4par/pkg/builder"
	"github.com/gp4par/gp4par/pkg/commit"
	"github.com/gp4par/gp4par/pkg/device"
	"github.com/gp4par/gp4par/pkg/devicedb"
	"github.com/gp4par/gp4par/pkg/netlist"
	"github.com/gp4par/gp4par/pkg/par"
)

func placeAndCommit(t *testing.T, nl *netlist.Netlist) (*builder.Result, *device.Device) {
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
	if err := commit.Commit(r, dev); err != nil {
		t.Fatalf("commit.Commit: %v", err)
	}
	return r, dev
}

func twoLUTNetlist() *netlist.Netlist {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "lut_a", Type: "GP_2LUT"})
	nl.AddCell(&netlist.Cell{Name: "lut_b", Type: "GP_2LUT"})
	nl.AddNet(&netlist.Net{
		Name:   "n1",
		Driver: &netlist.Endpoint{Cell: "lut_a", Port: "OUT", Bit: -1},
		Loads:  []netlist.Endpoint{{Cell: "lut_b", Port: "IN0", Bit: -1}},
	})
	return nl
}

func TestRunPassesOnFullyPlacedDesign(t *testing.T) {
	nl := twoLUTNetlist()
	r, dev := placeAndCommit(t, nl)

	report := Run(r, nl, dev)
	if !report.OK() {
		t.Errorf("expected a clean report, got errors: %v", report.Errors)
	}
}

func TestCheckUnusedOutputsWarnsOnDeadEndCell(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "lut_a", Type: "GP_2LUT"})
	r, dev := placeAndCommit(t, nl)

	report := Run(r, nl, dev)
	if len(report.Warnings) == 0 {
		t.Error("expected a no-load warning for lut_a")
	}
}

func TestCheckUnusedOutputsExemptsIgnoreNoLoadCells(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{
		Name:       "lut_a",
		Type:       "GP_2LUT",
		Attributes: map[string]string{"ignore-no-load": "true"},
	})
	r, dev := placeAndCommit(t, nl)

	report := Run(r, nl, dev)
	for _, w := range report.Warnings {
		if w == `cell "lut_a" drives no load` {
			t.Error("ignore-no-load cell should not produce a no-load warning")
		}
	}
}

func TestCheckUnlocatedIOBsWarns(t *testing.T) {
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "ibuf1", Type: "GP_IBUF"})
	r, dev := placeAndCommit(t, nl)

	report := Run(r, nl, dev)
	found := false
	for _, w := range report.Warnings {
		if w == `IOB "ibuf1" is in use but has no LOC constraint; a future pinout change may silently repin it` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unlocated-IOB warning, got: %v", report.Warnings)
	}
}

func TestFixupSharedACMP0MuxEnablesIdleOwner(t *testing.T) {
	dev, err := devicedb.Build(devicedb.DefaultSLG46620())
	if err != nil {
		t.Fatalf("devicedb.Build: %v", err)
	}
	comparators := dev.EntitiesOfKind(device.KindComparator)
	if len(comparators) < 2 {
		t.Fatal("test requires at least two comparators in the default table")
	}
	vref := dev.EntityOfKind(device.KindVoltageReference, 0)
	acmp0, other := comparators[0], comparators[1]
	other.SetInput("VREF", device.Output{Src: vref, Port: "OUT"})
	other.SetUsed(true)

	report := &Report{}
	fixupSharedACMP0Mux(dev, report)

	if !report.OK() {
		t.Fatalf("unexpected DRC errors: %v", report.Errors)
	}
	if !acmp0.IsUsed() {
		t.Error("expected ACMP0's shared input mux to be enabled as a fixup")
	}
}

func TestFixupSharedACMP0MuxFailsOnConflict(t *testing.T) {
	dev, err := devicedb.Build(devicedb.DefaultSLG46620())
	if err != nil {
		t.Fatalf("devicedb.Build: %v", err)
	}
	comparators := dev.EntitiesOfKind(device.KindComparator)
	if len(comparators) < 2 {
		t.Fatal("test requires at least two comparators in the default table")
	}
	vrefs := dev.EntitiesOfKind(device.KindVoltageReference)
	if len(vrefs) < 2 {
		t.Fatal("test requires at least two voltage references in the default table")
	}
	vrefs[0].VRef.ACMPMuxSel = 0
	vrefs[1].VRef.ACMPMuxSel = 1

	comparators[0].SetInput("VREF", device.Output{Src: vrefs[0], Port: "OUT"})
	comparators[0].SetUsed(true)
	comparators[1].SetInput("VREF", device.Output{Src: vrefs[1], Port: "OUT"})
	comparators[1].SetUsed(true)

	report := &Report{}
	fixupSharedACMP0Mux(dev, report)

	if report.OK() {
		t.Error("expected a conflicting ACMP0 mux selection to fail DRC")
	}
}

func TestErrorUnwrapsToErrFailed(t *testing.T) {
	e := &Error{Report: &Report{Errors: []string{"boom"}}}
	if got := e.Unwrap(); got != ErrFailed {
		t.Errorf("Unwrap() = %v, want ErrFailed", got)
	}
}
