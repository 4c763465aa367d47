package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gp4par/gp4par/pkg/audit"
	"github.com/gp4par/gp4par/pkg/devicedb"
	"github.com/gp4par/gp4par/pkg/netlist"
)

func TestRunSucceedsOnTrivialDesign(t *testing.T) {
	dev, err := devicedb.Build(devicedb.DefaultSLG46620())
	if err != nil {
		t.Fatalf("devicedb.Build: %v", err)
	}
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "lut_a", Type: "GP_2LUT"})
	nl.AddCell(&netlist.Cell{Name: "lut_b", Type: "GP_2LUT"})
	nl.AddNet(&netlist.Net{
		Name:   "n1",
		Driver: &netlist.Endpoint{Cell: "lut_a", Port: "OUT", Bit: -1},
		Loads:  []netlist.Endpoint{{Cell: "lut_b", Port: "IN0", Bit: -1}},
	})

	result, err := Run(nl, dev, Options{Part: "SLG46620", Seed: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success {
		t.Errorf("expected a successful run, DRC errors: %v", result.DRC.Errors)
	}
}

func TestRunFailsOnOverConstrainedLOC(t *testing.T) {
	dev, err := devicedb.Build(devicedb.DefaultSLG46620())
	if err != nil {
		t.Fatalf("devicedb.Build: %v", err)
	}

	tbl := devicedb.DefaultSLG46620()
	if len(tbl.IOBs) == 0 {
		t.Fatal("default table has no IOBs to target")
	}
	pin := tbl.IOBs[0].Pin

	loc := dev.IOBByPin(pin).Description()

	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "ibuf_1", Type: "GP_IBUF", Attributes: map[string]string{"LOC": loc}})
	nl.AddCell(&netlist.Cell{Name: "ibuf_2", Type: "GP_IBUF", Attributes: map[string]string{"LOC": loc}})

	_, err = Run(nl, dev, Options{Part: "SLG46620", Seed: 1})
	if err == nil {
		t.Error("expected an error for two cells LOC'd to the same site")
	}
}

func TestRunWritesAuditTrail(t *testing.T) {
	dev, err := devicedb.Build(devicedb.DefaultSLG46620())
	if err != nil {
		t.Fatalf("devicedb.Build: %v", err)
	}
	nl := netlist.New()
	nl.AddCell(&netlist.Cell{Name: "lut_a", Type: "GP_2LUT"})

	tmpDir, err := os.MkdirTemp("", "pipeline-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	logger, err := audit.NewFileLogger(filepath.Join(tmpDir, "audit.log"), audit.RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer logger.Close()

	runID := "trivial-run"
	_, err = Run(nl, dev, Options{Part: "SLG46620", Seed: 7, Audit: logger, RunID: runID})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	events, err := logger.Query(audit.Filter{RunID: runID})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 7 {
		t.Fatalf("expected 7 audit events (one per stage), got %d", len(events))
	}

	prev := ""
	for _, ev := range events {
		if ev.PrevDigest != prev {
			t.Errorf("event %s: PrevDigest = %q, want %q", ev.ID, ev.PrevDigest, prev)
		}
		prev = ev.Digest
	}
}

func TestRunIsDeterministicForAFixedSeed(t *testing.T) {
	dev1, err := devicedb.Build(devicedb.DefaultSLG46620())
	if err != nil {
		t.Fatalf("devicedb.Build: %v", err)
	}
	dev2, err := devicedb.Build(devicedb.DefaultSLG46620())
	if err != nil {
		t.Fatalf("devicedb.Build: %v", err)
	}

	nlA := netlist.New()
	nlA.AddCell(&netlist.Cell{Name: "lut_a", Type: "GP_2LUT"})
	nlA.AddCell(&netlist.Cell{Name: "lut_b", Type: "GP_2LUT"})
	nlA.AddNet(&netlist.Net{
		Name:   "n1",
		Driver: &netlist.Endpoint{Cell: "lut_a", Port: "OUT", Bit: -1},
		Loads:  []netlist.Endpoint{{Cell: "lut_b", Port: "IN0", Bit: -1}},
	})
	nlB := netlist.New()
	nlB.AddCell(&netlist.Cell{Name: "lut_a", Type: "GP_2LUT"})
	nlB.AddCell(&netlist.Cell{Name: "lut_b", Type: "GP_2LUT"})
	nlB.AddNet(&netlist.Net{
		Name:   "n1",
		Driver: &netlist.Endpoint{Cell: "lut_a", Port: "OUT", Bit: -1},
		Loads:  []netlist.Endpoint{{Cell: "lut_b", Port: "IN0", Bit: -1}},
	})

	r1, err := Run(nlA, dev1, Options{Part: "SLG46620", Seed: 99})
	if err != nil {
		t.Fatalf("Run (first): %v", err)
	}
	r2, err := Run(nlB, dev2, Options{Part: "SLG46620", Seed: 99})
	if err != nil {
		t.Fatalf("Run (second): %v", err)
	}

	if r1.Cost.Total() != r2.Cost.Total() {
		t.Errorf("same seed produced different costs: %d vs %d", r1.Cost.Total(), r2.Cost.Total())
	}
	if dev1.CrossConnectionsUsed(0) != dev2.CrossConnectionsUsed(0) ||
		dev1.CrossConnectionsUsed(1) != dev2.CrossConnectionsUsed(1) {
		t.Error("same seed produced different cross-connection usage")
	}
}
