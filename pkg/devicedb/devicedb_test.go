package devicedb

import (
	"testing"

	"github.com/gp4par/gp4par/pkg/device"
	"gopkg.in/yaml.v3"
)

func TestDefaultSLG46620BuildsDevice(t *testing.T) {
	tbl := DefaultSLG46620()
	d, err := Build(tbl)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if d.Part != device.PartSLG46620 {
		t.Errorf("Part = %v, want %v", d.Part, device.PartSLG46620)
	}
	if got := len(d.EntitiesOfKind(device.KindLUT2)); got != tbl.LUT2Count {
		t.Errorf("LUT2 count = %d, want %d", got, tbl.LUT2Count)
	}
	if got := len(d.EntitiesOfKind(device.KindIOB)); got != len(tbl.IOBs) {
		t.Errorf("IOB count = %d, want %d", got, len(tbl.IOBs))
	}

	// every power rail must have a dual on the opposite matrix
	for _, rail := range d.EntitiesOfKind(device.KindPowerRail) {
		dual := rail.Dual()
		if dual == nil {
			t.Fatalf("power rail %s has no dual", rail.Description())
		}
		if dual.Matrix == rail.Matrix {
			t.Errorf("power rail %s dual is on the same matrix", rail.Description())
		}
	}
}

func TestParseRoundTripsYAML(t *testing.T) {
	tbl := DefaultSLG46620()
	data, err := yaml.Marshal(tbl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Part != tbl.Part {
		t.Errorf("Part = %q, want %q", parsed.Part, tbl.Part)
	}
	if parsed.LUT4Count != tbl.LUT4Count {
		t.Errorf("LUT4Count = %d, want %d", parsed.LUT4Count, tbl.LUT4Count)
	}
}

func TestChecksumIsStableForSameBytes(t *testing.T) {
	data := []byte("part: SLG46620\n")
	a, err := Checksum(data)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	b, err := Checksum(append([]byte{}, data...))
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if a != b {
		t.Error("checksum of identical bytes must match")
	}

	c, err := Checksum([]byte("part: SLG46621\n"))
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if a == c {
		t.Error("checksum of different bytes must differ")
	}
}
