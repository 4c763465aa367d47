// Package devicedb loads the per-part device table data (entity
// counts, IOB pin assignments, matrix split) that parameterizes
// pkg/device.Device construction, and computes a provenance checksum
// of the table actually used for a run.
//
// The table format is YAML, matching the rest of the toolchain's
// configuration (SPEC_FULL.md §A.2); the original implementation wires
// equivalent per-part constants directly into C++ (Greenpak4Device's
// CreateDevice_SLG46620(), whose body is not present in the retrieved
// source — only its declaration in Greenpak4Device.h), so the specific
// counts below are a plausible small-part layout consistent with
// Greenpak4Device.h's documented shape (two matrices, a handful of LUTs
// of each order, a few flip-flops and counters, two voltage references,
// two comparators) rather than a verbatim transcription of proprietary
// part data.
package devicedb

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/gp4par/gp4par/pkg/device"
)

// Table is the decoded per-part layout.
type Table struct {
	Part string `yaml:"part"`

	IOBs []IOBEntry `yaml:"iobs"`

	LUT2Count int `yaml:"lut2_count"`
	LUT3Count int `yaml:"lut3_count"`
	LUT4Count int `yaml:"lut4_count"`

	Flipflops []FlipflopEntry `yaml:"flipflops"`
	Counters  []CounterEntry  `yaml:"counters"`

	VoltageReferences int `yaml:"voltage_references"`
	Comparators       int `yaml:"comparators"`
	DACs              int `yaml:"dacs"`
	LFOscillators     int `yaml:"lf_oscillators"`
	RingOscillators   int `yaml:"ring_oscillators"`
	RCOscillators     int `yaml:"rc_oscillators"`
	SystemResets      int `yaml:"system_resets"`
	Inverters         int `yaml:"inverters"`

	ShiftRegisters     int `yaml:"shift_registers"`
	Abufs              int `yaml:"abufs"`
	PGAs               int `yaml:"pgas"`
	DigitalComparators int `yaml:"digital_comparators"`
	Delays             int `yaml:"delays"`
	ClockBuffers       int `yaml:"clock_buffers"`
	PowerOnResets      int `yaml:"power_on_resets"`

	// DualPairs lists (kind, index) pairs naming entities for a dual on
	// the opposite matrix. Build does not read it: only the power rails
	// receive duals (spec §4.2.2).
	DualPairs []DualEntry `yaml:"dual_pairs"`
}

type IOBEntry struct {
	Pin    int  `yaml:"pin"`
	Matrix int  `yaml:"matrix"`
	InputOnly bool `yaml:"input_only"`
}

type FlipflopEntry struct {
	Matrix int  `yaml:"matrix"`
	HasSR  bool `yaml:"has_sr"`
}

type CounterEntry struct {
	Matrix int `yaml:"matrix"`
	Depth  int `yaml:"depth"`
}

type DualEntry struct {
	Kind   string `yaml:"kind"`
	Index  int    `yaml:"index"`
}

// Parse decodes a YAML device table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("devicedb: parse: %w", err)
	}
	return &t, nil
}

// Checksum returns a blake2b-256 digest of the raw table bytes, logged
// by pkg/pipeline alongside every run so a result can be tied back to
// the exact device table that produced it.
func Checksum(data []byte) ([32]byte, error) {
	return blake2b.Sum256(data), nil
}

// Build constructs a pkg/device.Device from a decoded Table. Each
// matrix gets one power rail pair (VDD/GND) with a dual on the
// opposite matrix, matching Greenpak4Device's m_constantOne/
// m_constantZero per matrix.
func Build(t *Table) (*device.Device, error) {
	d := device.New(device.Part(t.Part))

	for matrix := 0; matrix < 2; matrix++ {
		vdd := d.AddPowerRail(matrix, true)
		gnd := d.AddPowerRail(matrix, false)
		d.AddDual(vdd)
		d.AddDual(gnd)
	}

	for _, iob := range t.IOBs {
		d.AddIOB(iob.Pin, iob.Matrix, device.IOBConfig{InputOnly: iob.InputOnly})
	}

	for i := 0; i < t.LUT2Count; i++ {
		d.AddLUT(2, i%2)
	}
	for i := 0; i < t.LUT3Count; i++ {
		d.AddLUT(3, i%2)
	}
	for i := 0; i < t.LUT4Count; i++ {
		d.AddLUT(4, i%2)
	}

	for _, ff := range t.Flipflops {
		d.AddFlipflop(ff.Matrix, ff.HasSR)
	}
	for _, c := range t.Counters {
		d.AddCounter(c.Depth, c.Matrix)
	}

	for i := 0; i < t.VoltageReferences; i++ {
		d.AddVoltageReference(i % 2)
	}
	for i := 0; i < t.Comparators; i++ {
		d.AddSimple(device.KindComparator, i%2)
	}
	for i := 0; i < t.DACs; i++ {
		d.AddSimple(device.KindDAC, i%2)
	}
	for i := 0; i < t.LFOscillators; i++ {
		d.AddSimple(device.KindLFOscillator, i%2)
	}
	for i := 0; i < t.RingOscillators; i++ {
		d.AddSimple(device.KindRingOscillator, i%2)
	}
	for i := 0; i < t.RCOscillators; i++ {
		d.AddSimple(device.KindRCOscillator, i%2)
	}
	for i := 0; i < t.SystemResets; i++ {
		d.AddSimple(device.KindSystemReset, i%2)
	}
	for i := 0; i < t.Inverters; i++ {
		d.AddSimple(device.KindInverter, i%2)
	}
	for i := 0; i < t.ShiftRegisters; i++ {
		d.AddShiftRegister(i % 2)
	}
	for i := 0; i < t.Abufs; i++ {
		d.AddAbuf(i % 2)
	}
	for i := 0; i < t.PGAs; i++ {
		d.AddPGA(i % 2)
	}
	for i := 0; i < t.DigitalComparators; i++ {
		d.AddDigitalComparator(i % 2)
	}
	for i := 0; i < t.Delays; i++ {
		d.AddDelay(i % 2)
	}
	for i := 0; i < t.ClockBuffers; i++ {
		d.AddSimple(device.KindClockBuffer, i%2)
	}
	for i := 0; i < t.PowerOnResets; i++ {
		d.AddSimple(device.KindPowerOnReset, i%2)
	}

	return d, nil
}

// DefaultSLG46620 is a compact built-in table for the part named in
// Greenpak4Device.h's GREENPAK4_PART enum, used when no external table
// file is supplied and by tests.
func DefaultSLG46620() *Table {
	return &Table{
		Part: string(device.PartSLG46620),
		IOBs: []IOBEntry{
			{Pin: 2, Matrix: 0}, {Pin: 3, Matrix: 0}, {Pin: 4, Matrix: 0},
			{Pin: 5, Matrix: 0}, {Pin: 6, Matrix: 0}, {Pin: 7, Matrix: 0},
			{Pin: 8, Matrix: 0}, {Pin: 9, Matrix: 0}, {Pin: 10, Matrix: 0},
			{Pin: 12, Matrix: 1}, {Pin: 13, Matrix: 1}, {Pin: 14, Matrix: 1},
			{Pin: 15, Matrix: 1}, {Pin: 16, Matrix: 1}, {Pin: 17, Matrix: 1},
			{Pin: 18, Matrix: 1}, {Pin: 19, Matrix: 1}, {Pin: 20, Matrix: 1},
		},
		LUT2Count: 8,
		LUT3Count: 8,
		LUT4Count: 4,
		Flipflops: []FlipflopEntry{
			{Matrix: 0, HasSR: true}, {Matrix: 0, HasSR: true},
			{Matrix: 0, HasSR: false}, {Matrix: 0, HasSR: false},
			{Matrix: 1, HasSR: true}, {Matrix: 1, HasSR: true},
			{Matrix: 1, HasSR: false}, {Matrix: 1, HasSR: false},
		},
		Counters: []CounterEntry{
			{Matrix: 0, Depth: 8}, {Matrix: 0, Depth: 14},
			{Matrix: 1, Depth: 8}, {Matrix: 1, Depth: 14},
		},
		VoltageReferences: 2,
		Comparators:       2,
		DACs:              1,
		LFOscillators:     1,
		RingOscillators:   1,
		RCOscillators:     1,
		SystemResets:      1,
		Inverters:         2,

		ShiftRegisters:     1,
		Abufs:              1,
		PGAs:               1,
		DigitalComparators: 1,
		Delays:             1,
		ClockBuffers:       1,
		PowerOnResets:      1,
	}
}
