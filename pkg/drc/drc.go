// Package drc implements the post-PAR design rule checks of spec §4.6:
// a fixed table of warning- and error-severity legality checks run
// once over a fully committed device model, producing a single
// aggregated verdict.
//
// No equivalent file exists in _examples/original_source/src/gp4par
// (the retrieved source tree has no drc.cpp); the check table is
// grounded directly on spec §4.6's textual description, using
// internal/gperr's ValidationBuilder accumulator style (itself
// grounded on the teacher's own multi-message validation pattern) to
// collect every failure from a single pass rather than stopping at
// the first one.
package drc

import (
	"errors"
	"fmt"

	"github.com/gp4par/gp4par/internal/gplog"
	"github.com/gp4par/gp4par/pkg/builder"
	"github.com/gp4par/gp4par/pkg/device"
	"github.com/gp4par/gp4par/pkg/graph"
	"github.com/gp4par/gp4par/pkg/netlist"
)

// ErrFailed marks a hard DRC failure (spec §7: "DRC error... fail the
// pipeline"), distinct from internal/gperr's netlist/resource sentinels
// since a DRC failure is a property of an otherwise-successful
// placement, not a malformed input.
var ErrFailed = errors.New("design rule check failed")

// Report is the aggregated verdict of one DRC pass: zero or more
// warnings (logged, pipeline proceeds) and zero or more errors (logged,
// pipeline fails).
type Report struct {
	Warnings []string
	Errors   []string
}

// OK reports whether the design passed with no hard errors.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

func (r *Report) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) fail(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Error aggregates a failed Report into a single error implementing
// errors.Is(err, ErrFailed).
type Error struct {
	Report *Report
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d design rule violation(s): %v", len(e.Report.Errors), e.Report.Errors)
}

func (e *Error) Unwrap() error { return ErrFailed }

// dedicatedResetPin is the package pin the device reserves for the
// power-on-reset block's dedicated connection (spec §4.6: "driving an
// I/O pin other than the dedicated reset pin" is a glitch-risk
// warning). Not present anywhere in the retrieved per-part table data;
// pin 1 is assumed as the conventional GreenPAK reset pin location.
const dedicatedResetPin = 1

// Run executes every check in spec §4.6's table against a committed
// placement, applying the one documented fixup (the shared ACMP0 input
// mux) before returning the report. Check 9 ("device-specific analog
// hazards", e.g. DAC1/PGA conflicts) needs a per-part hazard table that
// pkg/devicedb does not carry (spec §1 scopes the device database out;
// only the primitives this core's own scenarios exercise are modeled),
// so it has nothing to evaluate against and is omitted rather than
// faked. Check 11 ("power detector vs charge pump") names a pair of
// entities with no Kind in pkg/device's catalog at all, for the same
// reason, and is likewise omitted.
func Run(r *builder.Result, nl *netlist.Netlist, dev *device.Device) *Report {
	report := &Report{}

	checkEveryNodeMated(r, report)
	checkUnusedOutputs(r, report)
	checkUnlocatedIOBs(nl, report)
	checkAnalogSourcePins(r, report)
	checkAnalogInputBufferMode(r, report)
	fixupSharedACMP0Mux(dev, report)
	checkOscillatorPowerDown(dev, report)
	checkComparatorPowerDown(dev, report)
	checkPowerOnResetPin(dev, report)

	return report
}

// checkEveryNodeMated is check 1: Error.
func checkEveryNodeMated(r *builder.Result, report *Report) {
	for id := 0; id < r.NetlistGraph.NumNodes(); id++ {
		nodeID := graph.NodeID(id)
		if _, _, mated := r.NetlistGraph.Node(nodeID).Mate(); !mated {
			report.fail("cell %q was never placed", r.Cell(nodeID).Name)
		}
	}
}

// checkUnusedOutputs is check 2: Warning, with exemptions for power
// rails, IOB outputs, and cells carrying "ignore-no-load".
func checkUnusedOutputs(r *builder.Result, report *Report) {
	for id := 0; id < r.NetlistGraph.NumNodes(); id++ {
		nodeID := graph.NodeID(id)
		node := r.NetlistGraph.Node(nodeID)
		if len(node.Edges) > 0 {
			continue
		}
		cell := r.Cell(nodeID)
		if cell.HasAttribute("ignore-no-load") {
			continue
		}
		if cell.Type == "GP_OBUF" || cell.Type == "GP_IOB" {
			continue
		}
		_, devID, mated := node.Mate()
		if mated && r.Entity(devID).Kind == device.KindPowerRail {
			continue
		}
		report.warn("cell %q drives no load", cell.Name)
	}
}

// checkUnlocatedIOBs is check 3: Warning.
func checkUnlocatedIOBs(nl *netlist.Netlist, report *Report) {
	for _, c := range nl.CellsInOrder() {
		if !isIOBType(c.Type) {
			continue
		}
		if _, ok := c.LOC(); !ok {
			report.warn("IOB %q is in use but has no LOC constraint; a future pinout change may silently repin it", c.Name)
		}
	}
}

func isIOBType(cellType string) bool {
	return cellType == "GP_IBUF" || cellType == "GP_OBUF" || cellType == "GP_IOB"
}

// checkAnalogSourcePins is check 4: a pin driven by a voltage reference
// must have its IOB configured for analog input mode. Error.
func checkAnalogSourcePins(r *builder.Result, report *Report) {
	for id := 0; id < r.NetlistGraph.NumNodes(); id++ {
		srcID := graph.NodeID(id)
		_, srcDevID, srcMated := r.NetlistGraph.Node(srcID).Mate()
		if !srcMated || r.Entity(srcDevID).Kind != device.KindVoltageReference {
			continue
		}
		for _, edge := range r.NetlistGraph.Node(srcID).Edges {
			_, dstDevID, dstMated := r.NetlistGraph.Node(edge.Dest).Mate()
			if !dstMated {
				continue
			}
			dst := r.Entity(dstDevID)
			if dst.Kind != device.KindIOB || dst.IOB == nil {
				continue
			}
			if !dst.IOB.IsAnalogIbuf() {
				report.fail("pin %s is driven by a voltage reference but is not configured as an analog input buffer",
					dst.Description())
			}
		}
	}
}

// checkAnalogInputBufferMode is check 5: a comparator (or DAC)
// sourcing its input from an I/O pad requires that pad's analog input
// buffer mode. Error.
func checkAnalogInputBufferMode(r *builder.Result, report *Report) {
	for id := 0; id < r.NetlistGraph.NumNodes(); id++ {
		srcID := graph.NodeID(id)
		_, srcDevID, srcMated := r.NetlistGraph.Node(srcID).Mate()
		if !srcMated {
			continue
		}
		src := r.Entity(srcDevID)
		if src.Kind != device.KindIOB || src.IOB == nil {
			continue
		}
		for _, edge := range r.NetlistGraph.Node(srcID).Edges {
			_, dstDevID, dstMated := r.NetlistGraph.Node(edge.Dest).Mate()
			if !dstMated {
				continue
			}
			dst := r.Entity(dstDevID)
			if dst.Kind != device.KindComparator && dst.Kind != device.KindDAC {
				continue
			}
			if !src.IOB.IsAnalogIbuf() {
				report.fail("pin %s feeds %s but is not configured as an analog input buffer",
					src.Description(), dst.Description())
			}
		}
	}
}

// fixupSharedACMP0Mux is check 6 plus its documented fixup (spec §4.6,
// last paragraph, and the project's ACMP0 open-question decision):
// comparator index 0 ("ACMP0") owns a shared input mux that selects
// which voltage reference feeds it. If more than one in-use comparator
// resolves to a different reference entity through that shared
// resource, that is a hard conflict. If ACMP0 itself has no netlist
// cell placed on it but some other in-use comparator needs the mux
// enabled, the mux is turned on and the action is logged at notice
// rather than silently skipped or treated as an error — this is
// "idle hardware fixed up", not a placement decision, so it does not
// go through pkg/commit.
func fixupSharedACMP0Mux(dev *device.Device, report *Report) {
	comparators := dev.EntitiesOfKind(device.KindComparator)
	if len(comparators) == 0 {
		return
	}
	acmp0 := comparators[0]

	var muxSel int
	var muxSelSet bool
	conflict := false
	anyOtherInUse := false

	for _, c := range comparators {
		if !c.IsUsed() {
			continue
		}
		vref := c.Input("VREF")
		if vref.IsZero() || vref.Src.VRef == nil {
			continue
		}
		sel := vref.Src.VRef.ACMPMuxSel
		if !muxSelSet {
			muxSel, muxSelSet = sel, true
		} else if sel != muxSel {
			conflict = true
		}
		if c != acmp0 {
			anyOtherInUse = true
		}
	}

	if conflict {
		report.fail("comparators sharing the ACMP0 input mux request conflicting mux settings")
		return
	}
	if anyOtherInUse && !acmp0.IsUsed() {
		acmp0.SetUsed(true)
		gplog.WithStage("drc").Infof("enabling shared ACMP0 input mux (owning cell not instantiated, but its output is needed)")
	}
}

// checkOscillatorPowerDown is check 7: every in-use oscillator's
// power-down signal must come from the same source. Error.
func checkOscillatorPowerDown(dev *device.Device, report *Report) {
	kinds := []device.Kind{device.KindLFOscillator, device.KindRingOscillator, device.KindRCOscillator}
	var common device.Output
	var set bool
	for _, kind := range kinds {
		for _, e := range dev.EntitiesOfKind(kind) {
			if !e.IsUsed() {
				continue
			}
			pwrdn := e.Input("PWRDN")
			if pwrdn.IsZero() {
				continue
			}
			if !set {
				common, set = pwrdn, true
			} else if !pwrdn.Equal(common) {
				report.fail("oscillators in use do not share a common power-down signal")
				return
			}
		}
	}
}

// checkComparatorPowerDown is check 8: every in-use digital comparator
// (the DCMP/PWM block, Greenpak4DigitalComparator — distinct from the
// analog comparator modeled as device.KindComparator) must share a
// common power-down signal. Error.
func checkComparatorPowerDown(dev *device.Device, report *Report) {
	var common device.Output
	var set bool
	for _, e := range dev.EntitiesOfKind(device.KindDigitalComparator) {
		if !e.IsUsed() {
			continue
		}
		pwrdn := e.Input("PWRDN")
		if pwrdn.IsZero() {
			continue
		}
		if !set {
			common, set = pwrdn, true
		} else if !pwrdn.Equal(common) {
			report.fail("digital comparators in use do not share a common power-down signal")
			return
		}
	}
}

// checkPowerOnResetPin is check 10: a power-on reset (distinct from
// the system reset block) driving an I/O pin other than the dedicated
// reset pin is a glitch-risk warning.
func checkPowerOnResetPin(dev *device.Device, report *Report) {
	for _, rst := range dev.EntitiesOfKind(device.KindPowerOnReset) {
		if !rst.IsUsed() {
			continue
		}
		for _, iob := range dev.EntitiesOfKind(device.KindIOB) {
			if iob.IOB == nil {
				continue
			}
			if oe := iob.Input("IO"); !oe.IsZero() && oe.Src == rst && iob.IOB.PinNumber != dedicatedResetPin {
				report.warn("power-on reset drives pin %d, not the dedicated reset pin %d", iob.IOB.PinNumber, dedicatedResetPin)
			}
		}
	}
}
