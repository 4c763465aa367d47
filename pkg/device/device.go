// Package device implements the L2 device model of spec §4.2: the fixed
// catalog of sites a GreenPAK-class part provides (IOBs, LUTs,
// flip-flops, counters, power rails, voltage references, oscillators,
// comparators, a system reset block) arranged across two routing
// matrices with a small fixed pool of cross-connections bridging them.
//
// Entities are dispatched by a primitive-kind tag rather than by type
// assertion or an interface type switch tied to concrete structs (spec
// §9, "Entity dispatch via dynamic_cast chains"): every Entity reports
// its Kind(), and callers that need family-specific behavior (pkg/par's
// labeling, pkg/commit's input wiring) switch on Kind rather than
// downcasting.
package device

import "fmt"

// Kind tags the primitive family an Entity belongs to. It stands in for
// the original implementation's dynamic_cast chain (spec §9).
type Kind int

const (
	KindIOB Kind = iota
	KindLUT2
	KindLUT3
	KindLUT4
	KindFlipflop
	KindCounter
	KindPowerRail
	KindVoltageReference
	KindComparator
	KindDAC
	KindLFOscillator
	KindRingOscillator
	KindRCOscillator
	KindSystemReset
	KindInverter
	KindShiftRegister
	KindAbuf
	KindPGA
	KindDigitalComparator
	KindDelay
	KindClockBuffer
	KindPowerOnReset
	KindCrossConnection
)

func (k Kind) String() string {
	switch k {
	case KindIOB:
		return "IOB"
	case KindLUT2:
		return "LUT2"
	case KindLUT3:
		return "LUT3"
	case KindLUT4:
		return "LUT4"
	case KindFlipflop:
		return "DFF"
	case KindCounter:
		return "COUNT"
	case KindPowerRail:
		return "RAIL"
	case KindVoltageReference:
		return "VREF"
	case KindComparator:
		return "ACMP"
	case KindDAC:
		return "DAC"
	case KindLFOscillator:
		return "LFOSC"
	case KindRingOscillator:
		return "RINGOSC"
	case KindRCOscillator:
		return "RCOSC"
	case KindSystemReset:
		return "SYSRST"
	case KindInverter:
		return "INV"
	case KindShiftRegister:
		return "SHREG"
	case KindAbuf:
		return "ABUF"
	case KindPGA:
		return "PGA"
	case KindDigitalComparator:
		return "DCMP"
	case KindDelay:
		return "DELAY"
	case KindClockBuffer:
		return "CLKBUF"
	case KindPowerOnReset:
		return "POR"
	case KindCrossConnection:
		return "XCONN"
	default:
		return "UNKNOWN"
	}
}

// Output names a specific output port of a specific entity, tagged with
// the matrix it is being observed from (spec §4.2.2: a dual's output
// and its real entity's output compare equal regardless of matrix).
type Output struct {
	Src    *Entity
	Port   string
	Matrix int
}

// Equal reports output identity ignoring which matrix it was observed
// from, matching the original's deliberately matrix-blind equality
// (Greenpak4EntityOutput::operator==).
func (o Output) Equal(rhs Output) bool {
	return o.Src == rhs.Src && o.Port == rhs.Port
}

// IsZero reports whether this Output is the unconnected zero value.
func (o Output) IsZero() bool {
	return o.Src == nil
}

// Entity is one bitstream-configurable site: an IOB, a LUT, a
// flip-flop, a counter, a power rail, a voltage reference, an
// oscillator, a comparator, a DAC, or the system reset block.
//
// Entity holds no back-pointer to a graph node; pkg/builder records the
// graph.NodeID <-> *Entity association in its own index, per the
// arena/index redesign of spec §9.
type Entity struct {
	Kind        Kind
	Index       int // device-wide index within this Kind, e.g. LUT2 #3
	Matrix      int // matrix (0 or 1) this entity's OUTPUT is attached to
	Name        string
	inputs      map[string]Output
	dual        *Entity // opposite-matrix skeleton view of this entity, or nil
	dualOf      *Entity // if this Entity IS a dual, the real entity it mirrors
	generalIn   map[string]bool // which input ports accept general fabric routing
	used        bool

	IOB   *IOBConfig
	LUT   *LUTConfig
	DFF   *FlipflopConfig
	Count *CounterConfig
	Rail  *PowerRailConfig
	VRef  *VoltageReferenceConfig
	ShiftReg *ShiftRegisterConfig
	Abuf     *AbufConfig
	PGA      *PGAConfig
	DComp    *DigitalComparatorConfig
	Delay    *DelayConfig
	XConn    *CrossConnectionConfig
}

// Description returns a human-readable identifier like "LUT3_1" or
// "IOB_3", matching the style of the original's GetDescription().
func (e *Entity) Description() string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("%s_%d", e.Kind, e.Index)
}

// IsUsed reports whether this entity's used flag is set. pkg/par sets
// it when it mates a netlist cell to the site; Entity itself does not
// touch pkg/graph to avoid an import cycle between the two packages'
// natural layering (L1 below L2).
func (e *Entity) IsUsed() bool { return e.used }

// SetUsed is called by pkg/par after a successful graph.Mate, by
// Device.AllocateCrossConnection for a pooled slot, and by pkg/drc's
// shared-ACMP0 fixup.
func (e *Entity) SetUsed(used bool) { e.used = used }

// Dual returns the opposite-matrix skeleton entity that mirrors this
// entity's output, or nil if this entity has none (spec §4.2.2: duals
// let a signal — typically a power rail — appear on both matrices
// without consuming a cross-connection).
func (e *Entity) Dual() *Entity { return e.dual }

// RealEntity returns the entity this one mirrors if it is a dual, or
// itself otherwise (Greenpak4BitstreamEntity::GetRealEntity).
func (e *Entity) RealEntity() *Entity {
	if e.dualOf != nil {
		return e.dualOf
	}
	return e
}

// IsGeneralFabricInput reports whether the named input port is routed
// through general fabric (as opposed to a dedicated or power-rail-only
// connection) — spec §4.2.1.
func (e *Entity) IsGeneralFabricInput(port string) bool {
	return e.generalIn[port]
}

// SetInput records the signal driving the named input port. Per-kind
// semantic validation (is this port writable, does the kind have
// inputs at all) is the caller's responsibility; Entity is a plain
// record, not a validator, matching the teacher's preference for thin
// domain structs validated at the boundary (spec §9, pkg/builder and
// pkg/commit own validation).
func (e *Entity) SetInput(port string, src Output) {
	if e.inputs == nil {
		e.inputs = make(map[string]Output)
	}
	e.inputs[port] = src
}

// Input returns the signal currently driving the named input port.
func (e *Entity) Input(port string) Output {
	return e.inputs[port]
}

// InputPorts returns the names of every input port this entity exposes
// for the given Kind, grounded on each family's GetInputPorts().
func (e *Entity) InputPorts() []string {
	switch e.Kind {
	case KindIOB:
		return []string{"IO", "OE"}
	case KindLUT2:
		return []string{"IN0", "IN1"}
	case KindLUT3:
		return []string{"IN0", "IN1", "IN2"}
	case KindLUT4:
		return []string{"IN0", "IN1", "IN2", "IN3"}
	case KindFlipflop:
		if e.DFF != nil && e.DFF.HasSetReset {
			return []string{"D", "CLK", "nSR"}
		}
		return []string{"D", "CLK"}
	case KindCounter:
		return []string{"CLK", "RST"}
	case KindVoltageReference:
		return []string{"VIN"}
	case KindComparator:
		return []string{"VIN", "VREF"}
	case KindInverter:
		return []string{"IN"}
	case KindShiftRegister:
		return []string{"CLK", "IN", "RST"}
	case KindAbuf:
		return []string{"IN"}
	case KindPGA:
		return []string{"VINP", "VINN", "VINSEL"}
	case KindDigitalComparator:
		return []string{"INP", "INN", "CLK", "PWRDN"}
	case KindDelay:
		return []string{"IN"}
	case KindClockBuffer:
		return []string{"IN"}
	case KindCrossConnection:
		return []string{"IN"}
	default:
		return nil
	}
}

// OutputPorts returns the names of every output port this entity
// exposes. Most families, IOB included, have a single "OUT" port.
func (e *Entity) OutputPorts() []string {
	switch e.Kind {
	case KindIOB:
		return []string{"OUT"}
	case KindPowerRail:
		return []string{"OUT"}
	case KindClockBuffer:
		// GetOutputPorts() returns empty for Greenpak4ClockBuffer: its
		// output only feeds a dedicated clock net, never general fabric.
		return nil
	default:
		return []string{"OUT"}
	}
}

// IOBConfig mirrors Greenpak4IOB's abstracted bitstream state (spec
// §4.2, Greenpak4IOB.h): pull resistor, drive strength/type, input
// threshold and the output-enable signal. Bitstream Load/Save encoding
// is out of scope (spec Non-goals).
type IOBConfig struct {
	PinNumber      int
	InputOnly      bool
	SchmittTrigger bool
	PullStrength   PullStrength
	PullDirection  PullDirection
	DriveStrength  DriveStrength
	DriveType      DriveType
	InputThreshold InputThreshold
	OutputEnable   Output
}

type PullStrength int

const (
	Pull10K PullStrength = iota
	Pull100K
	Pull1M
)

type PullDirection int

const (
	PullNone PullDirection = iota
	PullDown
	PullUp
)

type DriveStrength int

const (
	Drive1X DriveStrength = iota
	Drive2X
	Drive4X
)

type DriveType int

const (
	DrivePushPull DriveType = iota
	DriveNMOSOpenDrain
	DrivePMOSOpenDrain
)

type InputThreshold int

const (
	ThresholdNormal InputThreshold = iota
	ThresholdLow
	ThresholdAnalog
)

// IsAnalogIbuf reports whether this IOB is configured as an analog
// input buffer (Greenpak4IOB::IsAnalogIbuf).
func (c *IOBConfig) IsAnalogIbuf() bool {
	return c.InputThreshold == ThresholdAnalog
}

// LUTConfig mirrors Greenpak4LUT: the truth table and its arity
// (Greenpak4LUT.h: m_truthtable[16], m_order).
type LUTConfig struct {
	Order     int // number of inputs: 2, 3, or 4
	TruthTable [16]bool
}

// FlipflopConfig mirrors Greenpak4Flipflop: set/reset availability and
// mode, and the power-on-reset init value (Greenpak4Flipflop.h).
type FlipflopConfig struct {
	HasSetReset bool
	SRMode      bool // true = set, false = reset
	InitValue   bool
}

// CounterConfig mirrors Greenpak4Counter: bit depth (Greenpak4Counter.h
// m_depth; may also run in LUT/delay/shift-register alternate modes,
// which this core treats as distinct Kinds rather than a runtime flag,
// per the spec §9 "tag, don't downcast" redesign).
type CounterConfig struct {
	Depth int
}

// PowerRailConfig mirrors Greenpak4PowerRail: a constant driver with no
// inputs and no configuration bits (Greenpak4PowerRail.h).
type PowerRailConfig struct {
	Value bool // true = VDD, false = GND
}

// VoltageReferenceConfig mirrors Greenpak4VoltageReference: the mux
// selectors exposed to the output pad driver and to ACMP inputs, and
// constant-voltage detection (Greenpak4VoltageReference.h).
type VoltageReferenceConfig struct {
	VoutMuxSel  int
	ACMPMuxSel  int
	OutputMilliVolts int
}

// IsConstantVoltage reports whether this reference's input is a power
// rail driving a fixed division of the bandgap, mirroring
// Greenpak4VoltageReference::IsConstantVoltage.
func (c *VoltageReferenceConfig) IsConstantVoltage(vin Output) bool {
	return vin.Src != nil && vin.Src.Kind == KindPowerRail && vin.Src.Rail != nil && !vin.Src.Rail.Value
}

// ShiftRegisterConfig mirrors Greenpak4ShiftRegister: the two
// programmable tap delays and the polarity of the first one
// (Greenpak4ShiftRegister.h m_delayA/m_delayB/m_invertA).
type ShiftRegisterConfig struct {
	DelayA  int
	DelayB  int
	InvertA bool
}

// AbufConfig mirrors Greenpak4Abuf, the buffered analog input block: a
// single gain/bandwidth selector (Greenpak4Abuf.h m_bufferBandwidth).
type AbufConfig struct {
	BufferBandwidth int
}

// PGAInputMode mirrors Greenpak4PGA::InputModes.
type PGAInputMode int

const (
	PGAModeSingle PGAInputMode = iota
	PGAModeDiff
	PGAModePDiff
)

// PGAConfig mirrors Greenpak4PGA: decimal fixed-point gain (legal
// values 25, 50, 100, 200, 400, 800, 1600, 3200), input mode, and
// whether any load besides the on-chip ADC exists (Greenpak4PGA.h).
type PGAConfig struct {
	Gain            int
	InputMode       PGAInputMode
	HasNonADCLoads  bool
}

// DigitalComparatorConfig mirrors Greenpak4DigitalComparator (the
// DCMP/PWM block): mode select and the handful of independent bitstream
// flags it carries (Greenpak4DigitalComparator.h).
type DigitalComparatorConfig struct {
	PWMMode             bool // true for PWM, false for plain DCMP
	CompareGreaterEqual bool // >= if true, > if false
	ClockInvert         bool
	PowerDownSync       bool
}

// DelayMode mirrors Greenpak4Delay's internal mode enum.
type DelayMode int

const (
	DelayModePlain DelayMode = iota
	DelayModeRisingEdge
	DelayModeFallingEdge
	DelayModeBothEdge
)

// DelayConfig mirrors Greenpak4Delay: the selected tap, edge mode, and
// glitch filter enable (Greenpak4Delay.h).
type DelayConfig struct {
	Tap          int
	Mode         DelayMode
	GlitchFilter bool
}

// CrossConnectionConfig records which fixed slot in its destination
// matrix's pool this cross-connection entity occupies (spec §4.2:
// "a small number of cross-connections"). Unlike the other config
// structs, every CrossConnectionConfig is built once by Device.New and
// never constructed per-netlist.
type CrossConnectionConfig struct {
	Slot int
}
