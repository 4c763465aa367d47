package device

import "fmt"

// Part names a supported GreenPAK-family part (spec §3.3,
// Greenpak4Device::GREENPAK4_PART). Only SLG46620 is described in the
// retrieved original source; pkg/devicedb's table data is the single
// source of truth for per-part entity counts, so adding a part is a
// data change, not a code change.
type Part string

const (
	PartSLG46620 Part = "SLG46620"
)

// crossConnectionsPerMatrix is the fixed number of cross-connection
// resources bridging the two routing matrices in each direction (spec
// §4.5; commit.cpp checks num_routes_used[matrix] >= 10).
const crossConnectionsPerMatrix = 10

// Device is the complete catalog of sites a part provides: every
// bitstream entity, indexed both as a flat list and per-kind, plus the
// two-matrix cross-connection pool. It corresponds to Greenpak4Device.
type Device struct {
	Part Part

	entities []*Entity
	byKind   map[Kind][]*Entity
	iobByPin map[int]*Entity

	// xconns[matrix] is the fixed pool of cross-connection entities
	// feeding INTO that matrix from the opposite one. These entities
	// deliberately live outside entities/byKind (see newCrossConnection)
	// so pkg/builder's general-fabric graph construction never touches
	// them; pkg/commit is their only caller.
	xconns [2][]*Entity
}

// New builds an empty Device shell for the given part and layout,
// along with both matrices' fixed cross-connection pools. The caller
// (pkg/devicedb, driven by the YAML part table) populates everything
// else via the Add* methods; New itself knows nothing about any
// specific part's table, keeping device and devicedb cleanly layered.
func New(part Part) *Device {
	d := &Device{
		Part:     part,
		byKind:   make(map[Kind][]*Entity),
		iobByPin: make(map[int]*Entity),
	}
	for matrix := 0; matrix < 2; matrix++ {
		for slot := 0; slot < crossConnectionsPerMatrix; slot++ {
			d.xconns[matrix] = append(d.xconns[matrix], newCrossConnection(matrix, slot))
		}
	}
	return d
}

// newCrossConnection builds one cross-connection entity occupying the
// given slot of destMatrix's pool. It bypasses Device.add deliberately:
// a cross-connection is a commit-time bitstream-routing resource (spec
// §4.5 step 3), not a placement-time graph participant, and adding it
// to entities/byKind would make pkg/builder's makeDeviceNodes/
// makeDeviceEdges wire incorrect same-matrix general-fabric edges to
// and from it.
func newCrossConnection(destMatrix, slot int) *Entity {
	return &Entity{
		Kind:   KindCrossConnection,
		Index:  slot,
		Matrix: destMatrix,
		Name:   fmt.Sprintf("XCONN_%d_%d", destMatrix, slot),
		XConn:  &CrossConnectionConfig{Slot: slot},
	}
}

func (d *Device) add(e *Entity) *Entity {
	e.Index = len(d.byKind[e.Kind])
	d.entities = append(d.entities, e)
	d.byKind[e.Kind] = append(d.byKind[e.Kind], e)
	return e
}

// AddIOB adds an IOB at the given package pin, on the given matrix.
func (d *Device) AddIOB(pin, matrix int, cfg IOBConfig) *Entity {
	cfg.PinNumber = pin
	e := &Entity{
		Kind:   KindIOB,
		Matrix: matrix,
		Name:   fmt.Sprintf("IOB_%d", pin),
		IOB:    &cfg,
		generalIn: map[string]bool{"IO": true},
	}
	d.add(e)
	d.iobByPin[pin] = e
	return e
}

// AddLUT adds a lookup table of the given order (2, 3, or 4 inputs) on
// the given matrix.
func (d *Device) AddLUT(order, matrix int) *Entity {
	var kind Kind
	switch order {
	case 2:
		kind = KindLUT2
	case 3:
		kind = KindLUT3
	case 4:
		kind = KindLUT4
	default:
		panic(fmt.Sprintf("device: invalid LUT order %d", order))
	}
	gen := make(map[string]bool, order)
	for i := 0; i < order; i++ {
		gen[fmt.Sprintf("IN%d", i)] = true
	}
	e := &Entity{
		Kind:      kind,
		Matrix:    matrix,
		LUT:       &LUTConfig{Order: order},
		generalIn: gen,
	}
	return d.add(e)
}

// AddFlipflop adds a flip-flop, optionally with a set/reset input, on
// the given matrix.
func (d *Device) AddFlipflop(matrix int, hasSR bool) *Entity {
	e := &Entity{
		Kind:   KindFlipflop,
		Matrix: matrix,
		DFF:    &FlipflopConfig{HasSetReset: hasSR},
		generalIn: map[string]bool{"D": true, "CLK": true, "nSR": hasSR},
	}
	return d.add(e)
}

// AddCounter adds a hard counter/LFSR/shift-register block of the
// given bit depth on the given matrix.
func (d *Device) AddCounter(depth, matrix int) *Entity {
	e := &Entity{
		Kind:      KindCounter,
		Matrix:    matrix,
		Count:     &CounterConfig{Depth: depth},
		generalIn: map[string]bool{"CLK": true, "RST": true},
	}
	return d.add(e)
}

// AddPowerRail adds one of the two constant rails (VDD or GND) present
// on each matrix (Greenpak4Device::GetPowerRail).
func (d *Device) AddPowerRail(matrix int, value bool) *Entity {
	e := &Entity{
		Kind:   KindPowerRail,
		Matrix: matrix,
		Rail:   &PowerRailConfig{Value: value},
	}
	return d.add(e)
}

// AddVoltageReference adds a programmable voltage reference on the
// given matrix.
func (d *Device) AddVoltageReference(matrix int) *Entity {
	e := &Entity{
		Kind:      KindVoltageReference,
		Matrix:    matrix,
		VRef:      &VoltageReferenceConfig{},
		generalIn: map[string]bool{"VIN": true},
	}
	return d.add(e)
}

// AddSimple adds an entity kind that carries no per-family config
// struct beyond its Kind tag (oscillators, comparators, DAC, the
// system reset block, the inverter, the power-on reset block, the
// clock buffer) — these are represented fully by their input/output
// port lists.
func (d *Device) AddSimple(kind Kind, matrix int) *Entity {
	e := &Entity{Kind: kind, Matrix: matrix}
	return d.add(e)
}

// AddShiftRegister adds a hard shift-register block (Greenpak4ShiftRegister)
// on the given matrix.
func (d *Device) AddShiftRegister(matrix int) *Entity {
	e := &Entity{Kind: KindShiftRegister, Matrix: matrix, ShiftReg: &ShiftRegisterConfig{}}
	return d.add(e)
}

// AddAbuf adds the buffered analog input block (Greenpak4Abuf) on the
// given matrix.
func (d *Device) AddAbuf(matrix int) *Entity {
	e := &Entity{Kind: KindAbuf, Matrix: matrix, Abuf: &AbufConfig{}}
	return d.add(e)
}

// AddPGA adds a programmable-gain amplifier (Greenpak4PGA) on the
// given matrix.
func (d *Device) AddPGA(matrix int) *Entity {
	e := &Entity{Kind: KindPGA, Matrix: matrix, PGA: &PGAConfig{}}
	return d.add(e)
}

// AddDigitalComparator adds a DCMP/PWM block (Greenpak4DigitalComparator)
// on the given matrix.
func (d *Device) AddDigitalComparator(matrix int) *Entity {
	e := &Entity{Kind: KindDigitalComparator, Matrix: matrix, DComp: &DigitalComparatorConfig{}}
	return d.add(e)
}

// AddDelay adds a programmable delay line (Greenpak4Delay) on the
// given matrix.
func (d *Device) AddDelay(matrix int) *Entity {
	e := &Entity{Kind: KindDelay, Matrix: matrix, Delay: &DelayConfig{}}
	return d.add(e)
}

// AddDual attaches an opposite-matrix skeleton view of real to the
// device, mirroring Greenpak4DualEntity: a dual has no inputs of its
// own and exists purely so real's output is observable on the other
// matrix without consuming a cross-connection (spec §4.2.2).
func (d *Device) AddDual(real *Entity) *Entity {
	dualMatrix := 1 - real.Matrix
	dual := &Entity{
		Kind:   real.Kind,
		Matrix: dualMatrix,
		Name:   real.Description() + ".dual",
		dualOf: real,
	}
	real.dual = dual
	return dual
}

// Entities returns every entity in the device, in creation order.
func (d *Device) Entities() []*Entity { return d.entities }

// EntitiesOfKind returns every entity of the given kind, in creation
// order (mirrors Greenpak4Device's per-type vectors m_luts/m_iobs/...).
func (d *Device) EntitiesOfKind(kind Kind) []*Entity {
	return d.byKind[kind]
}

// EntityOfKind returns the i-th entity of the given kind. Panics if out
// of range (programmer error, matching pkg/graph's access contract).
func (d *Device) EntityOfKind(kind Kind, i int) *Entity {
	es := d.byKind[kind]
	if i < 0 || i >= len(es) {
		panic(fmt.Sprintf("device: kind %s has no entity at index %d (have %d)", kind, i, len(es)))
	}
	return es[i]
}

// IOBByPin returns the IOB at the given package pin, or nil if no IOB
// occupies that pin.
func (d *Device) IOBByPin(pin int) *Entity {
	return d.iobByPin[pin]
}

// NumEntities returns the total entity count across all kinds.
func (d *Device) NumEntities() int { return len(d.entities) }

// CrossConnection returns the entity occupying the given slot of
// destMatrix's cross-connection pool (the original's
// get_cross_connection(matrix, slot) accessor). Panics if slot is out
// of range (programmer error, matching EntityOfKind's contract).
func (d *Device) CrossConnection(destMatrix, slot int) *Entity {
	pool := d.xconns[destMatrix]
	if slot < 0 || slot >= len(pool) {
		panic(fmt.Sprintf("device: matrix %d has no cross-connection at slot %d (have %d)", destMatrix, slot, len(pool)))
	}
	return pool[slot]
}

// CrossConnectionsAvailable reports whether the cross-connection pool
// feeding the given destination matrix still has capacity (spec §4.5,
// commit.cpp: num_routes_used[matrix] >= 10 is the exhaustion check).
func (d *Device) CrossConnectionsAvailable(destMatrix int) bool {
	return d.CrossConnectionsUsed(destMatrix) < crossConnectionsPerMatrix
}

// CrossConnectionsUsed returns the number of cross-connections already
// allocated feeding the given destination matrix.
func (d *Device) CrossConnectionsUsed(destMatrix int) int {
	used := 0
	for _, e := range d.xconns[destMatrix] {
		if e.IsUsed() {
			used++
		}
	}
	return used
}

// CrossConnectionCapacity returns the fixed pool size per matrix
// direction.
func (d *Device) CrossConnectionCapacity() int {
	return crossConnectionsPerMatrix
}

// AllocateCrossConnection reserves and returns the first unused
// cross-connection entity feeding destMatrix. Returns nil if the pool
// is exhausted; the caller (pkg/commit) is responsible for turning
// that into a *gperr.ResourceError.
func (d *Device) AllocateCrossConnection(destMatrix int) *Entity {
	for _, e := range d.xconns[destMatrix] {
		if !e.IsUsed() {
			e.SetUsed(true)
			return e
		}
	}
	return nil
}

// ResetCrossConnections clears allocation state and input wiring on
// every pooled cross-connection; pkg/commit calls it at the start of
// every Commit.
func (d *Device) ResetCrossConnections() {
	for matrix := 0; matrix < 2; matrix++ {
		for _, e := range d.xconns[matrix] {
			e.SetUsed(false)
			e.inputs = nil
		}
	}
}
