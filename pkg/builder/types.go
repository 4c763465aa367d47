package builder

import (
	"fmt"

	"github.com/gp4par/gp4par/pkg/device"
	"github.com/gp4par/gp4par/pkg/labelmap"
)

// canonicalTypeName returns the netlist-visible primitive type name
// for a device entity's kind (spec glossary: "Label ... names the
// type of a node"). Netlist cells carry these same strings as their
// Type field.
func canonicalTypeName(e *device.Entity) string {
	switch e.Kind {
	case device.KindIOB:
		return "GP_IOB"
	case device.KindLUT2:
		return "GP_2LUT"
	case device.KindLUT3:
		return "GP_3LUT"
	case device.KindLUT4:
		return "GP_4LUT"
	case device.KindFlipflop:
		if e.DFF != nil && e.DFF.HasSetReset {
			return "GP_DFFSR"
		}
		return "GP_DFF"
	case device.KindCounter:
		if e.Count != nil && e.Count.Depth == 14 {
			return "GP_COUNT14"
		}
		return "GP_COUNT8"
	case device.KindPowerRail:
		if e.Rail != nil && e.Rail.Value {
			return "GP_VDD"
		}
		return "GP_VSS"
	case device.KindVoltageReference:
		return "GP_VREF"
	case device.KindComparator:
		return "GP_ACMP"
	case device.KindDAC:
		return "GP_DAC"
	case device.KindLFOscillator:
		return "GP_LFOSC"
	case device.KindRingOscillator:
		return "GP_RINGOSC"
	case device.KindRCOscillator:
		return "GP_RCOSC"
	case device.KindSystemReset:
		return "GP_SYSRESET"
	case device.KindInverter:
		return "GP_INV"
	case device.KindShiftRegister:
		return "GP_SHREG"
	case device.KindAbuf:
		return "GP_ABUF"
	case device.KindPGA:
		return "GP_PGA"
	case device.KindDigitalComparator:
		return "GP_DCMP"
	case device.KindDelay:
		return "GP_DELAY"
	case device.KindClockBuffer:
		return "GP_CLKBUF"
	case device.KindPowerOnReset:
		return "GP_POR"
	default:
		panic(fmt.Sprintf("builder: no canonical type name for kind %s", e.Kind))
	}
}

// alternateTypeNames returns the additional type names a device entity
// may be matched against, encoding substitutability (spec §3.1): a
// 4-LUT hosts a 2-LUT or 3-LUT, a 3-LUT hosts a 2-LUT, and a DFFSR
// site hosts a plain DFF.
func alternateTypeNames(e *device.Entity) []string {
	switch e.Kind {
	case device.KindLUT4:
		return []string{"GP_3LUT", "GP_2LUT"}
	case device.KindLUT3:
		return []string{"GP_2LUT"}
	case device.KindFlipflop:
		if e.DFF != nil && e.DFF.HasSetReset {
			return []string{"GP_DFF"}
		}
		return nil
	default:
		return nil
	}
}

// declareCanonicalTypes seeds the label map with the aliasing spec
// §4.3 step 3 requires beyond plain substitutability: netlist cell
// type names that must resolve to the same label as a differently
// named canonical type (e.g. DFFR/DFFS need set/reset capability, the
// same requirement as DFFSR). Canonical labels themselves are
// allocated lazily as device nodes are created; aliases are declared
// up front against the canonical name they will resolve to once that
// happens, by pre-allocating the canonical name first.
func declareCanonicalTypes(labels *labelmap.Map) {
	labels.Allocate("GP_DFFSR")
	labels.Alias("GP_DFFR", "GP_DFFSR")
	labels.Alias("GP_DFFS", "GP_DFFSR")

	// A netlist IBUF or OBUF cell both require a device GP_IOB site;
	// they are not distinguished at the label level (direction is a
	// per-instance configuration detail applied at commit time via
	// each cell's own parameters, not a separate site type).
	labels.Allocate("GP_IOB")
	labels.Alias("GP_IBUF", "GP_IOB")
	labels.Alias("GP_OBUF", "GP_IOB")
}
