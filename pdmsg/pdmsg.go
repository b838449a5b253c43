// Package pdmsg defines the USB Power Delivery data objects exchanged with a
// sink controller: power data objects (PDOs) describing selectable profiles
// and request data objects (RDOs) describing the profile that was asked for.
//
// Only the object encodings are modelled. Framing of PD messages on the CC
// line is the controller's business.
package pdmsg

import "fmt"

// MaxSinkPDOs is the maximum number of PDOs a sink capability list may carry,
// as set by the standard.
const MaxSinkPDOs = 7

// PDO is a generic Power Data Object. Based on its type, it should be
// converted to specific PDO type to allow extracting various fields.
type PDO uint32

// Type returns the type of the power data object.
func (o PDO) Type() PDOType {
	h := (o >> 30) & 0b11
	if h == 0b11 {
		return PDOType((((o >> 28) & 0b11) << 3) | 0b100 | h)
	}
	return PDOType(h)
}

func (o PDO) String() string {
	switch o.Type() {
	case PDOTypeFixedSupply:
		return FixedSupplyPDO(o).String()
	case PDOTypeBattery:
		return fmt.Sprintf("Battery(0x%08X)", uint32(o))
	case PDOTypeVariableSupply:
		return fmt.Sprintf("Variable(0x%08X)", uint32(o))
	case PDOTypePPS:
		return fmt.Sprintf("PPS(0x%08X)", uint32(o))
	default:
		return fmt.Sprintf("PDO(0x%08X)", uint32(o))
	}
}

// PDOType represents the type of a power data object.
type PDOType uint8

// Power data object types.
const (
	PDOTypeFixedSupply    PDOType = 0b00
	PDOTypeBattery        PDOType = 0b01
	PDOTypeVariableSupply PDOType = 0b10
	PDOTypePPS            PDOType = 0b00111 // This value is specific to our library
	PDOTypeEPRAVS         PDOType = 0b01111 // This value is specific to our library
)

// FixedSupplyPDO represents a Fixed Supply Power Data Object. Bits 0-9 carry
// the maximum current in 10mA units and bits 10-19 the voltage in 50mV units.
type FixedSupplyPDO uint32

// FixedSupply returns a fixed supply PDO for the given voltage in millivolts
// and maximum current in milliamps. Values are rounded down to the encoding
// resolution.
func FixedSupply(voltage, current uint16) FixedSupplyPDO {
	var o FixedSupplyPDO
	o.SetVoltage(voltage)
	o.SetMaxCurrent(current)
	return o
}

// Voltage returns voltage in millivolts.
func (o FixedSupplyPDO) Voltage() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 50)
}

// SetVoltage sets the voltage rounded down to 50mV.
func (o *FixedSupplyPDO) SetVoltage(v uint16) {
	*o = (*o & ^((FixedSupplyPDO(1)<<10 - 1) << 10)) | ((FixedSupplyPDO(v)/50)&(1<<10-1))<<10
}

// MaxCurrent returns maximum current in milliamps.
func (o FixedSupplyPDO) MaxCurrent() uint16 {
	return uint16((o & (1<<10 - 1)) * 10)
}

// SetMaxCurrent sets the maximum current rounded down to 10mA.
func (o *FixedSupplyPDO) SetMaxCurrent(v uint16) {
	*o = (*o & ^(FixedSupplyPDO(1)<<10 - 1)) | (FixedSupplyPDO(v)/10)&(1<<10-1)
}

func (o FixedSupplyPDO) String() string {
	return fmt.Sprintf("Fixed %.2fV @ max. %.2fA", float32(o.Voltage())/1000, float32(o.MaxCurrent())/1000)
}

// RequestDO represents a Request Data Object. This package only decodes the
// fixed supply layout since the sink never builds requests itself.
type RequestDO uint32

// SelectedObjectPosition returns the position number of the PDO in the source
// capability message, starting at 1. Zero means no object is selected.
func (o RequestDO) SelectedObjectPosition() uint8 {
	return uint8(o>>28) & 0b1111
}

// CapabilityMismatch returns true if capability mismatch flag of the RDO is
// set.
func (o RequestDO) CapabilityMismatch() bool {
	return o&(1<<26) != 0
}

// FixedOperatingCurrent returns current in milliamps for fixed request
// objects.
func (o RequestDO) FixedOperatingCurrent() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 10)
}

// FixedMaxOperatingCurrent returns current in milliamps for fixed request
// objects without GiveBack support.
func (o RequestDO) FixedMaxOperatingCurrent() uint16 {
	return uint16((o & (1<<10 - 1)) * 10)
}

func (o RequestDO) String() string {
	if o.SelectedObjectPosition() == 0 {
		return "no request"
	}
	s := fmt.Sprintf("PDO #%d, %dmA (max. %dmA)", o.SelectedObjectPosition(), o.FixedOperatingCurrent(), o.FixedMaxOperatingCurrent())
	if o.CapabilityMismatch() {
		s += ", capability mismatch"
	}
	return s
}
