package cypd3177

import (
	"encoding/binary"

	"github.com/oxplot/go-pdtrigger/pdmsg"
)

// InterruptStatus holds the pending interrupt flags of the controller.
type InterruptStatus struct {
	Device bool // device level interrupt pending
	PDPort bool // PD port interrupt pending
}

// Pending returns true if any interrupt is pending.
func (s InterruptStatus) Pending() bool {
	return s.Device || s.PDPort
}

// DecodeInterrupts decodes the content of RegInterrupt.
func DecodeInterrupts(b byte) InterruptStatus {
	return InterruptStatus{
		Device: b&intDevice != 0,
		PDPort: b&intPDPort != 0,
	}
}

// CCPolarity identifies the CC line the port partner is attached on.
type CCPolarity uint8

// CC polarities.
const (
	CC1 CCPolarity = 0
	CC2 CCPolarity = 1
)

func (p CCPolarity) String() string {
	if p == CC2 {
		return "CC2"
	}
	return "CC1"
}

// AttachedDevice is the type of the attached port partner.
type AttachedDevice uint8

// Attached device types. Any value of the 3-bit field other than these is
// Reserved; it is reported, never treated as an error.
const (
	AttachedNone           AttachedDevice = 0
	AttachedSource         AttachedDevice = 2
	AttachedDebugAccessory AttachedDevice = 3
	AttachedReserved       AttachedDevice = 0xFF
)

func (a AttachedDevice) String() string {
	switch a {
	case AttachedNone:
		return "None"
	case AttachedSource:
		return "Source"
	case AttachedDebugAccessory:
		return "DebugAccessory"
	default:
		return "Reserved"
	}
}

// CurrentLevel is the Type-C current advertised by the source at 5V.
type CurrentLevel uint8

// Current levels in the order of their 2-bit encoding.
const (
	Current900mA CurrentLevel = iota
	Current1500mA
	Current3000mA
	CurrentReserved
)

// Milliamps returns the current in milliamps, or 0 for CurrentReserved.
func (c CurrentLevel) Milliamps() uint16 {
	switch c {
	case Current900mA:
		return 900
	case Current1500mA:
		return 1500
	case Current3000mA:
		return 3000
	default:
		return 0
	}
}

func (c CurrentLevel) String() string {
	switch c {
	case Current900mA:
		return "900mA"
	case Current1500mA:
		return "1500mA"
	case Current3000mA:
		return "3000mA"
	default:
		return "Reserved"
	}
}

// TypeCStatus is the decoded content of RegTypeCStatus.
type TypeCStatus struct {
	Connected bool
	Polarity  CCPolarity
	Attached  AttachedDevice
	Current   CurrentLevel
}

// DecodeTypeCStatus decodes byte 0 of RegTypeCStatus. The remaining bytes of
// the register carry nothing this driver uses.
func DecodeTypeCStatus(b byte) TypeCStatus {
	s := TypeCStatus{
		Connected: b&typeCConnected != 0,
		Polarity:  CCPolarity((b & typeCPolarity) >> 1),
		Current:   CurrentLevel((b >> typeCCurrentPos) & typeCCurrentMask),
	}
	switch a := AttachedDevice((b >> typeCAttachedPos) & typeCAttachedMask); a {
	case AttachedNone, AttachedSource, AttachedDebugAccessory:
		s.Attached = a
	default:
		s.Attached = AttachedReserved
	}
	return s
}

// PDStatus is the decoded content of RegPDStatus.
type PDStatus struct {
	ExplicitContract  bool // an explicit PD contract is in place
	SinkTxOK          bool // the sink may initiate an AMS
	PolicyEngineReady bool // policy engine is in the PE_SNK_Ready state
}

// DecodePDStatus decodes the 32-bit content of RegPDStatus. Bits other than
// the three decoded ones are ignored.
func DecodePDStatus(raw uint32) PDStatus {
	return PDStatus{
		ExplicitContract:  raw&pdStatusContract != 0,
		SinkTxOK:          raw&pdStatusSinkTxOK != 0,
		PolicyEngineReady: raw&pdStatusPEReady != 0,
	}
}

// Online returns true if the controller firmware reports itself as active.
func (d *Device) Online() (bool, error) {
	var b [1]byte
	if err := d.Read(RegDeviceMode, b[:]); err != nil {
		return false, err
	}
	return b[0] == DeviceActive, nil
}

// SiliconID reads the silicon identity of the controller.
func (d *Device) SiliconID() (uint16, error) {
	var b [2]byte
	if err := d.Read(RegSiliconID, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// VBus reads the live VBUS voltage in millivolts. The register resolution is
// 100mV, so the result is within 0-25500mV.
func (d *Device) VBus() (uint16, error) {
	var b [1]byte
	if err := d.Read(RegBusVoltage, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0]) * 100, nil
}

// Interrupts reads the pending interrupt flags.
func (d *Device) Interrupts() (InterruptStatus, error) {
	var b [1]byte
	if err := d.Read(RegInterrupt, b[:]); err != nil {
		return InterruptStatus{}, err
	}
	return DecodeInterrupts(b[0]), nil
}

// TypeCStatus reads the Type-C port status.
func (d *Device) TypeCStatus() (TypeCStatus, error) {
	var b [4]byte
	if err := d.Read(RegTypeCStatus, b[:]); err != nil {
		return TypeCStatus{}, err
	}
	return DecodeTypeCStatus(b[0]), nil
}

// PDStatus reads the power delivery status.
func (d *Device) PDStatus() (PDStatus, error) {
	raw, err := d.read32(RegPDStatus)
	if err != nil {
		return PDStatus{}, err
	}
	return DecodePDStatus(raw), nil
}

// CurrentPDO reads the source PDO of the active contract.
func (d *Device) CurrentPDO() (pdmsg.PDO, error) {
	raw, err := d.read32(RegCurrentPDO)
	return pdmsg.PDO(raw), err
}

// CurrentRDO reads the request data object of the active contract.
func (d *Device) CurrentRDO() (pdmsg.RequestDO, error) {
	raw, err := d.read32(RegCurrentRDO)
	return pdmsg.RequestDO(raw), err
}

// EventStatus reads the raw event status flags.
func (d *Device) EventStatus() (uint32, error) {
	return d.read32(RegEventStatus)
}

func (d *Device) read32(reg Register) (uint32, error) {
	var b [4]byte
	if err := d.Read(reg, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// Status is a snapshot of every status register of the controller.
type Status struct {
	SiliconID  uint16
	Interrupts InterruptStatus
	TypeC      TypeCStatus
	PD         PDStatus
	CurrentPDO pdmsg.PDO
	CurrentRDO pdmsg.RequestDO
}

// ReadStatus reads all status registers. It stops at the first failed
// transaction and returns no snapshot in that case.
func (d *Device) ReadStatus() (Status, error) {
	var s Status
	var err error
	if s.SiliconID, err = d.SiliconID(); err != nil {
		return Status{}, err
	}
	if s.Interrupts, err = d.Interrupts(); err != nil {
		return Status{}, err
	}
	if s.TypeC, err = d.TypeCStatus(); err != nil {
		return Status{}, err
	}
	if s.PD, err = d.PDStatus(); err != nil {
		return Status{}, err
	}
	if s.CurrentPDO, err = d.CurrentPDO(); err != nil {
		return Status{}, err
	}
	if s.CurrentRDO, err = d.CurrentRDO(); err != nil {
		return Status{}, err
	}
	return s, nil
}
