package cypd3177

import "fmt"

// Register is a 16-bit register address in its normal numeric form. The
// driver takes care of putting it on the wire most significant byte first.
type Register uint16

// Access describes the direction a register is used in.
type Access uint8

// Register access directions.
const (
	AccessRead Access = 1 << iota
	AccessWrite
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "R"
	case AccessWrite:
		return "W"
	case AccessRead | AccessWrite:
		return "RW"
	default:
		return "-"
	}
}

// RegisterInfo documents a register: its name, direction and size in bytes.
// Size is the minimum transfer for variable sized registers.
type RegisterInfo struct {
	Name   string
	Access Access
	Size   int
}

// Registers of the CYPD3177 host interface.
const (
	RegDeviceMode      Register = 0x0000 // R 1B, equals DeviceActive when running
	RegSiliconID       Register = 0x0002 // R 2B, little-endian
	RegInterrupt       Register = 0x0006 // R 1B, bit0 device, bit1 PD port
	RegReset           Register = 0x0008
	RegDevResponse     Register = 0x007E
	RegSetGPIOMode     Register = 0x0080
	RegSetGPIOLevel    Register = 0x0081
	RegReadGPIOLevel   Register = 0x0082
	RegSampleGPIO      Register = 0x0083
	RegDMControl       Register = 0x1000
	RegSelectSinkPDO   Register = 0x1005 // W 1B, mask of enabled sink PDO slots
	RegPDControl       Register = 0x1006
	RegPDStatus        Register = 0x1008 // R 4B LE
	RegTypeCStatus     Register = 0x100C // R 4B, only byte 0 is decoded
	RegBusVoltage      Register = 0x100D // R 1B, 100mV per LSB
	RegCurrentPDO      Register = 0x1010 // R 4B LE
	RegCurrentRDO      Register = 0x1014 // R 4B LE
	RegEventMask       Register = 0x1024
	RegSwapResponse    Register = 0x1028
	RegEventStatus     Register = 0x1044 // R 4B LE
	RegRequest         Register = 0x1050
	RegPDResponse      Register = 0x1400
	RegWriteDataMemory Register = 0x1800 // W, "SNKP" tag followed by sink PDOs
)

var registerInfo = map[Register]RegisterInfo{
	RegDeviceMode:      {"DEVICE_MODE", AccessRead, 1},
	RegSiliconID:       {"SILICON_ID", AccessRead, 2},
	RegInterrupt:       {"INTERRUPT", AccessRead | AccessWrite, 1},
	RegReset:           {"RESET", AccessWrite, 2},
	RegDevResponse:     {"DEV_RESPONSE", AccessRead, 2},
	RegSetGPIOMode:     {"SET_GPIO_MODE", AccessWrite, 2},
	RegSetGPIOLevel:    {"SET_GPIO_LEVEL", AccessWrite, 2},
	RegReadGPIOLevel:   {"READ_GPIO_LEVEL", AccessRead, 1},
	RegSampleGPIO:      {"SAMPLE_GPIO", AccessWrite, 1},
	RegDMControl:       {"DM_CONTROL", AccessWrite, 1},
	RegSelectSinkPDO:   {"SELECT_SINK_PDO", AccessWrite, 1},
	RegPDControl:       {"PD_CONTROL", AccessWrite, 1},
	RegPDStatus:        {"PD_STATUS", AccessRead, 4},
	RegTypeCStatus:     {"TYPE_C_STATUS", AccessRead, 4},
	RegBusVoltage:      {"BUS_VOLTAGE", AccessRead, 1},
	RegCurrentPDO:      {"CURRENT_PDO", AccessRead, 4},
	RegCurrentRDO:      {"CURRENT_RDO", AccessRead, 4},
	RegEventMask:       {"EVENT_MASK", AccessRead | AccessWrite, 4},
	RegSwapResponse:    {"SWAP_RESPONSE", AccessRead | AccessWrite, 1},
	RegEventStatus:     {"EVENT_STATUS", AccessRead, 4},
	RegRequest:         {"REQUEST", AccessWrite, 4},
	RegPDResponse:      {"PD_RESPONSE", AccessRead, 4},
	RegWriteDataMemory: {"WRITE_DATA_MEMORY", AccessWrite, sinkPDOHeaderSize + 4},
}

// Info returns the documented layout of the register. Unknown registers get
// a zero RegisterInfo.
func (r Register) Info() RegisterInfo {
	return registerInfo[r]
}

func (r Register) String() string {
	if i, ok := registerInfo[r]; ok {
		return fmt.Sprintf("%s(0x%04X)", i.Name, uint16(r))
	}
	return fmt.Sprintf("0x%04X", uint16(r))
}

// Field values and bit layouts.
const (
	// DeviceActive is the value of RegDeviceMode once the controller firmware
	// is up.
	DeviceActive = 0x95

	intDevice = 1 << 0
	intPDPort = 1 << 1

	typeCConnected    = 1 << 0
	typeCPolarity     = 1 << 1
	typeCAttachedMask = 0b111
	typeCAttachedPos  = 2
	typeCCurrentMask  = 0b11
	typeCCurrentPos   = 6

	pdStatusContract = 1 << 10
	pdStatusSinkTxOK = 1 << 14
	pdStatusPEReady  = 1 << 15

	sinkPDOHeaderSize = 4
)

// sinkPDOSignature tags a sink capability block in RegWriteDataMemory. The
// bytes go on the wire in this order.
var sinkPDOSignature = [sinkPDOHeaderSize]byte{'S', 'N', 'K', 'P'}
