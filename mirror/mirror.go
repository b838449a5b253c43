// Package mirror publishes poll reports into a fixed block of Modbus holding
// registers so that a PLC or SCADA system can watch the trigger.
//
// Block layout, relative to the configured base address:
//
//	0      online (0/1)
//	1      VBUS in millivolts
//	2      selected profile index
//	3      lit level indicator, 0xFFFF for none
//	4-5    current PDO, high word first
//	6      flags (see Flag*)
//	7      silicon ID
//	8      error code of the last tick (see Err*)
//	9      confirmation state of the last request
//	10-15  reserved, always zero
package mirror

import (
	"errors"
	"fmt"

	"github.com/oxplot/go-pdtrigger/poller"
	"github.com/oxplot/go-pdtrigger/tcpcdriver/cypd3177"
)

// BlockSize is the number of registers in the mirrored block.
const BlockSize = 16

// Register slots of the block.
const (
	SlotOnline  = 0
	SlotVBus    = 1
	SlotIndex   = 2
	SlotLit     = 3
	SlotPDOHigh = 4
	SlotPDOLow  = 5
	SlotFlags   = 6
	SlotSilicon = 7
	SlotError   = 8
	SlotConfirm = 9
)

// Bits of SlotFlags, taken from the last status snapshot.
const (
	FlagConnected = 1 << iota
	FlagContract
	FlagSinkTxOK
	FlagPolicyEngineReady
	FlagDeviceInterrupt
	FlagPDPortInterrupt
)

// Error codes of SlotError.
const (
	ErrNone = iota
	ErrTransport
	ErrCapabilityWrite
	ErrSelectionWrite
)

// NoLevel is the value of SlotLit while no level indicator is lit.
const NoLevel = 0xFFFF

// RegisterWriter is an interface that wraps the method WriteRegisters. *Client
// implements it.
type RegisterWriter interface {
	WriteRegisters(addr uint16, regs []uint16) error
}

// Block is the content of the mirrored register block.
type Block [BlockSize]uint16

// Mirror is a poller.Sink keeping a register block in sync with the reports
// it is given. The first write sends the whole block; after that only changed
// registers are written, unless a write failed, in which case the next
// report re-asserts the whole block.
type Mirror struct {
	w    RegisterWriter
	base uint16

	needFull bool
	last     Block

	// Latched between reports.
	status  *cypd3177.Status
	confirm poller.Confirmation
}

// New creates a mirror writing to w at base.
func New(w RegisterWriter, base uint16) *Mirror {
	return &Mirror{
		w:        w,
		base:     base,
		needFull: true,
	}
}

// Publish implements poller.Sink interface.
func (m *Mirror) Publish(r poller.Report) error {
	b := m.encode(r)

	if m.needFull {
		if err := m.w.WriteRegisters(m.base, b[:]); err != nil {
			return fmt.Errorf("mirror: full block write failed: %w", err)
		}
		m.needFull = false
		m.last = b
		return nil
	}

	var errs []error
	for i := 0; i < BlockSize; {
		if b[i] == m.last[i] {
			i++
			continue
		}
		// Coalesce a run of changed registers into one write.
		j := i + 1
		for j < BlockSize && b[j] != m.last[j] {
			j++
		}
		if err := m.w.WriteRegisters(m.base+uint16(i), b[i:j]); err != nil {
			errs = append(errs, fmt.Errorf("mirror: slots %d-%d write failed: %w", i, j-1, err))
		} else {
			copy(m.last[i:j], b[i:j])
		}
		i = j
	}

	if len(errs) > 0 {
		m.needFull = true
		return errors.Join(errs...)
	}
	return nil
}

func (m *Mirror) encode(r poller.Report) Block {
	if !r.Online {
		m.status = nil
		m.confirm = poller.ConfirmNone
	}
	if r.Status != nil {
		st := *r.Status
		m.status = &st
	}
	if r.Confirm != poller.ConfirmNone {
		m.confirm = r.Confirm
	}

	var b Block
	if r.Online {
		b[SlotOnline] = 1
		b[SlotVBus] = r.VBus
	}
	b[SlotIndex] = uint16(r.Index)
	b[SlotLit] = NoLevel
	if r.Lit >= 0 {
		b[SlotLit] = uint16(r.Lit)
	}
	b[SlotPDOHigh] = uint16(r.PDO >> 16)
	b[SlotPDOLow] = uint16(r.PDO)
	if s := m.status; s != nil {
		b[SlotFlags] = flags(*s)
		b[SlotSilicon] = s.SiliconID
	}
	b[SlotError] = ErrorCode(r.Err)
	b[SlotConfirm] = uint16(m.confirm)
	return b
}

func flags(s cypd3177.Status) uint16 {
	var f uint16
	set := func(bit uint16, v bool) {
		if v {
			f |= bit
		}
	}
	set(FlagConnected, s.TypeC.Connected)
	set(FlagContract, s.PD.ExplicitContract)
	set(FlagSinkTxOK, s.PD.SinkTxOK)
	set(FlagPolicyEngineReady, s.PD.PolicyEngineReady)
	set(FlagDeviceInterrupt, s.Interrupts.Device)
	set(FlagPDPortInterrupt, s.Interrupts.PDPort)
	return f
}

// ErrorCode classifies err into one of the Err* codes. Errors that are not
// raised by the controller driver map to ErrNone.
func ErrorCode(err error) uint16 {
	var se *cypd3177.StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case cypd3177.StageCapabilityWrite:
			return ErrCapabilityWrite
		case cypd3177.StageSelectionWrite:
			return ErrSelectionWrite
		}
	}
	var te *cypd3177.TransportError
	if errors.As(err, &te) {
		return ErrTransport
	}
	return ErrNone
}
