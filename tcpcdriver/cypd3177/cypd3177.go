// Package cypd3177 implements a driver for the CYPD3177 (EZ-PD BCR) USB Type-C
// power delivery sink controller from Infineon/Cypress.
//
// Unlike a bare port controller, the CYPD3177 runs the PD policy engine on
// chip. The host only reads status registers and stages the sink capabilities
// the chip should negotiate with.
//
// Registers are addressed with 16 bits, sent most significant byte first.
// Multi-byte register contents are little-endian.
package cypd3177

import (
	"fmt"

	"github.com/oxplot/go-pdtrigger/pdmsg"
	"github.com/oxplot/go-pdtrigger/tcpcdriver"
)

// DefaultAddress is the 7-bit I2C address of the CYPD3177.
const DefaultAddress = 0x08

// maxTransfer is the largest payload moved in a single transaction, a sink
// capability block with all slots populated.
const maxTransfer = sinkPDOHeaderSize + 4*pdmsg.MaxSinkPDOs

// Device represents a CYPD3177 attached to an I2C bus.
//
// A Device is not safe for concurrent use.
type Device struct {
	bus  tcpcdriver.I2C
	addr uint16

	// Buffer used for tx and rx, defined once here instead to avoid heap
	// allocations in each method used.
	buf [2 + maxTransfer]byte
}

// New creates a driver for the controller at the given 7-bit address. Use
// DefaultAddress unless the board straps it differently.
func New(bus tcpcdriver.I2C, addr uint16) *Device {
	return &Device{
		bus:  bus,
		addr: addr,
	}
}

// TransportError is returned when a bus transaction with the controller
// failed. No partially read data is ever returned alongside it.
type TransportError struct {
	Op  string // "read" or "write"
	Reg Register
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cypd3177: %s %s: %v", e.Op, e.Reg, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Read reads len(p) bytes starting at register reg in one transaction. p is
// only written once the whole transaction has succeeded.
func (d *Device) Read(reg Register, p []byte) error {
	if len(p) > maxTransfer {
		return &TransportError{Op: "read", Reg: reg, Err: errTooLong}
	}
	d.buf[0], d.buf[1] = byte(reg>>8), byte(reg)
	r := d.buf[2 : 2+len(p)]
	if err := d.bus.Tx(d.addr, d.buf[:2], r); err != nil {
		return &TransportError{Op: "read", Reg: reg, Err: err}
	}
	copy(p, r)
	return nil
}

// Write writes p starting at register reg in one transaction.
func (d *Device) Write(reg Register, p []byte) error {
	if len(p) > maxTransfer {
		return &TransportError{Op: "write", Reg: reg, Err: errTooLong}
	}
	d.buf[0], d.buf[1] = byte(reg>>8), byte(reg)
	n := copy(d.buf[2:], p)
	if err := d.bus.Tx(d.addr, d.buf[:2+n], nil); err != nil {
		return &TransportError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

var errTooLong = fmt.Errorf("transfer longer than %d bytes", maxTransfer)
