// Package record keeps a CBOR encoded trail of poll reports in a file and
// reads it back.
//
// Each report is appended as one CBOR map with small integer keys, so a
// record file is a plain sequence of items that can be decoded one at a time.
package record

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/poller"
)

// Entry is the recorded form of a poller.Report.
type Entry struct {
	At      time.Time `cbor:"1,keyasint"`
	Session string    `cbor:"2,keyasint"`
	Seq     uint64    `cbor:"3,keyasint"`
	Online  bool      `cbor:"4,keyasint"`
	VBus    uint16    `cbor:"5,keyasint,omitempty"` // millivolts
	Index   int       `cbor:"6,keyasint"`
	Lit     int       `cbor:"7,keyasint"`
	PDO     uint32    `cbor:"8,keyasint,omitempty"`
	Confirm uint8     `cbor:"9,keyasint,omitempty"`
	Events  uint16    `cbor:"10,keyasint,omitempty"`
	Error   string    `cbor:"11,keyasint,omitempty"`

	Change *Change `cbor:"12,keyasint,omitempty"`
	Status *Status `cbor:"13,keyasint,omitempty"`
}

// Change describes a profile change attempt.
type Change struct {
	Voltage uint16 `cbor:"1,keyasint"` // millivolts
	Current uint16 `cbor:"2,keyasint"` // milliamps
	Error   string `cbor:"3,keyasint,omitempty"`
}

// Status is the recorded controller status snapshot.
type Status struct {
	SiliconID  uint16 `cbor:"1,keyasint"`
	Interrupts uint8  `cbor:"2,keyasint,omitempty"`
	TypeC      string `cbor:"3,keyasint"`
	PD         uint8  `cbor:"4,keyasint,omitempty"`
	CurrentPDO uint32 `cbor:"5,keyasint,omitempty"`
	CurrentRDO uint32 `cbor:"6,keyasint,omitempty"`
}

// Bits of Status.PD.
const (
	PDExplicitContract = 1 << iota
	PDSinkTxOK
	PDPolicyEngineReady
)

// Bits of Status.Interrupts.
const (
	IntDevice = 1 << iota
	IntPDPort
)

// EventSet returns the recorded events.
func (e Entry) EventSet() pdtrigger.Event {
	return pdtrigger.Event(e.Events)
}

// FromReport converts r to its recorded form.
func FromReport(r poller.Report) Entry {
	e := Entry{
		At:      r.At,
		Session: r.Session.String(),
		Seq:     r.Seq,
		Online:  r.Online,
		VBus:    r.VBus,
		Index:   r.Index,
		Lit:     r.Lit,
		PDO:     uint32(r.PDO),
		Confirm: uint8(r.Confirm),
		Events:  uint16(r.Events),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	if o := r.Outcome; o.Attempted {
		e.Change = &Change{Voltage: o.Profile.Voltage, Current: o.Profile.Current}
		if o.Err != nil {
			e.Change.Error = o.Err.Error()
		}
	}
	if s := r.Status; s != nil {
		st := &Status{
			SiliconID:  s.SiliconID,
			TypeC:      fmt.Sprintf("connected=%t %s %s %s", s.TypeC.Connected, s.TypeC.Polarity, s.TypeC.Attached, s.TypeC.Current),
			CurrentPDO: uint32(s.CurrentPDO),
			CurrentRDO: uint32(s.CurrentRDO),
		}
		if s.Interrupts.Device {
			st.Interrupts |= IntDevice
		}
		if s.Interrupts.PDPort {
			st.Interrupts |= IntPDPort
		}
		if s.PD.ExplicitContract {
			st.PD |= PDExplicitContract
		}
		if s.PD.SinkTxOK {
			st.PD |= PDSinkTxOK
		}
		if s.PD.PolicyEngineReady {
			st.PD |= PDPolicyEngineReady
		}
		e.Status = st
	}
	return e
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	if encMode, err = encOpts.EncMode(); err != nil {
		panic(fmt.Sprintf("record: failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	if decMode, err = decOpts.DecMode(); err != nil {
		panic(fmt.Sprintf("record: failed to create CBOR decoder mode: %v", err))
	}
}
