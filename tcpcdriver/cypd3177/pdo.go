package cypd3177

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/oxplot/go-pdtrigger/pdmsg"
)

// Stage identifies the step of a sink PDO change that failed.
type Stage uint8

// Stages of a sink PDO change.
const (
	// StageCapabilityWrite means the capability block could not be written.
	// The previous contract is untouched.
	StageCapabilityWrite Stage = iota + 1

	// StageSelectionWrite means the capability block was staged but enabling
	// it failed. The controller may or may not renegotiate; treat it as no
	// change confirmed.
	StageSelectionWrite
)

func (s Stage) String() string {
	switch s {
	case StageCapabilityWrite:
		return "capability write"
	case StageSelectionWrite:
		return "selection write"
	default:
		return "unknown stage"
	}
}

// StageError is returned by SetSinkPDOs and ChangePDO. It wraps the
// TransportError of the failed transaction.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("cypd3177: %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ErrPDOCount is returned when SetSinkPDOs is called with no PDOs or more than
// pdmsg.MaxSinkPDOs.
var ErrPDOCount = errors.New("cypd3177: number of sink PDOs must be within 1-7")

// ChangePDO stages baseline and target as the sink capabilities in slots 0
// and 1 and enables both, which makes the controller renegotiate with the
// source. It returns as soon as the command is written; the outcome of the
// negotiation has to be observed later through PDStatus and CurrentPDO.
func (d *Device) ChangePDO(baseline, target pdmsg.FixedSupplyPDO) error {
	return d.SetSinkPDOs(baseline, target)
}

// SetSinkPDOs writes a sink capability block holding pdos and then enables
// exactly the populated slots. The select command is not sent if the block
// could not be written.
func (d *Device) SetSinkPDOs(pdos ...pdmsg.FixedSupplyPDO) error {
	if len(pdos) == 0 || len(pdos) > pdmsg.MaxSinkPDOs {
		return ErrPDOCount
	}

	// Sink capability block: tag followed by little-endian PDOs

	var block [maxTransfer]byte
	copy(block[:], sinkPDOSignature[:])
	for i, p := range pdos {
		binary.LittleEndian.PutUint32(block[sinkPDOHeaderSize+i*4:], uint32(p))
	}
	n := sinkPDOHeaderSize + 4*len(pdos)

	if err := d.Write(RegWriteDataMemory, block[:n]); err != nil {
		return &StageError{Stage: StageCapabilityWrite, Err: err}
	}

	// Enable the populated slots only

	mask := [1]byte{byte(1)<<len(pdos) - 1}
	if err := d.Write(RegSelectSinkPDO, mask[:]); err != nil {
		return &StageError{Stage: StageSelectionWrite, Err: err}
	}

	return nil
}
