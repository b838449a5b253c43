// Package profile holds the ordered table of fixed supply profiles a trigger
// cycles through.
package profile

import (
	"errors"
	"fmt"

	"github.com/oxplot/go-pdtrigger/pdmsg"
)

// Profile is a fixed supply voltage and the current the sink asks for at that
// voltage.
type Profile struct {
	Voltage uint16 // millivolts
	Current uint16 // milliamps
}

// PDO returns the sink fixed supply PDO of the profile.
func (p Profile) PDO() pdmsg.FixedSupplyPDO {
	return pdmsg.FixedSupply(p.Voltage, p.Current)
}

func (p Profile) String() string {
	return fmt.Sprintf("%dmV@%dmA", p.Voltage, p.Current)
}

var (
	errBadVoltage    = errors.New("profile: voltage must be >= 3300mV & <= 21000mV")
	errBadCurrent    = errors.New("profile: current must be <= 5000mA")
	errVoltageStep   = errors.New("profile: voltage must be a multiple of 50mV")
	errCurrentStep   = errors.New("profile: current must be a multiple of 10mA")
	errTableSize     = fmt.Errorf("profile: table must hold 1 to %d profiles", pdmsg.MaxSinkPDOs)
	errBaselineNot5V = errors.New("profile: first profile must be 5000mV")
)

// Validate returns an error if the profile can not be encoded exactly as a
// fixed supply PDO.
func (p Profile) Validate() error {
	if p.Voltage < 3300 || p.Voltage > 21000 {
		return errBadVoltage
	}
	if p.Current > 5000 {
		return errBadCurrent
	}
	if p.Voltage%50 != 0 {
		return errVoltageStep
	}
	if p.Current%10 != 0 {
		return errCurrentStep
	}
	return nil
}

// Table is an ordered list of profiles. The first entry is the baseline the
// sink always advertises next to the selected one. A Table must not be
// modified once handed to a selector.
type Table []Profile

// Default returns the 5V, 9V, 12V, 15V and 20V profiles, all at 3A.
func Default() Table {
	return Table{
		{Voltage: 5000, Current: 3000},
		{Voltage: 9000, Current: 3000},
		{Voltage: 12000, Current: 3000},
		{Voltage: 15000, Current: 3000},
		{Voltage: 20000, Current: 3000},
	}
}

// Validate returns an error if the table is empty, too long, does not start at
// 5V or holds an invalid profile.
func (t Table) Validate() error {
	if len(t) == 0 || len(t) > pdmsg.MaxSinkPDOs {
		return errTableSize
	}
	if t[0].Voltage != 5000 {
		return errBaselineNot5V
	}
	for i, p := range t {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %d (%s): %w", i, p, err)
		}
	}
	return nil
}

// Baseline returns the first profile of the table.
func (t Table) Baseline() Profile {
	return t[0]
}

// Next returns the index following i, wrapping to 0 past the last entry.
func (t Table) Next(i int) int {
	return (i + 1) % len(t)
}

// PDOs returns the table encoded as fixed supply PDOs.
func (t Table) PDOs() []pdmsg.FixedSupplyPDO {
	pdos := make([]pdmsg.FixedSupplyPDO, len(t))
	for i, p := range t {
		pdos[i] = p.PDO()
	}
	return pdos
}

// Index returns the index of the first profile whose voltage equals mv, or -1.
func (t Table) Index(mv uint16) int {
	for i, p := range t {
		if p.Voltage == mv {
			return i
		}
	}
	return -1
}
