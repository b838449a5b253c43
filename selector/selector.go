// Package selector implements the button driven state machine that steps a
// sink controller through a table of fixed supply profiles.
//
// Each press advances to the next profile of the table, wrapping around, and
// asks the controller to advertise it next to the baseline profile. One level
// indicator per profile shows which one was last requested successfully. A
// held button never fires twice: the machine waits for release before it
// samples for the next press.
package selector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/pdmsg"
	"github.com/oxplot/go-pdtrigger/profile"
)

// DefaultReleasePoll is the interval the button is sampled at while waiting
// for it to be released.
const DefaultReleasePoll = 10 * time.Millisecond

// Changer is an interface that wraps the method ChangePDO.
type Changer interface {
	// ChangePDO asks the sink controller to advertise baseline and target. A
	// nil error means the command was delivered, not that the source agreed.
	ChangePDO(baseline, target pdmsg.FixedSupplyPDO) error
}

// ChangerFunc is an adapter to allow the use of ordinary functions as
// Changer.
type ChangerFunc func(baseline, target pdmsg.FixedSupplyPDO) error

// ChangePDO implements Changer interface.
func (f ChangerFunc) ChangePDO(baseline, target pdmsg.FixedSupplyPDO) error {
	return f(baseline, target)
}

// Config holds the parts a Machine is built from.
type Config struct {
	Table  profile.Table
	Button pdtrigger.Button

	// Levels holds one indicator per table entry, in table order. It may be
	// empty for a machine without indicators. Nil entries are skipped.
	Levels []pdtrigger.Indicator

	// ReleasePoll defaults to DefaultReleasePoll.
	ReleasePoll time.Duration

	// Logger defaults to discarding everything.
	Logger *slog.Logger
}

var (
	errNoButton   = errors.New("selector: button is required")
	errLevelCount = errors.New("selector: level indicator count must match profile count")
)

// State is a state of the selection machine.
type State uint8

// Selection machine states.
const (
	StateIdle            State = iota // waiting for a press
	StatePressed                      // press seen, profile change under way
	StateHeldWaitRelease              // waiting for the button to be released
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	case StateHeldWaitRelease:
		return "held-wait-release"
	default:
		return "invalid"
	}
}

// Outcome describes what a single Step did.
type Outcome struct {
	Pressed   bool            // a press edge was seen
	Attempted bool            // ChangePDO was called
	Index     int             // selected index after the step
	Lit       int             // lit level indicator after the step, -1 for none
	Profile   profile.Profile // profile at Index
	Err       error           // error returned by ChangePDO
}

// Machine is the selection state machine. The selected index starts at 0 and
// no level indicator is lit until the first successful change.
//
// A Machine is not safe for concurrent use.
type Machine struct {
	ch     Changer
	table  profile.Table
	button pdtrigger.Button
	levels []pdtrigger.Indicator
	poll   time.Duration
	log    *slog.Logger

	cur      *state
	entering bool
	disarmed bool // a released sample is needed before the next press
	index    int
	lit      int // -1 when no level is lit

	sleep func(context.Context, time.Duration) error
}

// New creates a machine driving ch with the table, button and indicators of c.
func New(ch Changer, c Config) (*Machine, error) {
	if err := c.Table.Validate(); err != nil {
		return nil, err
	}
	if c.Button == nil {
		return nil, errNoButton
	}
	if len(c.Levels) != 0 && len(c.Levels) != len(c.Table) {
		return nil, errLevelCount
	}
	if c.ReleasePoll <= 0 {
		c.ReleasePoll = DefaultReleasePoll
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Machine{
		ch:     ch,
		table:  c.Table,
		button: c.Button,
		levels: c.Levels,
		poll:   c.ReleasePoll,
		log:    c.Logger,
		cur:    stateIdle,
		lit:    -1,
		sleep:  sleepContext,
	}, nil
}

// Index returns the currently selected index into the table.
func (m *Machine) Index() int {
	return m.index
}

// Lit returns the index of the lit level indicator or -1 if none is lit.
func (m *Machine) Lit() int {
	return m.lit
}

// Disarm makes the machine ignore the button until it has been seen
// released. A press already under way, such as one that began while the
// controller was offline, is then never acted on. Any wait for release in
// progress is abandoned.
func (m *Machine) Disarm() {
	if !m.disarmed {
		m.log.Debug("selector disarmed")
	}
	m.cur, m.entering = stateIdle, false
	m.disarmed = true
}

// Disarmed returns true if the machine is waiting for a released sample
// before it accepts a press.
func (m *Machine) Disarmed() bool {
	return m.disarmed
}

// State returns the current state of the machine.
func (m *Machine) State() State {
	return m.cur.Name
}

// Step samples the button once and runs the transitions that follow from it.
// A press runs the profile change and then blocks until the button is
// released, so a single Step may take as long as the button is held. If ctx
// ends during that wait, Step returns ctx.Err() and the next call resumes
// waiting.
//
// The returned error covers the button and the indicators. A failed profile
// change is reported in Outcome.Err instead, and leaves the index and the
// indicators unchanged.
func (m *Machine) Step(ctx context.Context) (Outcome, error) {
	var o Outcome
	var errs []error
	for {
		var next *state
		var err error
		if m.entering && m.cur.Enter != nil {
			next, err = m.cur.Enter(ctx, m, &o)
		} else {
			next, err = m.cur.Process(ctx, m, &o)
		}
		m.entering = false
		if err != nil {
			errs = append(errs, err)
		}
		if next == nil {
			break
		}
		m.log.Debug("selector transition", "from", m.cur.Name, "to", next.Name)
		m.cur, m.entering = next, true
		if next == stateIdle {
			break
		}
	}
	o.Index = m.index
	o.Lit = m.lit
	o.Profile = m.table[m.index]
	return o, errors.Join(errs...)
}

// light turns on the level indicator at i and every other one off.
func (m *Machine) light(i int) error {
	var errs []error
	for j, l := range m.levels {
		if l == nil {
			continue
		}
		if err := l.Set(j == i); err != nil {
			errs = append(errs, err)
		}
	}
	m.lit = i
	return errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// state represents a selection machine state.
type state struct {
	Name State

	// Enter runs actions on entering the state. It may be nil in which case
	// Process is called right away.
	Enter func(ctx context.Context, m *Machine, o *Outcome) (next *state, err error)

	// Process is called on each Step while the machine is in the state. A nil
	// next state keeps the machine where it is and ends the Step.
	Process func(ctx context.Context, m *Machine, o *Outcome) (next *state, err error)
}

var (
	stateIdle            *state
	statePressed         *state
	stateHeldWaitRelease *state
)

func init() {

	// Initializing is done here to avoid circular references between states
	// which are not allowed at the package level variable assignments.

	stateIdle = &state{
		Name: StateIdle,
		Process: func(ctx context.Context, m *Machine, o *Outcome) (*state, error) {
			pressed, err := m.button.Pressed()
			if err != nil {
				return nil, err
			}
			if m.disarmed {
				if !pressed {
					m.disarmed = false
					m.log.Debug("selector armed")
				}
				return nil, nil
			}
			if !pressed {
				return nil, nil
			}
			o.Pressed = true
			return statePressed, nil
		},
	}

	statePressed = &state{
		Name: StatePressed,
		Enter: func(ctx context.Context, m *Machine, o *Outcome) (*state, error) {
			next := m.table.Next(m.index)
			o.Attempted = true
			o.Err = m.ch.ChangePDO(m.table.Baseline().PDO(), m.table[next].PDO())
			if o.Err != nil {
				m.log.Warn("profile change failed", "profile", m.table[next], "err", o.Err)
				return stateHeldWaitRelease, nil
			}
			m.index = next
			m.log.Info("profile requested", "index", next, "profile", m.table[next])
			return stateHeldWaitRelease, m.light(next)
		},
	}

	// Sampling errors while held count as still held, so a flaky button read
	// can not produce a second press.
	stateHeldWaitRelease = &state{
		Name: StateHeldWaitRelease,
		Process: func(ctx context.Context, m *Machine, o *Outcome) (*state, error) {
			for {
				if pressed, err := m.button.Pressed(); err == nil && !pressed {
					return stateIdle, nil
				}
				if err := m.sleep(ctx, m.poll); err != nil {
					return nil, err
				}
			}
		},
	}

}
