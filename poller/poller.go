// Package poller runs the fixed cadence loop that watches a sink controller,
// drives the profile selector while the controller is online, and hands a
// Report of every tick to a set of sinks.
package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/pdmsg"
	"github.com/oxplot/go-pdtrigger/selector"
	"github.com/oxplot/go-pdtrigger/tcpcdriver/cypd3177"
)

// Defaults used for zero Config fields.
const (
	DefaultInterval     = 100 * time.Millisecond
	DefaultConfirmTicks = 10
)

// Device is the part of the sink controller the loop reads from.
// *cypd3177.Device implements it.
type Device interface {
	Online() (bool, error)
	VBus() (uint16, error)
	ReadStatus() (cypd3177.Status, error)
	PDStatus() (cypd3177.PDStatus, error)
	CurrentPDO() (pdmsg.PDO, error)
}

// Stepper is an interface that wraps the method Step. *selector.Machine
// implements it.
type Stepper interface {
	Step(ctx context.Context) (selector.Outcome, error)
}

// Disarmer is implemented by steppers that can be told to ignore a press
// already under way. The loop disarms its stepper on every offline tick, so a
// press that begins while the controller is offline is never acted on, even
// if the controller comes back before the button is released.
// *selector.Machine implements it.
type Disarmer interface {
	Disarm()
}

// Sink is an interface that wraps the method Publish.
type Sink interface {
	// Publish is called on the loop goroutine with the report of each tick. It
	// should return quickly; an error is logged and does not stop the loop.
	Publish(Report) error
}

// SinkFunc is an adapter to allow the use of ordinary functions as Sink.
type SinkFunc func(Report) error

// Publish implements Sink interface.
func (f SinkFunc) Publish(r Report) error {
	return f(r)
}

// Config is the runtime configuration of a Loop.
type Config struct {
	Interval     time.Duration // defaults to DefaultInterval
	ConfirmTicks int           // defaults to DefaultConfirmTicks
	Session      uuid.UUID     // defaults to a new random id

	// Online is lit while the controller reports itself active. Optional.
	Online pdtrigger.Indicator

	Sinks  []Sink
	Logger *slog.Logger
}

// Confirmation is the state of the check that follows a profile request.
type Confirmation uint8

// Confirmation states.
const (
	ConfirmNone        Confirmation = iota // nothing requested or check dropped
	ConfirmPending                         // waiting for the source to settle
	ConfirmConfirmed                       // contract matches the request
	ConfirmUnconfirmed                     // gave up waiting
)

func (c Confirmation) String() string {
	switch c {
	case ConfirmNone:
		return "none"
	case ConfirmPending:
		return "pending"
	case ConfirmConfirmed:
		return "confirmed"
	case ConfirmUnconfirmed:
		return "unconfirmed"
	default:
		return "invalid"
	}
}

// Report is the result of one tick.
type Report struct {
	At      time.Time
	Session uuid.UUID
	Seq     uint64

	Online bool
	VBus   uint16 // millivolts, valid when Online

	// Status is set on the tick the controller comes online.
	Status *cypd3177.Status

	// PDO is the last current PDO read from the controller, zero until one
	// was read while online.
	PDO pdmsg.PDO

	Outcome selector.Outcome
	Index   int // selected profile index
	Lit     int // lit level indicator, -1 for none
	Confirm Confirmation
	Events  pdtrigger.Event

	// Err joins the errors seen during the tick. Offline ticks caused by a
	// failed bus transaction carry the transport error here.
	Err error
}

var errNoDevice = errors.New("poller: device is required")

// Loop polls a device at a fixed interval. Only one goroutine may call Tick or
// Run at a time.
type Loop struct {
	dev     Device
	stepper Stepper
	cfg     Config
	log     *slog.Logger

	seq     uint64
	known   bool // online state has been observed at least once
	online  bool
	index   int
	lit     int
	pdo     pdmsg.PDO
	pending *pendingRequest

	now func() time.Time
}

type pendingRequest struct {
	voltage uint16
	ticks   int
}

// New creates a loop for dev. stepper may be nil, in which case the button is
// never sampled.
func New(dev Device, stepper Stepper, cfg Config) (*Loop, error) {
	if dev == nil {
		return nil, errNoDevice
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ConfirmTicks <= 0 {
		cfg.ConfirmTicks = DefaultConfirmTicks
	}
	if cfg.Session == uuid.Nil {
		cfg.Session = uuid.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		dev:     dev,
		stepper: stepper,
		cfg:     cfg,
		log:     cfg.Logger,
		lit:     -1,
		now:     time.Now,
	}, nil
}

// Session returns the session id stamped on every report.
func (l *Loop) Session() uuid.UUID {
	return l.cfg.Session
}

// Run waits one interval and ticks, over and over, until ctx is done. It
// returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			l.Tick(ctx)
		}
	}
}

// Tick performs one poll cycle and publishes its report. While the controller
// is offline the button is not sampled and no profile change can happen.
func (l *Loop) Tick(ctx context.Context) Report {
	l.seq++
	r := Report{
		At:      l.now(),
		Session: l.cfg.Session,
		Seq:     l.seq,
		Index:   l.index,
		Lit:     l.lit,
	}
	var errs []error

	online, err := l.dev.Online()
	if err != nil {
		r.Events.Add(pdtrigger.EventTransportError)
		errs = append(errs, err)
		online = false
	}
	cameOnline := online && (!l.known || !l.online)
	if online != l.online || !l.known {
		if online {
			r.Events.Add(pdtrigger.EventOnline)
		} else {
			r.Events.Add(pdtrigger.EventOffline)
		}
	}
	l.known, l.online = true, online
	r.Online = online

	if l.cfg.Online != nil {
		if err := l.cfg.Online.Set(online); err != nil {
			errs = append(errs, err)
		}
	}

	if !online {
		l.pdo = 0
		if d, ok := l.stepper.(Disarmer); ok {
			d.Disarm()
		}
		if l.pending != nil {
			l.log.Debug("dropping pending confirmation", "voltage", l.pending.voltage)
			l.pending = nil
		}
		r.Err = errors.Join(errs...)
		l.publish(r)
		return r
	}

	if r.VBus, err = l.dev.VBus(); err != nil {
		r.Events.Add(pdtrigger.EventTransportError)
		errs = append(errs, err)
	}

	if cameOnline {
		if st, err := l.dev.ReadStatus(); err != nil {
			r.Events.Add(pdtrigger.EventTransportError)
			errs = append(errs, err)
		} else {
			r.Status = &st
			r.Events.Add(pdtrigger.EventStatus)
			l.pdo = st.CurrentPDO
		}
	}

	if l.pending != nil {
		r.Confirm = l.confirm(&r)
	}

	if l.stepper != nil {
		o, err := l.stepper.Step(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		r.Outcome = o
		l.index, r.Index = o.Index, o.Index
		l.lit, r.Lit = o.Lit, o.Lit
		if o.Pressed {
			r.Events.Add(pdtrigger.EventPressed)
		}
		if o.Attempted {
			if o.Err != nil {
				r.Events.Add(pdtrigger.EventPDOFailed)
				errs = append(errs, o.Err)
			} else {
				r.Events.Add(pdtrigger.EventPDORequested)
				l.pending = &pendingRequest{voltage: o.Profile.Voltage}
				r.Confirm = ConfirmPending
			}
		}
	}

	r.PDO = l.pdo
	r.Err = errors.Join(errs...)
	l.publish(r)
	return r
}

// confirm checks whether the source has settled on the pending request.
func (l *Loop) confirm(r *Report) Confirmation {
	pd, err := l.dev.PDStatus()
	var pdo pdmsg.PDO
	if err == nil {
		pdo, err = l.dev.CurrentPDO()
	}
	if err == nil {
		l.pdo = pdo
	}
	if err != nil {
		r.Events.Add(pdtrigger.EventTransportError)
		l.log.Debug("confirmation read failed", "err", err)
	} else if pd.ExplicitContract && pdo.Type() == pdmsg.PDOTypeFixedSupply &&
		pdmsg.FixedSupplyPDO(pdo).Voltage() == l.pending.voltage {
		l.pending = nil
		r.Events.Add(pdtrigger.EventContractConfirmed)
		return ConfirmConfirmed
	}

	l.pending.ticks++
	if l.pending.ticks >= l.cfg.ConfirmTicks {
		l.log.Warn("requested profile not confirmed", "voltage", l.pending.voltage, "ticks", l.pending.ticks)
		l.pending = nil
		r.Events.Add(pdtrigger.EventContractUnconfirmed)
		return ConfirmUnconfirmed
	}
	return ConfirmPending
}

func (l *Loop) publish(r Report) {
	for _, s := range l.cfg.Sinks {
		if err := s.Publish(r); err != nil {
			l.log.Warn("sink publish failed", "err", err)
		}
	}
}
