// Package pdtrigger defines the interfaces and types shared by the parts of a
// button driven USB power delivery trigger: physical inputs and outputs, and
// the set of events reported on each poll of the sink controller.
package pdtrigger

// Event can store multiple events and return them in priority order.
type Event uint16

// Pop returns the next high priority event and clears it.
func (e *Event) Pop() Event {
	if *e == 0 {
		return EventNone
	}
	for r := Event(1); r <= 0x8000; r <<= 1 {
		if *e&r != 0 {
			*e &= ^r
			return r
		}
	}
	return EventNone // will never get here
}

// Add adds the events v to the set.
func (e *Event) Add(v Event) {
	*e |= v
}

// Has returns true if the event v is set without clearing it.
func (e Event) Has(v Event) bool {
	return e&v != 0
}

// Names returns the names of all events in the set in priority order.
func (e Event) Names() []string {
	var names []string
	for ev := e.Pop(); ev != EventNone; ev = e.Pop() {
		names = append(names, ev.String())
	}
	return names
}

func (e Event) String() string {
	switch e {
	case EventNone:
		return "None"
	case EventTransportError:
		return "TransportError"
	case EventOffline:
		return "Offline"
	case EventOnline:
		return "Online"
	case EventStatus:
		return "Status"
	case EventPressed:
		return "Pressed"
	case EventPDORequested:
		return "PDORequested"
	case EventPDOFailed:
		return "PDOFailed"
	case EventContractConfirmed:
		return "ContractConfirmed"
	case EventContractUnconfirmed:
		return "ContractUnconfirmed"
	default:
		return "INVALID"
	}
}

// EventNone represents no event.
const EventNone Event = 0

// The events are listed in order of priority from highest to lowest.
const (
	EventTransportError      Event = 1 << iota // A bus transaction failed during the poll
	EventOffline                               // Controller stopped reporting itself active
	EventOnline                                // Controller became active
	EventStatus                                // Full status snapshot was read
	EventPressed                               // Button press detected
	EventPDORequested                          // New sink capabilities were written
	EventPDOFailed                             // Writing new sink capabilities failed
	EventContractConfirmed                     // Source agreed on the requested profile
	EventContractUnconfirmed                   // Requested profile never showed up
)

// Button is a momentary push button.
type Button interface {
	// Pressed samples the button and returns true while it is held down. Any
	// active-low inversion is the implementer's business.
	Pressed() (bool, error)
}

// ButtonFunc is an adapter to allow the use of ordinary functions as Button.
type ButtonFunc func() (bool, error)

// Pressed implements Button interface.
func (f ButtonFunc) Pressed() (bool, error) {
	return f()
}

// Indicator is a binary output such as an LED.
type Indicator interface {
	// Set turns the indicator on or off.
	Set(on bool) error
}

// IndicatorFunc is an adapter to allow the use of ordinary functions as
// Indicator.
type IndicatorFunc func(on bool) error

// Set implements Indicator interface.
func (f IndicatorFunc) Set(on bool) error {
	return f(on)
}
