// Package gpioio adapts periph.io GPIO pins to the button and indicator
// interfaces of pdtrigger.
package gpioio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Button is a push button wired to an input pin.
type Button struct {
	pin       gpio.PinIn
	activeLow bool
}

// NewButton configures pin as an input and returns a button reading it. An
// active-low button gets the internal pull-up enabled, otherwise the
// pull-down.
func NewButton(pin gpio.PinIn, activeLow bool) (*Button, error) {
	pull := gpio.PullDown
	if activeLow {
		pull = gpio.PullUp
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpioio: button %s: %w", pin, err)
	}
	return &Button{pin: pin, activeLow: activeLow}, nil
}

// Pressed implements pdtrigger.Button interface.
func (b *Button) Pressed() (bool, error) {
	return bool(b.pin.Read()) != b.activeLow, nil
}

// LED is an indicator wired to an output pin.
type LED struct {
	pin       gpio.PinOut
	activeLow bool
}

// NewLED returns an LED driving pin. The LED starts off.
func NewLED(pin gpio.PinOut, activeLow bool) (*LED, error) {
	l := &LED{pin: pin, activeLow: activeLow}
	if err := l.Set(false); err != nil {
		return nil, err
	}
	return l, nil
}

// Set implements pdtrigger.Indicator interface.
func (l *LED) Set(on bool) error {
	if err := l.pin.Out(gpio.Level(on != l.activeLow)); err != nil {
		return fmt.Errorf("gpioio: led %s: %w", l.pin, err)
	}
	return nil
}

// ByName looks up a pin in the periph registry.
func ByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpioio: no pin named %q", name)
	}
	return p, nil
}
