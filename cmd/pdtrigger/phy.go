package main

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/config"
	"github.com/oxplot/go-pdtrigger/gpioio"
	"github.com/oxplot/go-pdtrigger/tcpcdriver"
)

// hardware holds the opened bus and pins. Pin fields are nil when not
// configured.
type hardware struct {
	closer i2c.BusCloser
	bus    tcpcdriver.I2C
	button pdtrigger.Button
	online pdtrigger.Indicator
	levels []pdtrigger.Indicator
}

func (h *hardware) Close() error {
	return h.closer.Close()
}

// openBus initializes the host drivers and opens the configured I2C bus,
// bounded by the configured transaction timeout.
func openBus(cfg *config.Config) (*hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	b, err := i2creg.Open(cfg.Bus.Name)
	if err != nil {
		return nil, err
	}
	if cfg.Bus.SpeedHz > 0 {
		if err := b.SetSpeed(physic.Frequency(cfg.Bus.SpeedHz) * physic.Hertz); err != nil {
			b.Close()
			return nil, fmt.Errorf("i2c: set speed: %w", err)
		}
	}
	timeout := time.Duration(*cfg.Bus.TransactionTimeoutMs) * time.Millisecond
	return &hardware{
		closer: b,
		bus:    tcpcdriver.WithDeadline(b, timeout),
	}, nil
}

// openHardware opens the bus and every configured pin.
func openHardware(cfg *config.Config) (*hardware, error) {
	h, err := openBus(cfg)
	if err != nil {
		return nil, err
	}
	if err := h.openPins(cfg.Pins); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *hardware) openPins(c config.PinsConfig) error {
	var errs []error

	if c.Button != "" {
		p, err := gpioio.ByName(c.Button)
		if err == nil {
			var b *gpioio.Button
			if b, err = gpioio.NewButton(p, *c.ButtonActiveLow); err == nil {
				h.button = b
			}
		}
		errs = append(errs, err)
	}

	if c.OnlineLED != "" {
		l, err := openLED(c.OnlineLED)
		if err == nil {
			h.online = l
		}
		errs = append(errs, err)
	}

	for _, name := range c.LevelLEDs {
		l, err := openLED(name)
		if err == nil {
			h.levels = append(h.levels, l)
		}
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func openLED(name string) (*gpioio.LED, error) {
	p, err := gpioio.ByName(name)
	if err != nil {
		return nil, err
	}
	return gpioio.NewLED(p, false)
}
