package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/oxplot/go-pdtrigger/mirror"
)

// Validate checks configuration correctness. It performs declarative
// validation only and must not mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Bus.Address == 0 || cfg.Bus.Address > 0x7F {
		return fmt.Errorf("bus: address 0x%X is not a 7-bit I2C address", cfg.Bus.Address)
	}
	if cfg.Bus.SpeedHz < 0 {
		return fmt.Errorf("bus: speed_hz must be >= 0")
	}
	if t := cfg.Bus.TransactionTimeoutMs; t != nil && *t < 0 {
		return fmt.Errorf("bus: transaction_timeout_ms must be >= 0")
	}

	table := cfg.Table()
	if err := table.Validate(); err != nil {
		return fmt.Errorf("profiles: %w", err)
	}

	if n := len(cfg.Pins.LevelLEDs); n != 0 && n != len(table) {
		return fmt.Errorf("pins: %d level_leds given for %d profiles", n, len(table))
	}
	if cfg.Pins.Button == "" && len(cfg.Pins.LevelLEDs) != 0 {
		return fmt.Errorf("pins: level_leds require a button")
	}
	seen := make(map[string]string)
	for _, p := range cfg.pinUses() {
		if p.name == "" {
			return fmt.Errorf("pins: %s has no pin name", p.use)
		}
		if prev, ok := seen[p.name]; ok {
			return fmt.Errorf("pins: %s used as both %s and %s", p.name, prev, p.use)
		}
		seen[p.name] = p.use
	}

	if cfg.Poll.IntervalMs <= 0 {
		return fmt.Errorf("poll: interval_ms must be > 0")
	}
	if cfg.Poll.ConfirmTicks <= 0 {
		return fmt.Errorf("poll: confirm_ticks must be > 0")
	}
	if cfg.Poll.ReleasePollMs <= 0 {
		return fmt.Errorf("poll: release_poll_ms must be > 0")
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log: format %q must be text or json", cfg.Log.Format)
	}

	if cfg.Mirror.Endpoint != "" {
		if !strings.Contains(cfg.Mirror.Endpoint, ":") {
			return fmt.Errorf("mirror: endpoint %q must be host:port", cfg.Mirror.Endpoint)
		}
		if cfg.Mirror.TimeoutMs < 0 {
			return fmt.Errorf("mirror: timeout_ms must be >= 0")
		}
		if int(cfg.Mirror.Address)+mirror.BlockSize > 0x10000 {
			return fmt.Errorf("mirror: block at address %d does not fit", cfg.Mirror.Address)
		}
	}

	return nil
}

type pinUse struct {
	name string
	use  string
}

func (c *Config) pinUses() []pinUse {
	var out []pinUse
	if c.Pins.Button != "" {
		out = append(out, pinUse{c.Pins.Button, "button"})
	}
	if c.Pins.OnlineLED != "" {
		out = append(out, pinUse{c.Pins.OnlineLED, "online_led"})
	}
	for i, n := range c.Pins.LevelLEDs {
		// Empty names are reported by Validate.
		out = append(out, pinUse{n, fmt.Sprintf("level_leds[%d]", i)})
	}
	return out
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "error":
		if err := l.UnmarshalText([]byte(s)); err != nil {
			return 0, err
		}
		return l, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}
