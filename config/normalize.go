package config

import (
	"github.com/oxplot/go-pdtrigger/profile"
	"github.com/oxplot/go-pdtrigger/tcpcdriver/cypd3177"
)

// Defaults filled in by Normalize.
const (
	DefaultTransactionTimeoutMs = 100
	DefaultIntervalMs           = 100
	DefaultConfirmTicks         = 10
	DefaultReleasePollMs        = 10
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
	DefaultMirrorUnitID         = 1
	DefaultMirrorTimeoutMs      = 1000
)

// Normalize fills unset fields with their defaults. It is allowed to mutate
// configuration and must be called before Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Bus.Address == 0 {
		cfg.Bus.Address = cypd3177.DefaultAddress
	}
	if cfg.Bus.TransactionTimeoutMs == nil {
		v := DefaultTransactionTimeoutMs
		cfg.Bus.TransactionTimeoutMs = &v
	}

	if cfg.Pins.ButtonActiveLow == nil {
		v := true
		cfg.Pins.ButtonActiveLow = &v
	}

	if len(cfg.Profiles) == 0 {
		for _, p := range profile.Default() {
			cfg.Profiles = append(cfg.Profiles, ProfileConfig{VoltageMv: p.Voltage, CurrentMa: p.Current})
		}
	}

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	if cfg.Poll.ConfirmTicks == 0 {
		cfg.Poll.ConfirmTicks = DefaultConfirmTicks
	}
	if cfg.Poll.ReleasePollMs == 0 {
		cfg.Poll.ReleasePollMs = DefaultReleasePollMs
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Mirror.Endpoint != "" {
		if cfg.Mirror.UnitID == 0 {
			cfg.Mirror.UnitID = DefaultMirrorUnitID
		}
		if cfg.Mirror.TimeoutMs == 0 {
			cfg.Mirror.TimeoutMs = DefaultMirrorTimeoutMs
		}
	}
}
