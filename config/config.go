// Package config loads the YAML configuration of the trigger.
package config

import (
	"github.com/oxplot/go-pdtrigger/profile"
)

type Config struct {
	Bus      BusConfig       `yaml:"bus"`
	Pins     PinsConfig      `yaml:"pins"`
	Profiles []ProfileConfig `yaml:"profiles"`
	Poll     PollConfig      `yaml:"poll"`
	Log      LogConfig       `yaml:"log"`
	Mirror   MirrorConfig    `yaml:"mirror"`
	Record   RecordConfig    `yaml:"record"`
}

// ---- BUS ----

type BusConfig struct {
	Name    string `yaml:"name"` // i2creg name, empty for the first bus
	Address uint16 `yaml:"address"`
	SpeedHz int64  `yaml:"speed_hz"` // 0 keeps the bus default

	// Bound on a single bus transaction. Unset means 100ms, 0 means no
	// bound.
	TransactionTimeoutMs *int `yaml:"transaction_timeout_ms"`
}

// ---- PINS ----

type PinsConfig struct {
	Button          string   `yaml:"button"` // gpioreg name, empty to run without selector
	ButtonActiveLow *bool    `yaml:"button_active_low"`
	OnlineLED       string   `yaml:"online_led"`
	LevelLEDs       []string `yaml:"level_leds"` // one per profile, in order
}

// ---- PROFILES ----

type ProfileConfig struct {
	VoltageMv uint16 `yaml:"voltage_mv"`
	CurrentMa uint16 `yaml:"current_ma"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs    int `yaml:"interval_ms"`
	ConfirmTicks  int `yaml:"confirm_ticks"`
	ReleasePollMs int `yaml:"release_poll_ms"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// ---- MIRROR (optional) ----

type MirrorConfig struct {
	Endpoint  string `yaml:"endpoint"` // host:port, empty disables the mirror
	UnitID    uint8  `yaml:"unit_id"`
	Address   uint16 `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- RECORD (optional) ----

type RecordConfig struct {
	Path string `yaml:"path"` // empty disables the record
}

// Table returns the configured profiles as a profile table.
func (c *Config) Table() profile.Table {
	t := make(profile.Table, len(c.Profiles))
	for i, p := range c.Profiles {
		t[i] = profile.Profile{Voltage: p.VoltageMv, Current: p.CurrentMa}
	}
	return t
}
