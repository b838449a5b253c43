package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxplot/go-pdtrigger/profile"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, uint16(0x08), cfg.Bus.Address)
	require.NotNil(t, cfg.Bus.TransactionTimeoutMs)
	assert.Equal(t, 100, *cfg.Bus.TransactionTimeoutMs)
	assert.True(t, *cfg.Pins.ButtonActiveLow)
	assert.Equal(t, profile.Default(), cfg.Table())
	assert.Equal(t, 100, cfg.Poll.IntervalMs)
	assert.Equal(t, 10, cfg.Poll.ConfirmTicks)
	assert.Equal(t, 10, cfg.Poll.ReleasePollMs)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Mirror.Endpoint)
	assert.Zero(t, cfg.Mirror.UnitID)
	assert.Empty(t, cfg.Record.Path)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

const sample = `
bus:
  name: "/dev/i2c-1"
  speed_hz: 400000
  transaction_timeout_ms: 0
pins:
  button: GPIO17
  online_led: GPIO27
  level_leds: [GPIO5, GPIO6, GPIO13]
profiles:
  - {voltage_mv: 5000, current_ma: 3000}
  - {voltage_mv: 9000, current_ma: 2000}
  - {voltage_mv: 20000, current_ma: 2250}
poll:
  interval_ms: 50
log:
  level: debug
  format: json
mirror:
  endpoint: "10.0.0.5:502"
  address: 400
record:
  path: /var/lib/pdtrigger/trail.cbor
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdtrigger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/i2c-1", cfg.Bus.Name)
	assert.Equal(t, int64(400000), cfg.Bus.SpeedHz)
	assert.Equal(t, 0, *cfg.Bus.TransactionTimeoutMs)
	assert.Equal(t, []string{"GPIO5", "GPIO6", "GPIO13"}, cfg.Pins.LevelLEDs)
	assert.Equal(t, profile.Table{
		{Voltage: 5000, Current: 3000},
		{Voltage: 9000, Current: 2000},
		{Voltage: 20000, Current: 2250},
	}, cfg.Table())
	assert.Equal(t, 50, cfg.Poll.IntervalMs)
	assert.Equal(t, 10, cfg.Poll.ConfirmTicks)
	assert.Equal(t, uint8(1), cfg.Mirror.UnitID)
	assert.Equal(t, 1000, cfg.Mirror.TimeoutMs)
	assert.Equal(t, uint16(400), cfg.Mirror.Address)
	assert.Equal(t, "/var/lib/pdtrigger/trail.cbor", cfg.Record.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("poll:\n  intervall_ms: 10\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"address", "bus: {address: 0x80}"},
		{"timeout", "bus: {transaction_timeout_ms: -1}"},
		{"profile", "profiles: [{voltage_mv: 9000, current_ma: 3000}]"},
		{"too many profiles", "profiles: [" + repeat("{voltage_mv: 5000, current_ma: 100}", 8) + "]"},
		{"led count", "pins: {button: A, level_leds: [B, C]}"},
		{"leds without button", "profiles: [{voltage_mv: 5000, current_ma: 100}]\npins: {level_leds: [B]}"},
		{"pin reuse", "pins: {button: A, online_led: A}"},
		{"empty pin", "profiles: [{voltage_mv: 5000, current_ma: 100}]\npins: {button: A, level_leds: ['']}"},
		{"interval", "poll: {interval_ms: -5}"},
		{"level", "log: {level: verbose}"},
		{"format", "log: {format: xml}"},
		{"mirror endpoint", "mirror: {endpoint: plc}"},
		{"mirror address", "mirror: {endpoint: 'plc:502', address: 65530}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func repeat(s string, n int) string {
	out := s
	for i := 1; i < n; i++ {
		out += ", " + s
	}
	return out
}

func TestValidateDoesNotMutate(t *testing.T) {
	cfg := &Config{}
	_ = Validate(cfg)
	assert.Equal(t, &Config{}, cfg)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
	l, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
	_, err = ParseLevel("info+2")
	assert.Error(t, err)
}
