package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli"

	"github.com/oxplot/go-pdtrigger/config"
)

// globalString reads a global flag from within a command or from the app
// action alike.
func globalString(c *cli.Context, name string) string {
	if v := c.GlobalString(name); v != "" {
		return v
	}
	return c.String(name)
}

// loadConfig loads the configuration file named by --config, or the defaults,
// and applies the flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := globalString(c, "config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	return applyOverrides(cfg, globalString(c, "bus"), globalString(c, "log-level"))
}

func applyOverrides(cfg *config.Config, bus, level string) (*config.Config, error) {
	if bus != "" {
		cfg.Bus.Name = bus
	}
	if level != "" {
		cfg.Log.Level = level
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, c config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
