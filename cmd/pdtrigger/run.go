package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli"

	"github.com/oxplot/go-pdtrigger/mirror"
	"github.com/oxplot/go-pdtrigger/poller"
	"github.com/oxplot/go-pdtrigger/record"
	"github.com/oxplot/go-pdtrigger/report"
	"github.com/oxplot/go-pdtrigger/selector"
	"github.com/oxplot/go-pdtrigger/tcpcdriver/cypd3177"
)

func runCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	session := uuid.New()
	log, err := newLogger(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	log = log.With("session", session.String())

	hw, err := openHardware(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	dev := cypd3177.New(hw.bus, cfg.Bus.Address)

	var stepper poller.Stepper
	if hw.button != nil {
		m, err := selector.New(dev, selector.Config{
			Table:       cfg.Table(),
			Button:      hw.button,
			Levels:      hw.levels,
			ReleasePoll: time.Duration(cfg.Poll.ReleasePollMs) * time.Millisecond,
			Logger:      log,
		})
		if err != nil {
			return err
		}
		stepper = m
	} else {
		log.Info("no button configured, monitoring only")
	}

	sinks := []poller.Sink{report.NewLogger(log)}

	if mc := cfg.Mirror; mc.Endpoint != "" {
		client, err := mirror.Dial(mirror.ClientConfig{
			Endpoint: mc.Endpoint,
			UnitID:   mc.UnitID,
			Timeout:  time.Duration(mc.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		sinks = append(sinks, mirror.New(client, mc.Address))
		log.Info("mirroring status", "endpoint", mc.Endpoint, "address", mc.Address)
	}

	if path := cfg.Record.Path; path != "" {
		w, err := record.Create(path)
		if err != nil {
			return err
		}
		defer w.Close()
		sinks = append(sinks, w)
		log.Info("recording events", "path", path)
	}

	loop, err := poller.New(dev, stepper, poller.Config{
		Interval:     time.Duration(cfg.Poll.IntervalMs) * time.Millisecond,
		ConfirmTicks: cfg.Poll.ConfirmTicks,
		Session:      session,
		Online:       hw.online,
		Sinks:        sinks,
		Logger:       log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("started", "bus", cfg.Bus.Name, "address", cfg.Bus.Address, "profiles", len(cfg.Profiles))
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("stopped")
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	hw, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	dev := cypd3177.New(hw.bus, cfg.Bus.Address)
	online, err := dev.Online()
	if err != nil {
		return err
	}
	if !online {
		return cli.NewExitError("CYPD3177 not active", 1)
	}
	st, err := dev.ReadStatus()
	if err != nil {
		return err
	}
	vbus, err := dev.VBus()
	if err != nil {
		return err
	}
	return report.WriteStatus(os.Stdout, "\n", st, vbus)
}

func dumpCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("dump expects exactly one record file", 2)
	}
	r, err := record.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer r.Close()
	r.Session = c.String("session")
	return dump(os.Stdout, r)
}

func dump(w io.Writer, r *record.Reader) error {
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, formatEntry(e)); err != nil {
			return err
		}
	}
}

// formatEntry renders e on a single line.
func formatEntry(e record.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s #%d", e.At.Format(time.RFC3339Nano), e.Session, e.Seq)
	if !e.Online {
		b.WriteString(" offline")
	} else {
		fmt.Fprintf(&b, " online vbus=%dmV", e.VBus)
	}
	fmt.Fprintf(&b, " index=%d lit=%d", e.Index, e.Lit)
	if e.Confirm != 0 {
		fmt.Fprintf(&b, " confirm=%s", poller.Confirmation(e.Confirm))
	}
	if e.Events != 0 {
		fmt.Fprintf(&b, " events=%s", strings.Join(e.EventSet().Names(), ","))
	}
	if ch := e.Change; ch != nil {
		fmt.Fprintf(&b, " change=%dmV@%dmA", ch.Voltage, ch.Current)
		if ch.Error != "" {
			fmt.Fprintf(&b, " change-err=%q", ch.Error)
		}
	}
	if s := e.Status; s != nil {
		fmt.Fprintf(&b, " silicon=0x%04X typec=%q pd=%s", s.SiliconID, s.TypeC, pdFlags(s.PD))
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " err=%q", e.Error)
	}
	return b.String()
}

func pdFlags(pd uint8) string {
	var names []string
	if pd&record.PDExplicitContract != 0 {
		names = append(names, "contract")
	}
	if pd&record.PDSinkTxOK != 0 {
		names = append(names, "sink-tx-ok")
	}
	if pd&record.PDPolicyEngineReady != 0 {
		names = append(names, "pe-ready")
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
