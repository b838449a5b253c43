// Package report turns poll reports into log records and human readable text.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/pdmsg"
	"github.com/oxplot/go-pdtrigger/poller"
	"github.com/oxplot/go-pdtrigger/tcpcdriver/cypd3177"
)

// Logger is a poller.Sink writing each report to a *slog.Logger. Quiet ticks
// go out at debug level. Ticks carrying events or a new VBUS reading go out at
// info and failures at warn.
//
// A Logger is not safe for concurrent use.
type Logger struct {
	log *slog.Logger

	vbus      uint16 // last VBUS logged at info
	vbusKnown bool
}

// NewLogger creates a sink logging to l.
func NewLogger(l *slog.Logger) *Logger {
	return &Logger{log: l}
}

// Publish implements poller.Sink interface.
func (l *Logger) Publish(r poller.Report) error {
	attrs := []slog.Attr{
		slog.Uint64("seq", r.Seq),
		slog.Bool("online", r.Online),
	}
	if r.Online {
		attrs = append(attrs, slog.Int("vbus_mv", int(r.VBus)))
	}
	attrs = append(attrs, slog.Int("index", r.Index))
	if r.Confirm != poller.ConfirmNone {
		attrs = append(attrs, slog.String("confirm", r.Confirm.String()))
	}
	if r.Outcome.Attempted {
		attrs = append(attrs, slog.String("profile", r.Outcome.Profile.String()))
	}
	if r.Events != pdtrigger.EventNone {
		attrs = append(attrs, slog.Any("events", r.Events.Names()))
	}
	if r.Status != nil {
		attrs = append(attrs, slog.Group("status", statusAttrs(*r.Status)...))
	}

	vbusChanged := r.Online && (!l.vbusKnown || r.VBus != l.vbus)
	if r.Online {
		l.vbus, l.vbusKnown = r.VBus, true
	} else {
		l.vbusKnown = false
	}

	level, msg := slog.LevelDebug, "tick"
	switch {
	case r.Err != nil:
		level, msg = slog.LevelWarn, "tick failed"
		attrs = append(attrs, slog.String("err", r.Err.Error()))
	case !r.Online && r.Events.Has(pdtrigger.EventOffline):
		level, msg = slog.LevelWarn, "controller not active"
	case r.Events != pdtrigger.EventNone:
		level = slog.LevelInfo
	case vbusChanged:
		level, msg = slog.LevelInfo, "vbus"
	}
	l.log.LogAttrs(context.Background(), level, msg, attrs...)
	return nil
}

func statusAttrs(s cypd3177.Status) []any {
	return []any{
		slog.String("silicon_id", fmt.Sprintf("0x%04X", s.SiliconID)),
		slog.Bool("connected", s.TypeC.Connected),
		slog.String("polarity", s.TypeC.Polarity.String()),
		slog.String("attached", s.TypeC.Attached.String()),
		slog.String("current", s.TypeC.Current.String()),
		slog.Bool("contract", s.PD.ExplicitContract),
		slog.Bool("sink_tx_ok", s.PD.SinkTxOK),
		slog.Bool("pe_ready", s.PD.PolicyEngineReady),
		slog.String("pdo", s.CurrentPDO.String()),
	}
}

// WriteStatus writes a textual description of a status snapshot and bus
// voltage to w, one item per line, each line followed by sep.
func WriteStatus(w io.Writer, sep string, s cypd3177.Status, vbus uint16) error {
	lines := []string{
		fmt.Sprintf("Silicon ID: 0x%04X", s.SiliconID),
		fmt.Sprintf("VBUS: %.1fV", float32(vbus)/1000),
		fmt.Sprintf("Interrupts: device=%t pd-port=%t", s.Interrupts.Device, s.Interrupts.PDPort),
		fmt.Sprintf("Type-C: connected=%t polarity=%s attached=%s current=%s",
			s.TypeC.Connected, s.TypeC.Polarity, s.TypeC.Attached, s.TypeC.Current),
		fmt.Sprintf("PD: contract=%t sink-tx-ok=%t pe-ready=%t",
			s.PD.ExplicitContract, s.PD.SinkTxOK, s.PD.PolicyEngineReady),
		"Current PDO: " + describePDO(s.CurrentPDO),
		"Current RDO: " + s.CurrentRDO.String(),
	}
	for _, line := range lines {
		if _, err := fmt.Fprint(w, line, sep); err != nil {
			return err
		}
	}
	return nil
}

func describePDO(p pdmsg.PDO) string {
	if p == 0 {
		return "none"
	}
	if p.Type() == pdmsg.PDOTypeFixedSupply {
		fs := pdmsg.FixedSupplyPDO(p)
		return fmt.Sprintf("Fixed %.1fV @ max. %.1fA", float32(fs.Voltage())/1000, float32(fs.MaxCurrent())/1000)
	}
	return p.String()
}
