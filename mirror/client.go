package mirror

import (
	"errors"
	"time"

	"github.com/goburrow/modbus"
)

// ClientConfig configures the Modbus TCP connection of the mirror.
type ClientConfig struct {
	Endpoint string // host:port
	UnitID   uint8
	Timeout  time.Duration
}

// Client writes holding registers on a single Modbus TCP endpoint.
type Client struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// Dial connects to the endpoint of cfg.
func Dial(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mirror: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	return c.handler.Close()
}

// WriteRegisters writes regs as consecutive holding registers starting at
// addr.
func (c *Client) WriteRegisters(addr uint16, regs []uint16) error {
	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	return err
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, v := range regs {
		out[2*i] = byte(v >> 8)
		out[2*i+1] = byte(v)
	}
	return out
}
