// internal/transport/modbus/client.go
package modbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// handler is the part of goburrow's TCP and RTU client handlers we drive.
type handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// Client is one Modbus TCP or RTU connection implementing registers.Transport.
// It serializes requests because SetTarget mutates the handler's SlaveId.
type Client struct {
	mu      sync.Mutex
	handler handler
	client  modbus.Client
	setID   func(uint8)
}

// SerialConfig describes an RTU line.
type SerialConfig struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string // N, E, O
	StopBits int
}

// Config selects TCP (Endpoint) or RTU (Serial). Exactly one must be set.
type Config struct {
	Endpoint string
	Serial   *SerialConfig
	UnitID   uint8
	Timeout  time.Duration
}

// Connect opens a connection. One attempt per call.
func Connect(cfg Config) (*Client, error) {
	switch {
	case cfg.Endpoint != "" && cfg.Serial != nil:
		return nil, errors.New("modbus transport: endpoint and serial are mutually exclusive")
	case cfg.Endpoint != "":
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		return open(h, func(id uint8) { h.SlaveId = id })
	case cfg.Serial != nil:
		h := modbus.NewRTUClientHandler(cfg.Serial.Device)
		h.BaudRate = cfg.Serial.BaudRate
		h.DataBits = cfg.Serial.DataBits
		h.Parity = cfg.Serial.Parity
		h.StopBits = cfg.Serial.StopBits
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		return open(h, func(id uint8) { h.SlaveId = id })
	default:
		return nil, errors.New("modbus transport: endpoint or serial required")
	}
}

func open(h handler, setID func(uint8)) (*Client, error) {
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus transport: connect: %w", err)
	}
	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
		setID:   setID,
	}, nil
}

// SetTarget selects the unit addressed by subsequent reads.
func (c *Client) SetTarget(unitID uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setID(unitID)
}

// ReadHoldingRegisters reads count registers (FC 3) starting at start and
// returns their raw big-endian bytes.
func (c *Client) ReadHoldingRegisters(ctx context.Context, start, count uint16) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.client.ReadHoldingRegisters(start, count)
	if err != nil {
		return nil, fmt.Errorf("modbus transport: read holding %d+%d: %w", start, count, err)
	}
	return b, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}
