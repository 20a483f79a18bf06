package printer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Config describes the serial port the printer is attached to.
type Config struct {
	Port    string
	Baud    int
	Timeout time.Duration // ok wait, see Send
	Settle  time.Duration // delay after opening; most boards reset on connect
}

// DefaultConfig returns settings for a typical USB-attached Marlin board.
func DefaultConfig() Config {
	return Config{
		Port:    "/dev/ttyUSB0",
		Baud:    115200,
		Timeout: DefaultTimeout,
		Settle:  2 * time.Second,
	}
}

// Open opens the serial port and returns a Link over it.
// The caller must start Run before sending.
func Open(ctx context.Context, cfg Config) (*Link, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}

	if cfg.Settle > 0 {
		select {
		case <-time.After(cfg.Settle):
		case <-ctx.Done():
			port.Close()
			return nil, ctx.Err()
		}
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush serial %s: %w", cfg.Port, err)
	}

	return NewLink(&patientPort{port: port, ctx: ctx}, cfg.Timeout), nil
}

// patientPort turns read timeouts into retries so a quiet printer does not
// look like a closed connection.
type patientPort struct {
	port *serial.Port
	ctx  context.Context
}

func (p *patientPort) Read(b []byte) (int, error) {
	for {
		n, err := p.port.Read(b)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if p.ctx.Err() != nil {
			return 0, io.EOF
		}
	}
}

func (p *patientPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *patientPort) Close() error {
	return p.port.Close()
}
