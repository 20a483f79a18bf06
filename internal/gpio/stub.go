//go:build !linux

package gpio

import "errors"

// RealPanel is not available on non-Linux platforms.
type RealPanel struct{}

// NewRealPanel returns an error on non-Linux platforms.
func NewRealPanel(pins Pins) (*RealPanel, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ReadButtons is not implemented on non-Linux platforms.
func (p *RealPanel) ReadButtons() ([NumLines]bool, error) {
	return [NumLines]bool{}, errors.New("gpio: not supported")
}

// SetLED is not implemented on non-Linux platforms.
func (p *RealPanel) SetLED(i int, on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (p *RealPanel) Close() error {
	return nil
}
