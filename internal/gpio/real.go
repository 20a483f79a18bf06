//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

var lineNames = [NumLines]string{"HOME", "PLUS", "MINUS", "START"}

// RealPanel drives the panel from actual hardware using Linux GPIO character device.
type RealPanel struct {
	chip    *gpiocdev.Chip
	buttons [NumLines]*gpiocdev.Line
	leds    [NumLines]*gpiocdev.Line
}

// NewRealPanel requests the button lines as pulled-up inputs and the LED
// lines as outputs preset to the power-on pattern.
func NewRealPanel(pins Pins) (*RealPanel, error) {
	chip, err := gpiocdev.NewChip(pins.Chip, gpiocdev.WithConsumer("x1-panel"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &RealPanel{chip: chip}

	for i, offset := range pins.Buttons {
		// Buttons short the line to ground when pressed.
		l, err := chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request %s button pin %d: %w", lineNames[i], offset, err)
		}
		p.buttons[i] = l
	}

	for i, offset := range pins.LEDs {
		l, err := chip.RequestLine(offset, gpiocdev.AsOutput(level(InitialLEDs[i])))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request %s led pin %d: %w", lineNames[i], offset, err)
		}
		p.leds[i] = l
	}

	return p, nil
}

// ReadButtons returns the logical button states.
// Inverts raw GPIO: raw 0 = pressed, raw 1 = released.
func (p *RealPanel) ReadButtons() ([NumLines]bool, error) {
	var pressed [NumLines]bool
	for i, l := range p.buttons {
		raw, err := l.Value()
		if err != nil {
			return [NumLines]bool{}, fmt.Errorf("read %s button: %w", lineNames[i], err)
		}
		pressed[i] = raw == 0
	}
	return pressed, nil
}

// SetLED drives LED i. LEDs are active-high.
func (p *RealPanel) SetLED(i int, on bool) error {
	if i < 0 || i >= NumLines {
		return fmt.Errorf("led index %d out of range", i)
	}
	if err := p.leds[i].SetValue(level(on)); err != nil {
		return fmt.Errorf("set %s led: %w", lineNames[i], err)
	}
	return nil
}

// Close releases GPIO resources.
// LEDs are switched off and every line is reconfigured to input with
// pull-down (matching Pi boot defaults) before closing so the panel is dark
// and the pins are in a clean state for system shutdown/reboot.
func (p *RealPanel) Close() error {
	var errs []error

	for i, l := range p.leds {
		if l == nil {
			continue
		}
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("switch off %s led: %w", lineNames[i], err))
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s led pin: %w", lineNames[i], err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s led pin: %w", lineNames[i], err))
		}
	}
	for i, l := range p.buttons {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s button pin: %w", lineNames[i], err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
