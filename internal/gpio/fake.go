package gpio

import (
	"errors"
	"fmt"
)

// FakePanel is a test double that returns scripted button samples and
// records LED writes.
type FakePanel struct {
	// Samples contains scripted logical button states (true = pressed).
	// Each call to ReadButtons() consumes the next sample.
	Samples [][NumLines]bool

	// index tracks current position in Samples
	index int

	// LEDs holds the last value written to each LED.
	LEDs [NumLines]bool

	// Writes counts SetLED calls per LED.
	Writes [NumLines]int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadButtons()
	ReadError error

	// WriteError, if set, will be returned by SetLED()
	WriteError error
}

// NewFakePanel creates a FakePanel with the given samples and the
// power-on LED pattern.
func NewFakePanel(samples [][NumLines]bool) *FakePanel {
	return &FakePanel{Samples: samples, LEDs: InitialLEDs}
}

// Press returns a sample with only button i pressed.
func Press(i int) [NumLines]bool {
	var s [NumLines]bool
	s[i] = true
	return s
}

// ReadButtons returns the next scripted sample.
// If samples are exhausted, returns all buttons released.
func (f *FakePanel) ReadButtons() ([NumLines]bool, error) {
	if f.ReadError != nil {
		return [NumLines]bool{}, f.ReadError
	}

	if f.index >= len(f.Samples) {
		return [NumLines]bool{}, nil
	}

	sample := f.Samples[f.index]
	f.index++
	return sample, nil
}

// SetLED records the write.
func (f *FakePanel) SetLED(i int, on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	if i < 0 || i >= NumLines {
		return fmt.Errorf("led index %d out of range", i)
	}
	f.LEDs[i] = on
	f.Writes[i]++
	return nil
}

// Close marks the panel as closed and switches the LEDs off.
func (f *FakePanel) Close() error {
	if f.Closed {
		return errors.New("already closed")
	}
	f.Closed = true
	f.LEDs = [NumLines]bool{}
	return nil
}

// Reset resets the sample index to the beginning.
func (f *FakePanel) Reset() {
	f.index = 0
}
