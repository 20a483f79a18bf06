// Package gpio provides front panel button and LED line access with
// hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// NumLines is the number of buttons, and of LEDs, on the panel.
const NumLines = 4

// Line order for Pins and for Read/SetLED indices.
const (
	Home = iota
	Plus
	Minus
	Start
)

// Panel reads the buttons and drives the LEDs.
type Panel interface {
	// ReadButtons returns the logical button states, true = pressed.
	// Buttons are wired active-low: raw 0 = pressed.
	ReadButtons() ([NumLines]bool, error)

	// SetLED drives LED i high (on) or low (off).
	SetLED(i int, on bool) error

	// Close turns the LEDs off and releases GPIO resources.
	Close() error
}

// Pins maps the panel onto GPIO line offsets (BCM numbering).
type Pins struct {
	Chip    string
	Buttons [NumLines]int
	LEDs    [NumLines]int
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinHome  = 5
	DefaultPinPlus  = 6
	DefaultPinMinus = 13
	DefaultPinStart = 19

	DefaultLEDHome  = 12
	DefaultLEDPlus  = 16
	DefaultLEDMinus = 20
	DefaultLEDStart = 21
)

// DefaultPins returns the stock wiring.
func DefaultPins() Pins {
	return Pins{
		Chip:    "gpiochip0",
		Buttons: [NumLines]int{DefaultPinHome, DefaultPinPlus, DefaultPinMinus, DefaultPinStart},
		LEDs:    [NumLines]int{DefaultLEDHome, DefaultLEDPlus, DefaultLEDMinus, DefaultLEDStart},
	}
}

// InitialLEDs is the power-on LED pattern: start off, the rest on.
var InitialLEDs = [NumLines]bool{Home: true, Plus: true, Minus: true, Start: false}
