// Package panel contains the front panel controller: debouncing, blink
// clocks, LED patterns and the button-driven state machine.
// This package has NO external dependencies (no GPIO, serial, MQTT, OS, or time.Sleep).
// Time is always injected as a wrapping millisecond counter.
package panel

// Millis is a millisecond counter that wraps at 2^32.
type Millis uint32

// Elapsed reports whether deadline has been reached at now.
// Tolerates a single wraparound of the counter between the two values.
func Elapsed(now, deadline Millis) bool {
	return int32(now-deadline) >= 0
}

// Button identifies one of the four front panel push-buttons.
type Button int

const (
	Home Button = iota
	Plus
	Minus
	Start
)

// NumButtons is the number of buttons and of LEDs on the panel.
const NumButtons = 4

// Buttons lists the buttons in polling order.
var Buttons = [NumButtons]Button{Home, Plus, Minus, Start}

func (b Button) String() string {
	switch b {
	case Home:
		return "HOME"
	case Plus:
		return "PLUS"
	case Minus:
		return "MINUS"
	case Start:
		return "START"
	}
	return "UNKNOWN"
}

// LED identifies the indicator next to each button.
type LED = Button

// State is the controller's current mode.
type State string

const (
	StateIdle              State = "IDLE"
	StatePrinting          State = "PRINTING"
	StatePreheatingFeed    State = "PREHEATING_FEED"
	StateFeeding           State = "FEEDING"
	StatePreheatingRetract State = "PREHEATING_RETRACT"
	StateRetracting        State = "RETRACTING"
	StateLeveling          State = "LEVELING"
)

// States lists every controller state.
var States = []State{
	StateIdle,
	StatePrinting,
	StatePreheatingFeed,
	StateFeeding,
	StatePreheatingRetract,
	StateRetracting,
	StateLeveling,
}

// EventType distinguishes observer events.
type EventType string

const (
	EventButton EventType = "BUTTON"
	EventState  EventType = "STATE"
)

// Event reports an accepted button press or a state transition.
type Event struct {
	Type   EventType
	At     Millis
	Button Button // EventButton only
	From   State
	To     State
	Cursor int
}

// Counts tracks accepted presses per button and state transitions since startup.
type Counts struct {
	Presses     [NumButtons]int
	Transitions int
}

// Input is one cycle's sample of the clock and the logical button levels.
type Input struct {
	Now     Millis
	Pressed [NumButtons]bool // true = pressed (already inverted from raw line)
}

// Sensors reports live printer status.
type Sensors interface {
	PrintJobActive() bool
	HotendTemperature(extruder int) float64
}

// Queue is the printer command queue.
type Queue interface {
	// EnqueueImmediate inserts cmd ahead of queued work.
	EnqueueImmediate(cmd string)
	// EnqueueNormal appends cmd to the back of the queue.
	EnqueueNormal(cmd string)
	// HasPending reports whether any command is buffered or executing.
	HasPending() bool
	// CancelMotion stops in-flight motion and discards buffered commands.
	CancelMotion()
}

// LEDWriter drives one physical LED line. on = high.
type LEDWriter interface {
	WriteLED(led LED, on bool)
}

// Commands holds the G-code lines the controller emits.
type Commands struct {
	HeaterOn     string
	HeaterOff    string
	RelativeE    string
	FeedMove     string
	RetractMove  string
	GripMove     string
	HomeAll      string
	Absolute     string
	LevelingMove [4]string
}

// Config holds controller tunables.
type Config struct {
	DebounceMs   Millis
	SlowBlinkMs  Millis
	FastBlinkMs  Millis
	HotendTarget float64
	Extruder     int
	Commands     Commands
}

// DefaultConfig returns the stock panel configuration.
func DefaultConfig() Config {
	return Config{
		DebounceMs:   1000,
		SlowBlinkMs:  500,
		FastBlinkMs:  100,
		HotendTarget: 220,
		Extruder:     0,
		Commands: Commands{
			HeaterOn:    "M104 S220",
			HeaterOff:   "M104 S0",
			RelativeE:   "M83",
			FeedMove:    "G1 E1 F600",
			RetractMove: "G1 E-1 F600",
			GripMove:    "G1 E1 F600",
			HomeAll:     "G28",
			Absolute:    "G90",
			LevelingMove: [4]string{
				"G0 X25 Y25 Z0 F1400",
				"G0 X75 Y25 Z0 F1400",
				"G0 X75 Y75 Z0 F1400",
				"G0 X25 Y75 Z0 F1400",
			},
		},
	}
}
