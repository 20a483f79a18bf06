package panel

// cell is one LED's behaviour in a given state.
type cell int

const (
	low cell = iota
	high
	toggleSlow
	toggleFast
)

// ledRow lists cells in LED order: Home, Plus, Minus, Start.
type ledRow [NumButtons]cell

// ledTable gives, per state, the cell for home, plus, minus and start.
var ledTable = map[State]ledRow{
	StateIdle:              {high, high, high, low},
	StatePrinting:          {high, high, high, toggleSlow},
	StatePreheatingFeed:    {high, toggleFast, high, low},
	StateFeeding:           {high, toggleSlow, high, low},
	StatePreheatingRetract: {high, high, toggleFast, low},
	StateRetracting:        {high, high, toggleSlow, low},
	StateLeveling:          {low, high, high, low},
}

// initialLevels is the power-on LED pattern: start off, the rest on.
var initialLevels = [NumButtons]bool{Home: true, Plus: true, Minus: true, Start: false}

// LEDDriver maps the controller state onto the four LEDs.
// The physical line is written only when the logical value changes.
type LEDDriver struct {
	out    LEDWriter
	levels [NumButtons]bool
}

// NewLEDDriver creates a driver holding the power-on pattern.
func NewLEDDriver(out LEDWriter) *LEDDriver {
	return &LEDDriver{out: out, levels: initialLevels}
}

// Init writes the power-on pattern to every line.
func (d *LEDDriver) Init() {
	d.levels = initialLevels
	for _, led := range Buttons {
		d.out.WriteLED(led, d.levels[led])
	}
}

// Set drives led to on, writing only if it differs from the last value.
func (d *LEDDriver) Set(led LED, on bool) {
	if d.levels[led] == on {
		return
	}
	d.levels[led] = on
	d.out.WriteLED(led, on)
}

// Toggle inverts led.
func (d *LEDDriver) Toggle(led LED) {
	d.Set(led, !d.levels[led])
}

// Apply recomputes all LEDs for state given which blink edges fired this cycle.
func (d *LEDDriver) Apply(state State, slowEdge, fastEdge bool) {
	row, ok := ledTable[state]
	if !ok {
		return
	}
	for _, led := range Buttons {
		switch row[led] {
		case low:
			d.Set(led, false)
		case high:
			d.Set(led, true)
		case toggleSlow:
			if slowEdge {
				d.Toggle(led)
			}
		case toggleFast:
			if fastEdge {
				d.Toggle(led)
			}
		}
	}
}

// Levels returns the last written value of every LED.
func (d *LEDDriver) Levels() [NumButtons]bool {
	return d.levels
}
