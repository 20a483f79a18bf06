package panel

// Controller is the front panel state machine. It owns every piece of
// mutable panel state and is driven by calling Idle once per cycle.
// Not safe for concurrent use.
type Controller struct {
	cfg      Config
	sensors  Sensors
	emit     *Emitter
	leds     *LEDDriver
	debounce *Debouncer
	slow     *BlinkClock
	fast     *BlinkClock

	state  State
	cursor int
	counts Counts

	// events collects observer events for the current cycle.
	events []Event
	now    Millis
}

// NewController creates a controller in the IDLE state.
// The LED lines are driven to the power-on pattern immediately.
func NewController(cfg Config, sensors Sensors, queue Queue, leds LEDWriter) *Controller {
	c := &Controller{
		cfg:      cfg,
		sensors:  sensors,
		emit:     NewEmitter(queue),
		leds:     NewLEDDriver(leds),
		debounce: NewDebouncer(cfg.DebounceMs),
		slow:     NewBlinkClock(cfg.SlowBlinkMs),
		fast:     NewBlinkClock(cfg.FastBlinkMs),
		state:    StateIdle,
	}
	c.leds.Init()
	return c
}

// Idle runs one controller cycle and returns the events it produced.
// Order: buttons, status check, LEDs, background emission.
func (c *Controller) Idle(in Input) []Event {
	c.now = in.Now
	c.events = nil

	for _, b := range Buttons {
		if in.Pressed[b] && c.debounce.Accept(b, in.Now) {
			c.press(b)
		}
	}

	c.checkStatus()

	slowEdge := c.slow.Fire(in.Now)
	fastEdge := c.fast.Fire(in.Now)
	c.leds.Apply(c.state, slowEdge, fastEdge)

	c.refill()

	return c.events
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Cursor returns the leveling cursor.
func (c *Controller) Cursor() int {
	return c.cursor
}

// LEDs returns the current logical LED levels.
func (c *Controller) LEDs() [NumButtons]bool {
	return c.leds.Levels()
}

// Counts returns a copy of the press and transition counters.
func (c *Controller) Counts() Counts {
	return c.counts
}

func (c *Controller) press(b Button) {
	c.counts.Presses[b]++
	c.events = append(c.events, Event{
		Type:   EventButton,
		At:     c.now,
		Button: b,
		From:   c.state,
		To:     c.state,
		Cursor: c.cursor,
	})

	switch b {
	case Home:
		c.pressHome()
	case Plus:
		c.pressPlus()
	case Minus:
		c.pressMinus()
	case Start:
		// Reserved.
	}
}

func (c *Controller) pressHome() {
	cmd := c.cfg.Commands
	switch c.state {
	case StateIdle:
		c.emit.Immediate(cmd.HomeAll, cmd.Absolute)
		c.cursor = 0
		c.enter(StateLeveling)
	case StateLeveling:
		c.emit.Immediate(cmd.HomeAll)
		c.cursor = 0
		c.enter(StateIdle)
	}
}

func (c *Controller) pressPlus() {
	cmd := c.cfg.Commands
	switch c.state {
	case StateIdle:
		c.emit.Immediate(cmd.HeaterOn)
		c.enter(StatePreheatingFeed)
	case StatePreheatingFeed, StateFeeding:
		c.emit.CancelMotion()
		c.emit.Immediate(cmd.HeaterOff)
		c.enter(StateIdle)
	case StateLeveling:
		c.cursor = (c.cursor + 1) % len(cmd.LevelingMove)
		c.emit.Normal(cmd.LevelingMove[c.cursor])
	}
}

func (c *Controller) pressMinus() {
	cmd := c.cfg.Commands
	switch c.state {
	case StateIdle:
		c.emit.Immediate(cmd.HeaterOn)
		c.enter(StatePreheatingRetract)
	case StatePreheatingRetract, StateRetracting:
		c.emit.CancelMotion()
		c.emit.Immediate(cmd.HeaterOff)
		c.enter(StateIdle)
	case StateLeveling:
		n := len(cmd.LevelingMove)
		c.cursor = (c.cursor + n - 1) % n
		c.emit.Normal(cmd.LevelingMove[c.cursor])
	}
}

// checkStatus applies the print-active pre-emption and the temperature
// driven transitions out of the preheating states.
func (c *Controller) checkStatus() {
	if c.sensors.PrintJobActive() {
		c.enter(StatePrinting)
		return
	}

	cmd := c.cfg.Commands
	switch c.state {
	case StatePrinting:
		c.enter(StateIdle)
	case StatePreheatingFeed:
		if c.hotendReady() {
			c.emit.Normal(cmd.RelativeE)
			c.enter(StateFeeding)
		}
	case StatePreheatingRetract:
		if c.hotendReady() {
			c.emit.Normal(cmd.RelativeE, cmd.GripMove)
			c.enter(StateRetracting)
		}
	}
}

// hotendReady triggers one degree below target.
func (c *Controller) hotendReady() bool {
	return c.sensors.HotendTemperature(c.cfg.Extruder) >= c.cfg.HotendTarget-1
}

// refill keeps a single extrusion move queued while feeding or retracting.
func (c *Controller) refill() {
	if c.state != StateFeeding && c.state != StateRetracting {
		return
	}
	if c.emit.Pending() {
		return
	}
	if c.state == StateFeeding {
		c.emit.Normal(c.cfg.Commands.FeedMove)
	} else {
		c.emit.Immediate(c.cfg.Commands.RetractMove)
	}
}

func (c *Controller) enter(s State) {
	if s == c.state {
		return
	}
	c.counts.Transitions++
	c.events = append(c.events, Event{
		Type:   EventState,
		At:     c.now,
		From:   c.state,
		To:     s,
		Cursor: c.cursor,
	})
	c.state = s
}
