package panel

// BlinkClock produces a one-cycle edge every period.
type BlinkClock struct {
	period  Millis
	next    Millis
	started bool
}

// NewBlinkClock creates a clock whose first Fire call returns true.
func NewBlinkClock(period Millis) *BlinkClock {
	return &BlinkClock{period: period}
}

// Fire returns true when the period has elapsed and schedules the next edge
// one period after now. Otherwise returns false.
func (c *BlinkClock) Fire(now Millis) bool {
	if c.started && !Elapsed(now, c.next) {
		return false
	}
	c.started = true
	c.next = now + c.period
	return true
}
