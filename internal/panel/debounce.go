package panel

// Debouncer blocks repeated accepts of the same button until a fixed delay
// has elapsed since the last accepted press.
type Debouncer struct {
	delay Millis
	next  [NumButtons]Millis
	armed [NumButtons]bool
}

// NewDebouncer creates a gate with the given per-button cooldown.
func NewDebouncer(delay Millis) *Debouncer {
	return &Debouncer{delay: delay}
}

// Accept reports whether a press of b at now should be dispatched.
// On acceptance the button is blocked until now+delay.
// A button that has never been accepted is always eligible.
func (d *Debouncer) Accept(b Button, now Millis) bool {
	if d.armed[b] && !Elapsed(now, d.next[b]) {
		return false
	}
	d.armed[b] = true
	d.next[b] = now + d.delay
	return true
}
