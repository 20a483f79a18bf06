package panel

// Emitter inserts commands into the queue at either priority.
type Emitter struct {
	q Queue
}

// NewEmitter wraps q.
func NewEmitter(q Queue) *Emitter {
	return &Emitter{q: q}
}

// Immediate inserts cmds ahead of queued work. Multiple commands keep their
// relative order, so they are inserted last to first.
func (e *Emitter) Immediate(cmds ...string) {
	for i := len(cmds) - 1; i >= 0; i-- {
		e.q.EnqueueImmediate(cmds[i])
	}
}

// Normal appends cmds to the back of the queue in order.
func (e *Emitter) Normal(cmds ...string) {
	for _, c := range cmds {
		e.q.EnqueueNormal(c)
	}
}

// Pending reports whether the queue has work buffered or executing.
func (e *Emitter) Pending() bool {
	return e.q.HasPending()
}

// CancelMotion stops in-flight motion.
func (e *Emitter) CancelMotion() {
	e.q.CancelMotion()
}
