package panel

type fakeSensors struct {
	printing bool
	temp     float64
}

func (f *fakeSensors) PrintJobActive() bool          { return f.printing }
func (f *fakeSensors) HotendTemperature(int) float64 { return f.temp }

type queued struct {
	cmd       string
	immediate bool
}

// fakeQueue behaves like a deque: immediate commands go to the front.
type fakeQueue struct {
	items     []queued
	sent      []queued // every enqueue in call order
	pending   bool     // forced pending, in addition to buffered items
	cancelled int
}

func (q *fakeQueue) EnqueueImmediate(cmd string) {
	it := queued{cmd: cmd, immediate: true}
	q.items = append([]queued{it}, q.items...)
	q.sent = append(q.sent, it)
}

func (q *fakeQueue) EnqueueNormal(cmd string) {
	it := queued{cmd: cmd}
	q.items = append(q.items, it)
	q.sent = append(q.sent, it)
}

func (q *fakeQueue) HasPending() bool { return q.pending || len(q.items) > 0 }

func (q *fakeQueue) CancelMotion() {
	q.cancelled++
	q.items = nil
}

// drain simulates the printer consuming everything queued.
func (q *fakeQueue) drain() []string {
	var out []string
	for _, it := range q.items {
		out = append(out, it.cmd)
	}
	q.items = nil
	q.sent = nil
	return out
}

type ledWrite struct {
	led LED
	on  bool
}

type fakeLEDs struct {
	writes []ledWrite
	level  [NumButtons]bool
}

func (f *fakeLEDs) WriteLED(led LED, on bool) {
	f.writes = append(f.writes, ledWrite{led, on})
	f.level[led] = on
}
