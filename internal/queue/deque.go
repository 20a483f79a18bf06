package queue

// deque is a fixed-capacity ring of command lines that can grow at both ends.
// Not safe for concurrent use; the caller synchronizes.
type deque struct {
	buf      []string
	capacity int
	head     int // index of the oldest (front) item
	count    int
}

func newDeque(capacity int) *deque {
	return &deque{
		buf:      make([]string, capacity),
		capacity: capacity,
	}
}

// pushBack appends cmd. Returns false if full.
func (d *deque) pushBack(cmd string) bool {
	if d.count == d.capacity {
		return false
	}
	d.buf[(d.head+d.count)%d.capacity] = cmd
	d.count++
	return true
}

// pushFront inserts cmd ahead of everything queued. Returns false if full.
func (d *deque) pushFront(cmd string) bool {
	if d.count == d.capacity {
		return false
	}
	d.head = (d.head - 1 + d.capacity) % d.capacity
	d.buf[d.head] = cmd
	d.count++
	return true
}

func (d *deque) popFront() (string, bool) {
	if d.count == 0 {
		return "", false
	}
	cmd := d.buf[d.head]
	d.buf[d.head] = ""
	d.head = (d.head + 1) % d.capacity
	d.count--
	return cmd, true
}

func (d *deque) clear() int {
	n := d.count
	for i := range d.buf {
		d.buf[i] = ""
	}
	d.head = 0
	d.count = 0
	return n
}

// items returns the queued commands front to back.
func (d *deque) items() []string {
	if d.count == 0 {
		return nil
	}
	out := make([]string, d.count)
	for i := 0; i < d.count; i++ {
		out[i] = d.buf[(d.head+i)%d.capacity]
	}
	return out
}

func (d *deque) len() int {
	return d.count
}
