// Package queue buffers printer commands between the panel controller and
// the printer link. Immediate commands jump ahead of queued work; a single
// dispatcher goroutine sends them one at a time.
package queue

import (
	"context"
	"log"
	"sync"
)

// DefaultCapacity is the number of commands buffered before new ones are dropped.
const DefaultCapacity = 32

// Sender delivers one command and blocks until the printer accepts it.
type Sender interface {
	Send(ctx context.Context, line string) error
}

// Stopper aborts in-flight motion on the printer.
type Stopper interface {
	Quickstop() error
}

// Stats counts queue activity since startup.
type Stats struct {
	Sent      int
	Failed    int
	Dropped   int
	Cancelled int
}

// Queue is safe for concurrent use. The panel controller enqueues from its
// loop while Run drains from another goroutine.
type Queue struct {
	sender  Sender
	stopper Stopper

	mu       sync.Mutex
	buf      *deque
	inFlight bool
	overflow bool // true if any command was dropped since the queue last had room
	stats    Stats

	wake chan struct{}
}

// New creates a queue. stopper may be nil, in which case CancelMotion only
// discards buffered commands.
func New(capacity int, sender Sender, stopper Stopper) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		sender:  sender,
		stopper: stopper,
		buf:     newDeque(capacity),
		wake:    make(chan struct{}, 1),
	}
}

// EnqueueImmediate inserts cmd ahead of queued work.
func (q *Queue) EnqueueImmediate(cmd string) {
	q.mu.Lock()
	ok := q.buf.pushFront(cmd)
	q.noteDrop(ok, cmd)
	q.mu.Unlock()
	q.signal()
}

// EnqueueNormal appends cmd to the back of the queue.
func (q *Queue) EnqueueNormal(cmd string) {
	q.mu.Lock()
	ok := q.buf.pushBack(cmd)
	q.noteDrop(ok, cmd)
	q.mu.Unlock()
	q.signal()
}

// noteDrop must be called with mu held.
func (q *Queue) noteDrop(ok bool, cmd string) {
	if ok {
		q.overflow = false
		return
	}
	q.stats.Dropped++
	if !q.overflow {
		log.Printf("queue: full (%d commands), dropping %q", q.buf.capacity, cmd)
		q.overflow = true
	}
}

// HasPending reports whether a command is buffered or being sent.
func (q *Queue) HasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight || q.buf.len() > 0
}

// Len returns the number of buffered commands, excluding one in flight.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.len()
}

// Snapshot returns the buffered commands front to back.
func (q *Queue) Snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.items()
}

// Stats returns a copy of the activity counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// CancelMotion discards buffered commands and asks the printer to stop.
func (q *Queue) CancelMotion() {
	q.mu.Lock()
	n := q.buf.clear()
	q.stats.Cancelled += n
	q.mu.Unlock()

	if q.stopper != nil {
		if err := q.stopper.Quickstop(); err != nil {
			log.Printf("queue: quickstop: %v", err)
		}
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run sends queued commands in order until ctx is done.
// A failed send is logged and the command dropped.
func (q *Queue) Run(ctx context.Context) error {
	for {
		q.mu.Lock()
		cmd, ok := q.buf.popFront()
		q.inFlight = ok
		q.mu.Unlock()

		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.wake:
			}
			continue
		}

		err := q.sender.Send(ctx, cmd)

		q.mu.Lock()
		q.inFlight = false
		if err != nil {
			q.stats.Failed++
		} else {
			q.stats.Sent++
		}
		q.mu.Unlock()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("queue: send %q: %v", cmd, err)
		}
	}
}
