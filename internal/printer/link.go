// Package printer talks to a Marlin printer over its USB serial port.
// It sends G-code one line at a time using ok flow control and keeps a
// cached view of the printer's status from the firmware's auto-reports.
package printer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned by Send when no ok arrives in time.
	ErrTimeout = errors.New("printer: timed out waiting for ok")
	// ErrClosed is returned by Send once the link has stopped reading.
	ErrClosed = errors.New("printer: link closed")
	// ErrReset is returned by Send when the firmware restarts mid-command.
	ErrReset = errors.New("printer: firmware reset")
)

// DefaultTimeout is how long Send waits for ok without a busy keepalive.
const DefaultTimeout = 10 * time.Second

// Status is a point-in-time view of the printer.
// It is a value type, safe to use after the lock is released.
type Status struct {
	Hotends      map[int]Reading
	Bed          Reading
	Printing     bool
	BytesPrinted int64
	BytesTotal   int64
	LastReport   time.Time
	Resets       int
}

// Link is a line-oriented connection to the firmware.
type Link struct {
	rw      io.ReadWriteCloser
	timeout time.Duration
	now     func() time.Time

	sendMu  sync.Mutex // one Send awaiting ok at a time
	writeMu sync.Mutex

	mu      sync.Mutex
	waiters []chan error // one per written line, oldest first; nil = nobody waiting
	busy    chan struct{}
	status  Status

	done     chan struct{}
	doneOnce sync.Once
}

// NewLink wraps an open connection. Call Run to start reading.
func NewLink(rw io.ReadWriteCloser, timeout time.Duration) *Link {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Link{
		rw:      rw,
		timeout: timeout,
		now:     time.Now,
		busy:    make(chan struct{}, 1),
		status:  Status{Hotends: make(map[int]Reading)},
		done:    make(chan struct{}),
	}
}

// Run reads firmware output until the connection fails or ctx is done.
func (l *Link) Run(ctx context.Context) error {
	defer l.stop()

	go func() {
		select {
		case <-ctx.Done():
			l.rw.Close()
		case <-l.done:
		}
	}()

	sc := bufio.NewScanner(l.rw)
	for sc.Scan() {
		l.handle(sc.Text())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read serial: %w", err)
	}
	return io.EOF
}

// Init enables temperature and SD status auto-reports.
func (l *Link) Init(ctx context.Context) error {
	for _, cmd := range []string{"M155 S1", "M27 S2"} {
		if err := l.Send(ctx, cmd); err != nil {
			return fmt.Errorf("init %q: %w", cmd, err)
		}
	}
	return nil
}

// Send writes one command and blocks until the firmware acknowledges it.
// Each busy keepalive extends the deadline.
func (l *Link) Send(ctx context.Context, line string) error {
	l.sendMu.Lock()
	defer l.sendMu.Unlock()

	// Drop any keepalive left over from the previous command.
	select {
	case <-l.busy:
	default:
	}

	ack := make(chan error, 1)
	if err := l.write(line, ack); err != nil {
		return err
	}

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()
	for {
		select {
		case err := <-ack:
			return err
		case <-l.busy:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(l.timeout)
		case <-timer.C:
			return fmt.Errorf("%s: %w", line, ErrTimeout)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return ErrClosed
		}
	}
}

// Quickstop writes M410 without waiting for its ok. With the firmware's
// emergency parser enabled it stops all steppers and flushes the planner.
func (l *Link) Quickstop() error {
	return l.write("M410", nil)
}

func (l *Link) write(line string, ack chan error) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	l.waiters = append(l.waiters, ack)
	l.mu.Unlock()

	if _, err := io.WriteString(l.rw, line+"\n"); err != nil {
		l.mu.Lock()
		l.waiters = l.waiters[:len(l.waiters)-1]
		l.mu.Unlock()
		return fmt.Errorf("write %q: %w", line, err)
	}
	return nil
}

func (l *Link) handle(line string) {
	r := parseLine(line)

	switch r.kind {
	case lineOK:
		l.ack(nil)
	case lineBusy:
		select {
		case l.busy <- struct{}{}:
		default:
		}
		return
	case lineStart:
		log.Printf("printer: firmware restarted")
		l.reset()
		return
	case lineError:
		log.Printf("printer: %s", line)
		return
	case lineResend:
		log.Printf("printer: unexpected %q", line)
		return
	}

	if r.hotends == nil && r.bed == nil && !r.sdKnown {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, reading := range r.hotends {
		l.status.Hotends[i] = reading
	}
	if r.bed != nil {
		l.status.Bed = *r.bed
	}
	if r.sdKnown {
		if r.printing != l.status.Printing {
			log.Printf("printer: print job active=%v", r.printing)
		}
		l.status.Printing = r.printing
		l.status.BytesPrinted = r.sdDone
		l.status.BytesTotal = r.sdTotal
	}
	l.status.LastReport = l.now()
}

// ack completes the oldest outstanding line.
func (l *Link) ack(err error) {
	l.mu.Lock()
	if len(l.waiters) == 0 {
		l.mu.Unlock()
		return
	}
	w := l.waiters[0]
	l.waiters = l.waiters[1:]
	l.mu.Unlock()

	if w != nil {
		w <- err
	}
}

func (l *Link) reset() {
	l.mu.Lock()
	waiters := l.waiters
	l.waiters = nil
	resets := l.status.Resets + 1
	l.status = Status{Hotends: make(map[int]Reading), Resets: resets}
	l.mu.Unlock()

	for _, w := range waiters {
		if w != nil {
			w <- ErrReset
		}
	}
}

func (l *Link) stop() {
	l.doneOnce.Do(func() { close(l.done) })
}

// Close stops the link and closes the underlying connection.
func (l *Link) Close() error {
	l.stop()
	return l.rw.Close()
}

// Status returns a copy of the cached printer status.
func (l *Link) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.status
	s.Hotends = make(map[int]Reading, len(l.status.Hotends))
	for i, r := range l.status.Hotends {
		s.Hotends[i] = r
	}
	return s
}

// PrintJobActive reports whether the firmware is printing from SD.
func (l *Link) PrintJobActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status.Printing
}

// HotendTemperature returns the last measured temperature of an extruder,
// or 0 if it has not been reported yet.
func (l *Link) HotendTemperature(extruder int) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status.Hotends[extruder].Actual
}
