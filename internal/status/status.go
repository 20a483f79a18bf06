// Package status provides a thread-safe status tracker for the x1-panel daemon.
// It is read by the HTTP handlers, the websocket feed and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/x1-panel/internal/panel"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// HostInfo contains operating system figures for the status page.
type HostInfo struct {
	Hostname      string
	UptimeSeconds uint64
	Load1         float64
	Load5         float64
	Load15        float64
}

// PrinterInfo is a local copy of the printer link status. It keeps status
// free of the serial stack.
type PrinterInfo struct {
	PrintActive  bool
	Hotend       float64
	HotendTarget float64
	Bed          float64
	BedTarget    float64
	BytesPrinted int64
	BytesTotal   int64
	LastReport   time.Time
	Resets       int
}

// QueueInfo reports the command queue depth and activity.
type QueueInfo struct {
	Depth     int
	Sent      int
	Failed    int
	Dropped   int
	Cancelled int
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs       int64
	DebounceMs   int64
	HeartbeatMs  int64
	HotendTarget float64
	Extruder     int
	Serial       string
	Baud         int
	Broker       string
	HTTPPort     string
	WSPushMs     int64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         panel.State
	Cursor        int
	LEDs          [panel.NumButtons]bool
	Counts        panel.Counts
	Printer       PrinterInfo
	Queue         QueueInfo
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MQTTBuffered  int
	Network       *NetworkInfo
	Host          *HostInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     panel.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the controller view.
// Called from runLoop on every tick.
func (t *Tracker) Update(state panel.State, cursor int, leds [panel.NumButtons]bool, counts panel.Counts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Cursor = cursor
	t.snap.LEDs = leds
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetPrinter sets the printer status.
func (t *Tracker) SetPrinter(p PrinterInfo) {
	t.mu.Lock()
	t.snap.Printer = p
	t.mu.Unlock()
}

// SetQueue sets the command queue figures.
func (t *Tracker) SetQueue(q QueueInfo) {
	t.mu.Lock()
	t.snap.Queue = q
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status and the number of
// messages waiting for the broker.
func (t *Tracker) SetMQTTConnected(connected bool, buffered int) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.snap.MQTTBuffered = buffered
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// SetHost sets the host info.
func (t *Tracker) SetHost(info *HostInfo) {
	t.mu.Lock()
	t.snap.Host = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
