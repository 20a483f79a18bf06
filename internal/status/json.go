package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/x1-panel/internal/panel"
)

// StatusJSON wraps the status body under a "status" key.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner is the status body.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Cursor        int          `json:"cursor"`
	LEDs          LEDsJSON     `json:"leds"`
	Printer       PrinterJSON  `json:"printer"`
	Queue         QueueJSON    `json:"queue"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Host          *HostJSON    `json:"host,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// LEDsJSON reports the logical level of each LED.
type LEDsJSON struct {
	Home  bool `json:"home"`
	Plus  bool `json:"plus"`
	Minus bool `json:"minus"`
	Start bool `json:"start"`
}

// PrinterJSON is the JSON representation of printer status.
type PrinterJSON struct {
	PrintActive  bool    `json:"print_active"`
	Hotend       float64 `json:"hotend"`
	HotendTarget float64 `json:"hotend_target"`
	Bed          float64 `json:"bed"`
	BedTarget    float64 `json:"bed_target"`
	Progress     float64 `json:"progress"`
	LastReport   string  `json:"last_report,omitempty"`
	Resets       int     `json:"resets"`
}

// QueueJSON is the JSON representation of the command queue.
type QueueJSON struct {
	Depth     int `json:"depth"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
	Cancelled int `json:"cancelled"`
}

// MQTTStatus is the broker connection and offline backlog.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Buffered  int    `json:"buffered"`
}

// CountsJSON is the JSON representation of press and transition counts.
type CountsJSON struct {
	Home        int `json:"home"`
	Plus        int `json:"plus"`
	Minus       int `json:"minus"`
	Start       int `json:"start"`
	Transitions int `json:"transitions"`
}

// NetworkJSON mirrors NetworkInfo.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// HostJSON mirrors HostInfo.
type HostJSON struct {
	Hostname      string  `json:"hostname"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	Load1         float64 `json:"load1"`
	Load5         float64 `json:"load5"`
	Load15        float64 `json:"load15"`
}

// ConfigJSON mirrors Config.
type ConfigJSON struct {
	PollMs       int64   `json:"poll_ms"`
	DebounceMs   int64   `json:"debounce_ms"`
	HeartbeatMs  int64   `json:"heartbeat_ms"`
	HotendTarget float64 `json:"hotend_target"`
	Extruder     int     `json:"extruder"`
	Serial       string  `json:"serial"`
	Baud         int     `json:"baud"`
	Broker       string  `json:"broker"`
	HTTPPort     string  `json:"http_port"`
	WSPushMs     int64   `json:"ws_push_ms"`
}

// Progress returns the SD print progress in percent, 0 when unknown.
func (p PrinterInfo) Progress() float64 {
	if p.BytesTotal <= 0 {
		return 0
	}
	return float64(p.BytesPrinted) * 100 / float64(p.BytesTotal)
}

// render builds the status body shared by the HTTP, websocket and MQTT
// outputs. event and reason are left empty for polled status.
func render(snap Snapshot, event, reason string) StatusJSON {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	in := StatusInner{
		Event:  event,
		Reason: reason,
		State:  state,
		Cursor: snap.Cursor,
		LEDs: LEDsJSON{
			Home:  snap.LEDs[panel.Home],
			Plus:  snap.LEDs[panel.Plus],
			Minus: snap.LEDs[panel.Minus],
			Start: snap.LEDs[panel.Start],
		},
		Printer: PrinterJSON{
			PrintActive:  snap.Printer.PrintActive,
			Hotend:       snap.Printer.Hotend,
			HotendTarget: snap.Printer.HotendTarget,
			Bed:          snap.Printer.Bed,
			BedTarget:    snap.Printer.BedTarget,
			Progress:     snap.Printer.Progress(),
			Resets:       snap.Printer.Resets,
		},
		Queue:         QueueJSON(snap.Queue),
		UptimeSeconds: int64(snap.Uptime() / time.Second),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Buffered:  snap.MQTTBuffered,
		},
		Counts: CountsJSON{
			Home:        snap.Counts.Presses[panel.Home],
			Plus:        snap.Counts.Presses[panel.Plus],
			Minus:       snap.Counts.Presses[panel.Minus],
			Start:       snap.Counts.Presses[panel.Start],
			Transitions: snap.Counts.Transitions,
		},
		Config: ConfigJSON(snap.Config),
	}
	if !snap.Printer.LastReport.IsZero() {
		in.Printer.LastReport = snap.Printer.LastReport.UTC().Format(time.RFC3339)
	}
	if snap.Network != nil {
		n := NetworkJSON(*snap.Network)
		in.Network = &n
	}
	if snap.Host != nil {
		h := HostJSON(*snap.Host)
		in.Host = &h
	}
	return StatusJSON{Status: in}
}

// FormatJSON renders the indented status served at /index.json.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(render(snap, "", ""), "", "  ")
	return data
}

// FormatStatusEvent renders a compact status tagged with a system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	data, _ := json.Marshal(render(snap, event, reason))
	return data
}
