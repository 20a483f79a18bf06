package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/x1-panel/internal/gpio"
	"github.com/sweeney/x1-panel/internal/mqtt"
	"github.com/sweeney/x1-panel/internal/panel"
	"github.com/sweeney/x1-panel/internal/printer"
	"github.com/sweeney/x1-panel/internal/queue"
	"github.com/sweeney/x1-panel/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoFromEnvironment(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "Workshop")

	info := readNetworkInfo(filepath.Join(t.TempDir(), "missing.env"))
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	if info.Type != "wifi" || info.IP != "192.168.1.100" || info.SSID != "Workshop" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Gateway != "" {
		t.Errorf("Gateway: got %q, want empty", info.Gateway)
	}
}

func TestReadNetworkInfoFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi-helper.env")
	content := "NETWORK_TYPE=ethernet\nNETWORK_IP=10.0.0.7\nNETWORK_STATUS=connected\nNETWORK_GATEWAY=10.0.0.1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envNetworkIP, "192.168.1.100") // file wins

	info := readNetworkInfo(path)
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	if info.Type != "ethernet" || info.IP != "10.0.0.7" || info.Gateway != "10.0.0.1" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(filepath.Join(t.TempDir(), "missing.env")); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		"broker":        "X1_PANEL_BROKER",
		"hotend-target": "X1_PANEL_HOTEND_TARGET",
		"pin-home":      "X1_PANEL_PIN_HOME",
	}
	for flag, want := range tests {
		if got := envName(flag); got != want {
			t.Errorf("envName(%q): got %q, want %q", flag, got, want)
		}
	}
}

func TestApplyEnvSetsUnchangedFlags(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--broker", "tcp://cli:1883"}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("X1_PANEL_BROKER", "tcp://env:1883")
	t.Setenv("X1_PANEL_HOTEND_TARGET", "235")
	t.Setenv("X1_PANEL_POLL", "20ms")

	if err := applyEnv(cmd.Flags()); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}

	f := cmd.Flags()
	if got, _ := f.GetString("broker"); got != "tcp://cli:1883" {
		t.Errorf("broker: command line should win, got %q", got)
	}
	if got, _ := f.GetFloat64("hotend-target"); got != 235 {
		t.Errorf("hotend-target: got %v, want 235", got)
	}
	if got, _ := f.GetDuration("poll"); got != 20*time.Millisecond {
		t.Errorf("poll: got %v, want 20ms", got)
	}
}

func TestApplyEnvRejectsBadValue(t *testing.T) {
	cmd := newRootCmd()
	t.Setenv("X1_PANEL_BAUD", "fast")

	err := applyEnv(cmd.Flags())
	if err == nil || !strings.Contains(err.Error(), "X1_PANEL_BAUD") {
		t.Errorf("expected error naming X1_PANEL_BAUD, got %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "x1-panel.env")
	if err := os.WriteFile(path, []byte("X1_PANEL_TEST_VALUE=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("X1_PANEL_TEST_VALUE", "")
	os.Unsetenv("X1_PANEL_TEST_VALUE")
	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if got := os.Getenv("X1_PANEL_TEST_VALUE"); got != "from-file" {
		t.Errorf("got %q, want from-file", got)
	}
}

func TestPanelConfig(t *testing.T) {
	cfg := panelConfig(options{debounce: 500 * time.Millisecond, hotendTarget: 240})
	if cfg.DebounceMs != 500 {
		t.Errorf("DebounceMs: got %d, want 500", cfg.DebounceMs)
	}
	if cfg.HotendTarget != 240 {
		t.Errorf("HotendTarget: got %v, want 240", cfg.HotendTarget)
	}
	if cfg.Commands.HeaterOn != "M104 S240" || cfg.Commands.HeaterOff != "M104 S0" {
		t.Errorf("heater commands: got %q / %q", cfg.Commands.HeaterOn, cfg.Commands.HeaterOff)
	}

	cfg = panelConfig(options{debounce: time.Second, hotendTarget: 210.5, extruder: 1})
	if cfg.Commands.HeaterOn != "M104 T1 S210.5" {
		t.Errorf("HeaterOn: got %q", cfg.Commands.HeaterOn)
	}
}

func TestFormatButtons(t *testing.T) {
	got := formatButtons(gpio.Press(gpio.Minus))
	want := "HOME: released, PLUS: released, MINUS: pressed, START: released"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// --- runLoop tests ---

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

var clockStart = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

// fakePrinter satisfies panel.Sensors and printerStatus.
type fakePrinter struct {
	printing bool
	hotend   float64
}

func (p *fakePrinter) PrintJobActive() bool          { return p.printing }
func (p *fakePrinter) HotendTemperature(int) float64 { return p.hotend }
func (p *fakePrinter) Status() printer.Status {
	return printer.Status{
		Printing: p.printing,
		Hotends:  map[int]printer.Reading{0: {Actual: p.hotend, Target: 220}},
	}
}

// harness wires a controller to fakes the way run does.
type harness struct {
	gp      *gpio.FakePanel
	printer *fakePrinter
	queue   *queue.Queue
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	ctrl    *panel.Controller
}

func newHarness(samples [][gpio.NumLines]bool) *harness {
	h := &harness{
		gp:      gpio.NewFakePanel(samples),
		printer: &fakePrinter{hotend: 25},
		queue:   queue.New(queue.DefaultCapacity, nil, nil),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(clockStart, status.Config{}),
	}
	h.ctrl = panel.NewController(panel.DefaultConfig(), h.printer, h.queue, ledWriter{h.gp})
	return h
}

func (h *harness) sources() sources {
	return sources{mqtt: h.pub, printer: h.printer, queue: h.queue}
}

// run drives runLoop for nTicks and then delivers signal.
func (h *harness) run(t *testing.T, heartbeat, step time.Duration, nTicks int, signal os.Signal) {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(h.gp, h.ctrl, h.pub, h.tracker, h.sources(), 0, heartbeat, fakeClock(clockStart, step), tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func released(n int) [][gpio.NumLines]bool {
	return make([][gpio.NumLines]bool, n)
}

func TestRunLoopNoPressesNoEvents(t *testing.T) {
	h := newHarness(released(4))
	h.run(t, 0, 100*time.Millisecond, 4, syscall.SIGTERM)

	if len(h.pub.Events) != 0 {
		t.Errorf("expected 0 panel events, got %d", len(h.pub.Events))
	}
	if names := h.pub.SystemEventNames(); len(names) != 1 || names[0] != "SHUTDOWN" {
		t.Errorf("expected only SHUTDOWN, got %v", names)
	}
	if h.queue.Len() != 0 {
		t.Errorf("expected empty queue, got %v", h.queue.Snapshot())
	}
}

func TestRunLoopPlusStartsPreheat(t *testing.T) {
	samples := append([][gpio.NumLines]bool{gpio.Press(gpio.Plus)}, released(3)...)
	h := newHarness(samples)
	h.run(t, 0, 100*time.Millisecond, len(samples), syscall.SIGTERM)

	if len(h.pub.Events) != 2 {
		t.Fatalf("expected 2 panel events, got %d", len(h.pub.Events))
	}
	press, change := h.pub.Events[0], h.pub.Events[1]
	if press.Type != panel.EventButton || press.Button != panel.Plus {
		t.Errorf("event 0: got %+v", press.Event)
	}
	if change.Type != panel.EventState || change.From != panel.StateIdle || change.To != panel.StatePreheatingFeed {
		t.Errorf("event 1: got %+v", change.Event)
	}
	if !press.Timestamp.Equal(clockStart.Add(100 * time.Millisecond)) {
		t.Errorf("timestamp: got %v", press.Timestamp)
	}
	if press.ID == "" || press.ID == change.ID {
		t.Errorf("expected distinct event ids, got %q and %q", press.ID, change.ID)
	}

	if got := h.queue.Snapshot(); len(got) != 1 || got[0] != "M104 S220" {
		t.Errorf("queue: got %v, want [M104 S220]", got)
	}

	snap := h.tracker.Snapshot()
	if snap.State != panel.StatePreheatingFeed {
		t.Errorf("tracker state: got %s", snap.State)
	}
	if snap.Queue.Depth != 1 {
		t.Errorf("tracker queue depth: got %d, want 1", snap.Queue.Depth)
	}
	if snap.Printer.Hotend != 25 || snap.Printer.HotendTarget != 220 {
		t.Errorf("tracker printer: got %+v", snap.Printer)
	}
	if snap.Counts.Presses[panel.Plus] != 1 {
		t.Errorf("tracker presses: got %v", snap.Counts.Presses)
	}
}

func TestRunLoopHeldButtonDebounced(t *testing.T) {
	samples := [][gpio.NumLines]bool{
		gpio.Press(gpio.Home), gpio.Press(gpio.Home), gpio.Press(gpio.Home), gpio.Press(gpio.Home),
	}
	h := newHarness(samples)
	h.run(t, 0, 100*time.Millisecond, len(samples), syscall.SIGTERM)

	if h.ctrl.State() != panel.StateLeveling {
		t.Errorf("state: got %s, want LEVELING", h.ctrl.State())
	}
	if got := h.ctrl.Counts().Presses[panel.Home]; got != 1 {
		t.Errorf("expected 1 accepted press within the debounce window, got %d", got)
	}
	if got := h.queue.Snapshot(); len(got) != 2 || got[0] != "G28" || got[1] != "G90" {
		t.Errorf("queue: got %v, want [G28 G90]", got)
	}
	if h.gp.LEDs[gpio.Home] {
		t.Error("home LED should be off while leveling")
	}
}

func TestRunLoopGPIOReadErrorTreatedAsReleased(t *testing.T) {
	h := newHarness([][gpio.NumLines]bool{gpio.Press(gpio.Plus)})
	h.gp.ReadError = errors.New("gpio fault")
	h.printer.printing = true

	h.run(t, 0, 100*time.Millisecond, 3, syscall.SIGTERM)

	if h.ctrl.Counts().Presses[panel.Plus] != 0 {
		t.Error("no press should be accepted while reads fail")
	}
	// The cycle still runs: print pre-emption applies.
	if h.ctrl.State() != panel.StatePrinting {
		t.Errorf("state: got %s, want PRINTING", h.ctrl.State())
	}
	if names := h.pub.SystemEventNames(); len(names) != 1 || names[0] != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN after GPIO errors, got %v", names)
	}
}

func TestRunLoopPublishError(t *testing.T) {
	samples := append([][gpio.NumLines]bool{gpio.Press(gpio.Minus)}, released(2)...)
	h := newHarness(samples)
	h.pub.PublishError = errors.New("broker unavailable")

	h.run(t, 0, 100*time.Millisecond, len(samples), syscall.SIGTERM)

	if len(h.pub.Events) != 0 {
		t.Errorf("expected 0 recorded events (publish failed), got %d", len(h.pub.Events))
	}
	if h.ctrl.State() != panel.StatePreheatingRetract {
		t.Errorf("publish failure must not affect the controller, state %s", h.ctrl.State())
	}
	if names := h.pub.SystemEventNames(); len(names) != 1 || names[0] != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN despite publish errors, got %v", names)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// Clock calls: t0 (start), t1..t4 (ticks), t5 (shutdown) at 5-minute steps.
	// A 15-minute heartbeat fires once, at t3.
	h := newHarness(released(4))
	h.run(t, 15*time.Minute, 5*time.Minute, 4, syscall.SIGTERM)

	names := h.pub.SystemEventNames()
	if len(names) != 2 || names[0] != "HEARTBEAT" || names[1] != "SHUTDOWN" {
		t.Fatalf("expected [HEARTBEAT SHUTDOWN], got %v", names)
	}

	hb := h.pub.SystemEvents[0]
	if !hb.Timestamp.Equal(clockStart.Add(15 * time.Minute)) {
		t.Errorf("heartbeat timestamp: got %v", hb.Timestamp)
	}
	payload := string(h.pub.SystemPayloads[0])
	for _, want := range []string{`"event":"HEARTBEAT"`, `"state":"IDLE"`} {
		if !strings.Contains(payload, want) {
			t.Errorf("heartbeat payload missing %s: %s", want, payload)
		}
	}
}

func TestRunLoopHeartbeatIncludesNetworkInfo(t *testing.T) {
	h := newHarness(released(4))
	src := h.sources()
	src.network = func() *status.NetworkInfo {
		return &status.NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"}
	}

	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(h.gp, h.ctrl, h.pub, h.tracker, src, 0, time.Minute, fakeClock(clockStart, time.Minute), tick, sig)
	}()
	tick <- time.Time{}
	sig <- syscall.SIGTERM
	if err := <-errCh; err != nil {
		t.Fatal(err)
	}

	if len(h.pub.SystemPayloads) == 0 || !strings.Contains(string(h.pub.SystemPayloads[0]), `"ip":"192.168.1.42"`) {
		t.Errorf("heartbeat should carry network info, got %v", h.pub.SystemEventNames())
	}
}

func TestRunLoopShutdownReasons(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := newHarness(released(1))
			h.run(t, 0, 100*time.Millisecond, 1, tt.sig)

			if len(h.pub.SystemEvents) != 1 {
				t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
			}
			e := h.pub.SystemEvents[0]
			if e.Event != "SHUTDOWN" || e.Reason != tt.want || !e.Retained {
				t.Errorf("got %+v", e)
			}
			if !strings.Contains(string(h.pub.SystemPayloads[0]), `"reason":"`+tt.want+`"`) {
				t.Errorf("payload missing reason: %s", h.pub.SystemPayloads[0])
			}
		})
	}
}
