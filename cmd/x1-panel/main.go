// Command x1-panel drives the printer's front panel buttons and LEDs and
// publishes panel activity to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/sweeney/x1-panel/internal/gpio"
	"github.com/sweeney/x1-panel/internal/mqtt"
	"github.com/sweeney/x1-panel/internal/panel"
	"github.com/sweeney/x1-panel/internal/printer"
	"github.com/sweeney/x1-panel/internal/queue"
	"github.com/sweeney/x1-panel/internal/status"
	"github.com/sweeney/x1-panel/internal/web"
)

// envPrefix prefixes environment variables that override flag defaults,
// e.g. X1_PANEL_BROKER for --broker.
const envPrefix = "X1_PANEL_"

// piHelperEnv is where pi-helper writes the current network state.
const piHelperEnv = "/run/pi-helper.env"

type options struct {
	poll         time.Duration
	debounce     time.Duration
	hotendTarget float64
	extruder     int
	serial       string
	baud         int
	broker       string
	heartbeat    time.Duration
	httpAddr     string
	wsPush       time.Duration
	chip         string
	buttons      [gpio.NumLines]int
	leds         [gpio.NumLines]int
	printState   bool
	envFile      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	pins := gpio.DefaultPins()
	serialDefaults := printer.DefaultConfig()
	panelDefaults := panel.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "x1-panel",
		Short: "Front panel controller for the X1 printer",
		Long: `x1-panel polls the four front panel buttons, drives their LEDs, ` +
			`sends preheat, feed, retract and leveling commands to the printer ` +
			`over USB serial and publishes panel activity to MQTT.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(opts.envFile); err != nil {
				return err
			}
			if err := applyEnv(cmd.Flags()); err != nil {
				return err
			}
			return run(opts)
		},
	}

	f := cmd.Flags()
	f.DurationVar(&opts.poll, "poll", 10*time.Millisecond, "Controller cycle interval")
	f.DurationVar(&opts.debounce, "debounce", time.Duration(panelDefaults.DebounceMs)*time.Millisecond, "Per-button debounce window")
	f.Float64Var(&opts.hotendTarget, "hotend-target", panelDefaults.HotendTarget, "Preheat temperature in °C")
	f.IntVar(&opts.extruder, "extruder", panelDefaults.Extruder, "Extruder index to heat and watch")
	f.StringVar(&opts.serial, "serial", serialDefaults.Port, "Printer serial port")
	f.IntVar(&opts.baud, "baud", serialDefaults.Baud, "Printer serial baud rate")
	f.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	f.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	f.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	f.DurationVar(&opts.wsPush, "ws-push", web.DefaultPushInterval, "Websocket status push interval")
	f.StringVar(&opts.chip, "gpio-chip", pins.Chip, "GPIO character device")
	f.IntVar(&opts.buttons[gpio.Home], "pin-home", pins.Buttons[gpio.Home], "BCM pin for the HOME button")
	f.IntVar(&opts.buttons[gpio.Plus], "pin-plus", pins.Buttons[gpio.Plus], "BCM pin for the PLUS button")
	f.IntVar(&opts.buttons[gpio.Minus], "pin-minus", pins.Buttons[gpio.Minus], "BCM pin for the MINUS button")
	f.IntVar(&opts.buttons[gpio.Start], "pin-start", pins.Buttons[gpio.Start], "BCM pin for the START button")
	f.IntVar(&opts.leds[gpio.Home], "led-home", pins.LEDs[gpio.Home], "BCM pin for the HOME LED")
	f.IntVar(&opts.leds[gpio.Plus], "led-plus", pins.LEDs[gpio.Plus], "BCM pin for the PLUS LED")
	f.IntVar(&opts.leds[gpio.Minus], "led-minus", pins.LEDs[gpio.Minus], "BCM pin for the MINUS LED")
	f.IntVar(&opts.leds[gpio.Start], "led-start", pins.LEDs[gpio.Start], "BCM pin for the START LED")
	f.BoolVar(&opts.printState, "print-state", false, "Print current button state and exit")
	f.StringVar(&opts.envFile, "env-file", "/etc/x1-panel.env", "Environment file with X1_PANEL_* overrides (missing file is ignored)")

	return cmd
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	log.Printf("loaded environment from %s", path)
	return nil
}

// applyEnv sets every flag not given on the command line from its
// X1_PANEL_* variable, if present.
func applyEnv(flags *pflag.FlagSet) error {
	var errs []string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "env-file" {
			return
		}
		v, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}
		if err := flags.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", envName(f.Name), err))
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// panelConfig builds the controller configuration from the command line.
func panelConfig(opts options) panel.Config {
	cfg := panel.DefaultConfig()
	cfg.DebounceMs = panel.Millis(opts.debounce.Milliseconds())
	cfg.HotendTarget = opts.hotendTarget
	cfg.Extruder = opts.extruder
	cfg.Commands.HeaterOn = heaterCommand(opts.extruder, opts.hotendTarget)
	cfg.Commands.HeaterOff = heaterCommand(opts.extruder, 0)
	return cfg
}

func heaterCommand(extruder int, target float64) string {
	if extruder == 0 {
		return fmt.Sprintf("M104 S%g", target)
	}
	return fmt.Sprintf("M104 T%d S%g", extruder, target)
}

func run(opts options) error {
	// Initialize GPIO
	gp, err := gpio.NewRealPanel(gpio.Pins{Chip: opts.chip, Buttons: opts.buttons, LEDs: opts.leds})
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gp.Close()

	// Print state mode
	if opts.printState {
		pressed, err := gp.ReadButtons()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Println(formatButtons(pressed))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Printer link and command queue
	serialCfg := printer.DefaultConfig()
	serialCfg.Port = opts.serial
	serialCfg.Baud = opts.baud
	link, err := printer.Open(ctx, serialCfg)
	if err != nil {
		return fmt.Errorf("init printer: %w", err)
	}
	defer link.Close()
	go func() {
		if err := link.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("printer: link stopped: %v", err)
		}
	}()
	go func() {
		if err := link.Init(ctx); err != nil {
			log.Printf("printer: %v", err)
		}
	}()

	cmds := queue.New(queue.DefaultCapacity, link, link)
	go cmds.Run(ctx)

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(opts.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:       opts.poll.Milliseconds(),
		DebounceMs:   opts.debounce.Milliseconds(),
		HeartbeatMs:  opts.heartbeat.Milliseconds(),
		HotendTarget: opts.hotendTarget,
		Extruder:     opts.extruder,
		Serial:       opts.serial,
		Baud:         opts.baud,
		Broker:       opts.broker,
		HTTPPort:     opts.httpAddr,
		WSPushMs:     opts.wsPush.Milliseconds(),
	})
	src := sources{
		mqtt:    publisher,
		printer: link,
		queue:   cmds,
		network: func() *status.NetworkInfo { return readNetworkInfo(piHelperEnv) },
		host:    readHostInfo,
	}
	src.refresh(tracker, opts.extruder, true)

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker, opts.wsPush)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	controller := panel.NewController(panelConfig(opts), link, cmds, ledWriter{gp})

	log.Printf("started: poll=%v debounce=%v target=%g serial=%s broker=%s heartbeat=%v",
		opts.poll, opts.debounce, opts.hotendTarget, opts.serial, opts.broker, opts.heartbeat)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(gp, controller, publisher, tracker, src, opts.extruder, opts.heartbeat, time.Now, ticker.C, sigCh)
}

func formatButtons(pressed [gpio.NumLines]bool) string {
	parts := make([]string, 0, gpio.NumLines)
	for _, b := range panel.Buttons {
		state := "released"
		if pressed[b] {
			state = "pressed"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", b, state))
	}
	return strings.Join(parts, ", ")
}
