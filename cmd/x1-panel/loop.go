package main

import (
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/x1-panel/internal/gpio"
	"github.com/sweeney/x1-panel/internal/mqtt"
	"github.com/sweeney/x1-panel/internal/panel"
	"github.com/sweeney/x1-panel/internal/printer"
	"github.com/sweeney/x1-panel/internal/queue"
	"github.com/sweeney/x1-panel/internal/status"
)

type printerStatus interface {
	Status() printer.Status
}

type queueStatus interface {
	Len() int
	Stats() queue.Stats
}

// bufferStatus is implemented by publishers that hold messages while the
// broker is away.
type bufferStatus interface {
	Buffered() (pending, dropped int)
}

// sources feed the status tracker. Any of them may be nil.
type sources struct {
	mqtt    mqtt.ConnectionStatus
	printer printerStatus
	queue   queueStatus
	network func() *status.NetworkInfo
	host    func() *status.HostInfo
}

// refresh copies the collaborators' state into the tracker. The network
// and host figures are only re-read when slow is set.
func (s sources) refresh(tracker *status.Tracker, extruder int, slow bool) {
	if s.mqtt != nil {
		buffered := 0
		if b, ok := s.mqtt.(bufferStatus); ok {
			buffered, _ = b.Buffered()
		}
		tracker.SetMQTTConnected(s.mqtt.IsConnected(), buffered)
	}
	if s.printer != nil {
		ps := s.printer.Status()
		hotend := ps.Hotends[extruder]
		tracker.SetPrinter(status.PrinterInfo{
			PrintActive:  ps.Printing,
			Hotend:       hotend.Actual,
			HotendTarget: hotend.Target,
			Bed:          ps.Bed.Actual,
			BedTarget:    ps.Bed.Target,
			BytesPrinted: ps.BytesPrinted,
			BytesTotal:   ps.BytesTotal,
			LastReport:   ps.LastReport,
			Resets:       ps.Resets,
		})
	}
	if s.queue != nil {
		st := s.queue.Stats()
		tracker.SetQueue(status.QueueInfo{
			Depth:     s.queue.Len(),
			Sent:      st.Sent,
			Failed:    st.Failed,
			Dropped:   st.Dropped,
			Cancelled: st.Cancelled,
		})
	}
	if !slow {
		return
	}
	if s.network != nil {
		if net := s.network(); net != nil {
			tracker.SetNetwork(net)
		}
	}
	if s.host != nil {
		if h := s.host(); h != nil {
			tracker.SetHost(h)
		}
	}
}

// ledWriter drives the panel LEDs for the controller. Write failures are
// logged; the controller keeps its logical level either way.
type ledWriter struct {
	panel gpio.Panel
}

func (w ledWriter) WriteLED(led panel.LED, on bool) {
	if err := w.panel.SetLED(int(led), on); err != nil {
		log.Printf("gpio: set %s led: %v", led, err)
	}
}

func runLoop(gp gpio.Panel, controller *panel.Controller, publisher mqtt.Publisher, tracker *status.Tracker, src sources, extruder int, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				src.refresh(tracker, extruder, false)
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			pressed, err := gp.ReadButtons()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				pressed = [gpio.NumLines]bool{}
			}

			events := controller.Idle(panel.Input{
				Now:     panel.Millis(t.Sub(startTime).Milliseconds()),
				Pressed: pressed,
			})

			for _, e := range events {
				if e.Type == panel.EventButton {
					log.Printf("event: %s %s (state=%s cursor=%d)", e.Type, e.Button, e.To, e.Cursor)
				} else {
					log.Printf("event: %s %s -> %s", e.Type, e.From, e.To)
				}
				if err := publisher.Publish(mqtt.NewEvent(t, e)); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Update status tracker for HTTP/websocket consumers
			if tracker != nil {
				tracker.Update(controller.State(), controller.Cursor(), controller.LEDs(), controller.Counts())
				src.refresh(tracker, extruder, false)
			}

			if heartbeat <= 0 || t.Sub(lastHeartbeat) < heartbeat {
				continue
			}
			lastHeartbeat = t

			counts := controller.Counts()
			log.Printf("heartbeat: uptime=%v state=%s presses=%v transitions=%d",
				t.Sub(startTime).Truncate(time.Second), controller.State(), counts.Presses, counts.Transitions)

			hbEvent := mqtt.SystemEvent{
				Timestamp: t,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				src.refresh(tracker, extruder, true)
				hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}
