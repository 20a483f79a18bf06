package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/x1-panel/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": formatUptime,
	"onOff": func(on bool) string {
		if on {
			return "on"
		}
		return "off"
	},
	"temp": func(c float64) string {
		return fmt.Sprintf("%.1f°C", c)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>X1 Panel</title>
<style>
body { font: 14px/1.4 monospace; margin: 1.5em auto; max-width: 40em; padding: 0 1em; }
h1 { font-size: 1.3em; }
h2 { font-size: 1.1em; margin-top: 1.5em; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 3px 6px; text-align: left; border-bottom: 1px solid #e4e4e4; }
th { width: 45%; font-weight: normal; color: #555; }
.on, .connected { color: #1a7f37; font-weight: bold; }
.off { color: #999; }
.disconnected { color: #c62828; }
#live-dot { display: inline-block; width: 0.6em; height: 0.6em; border-radius: 50%; margin-left: 0.5em; background: #f0a000; }
#live-dot.ok { background: #1a7f37; }
#live-dot.err { background: #c62828; }
</style>
</head>
<body>
<h1>X1 Panel<span id="live-dot" title="connecting"></span></h1>

<h2>Panel</h2>
<table>
<tr><th>State</th><td id="state">{{with .State}}{{.}}{{else}}UNKNOWN{{end}}</td></tr>
<tr><th>Leveling corner</th><td id="cursor">{{.Cursor}}</td></tr>
<tr><th>Home LED</th><td id="led-home" class="{{onOff (index .LEDs 0)}}">{{onOff (index .LEDs 0)}}</td></tr>
<tr><th>Plus LED</th><td id="led-plus" class="{{onOff (index .LEDs 1)}}">{{onOff (index .LEDs 1)}}</td></tr>
<tr><th>Minus LED</th><td id="led-minus" class="{{onOff (index .LEDs 2)}}">{{onOff (index .LEDs 2)}}</td></tr>
<tr><th>Start LED</th><td id="led-start" class="{{onOff (index .LEDs 3)}}">{{onOff (index .LEDs 3)}}</td></tr>
</table>

<h2>Printer</h2>
<table>
<tr><th>Printing</th><td id="printing">{{if .Printer.PrintActive}}yes ({{printf "%.0f" .Printer.Progress}}%){{else}}no{{end}}</td></tr>
<tr><th>Hotend</th><td id="hotend">{{temp .Printer.Hotend}} / {{temp .Printer.HotendTarget}}</td></tr>
<tr><th>Bed</th><td id="bed">{{temp .Printer.Bed}} / {{temp .Printer.BedTarget}}</td></tr>
<tr><th>Queue</th><td id="queue">{{.Queue.Depth}} pending, {{.Queue.Sent}} sent, {{.Queue.Dropped}} dropped</td></tr>
<tr><th>Firmware resets</th><td>{{.Printer.Resets}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}{{if .MQTTBuffered}} ({{.MQTTBuffered}} buffered){{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Presses</h2>
<table>
<tr><th>HOME</th><td>{{index .Counts.Presses 0}}</td></tr>
<tr><th>PLUS</th><td>{{index .Counts.Presses 1}}</td></tr>
<tr><th>MINUS</th><td>{{index .Counts.Presses 2}}</td></tr>
<tr><th>START</th><td>{{index .Counts.Presses 3}}</td></tr>
<tr><th>Transitions</th><td>{{.Counts.Transitions}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Since</th><td>{{.StartTime.UTC.Format "2006-01-02 15:04:05 UTC"}}</td></tr>
{{if .Host}}<tr><th>Host</th><td>{{.Host.Hostname}}</td></tr>
<tr><th>Load</th><td>{{printf "%.2f %.2f %.2f" .Host.Load1 .Host.Load5 .Host.Load15}}</td></tr>{{end}}
<tr><th>Serial</th><td>{{.Config.Serial}} @ {{.Config.Baud}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var leds = ["home", "plus", "minus", "start"];

  function live(ok) {
    var el = document.getElementById("live-dot");
    el.className = ok ? "ok" : "err";
    el.title = ok ? "live" : "reconnecting";
  }

  function text(id, v) {
    document.getElementById(id).textContent = v;
  }

  function connect() {
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onopen = function() { live(true); };
    ws.onclose = function() {
      live(false);
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).status;
        text("state", s.state);
        text("cursor", s.cursor);
        leds.forEach(function(name) {
          var el = document.getElementById("led-" + name);
          var v = s.leds[name] ? "on" : "off";
          el.textContent = v;
          el.className = v;
        });
        text("printing", s.printer.print_active ? "yes (" + Math.round(s.printer.progress) + "%)" : "no");
        text("hotend", s.printer.hotend.toFixed(1) + "°C / " + s.printer.hotend_target.toFixed(1) + "°C");
        text("bed", s.printer.bed.toFixed(1) + "°C / " + s.printer.bed_target.toFixed(1) + "°C");
        text("queue", s.queue.depth + " pending, " + s.queue.sent + " sent, " + s.queue.dropped + " dropped");
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

// formatUptime prints d as "3d 4h 5m 6s", dropping leading zero units.
func formatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	units := []struct {
		n      int64
		suffix string
	}{
		{secs / 86400, "d"},
		{secs / 3600 % 24, "h"},
		{secs / 60 % 60, "m"},
	}
	out := ""
	for _, u := range units {
		if u.n > 0 || out != "" {
			out += fmt.Sprintf("%d%s ", u.n, u.suffix)
		}
	}
	return out + fmt.Sprintf("%ds", secs%60)
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	page := struct {
		status.Snapshot
		Uptime time.Duration
	}{snap, snap.Uptime()}
	if err := indexTmpl.Execute(w, page); err != nil {
		log.Printf("web: render: %v", err)
	}
}
