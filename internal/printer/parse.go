package printer

import (
	"regexp"
	"strconv"
	"strings"
)

// lineKind classifies a line received from the firmware.
type lineKind int

const (
	lineOther lineKind = iota
	lineOK
	lineBusy
	lineStart
	lineError
	lineResend
)

// Reading is one heater's measured and target temperature.
type Reading struct {
	Actual float64
	Target float64
}

// report is everything a single line can tell us about the printer.
type report struct {
	kind lineKind

	hotends map[int]Reading
	bed     *Reading

	sdKnown  bool
	printing bool
	sdDone   int64
	sdTotal  int64
}

var tempRe = regexp.MustCompile(`(?:^|\s)(T\d*|B):\s*(-?\d+(?:\.\d+)?)\s*/\s*(-?\d+(?:\.\d+)?)`)

var sdRe = regexp.MustCompile(`SD printing byte (\d+)/(\d+)`)

// parseLine interprets one line of Marlin serial output.
// Handles temperature reports (M105 / M155 auto-report), SD status
// (M27 / auto-report), ok acknowledgements and busy keepalives.
func parseLine(line string) report {
	line = strings.TrimSpace(line)
	var r report

	switch {
	case line == "ok" || strings.HasPrefix(line, "ok "):
		r.kind = lineOK
	case strings.HasPrefix(line, "echo:busy:"):
		r.kind = lineBusy
		return r
	case line == "start":
		r.kind = lineStart
		return r
	case strings.HasPrefix(line, "Error:"):
		r.kind = lineError
		return r
	case strings.HasPrefix(strings.ToLower(line), "resend:"):
		r.kind = lineResend
		return r
	}

	parseTemps(line, &r)

	switch {
	case strings.HasPrefix(line, "Not SD printing"), strings.HasPrefix(line, "Done printing file"):
		r.sdKnown = true
		r.printing = false
	default:
		if m := sdRe.FindStringSubmatch(line); m != nil {
			done, _ := strconv.ParseInt(m[1], 10, 64)
			total, _ := strconv.ParseInt(m[2], 10, 64)
			r.sdKnown = true
			r.sdDone = done
			r.sdTotal = total
			r.printing = done < total
		}
	}

	return r
}

func parseTemps(line string, r *report) {
	matches := tempRe.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return
	}

	var indexed bool
	for _, m := range matches {
		actual, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		target, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}
		reading := Reading{Actual: actual, Target: target}

		switch {
		case m[1] == "B":
			r.bed = &reading
		case m[1] == "T":
			// Active tool; an explicit T0 on the same line wins.
			if r.hotends == nil {
				r.hotends = make(map[int]Reading)
			}
			if !indexed {
				r.hotends[0] = reading
			}
		default:
			idx, err := strconv.Atoi(m[1][1:])
			if err != nil {
				continue
			}
			if r.hotends == nil {
				r.hotends = make(map[int]Reading)
			}
			if idx == 0 {
				indexed = true
			}
			r.hotends[idx] = reading
		}
	}
}
