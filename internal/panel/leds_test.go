package panel

import "testing"

func TestLEDDriverInit(t *testing.T) {
	out := &fakeLEDs{}
	d := NewLEDDriver(out)
	d.Init()

	if len(out.writes) != NumButtons {
		t.Fatalf("expected %d writes, got %d", NumButtons, len(out.writes))
	}
	want := [NumButtons]bool{Home: true, Plus: true, Minus: true, Start: false}
	if out.level != want {
		t.Errorf("power-on pattern: got %v, want %v", out.level, want)
	}
}

func TestLEDDriverSetWritesOnlyOnChange(t *testing.T) {
	out := &fakeLEDs{}
	d := NewLEDDriver(out)

	d.Set(Home, true) // already on
	if len(out.writes) != 0 {
		t.Errorf("expected no write for unchanged value, got %d", len(out.writes))
	}

	d.Set(Home, false)
	d.Set(Home, false)
	if len(out.writes) != 1 {
		t.Errorf("expected 1 write, got %d", len(out.writes))
	}

	d.Toggle(Start)
	if len(out.writes) != 2 || !out.level[Start] {
		t.Errorf("toggle should turn START on with one write, got %v", out.writes)
	}
}

func TestLEDDriverSteadyPatterns(t *testing.T) {
	tests := []struct {
		state State
		want  [NumButtons]bool // Home, Plus, Minus, Start
	}{
		{StateIdle, [NumButtons]bool{true, true, true, false}},
		{StateLeveling, [NumButtons]bool{false, true, true, false}},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			d := NewLEDDriver(&fakeLEDs{})
			d.Apply(tt.state, true, true)
			if got := d.Levels(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLEDDriverBlinkCells(t *testing.T) {
	tests := []struct {
		state    State
		led      LED
		slowEdge bool // edge that toggles this LED
	}{
		{StatePrinting, Start, true},
		{StatePreheatingFeed, Plus, false},
		{StateFeeding, Plus, true},
		{StatePreheatingRetract, Minus, false},
		{StateRetracting, Minus, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			out := &fakeLEDs{}
			d := NewLEDDriver(out)
			before := d.Levels()[tt.led]

			// The other edge does not touch the LED.
			d.Apply(tt.state, !tt.slowEdge, tt.slowEdge)
			if d.Levels()[tt.led] != before {
				t.Errorf("%s toggled on the wrong edge", tt.led)
			}

			d.Apply(tt.state, tt.slowEdge, !tt.slowEdge)
			if d.Levels()[tt.led] == before {
				t.Errorf("%s did not toggle on its edge", tt.led)
			}

			d.Apply(tt.state, false, false)
			if d.Levels()[tt.led] == before {
				t.Errorf("%s should hold without an edge", tt.led)
			}

			// Every other LED follows its steady cell.
			for _, other := range Buttons {
				if other == tt.led {
					continue
				}
				want := other != Start
				if d.Levels()[other] != want {
					t.Errorf("%s: got %v, want %v", other, d.Levels()[other], want)
				}
			}
		})
	}
}

func TestLEDTableCoversEveryState(t *testing.T) {
	for _, s := range States {
		if _, ok := ledTable[s]; !ok {
			t.Errorf("no LED row for %s", s)
		}
	}
}

func TestLEDDriverIdempotentAcrossCycles(t *testing.T) {
	out := &fakeLEDs{}
	d := NewLEDDriver(out)
	d.Apply(StateFeeding, true, false)
	n := len(out.writes)

	d.Apply(StateFeeding, false, false)
	d.Apply(StateFeeding, false, false)
	if len(out.writes) != n {
		t.Errorf("expected no further writes, got %d", len(out.writes)-n)
	}
}
