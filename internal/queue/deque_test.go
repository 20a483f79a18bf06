package queue

import (
	"fmt"
	"testing"
)

func TestDequeEmptyPop(t *testing.T) {
	d := newDeque(4)
	if _, ok := d.popFront(); ok {
		t.Error("expected pop from empty deque to fail")
	}
	if got := d.items(); got != nil {
		t.Errorf("expected nil items, got %v", got)
	}
}

func TestDequePushBackFIFO(t *testing.T) {
	d := newDeque(10)
	for i := 0; i < 5; i++ {
		d.pushBack(fmt.Sprintf("G1 X%d", i))
	}

	for i := 0; i < 5; i++ {
		got, ok := d.popFront()
		if !ok {
			t.Fatalf("pop %d: deque empty", i)
		}
		if want := fmt.Sprintf("G1 X%d", i); got != want {
			t.Errorf("pop %d: got %q, want %q", i, got, want)
		}
	}
	if d.len() != 0 {
		t.Errorf("expected empty deque, got len %d", d.len())
	}
}

func TestDequePushFrontJumpsQueue(t *testing.T) {
	d := newDeque(4)
	d.pushBack("a")
	d.pushBack("b")
	d.pushFront("x")

	want := []string{"x", "a", "b"}
	got := d.items()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDequeFull(t *testing.T) {
	d := newDeque(2)
	if !d.pushBack("a") || !d.pushFront("b") {
		t.Fatal("pushes within capacity should succeed")
	}
	if d.pushBack("c") {
		t.Error("pushBack on full deque should fail")
	}
	if d.pushFront("c") {
		t.Error("pushFront on full deque should fail")
	}
	if got := d.items(); fmt.Sprint(got) != "[b a]" {
		t.Errorf("contents changed on failed push: %v", got)
	}
}

func TestDequeWrapAround(t *testing.T) {
	d := newDeque(3)

	// Cycle through several times so head wraps in both directions.
	for round := 0; round < 5; round++ {
		d.pushBack("n1")
		d.pushFront("i1")
		d.pushBack("n2")
		want := "[i1 n1 n2]"
		if got := fmt.Sprint(d.items()); got != want {
			t.Fatalf("round %d: got %v, want %v", round, got, want)
		}
		for i := 0; i < 3; i++ {
			d.popFront()
		}
	}
}

func TestDequeClear(t *testing.T) {
	d := newDeque(4)
	d.pushBack("a")
	d.pushBack("b")

	if n := d.clear(); n != 2 {
		t.Errorf("clear returned %d, want 2", n)
	}
	if d.len() != 0 {
		t.Errorf("expected empty after clear, got %d", d.len())
	}

	d.pushFront("c")
	if got := fmt.Sprint(d.items()); got != "[c]" {
		t.Errorf("after clear: got %v", got)
	}
}
