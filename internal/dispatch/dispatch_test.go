package dispatch

import "testing"

func TestDispatchFanOut(t *testing.T) {
	d := New[int]()
	a := d.Listen()
	b := d.Listen()

	d.Dispatch(1)

	if got := <-a.C(); got != 1 {
		t.Fatalf("a got %d, want 1", got)
	}
	if got := <-b.C(); got != 1 {
		t.Fatalf("b got %d, want 1", got)
	}
}

func TestDispatchDropsClosedListener(t *testing.T) {
	d := New[int]()
	a := d.Listen()
	b := d.Listen()

	a.Close()

	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after close", d.Len())
	}

	d.Dispatch(2)
	if got := <-b.C(); got != 2 {
		t.Fatalf("b got %d, want 2", got)
	}
}

func TestDispatchDropsFullListener(t *testing.T) {
	d := New[int]()
	a := d.Listen()

	d.Dispatch(1) // fills a's depth-1 buffer
	d.Dispatch(2) // a can't take this one, gets dropped from the set

	if d.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after drop", d.Len())
	}
	if got := <-a.C(); got != 1 {
		t.Fatalf("a got %d, want 1", got)
	}
}

func TestCloseAllDrainsListeners(t *testing.T) {
	d := New[int]()
	a := d.Listen()
	d.CloseAll()

	if _, ok := <-a.C(); ok {
		t.Fatalf("expected a's channel to be closed")
	}
	if d.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", d.Len())
	}
}
