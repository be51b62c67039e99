package timer

import (
	"testing"
	"time"
)

func waitFired(t *testing.T, fired chan string, want string) {
	t.Helper()
	select {
	case key := <-fired:
		if key != want {
			t.Fatalf("fired key = %q, want %q", key, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("task %q never fired", want)
	}
}

func TestSchedule_Fires(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan string, 1)
	m.Schedule("room-1", 10*time.Millisecond, func() { fired <- "room-1" })

	waitFired(t, fired, "room-1")

	if m.Pending("room-1") {
		t.Error("task still pending after firing")
	}
}

func TestCancel_PreventsFiring(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan string, 1)
	m.Schedule("room-1", 50*time.Millisecond, func() { fired <- "room-1" })
	m.Cancel("room-1")

	select {
	case <-fired:
		t.Fatal("cancelled task fired")
	case <-time.After(400 * time.Millisecond):
	}

	if m.Pending("room-1") {
		t.Error("cancelled task still pending")
	}
}

func TestSchedule_ReplacesPendingKey(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan string, 2)
	m.Schedule("room-1", 50*time.Millisecond, func() { fired <- "first" })
	m.Schedule("room-1", 50*time.Millisecond, func() { fired <- "second" })

	waitFired(t, fired, "second")

	select {
	case key := <-fired:
		t.Fatalf("replaced task fired: %q", key)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestCancel_UnknownKeyIsNoop(t *testing.T) {
	m := NewManager()
	defer m.Stop()
	m.Cancel("never-scheduled")
}

func TestStop_DropsPendingTasks(t *testing.T) {
	m := NewManager()

	fired := make(chan string, 1)
	m.Schedule("room-1", 50*time.Millisecond, func() { fired <- "room-1" })
	m.Stop()

	select {
	case <-fired:
		t.Fatal("task fired after Stop")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestSchedule_IndependentKeys(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan string, 2)
	m.Schedule("a", 10*time.Millisecond, func() { fired <- "a" })
	m.Schedule("b", 10*time.Millisecond, func() { fired <- "b" })
	m.Cancel("a")

	waitFired(t, fired, "b")
}
