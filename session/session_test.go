package session

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/wfunc/roomworld/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []uint16
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}

func (m *MockConnection) SendJSON(msgID uint16, v interface{}) error {
	if _, err := json.Marshal(v); err != nil {
		return err
	}
	m.sent = append(m.sent, msgID)
	return nil
}

func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestManager_AddGetRemove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", manager.Count())
	}

	got, exists := manager.Get("s1")
	if !exists || got != sess {
		t.Fatal("Get should return the added session")
	}

	manager.Remove("s1")
	if _, exists := manager.Get("s1"); exists {
		t.Fatal("Get should not find a removed session")
	}
}

func TestSession_State(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})
	sess.Name = "ada"
	sess.Color = "#FF00AA"
	sess.Character = "duck"
	sess.Admin = true
	sess.X, sess.Y, sess.Z = 1, 2, 3
	sess.Rotation = 0.5

	state := sess.State()
	if state.ID != "s1" || state.Name != "ada" || state.Color != "#FF00AA" {
		t.Errorf("identity fields not copied: %+v", state)
	}
	if state.Character != "duck" || !state.Admin {
		t.Errorf("appearance fields not copied: %+v", state)
	}
	if state.X != 1 || state.Y != 2 || state.Z != 3 || state.Rotation != 0.5 {
		t.Errorf("transform not copied: %+v", state)
	}
}

func TestSession_TouchTracksActivity(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})
	before := sess.LastActive

	time.Sleep(time.Millisecond)
	sess.Touch()
	if !sess.LastActive.After(before) {
		t.Error("Touch should refresh LastActive")
	}
}

// Sends fan out from the room goroutine while the read loop owns
// LastActive; sending must not write any session field.
func TestSession_SendDoesNotMutateSession(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})
	before := sess.LastActive

	time.Sleep(time.Millisecond)
	if err := sess.Send(1, nil); err != nil {
		t.Fatal(err)
	}
	if err := sess.SendJSON(2, struct{}{}); err != nil {
		t.Fatal(err)
	}
	if !sess.LastActive.Equal(before) {
		t.Error("Send must not touch LastActive")
	}
}
