package broadcast

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/roomworld/logger"
	"github.com/wfunc/roomworld/network"
	"github.com/wfunc/roomworld/room"
	"github.com/wfunc/roomworld/session"
)

func TestMain(m *testing.M) {
	logger.InitDevelopment()
	os.Exit(m.Run())
}

// recordingConn counts messages delivered to one session.
type recordingConn struct {
	mutex    sync.Mutex
	received []uint16
	fail     bool
}

func (c *recordingConn) Send(msgID uint16, data []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.fail {
		return errors.New("connection closed")
	}
	c.received = append(c.received, msgID)
	return nil
}

func (c *recordingConn) SendJSON(msgID uint16, v interface{}) error {
	return c.Send(msgID, nil)
}

func (c *recordingConn) count(msgID uint16) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	n := 0
	for _, id := range c.received {
		if id == msgID {
			n++
		}
	}
	return n
}

func (c *recordingConn) Close() error                         { return nil }
func (c *recordingConn) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (c *recordingConn) SetHeartbeat(interval time.Duration)  {}
func (c *recordingConn) ReadPacket() (*network.Packet, error) { return nil, nil }

const testMap = `{
	"default_size": 2, "default_type": "grass",
	"length": 8, "width": 8, "height": 0,
	"areas": [
		{"name": "start", "size": 2, "pos": [-2, 0, -2], "type": "spawn"}
	],
	"objects": []
}`

func newManagers(t *testing.T) (*room.Manager, *session.Manager, *room.Room) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lobby.json"), []byte(testMap), 0o644); err != nil {
		t.Fatal(err)
	}

	rooms := room.NewRoomManager()
	sessions := session.NewManager()
	b := NewRoomBroadcaster(rooms, sessions)

	r, err := rooms.CreateRoom(room.Options{
		ID:           "r1",
		MapDir:       dir,
		Maps:         []string{"lobby"},
		Modes:        []string{"classic"},
		Characters:   []string{"bear"},
		MaxClients:   8,
		TickInterval: time.Hour,
	}, b)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Dispose)
	return rooms, sessions, r
}

func addSession(t *testing.T, sessions *session.Manager, id string) (*session.Session, *recordingConn) {
	t.Helper()
	conn := &recordingConn{}
	sess := session.NewSession(id, conn)
	sessions.Add(sess)
	return sess, conn
}

func TestBroadcastToRoom_ReachesMembersOnly(t *testing.T) {
	rooms, sessions, r := newManagers(t)
	b := NewRoomBroadcaster(rooms, sessions)

	inA, connA := addSession(t, sessions, "a")
	inB, connB := addSession(t, sessions, "b")
	_, connOut := addSession(t, sessions, "c")

	for _, sess := range []*session.Session{inA, inB} {
		if err := r.Join(sess); err != nil {
			t.Fatal(err)
		}
	}
	baseA := connA.count(999)
	baseB := connB.count(999)

	if err := b.BroadcastToRoom("r1", 999, []byte(`{}`)); err != nil {
		t.Fatalf("BroadcastToRoom: %v", err)
	}

	if got := connA.count(999) - baseA; got != 1 {
		t.Errorf("member a received %d copies, want 1", got)
	}
	if got := connB.count(999) - baseB; got != 1 {
		t.Errorf("member b received %d copies, want 1", got)
	}
	if got := connOut.count(999); got != 0 {
		t.Errorf("non-member received %d copies, want 0", got)
	}
}

func TestBroadcastToRoom_UnknownRoom(t *testing.T) {
	rooms, sessions, _ := newManagers(t)
	b := NewRoomBroadcaster(rooms, sessions)

	if err := b.BroadcastToRoom("missing", 999, nil); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestBroadcastToRoom_DeadConnectionSkipped(t *testing.T) {
	rooms, sessions, r := newManagers(t)
	b := NewRoomBroadcaster(rooms, sessions)

	dead, deadConn := addSession(t, sessions, "dead")
	alive, aliveConn := addSession(t, sessions, "alive")
	for _, sess := range []*session.Session{dead, alive} {
		if err := r.Join(sess); err != nil {
			t.Fatal(err)
		}
	}
	deadConn.fail = true
	base := aliveConn.count(999)

	if err := b.BroadcastToRoom("r1", 999, nil); err != nil {
		t.Fatalf("BroadcastToRoom: %v", err)
	}
	if got := aliveConn.count(999) - base; got != 1 {
		t.Errorf("alive member received %d copies, want 1", got)
	}
}

func TestBroadcastToAll(t *testing.T) {
	rooms, sessions, r := newManagers(t)
	b := NewRoomBroadcaster(rooms, sessions)

	member, connMember := addSession(t, sessions, "member")
	if err := r.Join(member); err != nil {
		t.Fatal(err)
	}
	_, connLobby := addSession(t, sessions, "lobby")

	if err := b.BroadcastToAll(999, nil); err != nil {
		t.Fatalf("BroadcastToAll: %v", err)
	}

	if got := connMember.count(999); got != 1 {
		t.Errorf("room member received %d copies, want 1", got)
	}
	if got := connLobby.count(999); got != 1 {
		t.Errorf("lobby session received %d copies, want 1", got)
	}
}
