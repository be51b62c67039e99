// Package session holds the authoritative server-side record of one
// connected player.
package session

import (
	"sync"
	"time"

	"github.com/wfunc/roomworld/network"
	"github.com/wfunc/roomworld/protocol"
)

// Intent is the latest client-declared movement input. It is overwritten
// wholesale on each move message and consumed by the simulation tick.
type Intent struct {
	Speed       float64
	Orientation float64
	Jump        bool
}

// Session is one connected player. The transform fields (X, Y, Z, Rotation)
// are written only by the owning room's simulation tick; intent and
// appearance fields only by that room's message handling. Both run on the
// same room goroutine, so they carry no lock of their own. While a session
// is inside a room, no other goroutine may mutate these fields — the server
// restores profiles before Join and saves them after Leave. LastActive is
// owned by the connection read loop alone.
type Session struct {
	ID   string
	Conn network.Connection

	Name      string
	Color     string
	Character string
	Admin     bool

	X, Y, Z  float64
	Rotation float64

	Intent Intent

	RoomID     string
	CreatedAt  time.Time
	LastActive time.Time
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Send(msgID uint16, data []byte) error {
	return s.Conn.Send(msgID, data)
}

func (s *Session) SendJSON(msgID uint16, v interface{}) error {
	return s.Conn.SendJSON(msgID, v)
}

// Touch refreshes the activity timestamp. Only the connection read loop
// calls it; LastActive has no other writer or reader, so it needs no lock.
func (s *Session) Touch() {
	s.LastActive = time.Now()
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// State captures the broadcastable view of the session. The room diffs
// consecutive states to build its per-tick patch.
func (s *Session) State() protocol.PlayerState {
	return protocol.PlayerState{
		ID:        s.ID,
		Name:      s.Name,
		Color:     s.Color,
		Character: s.Character,
		Admin:     s.Admin,
		X:         s.X,
		Y:         s.Y,
		Z:         s.Z,
		Rotation:  s.Rotation,
	}
}

// Manager tracks every live session on the server across rooms.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// All returns a snapshot of every live session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
