package room

import (
	"sync"

	"github.com/wfunc/roomworld/protocol"
)

// Manager owns every live room. Rooms are independent; the manager only
// tracks and lists them.
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom builds a room and registers it. The error is the room's fatal
// startup error (bad map, bad options).
func (m *Manager) CreateRoom(opts Options, broadcaster Broadcaster) (*Room, error) {
	room, err := NewRoom(opts, broadcaster)
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	m.rooms[room.ID] = room
	m.mutex.Unlock()
	return room, nil
}

// RemoveRoom disposes a room and drops it from the registry.
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		room.Dispose()
		delete(m.rooms, id)
	}
}

func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// List returns the lobby view of all rooms.
func (m *Manager) List() []protocol.RoomInfo {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	infos := make([]protocol.RoomInfo, 0, len(m.rooms))
	for _, room := range m.rooms {
		infos = append(infos, room.Info())
	}
	return infos
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}
