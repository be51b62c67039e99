// Package protocol defines the room message surface: numeric message IDs on
// the wire, typed command variants for everything a client may send, and the
// payload shapes the server broadcasts.
//
// Commands are decoded and validated here, at the wire boundary. Room logic
// never sees raw payload bytes.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	MsgTypeHeartbeat = 1

	MsgTypeJoinRoom   = 101
	MsgTypeLeaveRoom  = 102
	MsgTypeCreateRoom = 103
	MsgTypeRoomList   = 104

	MsgTypeMove            = 201
	MsgTypeChangePlayer    = 202
	MsgTypeChangeColor     = 203
	MsgTypeChangeHue       = 204
	MsgTypeChangeCharacter = 205
	MsgTypeSetMode         = 206
	MsgTypeSetMap          = 207

	MsgTypeWelcome     = 301
	MsgTypeUpdateMode  = 302
	MsgTypeUpdateMap   = 303
	MsgTypeStatePatch  = 304
	MsgTypePlayerJoin  = 305
	MsgTypePlayerLeave = 306
)

var ErrUnknownMessage = errors.New("unknown message type")

// Command is one validated client-to-room message.
type Command interface {
	isCommand()
}

// Move carries a movement intent. Speed and orientation are in input space;
// the simulation scales and clamps them.
type Move struct {
	Speed       float64 `json:"speed"`
	Orientation float64 `json:"orientation"`
	Jump        bool    `json:"jump"`
}

// ChangePlayer overwrites the sender's display name and color.
type ChangePlayer struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ChangeColor overwrites the sender's color.
type ChangeColor struct {
	Color string `json:"color"`
}

// ChangeHue shifts the sender's color hue by a signed delta in degrees.
type ChangeHue struct {
	Delta float64 `json:"delta"`
}

// ChangeCharacter selects the sender's appearance model.
type ChangeCharacter struct {
	Character string `json:"character"`
}

// SetMode requests a room mode change (admin only, before start).
type SetMode struct {
	Mode string `json:"mode"`
}

// SetMap requests a room map change (admin only, before start).
type SetMap struct {
	Map string `json:"map"`
}

func (Move) isCommand()            {}
func (ChangePlayer) isCommand()    {}
func (ChangeColor) isCommand()     {}
func (ChangeHue) isCommand()       {}
func (ChangeCharacter) isCommand() {}
func (SetMode) isCommand()         {}
func (SetMap) isCommand()          {}

// DecodeCommand turns a room-scoped packet into its typed command.
// Non-room message IDs and malformed payloads are rejected.
func DecodeCommand(msgID uint16, data []byte) (Command, error) {
	var cmd Command
	switch msgID {
	case MsgTypeMove:
		cmd = &Move{}
	case MsgTypeChangePlayer:
		cmd = &ChangePlayer{}
	case MsgTypeChangeColor:
		cmd = &ChangeColor{}
	case MsgTypeChangeHue:
		cmd = &ChangeHue{}
	case MsgTypeChangeCharacter:
		cmd = &ChangeCharacter{}
	case MsgTypeSetMode:
		cmd = &SetMode{}
	case MsgTypeSetMap:
		cmd = &SetMap{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, msgID)
	}
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("decode message %d: %w", msgID, err)
	}
	return deref(cmd), nil
}

// deref returns the command by value so handlers can type-switch without
// pointer cases.
func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *Move:
		return *c
	case *ChangePlayer:
		return *c
	case *ChangeColor:
		return *c
	case *ChangeHue:
		return *c
	case *ChangeCharacter:
		return *c
	case *SetMode:
		return *c
	case *SetMap:
		return *c
	}
	return cmd
}

// PlayerState is the full broadcast view of one player.
type PlayerState struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	Character string  `json:"character"`
	Admin     bool    `json:"admin"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Rotation  float64 `json:"rotation"`
}

// StatePatch is the per-tick diff of the player collection. Players carries
// only entries that changed since the previous patch; Removed lists ids that
// left. A full snapshot sets Full.
type StatePatch struct {
	Full    bool                   `json:"full,omitempty"`
	Players map[string]PlayerState `json:"players,omitempty"`
	Removed []string               `json:"removed,omitempty"`
}

// Welcome is sent to a session right after it joins a room.
type Welcome struct {
	SessionID string      `json:"session_id"`
	Room      RoomInfo    `json:"room"`
	State     StatePatch  `json:"state"`
	You       PlayerState `json:"you"`
}

// RoomInfo is the read-only metadata view exposed to lobbies.
type RoomInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Mode       string `json:"mode"`
	Map        string `json:"map"`
	Started    bool   `json:"started"`
	Clients    int    `json:"clients"`
	MaxClients int    `json:"max_clients"`
}

// UpdateValue carries a broadcast mode/map change.
type UpdateValue struct {
	Value string `json:"value"`
}

// JoinRoom is the payload of a join request handled by the server.
type JoinRoom struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name,omitempty"`
}

// CreateRoom is the payload of a room creation request.
type CreateRoom struct {
	Name string `json:"name,omitempty"`
}
