// Package models defines the persisted and reported data shapes.
package models

import (
	"time"
)

// PlayerProfile is a saved appearance, keyed by display name. Joining with
// a known name restores color and character.
type PlayerProfile struct {
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Character string    `json:"character"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GameRecord is written when a room is disposed.
type GameRecord struct {
	RoomID   string    `json:"room_id"`
	RoomName string    `json:"room_name"`
	Mode     string    `json:"mode"`
	Map      string    `json:"map"`
	Players  []string  `json:"players"`
	Duration int       `json:"duration_seconds"`
	EndedAt  time.Time `json:"ended_at"`
}
