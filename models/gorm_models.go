package models

import (
	"gorm.io/gorm"
)

// GormPlayerProfile 玩家外观档案
type GormPlayerProfile struct {
	gorm.Model
	Name      string `gorm:"uniqueIndex;not null"`
	Color     string `gorm:"not null"`
	Character string `gorm:"not null"`
}

// GormGameRecord 对局记录
type GormGameRecord struct {
	gorm.Model
	RoomID   string `gorm:"index;not null"`
	RoomName string
	Mode     string `gorm:"not null"`
	Map      string `gorm:"not null"`
	Players  string `gorm:"type:text"` // comma separated player names
	Duration int    `gorm:"default:0"` // seconds
}
