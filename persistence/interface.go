// Package persistence stores player appearance profiles and game records.
// The server runs fine without it; every call site treats failures as
// best-effort.
package persistence

import (
	"errors"

	"github.com/wfunc/roomworld/models"
)

// Database 数据库接口
type Database interface {
	SaveProfile(profile *models.PlayerProfile) error
	LoadProfile(name string) (*models.PlayerProfile, error)
	SaveGameRecord(record *models.GameRecord) error
	Close() error
}

var ErrRecordNotFound = errors.New("record not found")
