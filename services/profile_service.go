// services/profile_service.go
package services

import (
	"errors"

	"github.com/wfunc/roomworld/logger"
	"github.com/wfunc/roomworld/models"
	"github.com/wfunc/roomworld/persistence"
	"github.com/wfunc/roomworld/session"
)

// ProfileService restores and saves player appearance around the
// persistence layer. A nil database disables it; every method then
// becomes a no-op so call sites don't have to care.
type ProfileService struct {
	db persistence.Database
}

func NewProfileService(db persistence.Database) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) Enabled() bool {
	return s != nil && s.db != nil
}

// RestoreAppearance overwrites the session's random color and character
// with the saved ones, if a profile exists for the name.
func (s *ProfileService) RestoreAppearance(sess *session.Session) {
	if !s.Enabled() || sess.Name == "" {
		return
	}
	profile, err := s.db.LoadProfile(sess.Name)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return
	}
	if err != nil {
		logger.Log.Warnf("load profile for %s: %v", sess.Name, err)
		return
	}
	if profile.Color != "" {
		sess.Color = profile.Color
	}
	if profile.Character != "" {
		sess.Character = profile.Character
	}
}

// SaveAppearance persists the session's current color and character.
func (s *ProfileService) SaveAppearance(sess *session.Session) {
	if !s.Enabled() || sess.Name == "" {
		return
	}
	err := s.db.SaveProfile(&models.PlayerProfile{
		Name:      sess.Name,
		Color:     sess.Color,
		Character: sess.Character,
	})
	if err != nil {
		logger.Log.Warnf("save profile for %s: %v", sess.Name, err)
	}
}

// GetProfile looks up a profile by name.
func (s *ProfileService) GetProfile(name string) (*models.PlayerProfile, error) {
	if !s.Enabled() {
		return nil, persistence.ErrRecordNotFound
	}
	return s.db.LoadProfile(name)
}

// RecordGame writes a finished room's record.
func (s *ProfileService) RecordGame(record *models.GameRecord) {
	if !s.Enabled() {
		return
	}
	if err := s.db.SaveGameRecord(record); err != nil {
		logger.Log.Warnf("save game record for room %s: %v", record.RoomID, err)
	}
}
