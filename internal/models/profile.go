package models

import (
	"time"

	apperrors "EchoLegacy/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Voice model lifecycle states. Transitions are driven exclusively by the
// voice lifecycle controller; nothing else writes these fields.
const (
	VoiceStatusNotSubmitted = "not_submitted"
	VoiceStatusTraining     = "training"
	VoiceStatusReady        = "ready"
)

type Profile struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	OwnerID          uint      `json:"ownerId" gorm:"index;not null"`
	Name             string    `json:"name" gorm:"size:255;not null"`
	Relation         string    `json:"relation" gorm:"size:128"`
	Notes            string    `json:"notes" gorm:"type:text"`
	VoiceModelStatus string    `json:"voiceModelStatus" gorm:"size:32;not null;default:not_submitted"`
	VoiceHandle      *string   `json:"voiceHandle,omitempty" gorm:"size:128"`
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.VoiceModelStatus == "" {
		p.VoiceModelStatus = VoiceStatusNotSubmitted
	}
	return nil
}

func CreateProfile(db *gorm.DB, ownerID uint, name, relation, notes string) (*Profile, error) {
	p := &Profile{OwnerID: ownerID, Name: name, Relation: relation, Notes: notes}
	if err := db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile is owner scoped; a profile that exists but belongs to someone
// else reads the same as one that does not exist.
func GetProfile(db *gorm.DB, id string, ownerID uint) (*Profile, error) {
	var p Profile
	err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.WithCode(apperrors.CodeNotFound, "profile not found")
		}
		return nil, err
	}
	return &p, nil
}

func ListProfiles(db *gorm.DB, ownerID uint) ([]Profile, error) {
	var out []Profile
	err := db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// UpdateProfileFields applies a partial update. Passing a nil value for a
// field (e.g. "voice_handle": nil) writes SQL NULL, which is how the
// lifecycle controller clears a handle; an absent field stays untouched.
func UpdateProfileFields(db *gorm.DB, id string, ownerID uint, fields map[string]interface{}) error {
	res := db.Model(&Profile{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.WithCode(apperrors.CodeNotFound, "profile not found")
	}
	return nil
}

// DeleteProfile removes the profile, its recording slots, and detaches its
// messages (they keep playing in the cloned voice audio already rendered).
func DeleteProfile(db *gorm.DB, id string, ownerID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&Profile{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.WithCode(apperrors.CodeNotFound, "profile not found")
		}
		if err := tx.Where("profile_id = ?", id).Delete(&RecordingSlot{}).Error; err != nil {
			return err
		}
		return tx.Model(&Message{}).
			Where("profile_id = ?", id).
			Update("profile_id", nil).Error
	})
}
