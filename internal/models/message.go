package models

import (
	"time"

	apperrors "EchoLegacy/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a synthesized utterance in a profile's cloned voice. ProfileID
// is nullable: deleting a profile orphans its messages instead of destroying
// them.
type Message struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	OwnerID         uint      `json:"ownerId" gorm:"index;not null"`
	ProfileID       *string   `json:"profileId,omitempty" gorm:"size:36;index"`
	Title           string    `json:"title" gorm:"size:255"`
	Category        string    `json:"category" gorm:"size:64"`
	Text            string    `json:"text" gorm:"type:text"`
	AudioKey        string    `json:"-" gorm:"size:512"`
	DurationSeconds int       `json:"durationSeconds"`
	IsPrivate       bool      `json:"isPrivate"`
	CreatedAt       time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func CreateMessage(db *gorm.DB, m *Message) error {
	return db.Create(m).Error
}

func GetMessage(db *gorm.DB, id string, ownerID uint) (*Message, error) {
	var m Message
	err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.WithCode(apperrors.CodeNotFound, "message not found")
		}
		return nil, err
	}
	return &m, nil
}

func ListMessages(db *gorm.DB, ownerID uint) ([]Message, error) {
	var out []Message
	err := db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func DeleteMessage(db *gorm.DB, id string, ownerID uint) (bool, error) {
	res := db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&Message{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
