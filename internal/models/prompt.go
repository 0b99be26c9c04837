package models

import (
	"time"

	"gorm.io/gorm"
)

// RecordingPrompt is the sentence shown on screen for one training slot.
type RecordingPrompt struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SlotIndex int       `json:"slotIndex" gorm:"uniqueIndex;not null"`
	Text      string    `json:"text" gorm:"size:1024;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

var defaultPrompts = []string{
	"When I think back on the years we have spent together, what I remember most are the small moments that made me smile.",
	"There is so much I still want to tell you, and I hope my voice can carry some of it even when I am not in the room.",
	"Wherever you go and whatever you choose, know that I am proud of you and that this voice will always be yours to keep.",
}

// SeedRecordingPrompts inserts the default prompt per slot if none exists.
func SeedRecordingPrompts(db *gorm.DB) error {
	for i := 0; i < SlotCount && i < len(defaultPrompts); i++ {
		var n int64
		if err := db.Model(&RecordingPrompt{}).Where("slot_index = ?", i).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if err := db.Create(&RecordingPrompt{SlotIndex: i, Text: defaultPrompts[i]}).Error; err != nil {
			return err
		}
	}
	return nil
}

func ListRecordingPrompts(db *gorm.DB) ([]RecordingPrompt, error) {
	var out []RecordingPrompt
	err := db.Order("slot_index ASC").Find(&out).Error
	return out, err
}

// PromptForSlot returns the prompt text for a slot; empty when unseeded.
func PromptForSlot(db *gorm.DB, slotIndex int) string {
	var p RecordingPrompt
	if err := db.Where("slot_index = ?", slotIndex).First(&p).Error; err != nil {
		return ""
	}
	return p.Text
}
