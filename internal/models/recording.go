package models

import (
	"time"

	apperrors "EchoLegacy/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SlotCount is the number of training samples a voice model needs. Slot
// indexes run 0..SlotCount-1.
const SlotCount = 3

// RecordingSlot is one training-sample position for a profile's voice. At
// most one row exists per (profile, slot); uploads overwrite in place.
type RecordingSlot struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ProfileID  string    `json:"profileId" gorm:"size:36;not null;uniqueIndex:idx_profile_slot"`
	SlotIndex  int       `json:"slotIndex" gorm:"not null;uniqueIndex:idx_profile_slot"`
	PromptText string    `json:"promptText" gorm:"size:1024"`
	AudioKey   string    `json:"-" gorm:"size:512"` // object storage key
	Format     string    `json:"format" gorm:"size:32"`
	SizeBytes  int64     `json:"sizeBytes"`
	Checksum   string    `json:"checksum" gorm:"size:128"`
	Quality    string    `json:"quality" gorm:"size:32"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ValidSlotIndex reports whether idx is inside [0, SlotCount).
func ValidSlotIndex(idx int) bool {
	return idx >= 0 && idx < SlotCount
}

// UpsertRecordingSlot inserts or atomically overwrites the row for the slot.
func UpsertRecordingSlot(db *gorm.DB, slot RecordingSlot) (*RecordingSlot, error) {
	if !ValidSlotIndex(slot.SlotIndex) {
		return nil, apperrors.WithCodef(apperrors.CodeInvalidSlotIndex,
			"slot index %d outside [0, %d)", slot.SlotIndex, SlotCount)
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_id"}, {Name: "slot_index"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"prompt_text", "audio_key", "format", "size_bytes", "checksum", "quality", "updated_at",
		}),
	}).Create(&slot).Error
	if err != nil {
		return nil, err
	}
	// Re-read so the caller sees the surviving row, not the insert candidate.
	var out RecordingSlot
	if err := db.Where("profile_id = ? AND slot_index = ?", slot.ProfileID, slot.SlotIndex).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRecordingSlot returns the slot row when present.
func GetRecordingSlot(db *gorm.DB, profileID string, slotIndex int) (*RecordingSlot, error) {
	if !ValidSlotIndex(slotIndex) {
		return nil, apperrors.WithCodef(apperrors.CodeInvalidSlotIndex,
			"slot index %d outside [0, %d)", slotIndex, SlotCount)
	}
	var s RecordingSlot
	err := db.Where("profile_id = ? AND slot_index = ?", profileID, slotIndex).First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.WithCode(apperrors.CodeNotFound, "recording not found")
		}
		return nil, err
	}
	return &s, nil
}

// RemoveRecordingSlot deletes the row if present and reports whether one was
// removed.
func RemoveRecordingSlot(db *gorm.DB, profileID string, slotIndex int) (bool, error) {
	if !ValidSlotIndex(slotIndex) {
		return false, apperrors.WithCodef(apperrors.CodeInvalidSlotIndex,
			"slot index %d outside [0, %d)", slotIndex, SlotCount)
	}
	res := db.Where("profile_id = ? AND slot_index = ?", profileID, slotIndex).
		Delete(&RecordingSlot{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountRecordingSlots returns how many slots are currently filled.
func CountRecordingSlots(db *gorm.DB, profileID string) (int, error) {
	var n int64
	err := db.Model(&RecordingSlot{}).Where("profile_id = ?", profileID).Count(&n).Error
	return int(n), err
}

// ListRecordingSlots returns filled slots ordered by slot index ascending.
// Providers can be sensitive to sample ordering, so the order is contractual.
func ListRecordingSlots(db *gorm.DB, profileID string) ([]RecordingSlot, error) {
	var out []RecordingSlot
	err := db.Where("profile_id = ?", profileID).Order("slot_index ASC").Find(&out).Error
	return out, err
}
