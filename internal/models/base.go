package models

import (
	"gorm.io/gorm"
)

// Migrate creates or updates all tables and seeds the recording prompt
// catalogue.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Profile{},
		&RecordingPrompt{},
		&RecordingSlot{},
		&Message{},
		&OrphanVoice{},
	); err != nil {
		return err
	}
	return SeedRecordingPrompts(db)
}
