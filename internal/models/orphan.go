package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrphanVoice records a remote voice handle whose deletion failed. The local
// profile already dropped its reference; the sweep retries the remote side.
type OrphanVoice struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Handle    string    `json:"handle" gorm:"size:128;uniqueIndex;not null"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError" gorm:"size:512"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func RecordOrphanVoice(db *gorm.DB, handle, lastError string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "handle"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_error": lastError}),
	}).Create(&OrphanVoice{Handle: handle, LastError: lastError}).Error
}

func ListOrphanVoices(db *gorm.DB, limit int) ([]OrphanVoice, error) {
	var out []OrphanVoice
	err := db.Order("created_at ASC").Limit(limit).Find(&out).Error
	return out, err
}

func ResolveOrphanVoice(db *gorm.DB, id uint) error {
	return db.Delete(&OrphanVoice{}, id).Error
}

func MarkOrphanVoiceAttempt(db *gorm.DB, id uint, lastError string) error {
	return db.Model(&OrphanVoice{}).Where("id = ?", id).Updates(map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastError,
	}).Error
}
