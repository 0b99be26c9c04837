package models

import (
	"fmt"
	"strings"
	"testing"

	apperrors "EchoLegacy/pkg/errors"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return db
}

func TestUpsertRecordingSlotOverwrites(t *testing.T) {
	db := newTestDB(t)
	p, err := CreateProfile(db, 1, "June", "", "")
	require.NoError(t, err)

	first, err := UpsertRecordingSlot(db, RecordingSlot{
		ProfileID: p.ID, SlotIndex: 1, AudioKey: "k1", Format: "wav", Quality: "good",
	})
	require.NoError(t, err)

	second, err := UpsertRecordingSlot(db, RecordingSlot{
		ProfileID: p.ID, SlotIndex: 1, AudioKey: "k2", Format: "opus", Quality: "better",
	})
	require.NoError(t, err)

	// Same row, new content.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "k2", second.AudioKey)
	assert.Equal(t, "opus", second.Format)

	n, err := CountRecordingSlots(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertRecordingSlotRejectsBadIndex(t *testing.T) {
	db := newTestDB(t)
	p, err := CreateProfile(db, 1, "June", "", "")
	require.NoError(t, err)

	for _, idx := range []int{-1, SlotCount, SlotCount + 5} {
		_, err := UpsertRecordingSlot(db, RecordingSlot{ProfileID: p.ID, SlotIndex: idx})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidSlotIndex), "index %d", idx)
	}
	n, err := CountRecordingSlots(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "rejected upserts must not change state")
}

func TestRemoveRecordingSlot(t *testing.T) {
	db := newTestDB(t)
	p, err := CreateProfile(db, 1, "June", "", "")
	require.NoError(t, err)

	_, err = UpsertRecordingSlot(db, RecordingSlot{ProfileID: p.ID, SlotIndex: 0, AudioKey: "k"})
	require.NoError(t, err)

	removed, err := RemoveRecordingSlot(db, p.ID, 0)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = RemoveRecordingSlot(db, p.ID, 0)
	require.NoError(t, err)
	assert.False(t, removed, "second removal finds nothing")

	_, err = RemoveRecordingSlot(db, p.ID, SlotCount)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidSlotIndex))
}

func TestListRecordingSlotsOrdered(t *testing.T) {
	db := newTestDB(t)
	p, err := CreateProfile(db, 1, "June", "", "")
	require.NoError(t, err)

	for _, idx := range []int{2, 0, 1} {
		_, err = UpsertRecordingSlot(db, RecordingSlot{
			ProfileID: p.ID, SlotIndex: idx, AudioKey: fmt.Sprintf("k%d", idx),
		})
		require.NoError(t, err)
	}

	slots, err := ListRecordingSlots(db, p.ID)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	for i, s := range slots {
		assert.Equal(t, i, s.SlotIndex)
	}
}

func TestProfileOwnerScoping(t *testing.T) {
	db := newTestDB(t)
	p, err := CreateProfile(db, 1, "June", "", "")
	require.NoError(t, err)

	// A different owner reads the same as a missing profile.
	_, err = GetProfile(db, p.ID, 2)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	err = UpdateProfileFields(db, p.ID, 2, map[string]interface{}{"name": "stolen"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	got, err := GetProfile(db, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "June", got.Name)
}

func TestUpdateProfileFieldsClearsHandle(t *testing.T) {
	db := newTestDB(t)
	p, err := CreateProfile(db, 1, "June", "", "")
	require.NoError(t, err)

	require.NoError(t, UpdateProfileFields(db, p.ID, 1, map[string]interface{}{
		"voice_model_status": VoiceStatusReady,
		"voice_handle":       "voice-abc",
	}))
	got, err := GetProfile(db, p.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, got.VoiceHandle)

	// A nil value writes NULL; an absent key leaves the column alone.
	require.NoError(t, UpdateProfileFields(db, p.ID, 1, map[string]interface{}{
		"voice_handle": nil,
	}))
	got, err = GetProfile(db, p.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, got.VoiceHandle)
	assert.Equal(t, VoiceStatusReady, got.VoiceModelStatus)
}

func TestDeleteProfileDetachesMessages(t *testing.T) {
	db := newTestDB(t)
	p, err := CreateProfile(db, 1, "June", "", "")
	require.NoError(t, err)

	msg := &Message{OwnerID: 1, ProfileID: &p.ID, Title: "for later", Text: "hello"}
	require.NoError(t, CreateMessage(db, msg))
	_, err = UpsertRecordingSlot(db, RecordingSlot{ProfileID: p.ID, SlotIndex: 0, AudioKey: "k"})
	require.NoError(t, err)

	require.NoError(t, DeleteProfile(db, p.ID, 1))

	_, err = GetProfile(db, p.ID, 1)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	n, err := CountRecordingSlots(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	kept, err := GetMessage(db, msg.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, kept.ProfileID, "messages survive profile deletion, detached")
}
