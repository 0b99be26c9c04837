package voice

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"EchoLegacy/internal/models"
	stores "EchoLegacy/pkg/storage"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	mu          sync.Mutex
	createCalls int
	deleteCalls int
	synthCalls  int
	failCreate  bool
	failDelete  bool
	failSynth   bool
	lastSamples []Sample
	handles     []string
}

func (f *fakeGateway) CreateVoice(_ context.Context, name string, samples []Sample) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreate {
		return "", fmt.Errorf("provider unavailable")
	}
	f.lastSamples = samples
	h := fmt.Sprintf("voice-%d", f.createCalls)
	f.handles = append(f.handles, h)
	return h, nil
}

func (f *fakeGateway) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthCalls++
	if f.failSynth {
		return nil, fmt.Errorf("provider unavailable")
	}
	return []byte("audio:" + text), nil
}

func (f *fakeGateway) DeleteVoice(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.failDelete {
		return fmt.Errorf("provider unavailable")
	}
	return nil
}

func (f *fakeGateway) counts() (create, del, synth int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls, f.deleteCalls, f.synthCalls
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	// One connection keeps the in-memory database shared and serializes
	// concurrent writers the way a real database's row locks would.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))
	return db
}

func newTestController(t *testing.T, db *gorm.DB) (*Controller, *fakeGateway, stores.Store) {
	t.Helper()
	store, err := stores.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	gw := &fakeGateway{}
	return NewController(db, gw, store, nil), gw, store
}

func newTestProfile(t *testing.T, db *gorm.DB) *models.Profile {
	t.Helper()
	p, err := models.CreateProfile(db, 1, "Grandma June", "grandmother", "")
	require.NoError(t, err)
	return p
}

func fillSlot(t *testing.T, db *gorm.DB, store stores.Store, profileID string, idx int) {
	t.Helper()
	key := fmt.Sprintf("recordings/%s/%d.wav", profileID, idx)
	data := []byte(fmt.Sprintf("pcm-%d", idx))
	require.NoError(t, store.Write(context.Background(), key, bytes.NewReader(data), int64(len(data)), "audio/wav"))
	_, err := models.UpsertRecordingSlot(db, models.RecordingSlot{
		ProfileID: profileID,
		SlotIndex: idx,
		AudioKey:  key,
		Format:    "wav",
		SizeBytes: int64(len(data)),
	})
	require.NoError(t, err)
}

func TestDecide(t *testing.T) {
	cases := []struct {
		count  int
		handle bool
		status string
		act    action
	}{
		{0, false, models.VoiceStatusNotSubmitted, actionNone},
		{0, true, models.VoiceStatusNotSubmitted, actionRelease},
		{1, false, models.VoiceStatusTraining, actionNone},
		{2, true, models.VoiceStatusTraining, actionRelease},
		{3, false, models.VoiceStatusReady, actionCreate},
		{3, true, models.VoiceStatusReady, actionNone},
	}
	for _, tc := range cases {
		status, act := decide(tc.count, tc.handle)
		assert.Equal(t, tc.status, status, "count=%d handle=%v", tc.count, tc.handle)
		assert.Equal(t, tc.act, act, "count=%d handle=%v", tc.count, tc.handle)
	}
}

func TestFillingAllSlotsCreatesVoiceOnce(t *testing.T) {
	db := newTestDB(t)
	ctl, gw, store := newTestController(t, db)
	p := newTestProfile(t, db)

	// Out of order on purpose; submission order must still be by slot index.
	for _, idx := range []int{2, 0, 1} {
		fillSlot(t, db, store, p.ID, idx)
		status, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
		require.NoError(t, err)
		if idx != 1 {
			assert.Equal(t, models.VoiceStatusTraining, status)
		} else {
			assert.Equal(t, models.VoiceStatusReady, status)
		}
	}

	creates, deletes, _ := gw.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 0, deletes)

	require.Len(t, gw.lastSamples, 3)
	for i, s := range gw.lastSamples {
		assert.Equal(t, fmt.Sprintf("sample_%02d.wav", i), s.Name)
		assert.Equal(t, []byte(fmt.Sprintf("pcm-%d", i)), s.Data)
	}

	got, err := models.GetProfile(db, p.ID, p.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.VoiceStatusReady, got.VoiceModelStatus)
	require.NotNil(t, got.VoiceHandle)
}

func TestOnSlotsChangedIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctl, gw, store := newTestController(t, db)
	p := newTestProfile(t, db)

	for idx := 0; idx < models.SlotCount; idx++ {
		fillSlot(t, db, store, p.ID, idx)
	}
	first, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)
	second, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	creates, deletes, _ := gw.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 0, deletes)
}

func TestRemovingSlotWhenReadyReleasesHandle(t *testing.T) {
	db := newTestDB(t)
	ctl, gw, store := newTestController(t, db)
	p := newTestProfile(t, db)

	for idx := 0; idx < models.SlotCount; idx++ {
		fillSlot(t, db, store, p.ID, idx)
	}
	_, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)

	removed, err := models.RemoveRecordingSlot(db, p.ID, 1)
	require.NoError(t, err)
	require.True(t, removed)

	status, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.VoiceStatusTraining, status)

	_, deletes, _ := gw.counts()
	assert.Equal(t, 1, deletes)

	got, err := models.GetProfile(db, p.ID, p.OwnerID)
	require.NoError(t, err)
	assert.Nil(t, got.VoiceHandle)
}

func TestRemovingLastSlotResetsStatus(t *testing.T) {
	db := newTestDB(t)
	ctl, gw, store := newTestController(t, db)
	p := newTestProfile(t, db)

	fillSlot(t, db, store, p.ID, 0)
	status, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.VoiceStatusTraining, status)

	_, err = models.RemoveRecordingSlot(db, p.ID, 0)
	require.NoError(t, err)
	status, err = ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.VoiceStatusNotSubmitted, status)

	// No handle ever existed, so nothing to release.
	_, deletes, _ := gw.counts()
	assert.Equal(t, 0, deletes)
}

func TestCreateFailureStaysTraining(t *testing.T) {
	db := newTestDB(t)
	ctl, gw, store := newTestController(t, db)
	gw.failCreate = true
	p := newTestProfile(t, db)

	for idx := 0; idx < models.SlotCount; idx++ {
		fillSlot(t, db, store, p.ID, idx)
	}
	status, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err, "provider failure must not fail the user action")
	assert.Equal(t, models.VoiceStatusTraining, status)

	got, err := models.GetProfile(db, p.ID, p.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.VoiceStatusTraining, got.VoiceModelStatus)
	assert.Nil(t, got.VoiceHandle)

	// Once the provider recovers the next recompute promotes.
	gw.failCreate = false
	status, err = ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.VoiceStatusReady, status)
}

func TestDemotionSurvivesDeleteFailure(t *testing.T) {
	db := newTestDB(t)
	ctl, gw, store := newTestController(t, db)
	p := newTestProfile(t, db)

	for idx := 0; idx < models.SlotCount; idx++ {
		fillSlot(t, db, store, p.ID, idx)
	}
	_, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)
	got, err := models.GetProfile(db, p.ID, p.OwnerID)
	require.NoError(t, err)
	handle := *got.VoiceHandle

	gw.failDelete = true
	_, err = models.RemoveRecordingSlot(db, p.ID, 2)
	require.NoError(t, err)
	status, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err, "remote cleanup failure must not fail the user action")
	assert.Equal(t, models.VoiceStatusTraining, status)

	got, err = models.GetProfile(db, p.ID, p.OwnerID)
	require.NoError(t, err)
	assert.Nil(t, got.VoiceHandle, "local reference cleared even when remote delete fails")

	orphans, err := models.ListOrphanVoices(db, 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, handle, orphans[0].Handle)

	// The sweep retries once the provider recovers.
	gw.failDelete = false
	ctl.SweepOrphans(context.Background())
	orphans, err = models.ListOrphanVoices(db, 10)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestOnProfileDeletedReleasesHandle(t *testing.T) {
	db := newTestDB(t)
	ctl, gw, store := newTestController(t, db)
	p := newTestProfile(t, db)

	for idx := 0; idx < models.SlotCount; idx++ {
		fillSlot(t, db, store, p.ID, idx)
	}
	_, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)

	got, err := models.GetProfile(db, p.ID, p.OwnerID)
	require.NoError(t, err)
	ctl.OnProfileDeleted(context.Background(), got)

	_, deletes, _ := gw.counts()
	assert.Equal(t, 1, deletes)
}

func TestConcurrentFillsCreateOneVoice(t *testing.T) {
	db := newTestDB(t)
	ctl, gw, store := newTestController(t, db)
	p := newTestProfile(t, db)

	fillSlot(t, db, store, p.ID, 0)
	_, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
	require.NoError(t, err)

	// The last two slots land at the same time.
	var wg sync.WaitGroup
	for _, idx := range []int{1, 2} {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			fillSlot(t, db, store, p.ID, idx)
			_, err := ctl.OnSlotsChanged(context.Background(), p.ID, p.OwnerID)
			assert.NoError(t, err)
		}(idx)
	}
	wg.Wait()

	creates, _, _ := gw.counts()
	assert.Equal(t, 1, creates, "concurrent uploads must not double-create the voice")

	got, err := models.GetProfile(db, p.ID, p.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.VoiceStatusReady, got.VoiceModelStatus)
	require.NotNil(t, got.VoiceHandle)
}
