package voice

import (
	"context"
	"fmt"
	"io"

	"EchoLegacy/internal/models"
	"EchoLegacy/pkg/metrics"
	stores "EchoLegacy/pkg/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// action is the side effect the lifecycle rule asks for alongside a target
// status.
type action int

const (
	actionNone action = iota
	actionRelease
	actionCreate
)

// decide recomputes the voice model state from the current filled-slot count
// and handle presence. Pure; all side effects live in the controller.
//
//	count == 0            → not_submitted, release any handle
//	0 < count < SlotCount → training, release any handle
//	count >= SlotCount    → ready if a handle exists, else create one
func decide(count int, handlePresent bool) (string, action) {
	switch {
	case count == 0:
		if handlePresent {
			return models.VoiceStatusNotSubmitted, actionRelease
		}
		return models.VoiceStatusNotSubmitted, actionNone
	case count < models.SlotCount:
		if handlePresent {
			return models.VoiceStatusTraining, actionRelease
		}
		return models.VoiceStatusTraining, actionNone
	default:
		if handlePresent {
			return models.VoiceStatusReady, actionNone
		}
		return models.VoiceStatusReady, actionCreate
	}
}

// Controller drives Profile.VoiceModelStatus and Profile.VoiceHandle from
// slot changes. Decisions are serialized per profile.
type Controller struct {
	db    *gorm.DB
	gw    Gateway
	store stores.Store
	log   *zap.Logger
	locks *profileLocks
}

func NewController(db *gorm.DB, gw Gateway, store stores.Store, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{db: db, gw: gw, store: store, log: log, locks: newProfileLocks()}
}

// OnSlotsChanged recomputes the profile's voice status after a slot upload or
// deletion and returns the resulting status. Provider creation failure never
// fails the triggering action: the status simply stays at training.
func (ctl *Controller) OnSlotsChanged(ctx context.Context, profileID string, ownerID uint) (string, error) {
	unlock := ctl.locks.lock(profileID)
	defer unlock()

	profile, err := models.GetProfile(ctl.db, profileID, ownerID)
	if err != nil {
		return "", err
	}
	count, err := models.CountRecordingSlots(ctl.db, profileID)
	if err != nil {
		return "", err
	}

	target, act := decide(count, profile.VoiceHandle != nil)

	switch act {
	case actionRelease:
		ctl.releaseHandle(ctx, *profile.VoiceHandle)
		if err := models.UpdateProfileFields(ctl.db, profileID, ownerID, map[string]interface{}{
			"voice_model_status": target,
			"voice_handle":       nil,
		}); err != nil {
			return "", err
		}

	case actionCreate:
		handle, err := ctl.createVoice(ctx, profile)
		if err != nil {
			// Upload still succeeds; the model just is not ready yet.
			ctl.log.Warn("voice creation failed, staying in training",
				zap.String("profile", profileID), zap.Error(err))
			target = models.VoiceStatusTraining
			if profile.VoiceModelStatus != target {
				if err := models.UpdateProfileFields(ctl.db, profileID, ownerID, map[string]interface{}{
					"voice_model_status": target,
				}); err != nil {
					return "", err
				}
			}
			break
		}
		if err := models.UpdateProfileFields(ctl.db, profileID, ownerID, map[string]interface{}{
			"voice_model_status": target,
			"voice_handle":       handle,
		}); err != nil {
			// The remote voice exists but the reference was lost; queue it
			// for the sweep rather than leak it.
			ctl.log.Error("persisting voice handle failed", zap.String("profile", profileID), zap.Error(err))
			if recErr := models.RecordOrphanVoice(ctl.db, handle, err.Error()); recErr != nil {
				ctl.log.Error("recording orphan voice failed", zap.Error(recErr))
			}
			return "", err
		}

	default:
		if profile.VoiceModelStatus != target {
			if err := models.UpdateProfileFields(ctl.db, profileID, ownerID, map[string]interface{}{
				"voice_model_status": target,
			}); err != nil {
				return "", err
			}
		}
	}

	if profile.VoiceModelStatus != target {
		metrics.ObserveStatusTransition(target)
	}
	return target, nil
}

// OnProfileDeleted releases the remote voice model before the profile row
// goes away. Best effort: remote failure never blocks profile deletion.
func (ctl *Controller) OnProfileDeleted(ctx context.Context, profile *models.Profile) {
	if profile.VoiceHandle == nil {
		return
	}
	unlock := ctl.locks.lock(profile.ID)
	defer unlock()
	ctl.releaseHandle(ctx, *profile.VoiceHandle)
}

// createVoice assembles the ordered training samples from storage and asks
// the provider for a voice.
func (ctl *Controller) createVoice(ctx context.Context, profile *models.Profile) (string, error) {
	slots, err := models.ListRecordingSlots(ctl.db, profile.ID)
	if err != nil {
		return "", err
	}
	samples := make([]Sample, 0, len(slots))
	for _, slot := range slots {
		data, err := ctl.readAudio(ctx, slot.AudioKey)
		if err != nil {
			return "", providerErr(err, fmt.Sprintf("read sample for slot %d", slot.SlotIndex))
		}
		samples = append(samples, Sample{
			Name: fmt.Sprintf("sample_%02d.%s", slot.SlotIndex, slot.Format),
			Data: data,
		})
	}
	return ctl.gw.CreateVoice(ctx, profile.Name, samples)
}

func (ctl *Controller) readAudio(ctx context.Context, key string) ([]byte, error) {
	rc, _, err := ctl.store.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// releaseHandle deletes the remote voice, swallowing failure. A failed
// deletion is queued as an orphan for the cron sweep.
func (ctl *Controller) releaseHandle(ctx context.Context, handle string) {
	if err := ctl.gw.DeleteVoice(ctx, handle); err != nil {
		ctl.log.Warn("remote voice deletion failed, queueing for sweep",
			zap.String("handle", handle), zap.Error(err))
		if recErr := models.RecordOrphanVoice(ctl.db, handle, err.Error()); recErr != nil {
			ctl.log.Error("recording orphan voice failed", zap.Error(recErr))
		}
	}
}

// SweepOrphans retries deletion of remote voices whose first deletion failed.
// Run from the cron scheduler.
func (ctl *Controller) SweepOrphans(ctx context.Context) {
	orphans, err := models.ListOrphanVoices(ctl.db, 50)
	if err != nil {
		ctl.log.Error("listing orphan voices failed", zap.Error(err))
		return
	}
	for _, o := range orphans {
		if err := ctl.gw.DeleteVoice(ctx, o.Handle); err != nil {
			if markErr := models.MarkOrphanVoiceAttempt(ctl.db, o.ID, err.Error()); markErr != nil {
				ctl.log.Error("marking orphan attempt failed", zap.Error(markErr))
			}
			continue
		}
		if err := models.ResolveOrphanVoice(ctl.db, o.ID); err != nil {
			ctl.log.Error("resolving orphan voice failed", zap.Error(err))
		}
	}
}
