package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"EchoLegacy/internal/models"
	apperrors "EchoLegacy/pkg/errors"
	"EchoLegacy/pkg/middleware"
	"EchoLegacy/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 25 MB is generous for a one-minute voice sample.
const maxRecordingBytes = 25 << 20

func (h *Handlers) ListPrompts(c *gin.Context) {
	prompts, err := models.ListRecordingPrompts(h.db)
	if err != nil {
		response.Fail(c, "can not find recording prompt records", nil)
		return
	}
	response.Success(c, "recording prompts", prompts)
}

// ListRecordings returns the filled slots plus the current voice status so
// the client can render the whole training panel from one call.
func (h *Handlers) ListRecordings(c *gin.Context) {
	profile, err := models.GetProfile(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	slots, err := models.ListRecordingSlots(h.db, profile.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, "recordings", gin.H{
		"slots":       slots,
		"slotCount":   models.SlotCount,
		"voiceStatus": profile.VoiceModelStatus,
	})
}

// UploadRecording upserts a training slot from a multipart upload, then lets
// the lifecycle controller recompute the voice status.
func (h *Handlers) UploadRecording(c *gin.Context) {
	ownerID := middleware.UserID(c)
	profile, err := models.GetProfile(h.db, c.Param("id"), ownerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	slotIndex, err := strconv.Atoi(c.Param("slot"))
	if err != nil || !models.ValidSlotIndex(slotIndex) {
		h.respondError(c, apperrors.WithCodef(apperrors.CodeInvalidSlotIndex,
			"slot index %q outside [0, %d)", c.Param("slot"), models.SlotCount))
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		response.Fail(c, "audio file is required", nil)
		return
	}
	if file.Size > maxRecordingBytes {
		response.Fail(c, "audio file too large", nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		h.respondError(c, err)
		return
	}

	format := strings.TrimPrefix(filepath.Ext(file.Filename), ".")
	if format == "" {
		format = "wav"
	}
	sum := sha256.Sum256(data)

	// Fresh key per upload; the previous object is removed after the row
	// points at the new one.
	key := fmt.Sprintf("recordings/%s/%d-%s.%s", profile.ID, slotIndex, uuid.NewString(), format)
	if err := h.store.Write(c.Request.Context(), key, bytes.NewReader(data), int64(len(data)), "audio/"+format); err != nil {
		h.respondError(c, err)
		return
	}

	previous, _ := models.GetRecordingSlot(h.db, profile.ID, slotIndex)

	slot, err := models.UpsertRecordingSlot(h.db, models.RecordingSlot{
		ProfileID:  profile.ID,
		SlotIndex:  slotIndex,
		PromptText: models.PromptForSlot(h.db, slotIndex),
		AudioKey:   key,
		Format:     format,
		SizeBytes:  int64(len(data)),
		Checksum:   hex.EncodeToString(sum[:]),
		Quality:    c.PostForm("quality"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if previous != nil && previous.AudioKey != key {
		if err := h.store.Delete(c.Request.Context(), previous.AudioKey); err != nil {
			h.log.Warn("deleting replaced slot audio failed",
				zap.String("key", previous.AudioKey), zap.Error(err))
		}
	}

	status, err := h.lifecycle.OnSlotsChanged(c.Request.Context(), profile.ID, ownerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, "recording saved", gin.H{
		"slot":        slot,
		"voiceStatus": status,
	})
}

// DeleteRecording clears a slot and recomputes the voice status. Missing
// slots are not an error: removed=false tells the client.
func (h *Handlers) DeleteRecording(c *gin.Context) {
	ownerID := middleware.UserID(c)
	profile, err := models.GetProfile(h.db, c.Param("id"), ownerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	slotIndex, err := strconv.Atoi(c.Param("slot"))
	if err != nil || !models.ValidSlotIndex(slotIndex) {
		h.respondError(c, apperrors.WithCodef(apperrors.CodeInvalidSlotIndex,
			"slot index %q outside [0, %d)", c.Param("slot"), models.SlotCount))
		return
	}

	previous, _ := models.GetRecordingSlot(h.db, profile.ID, slotIndex)

	removed, err := models.RemoveRecordingSlot(h.db, profile.ID, slotIndex)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if removed && previous != nil {
		if err := h.store.Delete(c.Request.Context(), previous.AudioKey); err != nil {
			h.log.Warn("deleting slot audio failed",
				zap.String("key", previous.AudioKey), zap.Error(err))
		}
	}

	status, err := h.lifecycle.OnSlotsChanged(c.Request.Context(), profile.ID, ownerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, "recording removed", gin.H{
		"removed":     removed,
		"voiceStatus": status,
	})
}

func (h *Handlers) RecordingAudio(c *gin.Context) {
	profile, err := models.GetProfile(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	slotIndex, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		h.respondError(c, apperrors.WithCode(apperrors.CodeInvalidSlotIndex, "bad slot index"))
		return
	}
	slot, err := models.GetRecordingSlot(h.db, profile.ID, slotIndex)
	if err != nil {
		h.respondError(c, err)
		return
	}
	rc, size, err := h.store.Read(c.Request.Context(), slot.AudioKey)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, size, "audio/"+slot.Format, rc, nil)
}
