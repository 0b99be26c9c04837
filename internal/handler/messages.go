package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"EchoLegacy/internal/models"
	"EchoLegacy/pkg/middleware"
	"EchoLegacy/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateMessage synthesizes text in the profile's cloned voice and persists
// the result. Synthesis failure is surfaced, not absorbed: this is the
// user's explicit action.
func (h *Handlers) CreateMessage(c *gin.Context) {
	var req struct {
		ProfileID string `json:"profileId" binding:"required"`
		Title     string `json:"title" binding:"max=255"`
		Category  string `json:"category" binding:"max=64"`
		Text      string `json:"text"`
		IsPrivate bool   `json:"isPrivate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	ownerID := middleware.UserID(c)
	profile, err := models.GetProfile(h.db, req.ProfileID, ownerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	audio, duration, err := h.synth.Synthesize(c.Request.Context(), profile, req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}

	key := fmt.Sprintf("messages/%s/%s.mp3", profile.ID, uuid.NewString())
	if err := h.store.Write(c.Request.Context(), key, bytes.NewReader(audio), int64(len(audio)), "audio/mpeg"); err != nil {
		h.respondError(c, err)
		return
	}

	msg := &models.Message{
		OwnerID:         ownerID,
		ProfileID:       &profile.ID,
		Title:           req.Title,
		Category:        req.Category,
		Text:            req.Text,
		AudioKey:        key,
		DurationSeconds: duration,
		IsPrivate:       req.IsPrivate,
	}
	if err := models.CreateMessage(h.db, msg); err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, "message created", msg)
}

func (h *Handlers) ListMessages(c *gin.Context) {
	msgs, err := models.ListMessages(h.db, middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, "messages", msgs)
}

func (h *Handlers) GetMessage(c *gin.Context) {
	msg, err := models.GetMessage(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, "message", msg)
}

func (h *Handlers) MessageAudio(c *gin.Context) {
	msg, err := models.GetMessage(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	rc, size, err := h.store.Read(c.Request.Context(), msg.AudioKey)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, size, "audio/mpeg", rc, nil)
}

func (h *Handlers) DeleteMessage(c *gin.Context) {
	msg, err := models.GetMessage(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	removed, err := models.DeleteMessage(h.db, msg.ID, middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if removed {
		_ = h.store.Delete(c.Request.Context(), msg.AudioKey)
	}
	response.Success(c, "message deleted", gin.H{"removed": removed})
}
