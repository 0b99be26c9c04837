package handlers

import (
	"EchoLegacy/internal/models"
	"EchoLegacy/pkg/middleware"
	"EchoLegacy/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handlers) ListProfiles(c *gin.Context) {
	profiles, err := models.ListProfiles(h.db, middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, "profiles", profiles)
}

func (h *Handlers) CreateProfile(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,max=255"`
		Relation string `json:"relation" binding:"max=128"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}
	profile, err := models.CreateProfile(h.db, middleware.UserID(c), req.Name, req.Relation, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, "profile created", profile)
}

func (h *Handlers) GetProfile(c *gin.Context) {
	profile, err := models.GetProfile(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, "profile", profile)
}

func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req struct {
		Name     *string `json:"name"`
		Relation *string `json:"relation"`
		Notes    *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}

	// Only descriptive fields are writable here; voice status and handle
	// belong to the lifecycle controller.
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Relation != nil {
		fields["relation"] = *req.Relation
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if len(fields) == 0 {
		response.Fail(c, "no fields to update", nil)
		return
	}

	ownerID := middleware.UserID(c)
	if err := models.UpdateProfileFields(h.db, c.Param("id"), ownerID, fields); err != nil {
		h.respondError(c, err)
		return
	}
	profile, err := models.GetProfile(h.db, c.Param("id"), ownerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, "profile updated", profile)
}

// DeleteProfile releases the remote voice model first, then removes local
// rows. Remote failure is absorbed; the deletion always proceeds.
func (h *Handlers) DeleteProfile(c *gin.Context) {
	ownerID := middleware.UserID(c)
	profile, err := models.GetProfile(h.db, c.Param("id"), ownerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	slots, err := models.ListRecordingSlots(h.db, profile.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.lifecycle.OnProfileDeleted(c.Request.Context(), profile)

	if err := models.DeleteProfile(h.db, profile.ID, ownerID); err != nil {
		h.respondError(c, err)
		return
	}

	for _, slot := range slots {
		if err := h.store.Delete(c.Request.Context(), slot.AudioKey); err != nil {
			h.log.Warn("deleting slot audio failed",
				zap.String("key", slot.AudioKey), zap.Error(err))
		}
	}
	response.Success(c, "profile deleted", nil)
}
