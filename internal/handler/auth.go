package handlers

import (
	"net/http"

	"EchoLegacy/internal/models"
	"EchoLegacy/pkg/middleware"
	"EchoLegacy/pkg/response"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func (h *Handlers) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Email    string `json:"email" binding:"omitempty,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}
	user, err := models.CreateUser(h.db, req.Username, req.Email, req.Password)
	if err != nil {
		response.Fail(c, "could not create account", nil)
		return
	}

	sess := sessions.Default(c)
	sess.Set(middleware.SessionUserKey, user.ID)
	if err := sess.Save(); err != nil {
		response.Fail(c, "could not start session", nil)
		return
	}
	response.Created(c, "registered", user)
}

func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", gin.H{"error": err.Error()})
		return
	}
	user, err := models.GetUserByUsername(h.db, req.Username)
	if err != nil || !user.CheckPassword(req.Password) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	sess := sessions.Default(c)
	sess.Set(middleware.SessionUserKey, user.ID)
	if err := sess.Save(); err != nil {
		response.Fail(c, "could not start session", nil)
		return
	}
	response.Success(c, "logged in", user)
}

func (h *Handlers) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	response.Success(c, "logged out", nil)
}
