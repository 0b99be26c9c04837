package models

import (
	"time"

	apperrors "EchoLegacy/pkg/errors"
	"EchoLegacy/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"size:64;uniqueIndex;not null"`
	Email        string `json:"email" gorm:"size:255;uniqueIndex"`
	DisplayName  string `json:"displayName" gorm:"size:128"`
	PasswordHash string `json:"-" gorm:"size:128;not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

func CreateUser(db *gorm.DB, username, email, password string) (*User, error) {
	u := &User{Username: username, Email: email, DisplayName: username}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func GetUserByUsername(db *gorm.DB, username string) (*User, error) {
	var u User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.WithCode(apperrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return &u, nil
}

// CurrentUser loads the session user; nil when the request is anonymous.
func CurrentUser(c *gin.Context, db *gorm.DB) *User {
	uid := middleware.UserID(c)
	if uid == 0 {
		return nil
	}
	var u User
	if err := db.First(&u, uid).Error; err != nil {
		return nil
	}
	return &u
}
