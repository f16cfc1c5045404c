package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"chaton/chat-api/model"
	"chaton/chat-api/pkg/security"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newID generates a 16-char record ID
func newID() (string, error) {
	return gonanoid.Generate(idCharset, 16)
}

// publicUser is the shape of a user handed to clients. The password
// hash and OTP fields never leave the server
func publicUser(u *model.User, token string) gin.H {
	return gin.H{
		"_id":         u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"gender":      u.Gender,
		"profilePic":  u.ProfilePic,
		"bannerPic":   u.BannerPic,
		"bannerColor": u.BannerColor,
		"isAdmin":     u.IsAdmin,
		"token":       token,
	}
}

// saveUpload stores an optional multipart file and returns the stored
// object name. Returns "" when the field wasn't sent at all
func (a *API) saveUpload(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}

		return "", err
	}

	id, err := newID()
	if err != nil {
		return "", err
	}

	name := id + filepath.Ext(fh.Filename)

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := a.Store.Save(c.Request.Context(), name, f, fh.Header.Get("Content-Type")); err != nil {
		return "", err
	}

	return name, nil
}

// issueOTP overwrites the user's pending code with a fresh one and
// returns it for delivery. Any previous code stops verifying
func (a *API) issueOTP(userID string) (code string, err error) {
	code, expiresAt, err := security.GenerateOTP()
	if err != nil {
		return "", err
	}

	err = a.DB.Model(model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"otp":            code,
			"otp_expires_at": expiresAt,
		}).Error
	if err != nil {
		return "", err
	}

	return code, nil
}

// loadChatForMember fetches a chat and checks that userID belongs to
// it. Returns gorm.ErrRecordNotFound for both a missing chat and a
// non-member so callers can't probe foreign chats
func (a *API) loadChatForMember(chatID, userID string) (*model.Chat, error) {
	var chat model.Chat

	err := a.DB.
		Joins("JOIN chat_members cm ON cm.chat_id = chats.id AND cm.user_id = ?", userID).
		Where("chats.id = ?", chatID).
		Preload("Members").
		First(&chat).Error
	if err != nil {
		return nil, err
	}

	return &chat, nil
}

// touchChat bumps a chat's updated_at so fetchChats sorts it up
func (a *API) touchChat(tx *gorm.DB, chatID string) error {
	return tx.Model(model.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", time.Now()).Error
}
