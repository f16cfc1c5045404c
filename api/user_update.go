package api

import (
	"net/http"

	"chaton/chat-api/model"
	"chaton/chat-api/pkg/security"
	"chaton/chat-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondUpdatedUser reloads the user and returns the standard
// {status, updatedUser} payload with a fresh token
func (a *API) respondUpdatedUser(c *gin.Context, requestID, userID string) {
	var user model.User
	if err := a.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		a.internalError(c, requestID, "Failed to reload user", err)
		return
	}

	token, err := security.MakeAuthToken(userID)
	if err != nil {
		a.internalError(c, requestID, "Failed to mint session token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      true,
		"updatedUser": publicUser(&user, token),
	})
}

type renameUserBody struct {
	NewUsername string `json:"newUsername"`
}

func (a *API) UserRename(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data renameUserBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if err := validators.UsernameValidator(data.NewUsername); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": err.Error()})
		return
	}

	var taken bool
	r := a.DB.Model(model.User{}).
		Select("count(*) > 0").
		Where("username = ? AND id != ?", data.NewUsername, userID).
		Find(&taken)
	if r.Error != nil {
		a.internalError(c, requestID, "Failed to check username uniqueness", r.Error)
		return
	}

	if taken {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "The username is already used"})
		return
	}

	err := a.DB.Model(model.User{}).
		Where("id = ?", userID).
		Update("username", data.NewUsername).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to rename user", err)
		return
	}

	a.respondUpdatedUser(c, requestID, userID)
}

type emailUpdateBody struct {
	NewEmail string `json:"newEmail"`
}

func (a *API) UserEmailUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data emailUpdateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if err := validators.EmailValidator(data.NewEmail); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": err.Error()})
		return
	}

	var taken bool
	r := a.DB.Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ? AND id != ?", data.NewEmail, userID).
		Find(&taken)
	if r.Error != nil {
		a.internalError(c, requestID, "Failed to check email uniqueness", r.Error)
		return
	}

	if taken {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "The email is already used"})
		return
	}

	err := a.DB.Model(model.User{}).
		Where("id = ?", userID).
		Update("email", data.NewEmail).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to update email", err)
		return
	}

	a.respondUpdatedUser(c, requestID, userID)
}

type passwordUpdateBody struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (a *API) UserPasswordUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data passwordUpdateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if err := validators.PasswordValidator(data.NewPassword); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": err.Error()})
		return
	}

	var user model.User
	if err := a.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		a.internalError(c, requestID, "Failed to load user", err)
		return
	}

	ok, err := a.Argon.VerifyPasswd(data.OldPassword, user.PasswordHash)
	if err != nil {
		a.internalError(c, requestID, "Failed to verify password", err)
		return
	}

	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "Incorrect password"})
		return
	}

	hash, err := a.Argon.GenerateFromPassword(data.NewPassword)
	if err != nil {
		a.internalError(c, requestID, "Failed to hash password", err)
		return
	}

	err = a.DB.Model(model.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to update password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": true})
}

func (a *API) UserProfilePicUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	name, err := a.saveUpload(c, "profilePic")
	if err != nil {
		a.internalError(c, requestID, "Failed to store profile picture", err)
		return
	}
	if name == "" {
		name = "default.svg"
	}

	var old string
	err = a.DB.Model(model.User{}).
		Where("id = ?", userID).
		Select("profile_pic").
		First(&old).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to load user", err)
		return
	}

	err = a.DB.Model(model.User{}).
		Where("id = ?", userID).
		Update("profile_pic", name).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to update profile picture", err)
		return
	}

	if old != "" && old != "default.svg" && old != name {
		if err := a.Store.Delete(c.Request.Context(), old); err != nil {
			zap.L().Warn("Failed to delete old profile picture", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	a.respondUpdatedUser(c, requestID, userID)
}

func (a *API) UserBannerUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	name, err := a.saveUpload(c, "bannerPic")
	if err != nil {
		a.internalError(c, requestID, "Failed to store banner picture", err)
		return
	}

	updates := map[string]any{}
	if name != "" {
		updates["banner_pic"] = name
	}

	// A color choice wins over a picture and clears it
	if color := c.PostForm("bannerColor"); color != "" {
		updates["banner_color"] = color
		updates["banner_pic"] = ""
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "Nothing to update"})
		return
	}

	err = a.DB.Model(model.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to update banner", err)
		return
	}

	a.respondUpdatedUser(c, requestID, userID)
}
