package api

import (
	"net/http"

	"chaton/chat-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserDelete removes the caller's account. Group chats they own and
// every 1:1 chat they are part of go away with their messages; from
// remaining group chats the caller is just pulled out
func (a *API) UserDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var user model.User
	if err := a.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		a.internalError(c, requestID, "Failed to load user", err)
		return
	}

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var memberOf []string
		err := tx.Table("chat_members").
			Where("user_id = ?", userID).
			Pluck("chat_id", &memberOf).Error
		if err != nil {
			return err
		}

		// Chats that die with the account: every 1:1 chat and the
		// groups the user administers
		var doomed []string
		err = tx.Model(model.Chat{}).
			Where("id IN ? AND (is_group_chat = ? OR group_admin_id = ?)", memberOf, false, userID).
			Pluck("id", &doomed).Error
		if err != nil {
			return err
		}

		if len(doomed) > 0 {
			// Clear latest-message references before deleting the messages
			err = tx.Model(model.Chat{}).
				Where("id IN ?", doomed).
				Update("latest_message_id", nil).Error
			if err != nil {
				return err
			}

			if err := tx.Where("chat_id IN ?", doomed).Delete(model.Message{}).Error; err != nil {
				return err
			}

			if err := tx.Exec("DELETE FROM chat_members WHERE chat_id IN ?", doomed).Error; err != nil {
				return err
			}

			if err := tx.Where("id IN ?", doomed).Delete(model.Chat{}).Error; err != nil {
				return err
			}
		}

		// Leave the remaining group chats
		if err := tx.Exec("DELETE FROM chat_members WHERE user_id = ?", userID).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(model.ResendRequest{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", userID).Delete(model.User{}).Error
	})
	if err != nil {
		a.internalError(c, requestID, "Failed to delete account", err)
		return
	}

	if user.ProfilePic != "" && user.ProfilePic != "default.svg" {
		if err := a.Store.Delete(c.Request.Context(), user.ProfilePic); err != nil {
			zap.L().Warn("Failed to delete profile picture", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	zap.L().Info("Account deleted", zap.String("userID", userID), zap.String("requestID", requestID))

	c.JSON(http.StatusOK, gin.H{"status": true})
}
