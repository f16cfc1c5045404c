package api

import (
	"net/http"

	"chaton/chat-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type chatIDBody struct {
	ChatID string `json:"chatId"`
}

// ChatDelete removes a chat with all its messages. For group chats
// only the admin may do this, 1:1 chats can be deleted by either side
func (a *API) ChatDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data chatIDBody
	if err := c.ShouldBindJSON(&data); err != nil || data.ChatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No chat ID provided",
			"requestID": requestID,
		})
		return
	}

	chat, err := a.loadChatForMember(data.ChatID, userID)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Chat not found",
				"requestID": requestID,
			})
			return
		}

		a.internalError(c, requestID, "Failed to load chat", err)
		return
	}

	if chat.IsGroupChat && chat.GroupAdminID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Only the group admin can delete a group chat",
			"requestID": requestID,
		})
		return
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(model.Chat{}).
			Where("id = ?", chat.ID).
			Update("latest_message_id", nil).Error
		if err != nil {
			return err
		}

		if err := tx.Where("chat_id = ?", chat.ID).Delete(model.Message{}).Error; err != nil {
			return err
		}

		if err := tx.Exec("DELETE FROM chat_members WHERE chat_id = ?", chat.ID).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", chat.ID).Delete(model.Chat{}).Error
	})
	if err != nil {
		a.internalError(c, requestID, "Failed to delete chat", err)
		return
	}

	if chat.IsGroupChat && chat.GroupPic != "" && chat.GroupPic != "default-group.svg" {
		if err := a.Store.Delete(c.Request.Context(), chat.GroupPic); err != nil {
			zap.L().Warn("Failed to delete group picture", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": true})
}

// ChatBlock toggles the caller's block on a conversation. While any
// member blocks a chat no new messages can be sent to it
func (a *API) ChatBlock(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data chatIDBody
	if err := c.ShouldBindJSON(&data); err != nil || data.ChatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No chat ID provided",
			"requestID": requestID,
		})
		return
	}

	chat, err := a.loadChatForMember(data.ChatID, userID)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Chat not found",
				"requestID": requestID,
			})
			return
		}

		a.internalError(c, requestID, "Failed to load chat", err)
		return
	}

	if chat.BlockedBy.Contains(userID) {
		chat.BlockedBy = chat.BlockedBy.Without(userID)
	} else {
		chat.BlockedBy = append(chat.BlockedBy, userID)
	}

	err = a.DB.Model(model.Chat{}).
		Where("id = ?", chat.ID).
		Update("blocked_by", chat.BlockedBy).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to update block list", err)
		return
	}

	a.respondChat(c, requestID, chat.ID)
}

type wallpaperBody struct {
	ChatID    string `json:"chatId"`
	Wallpaper string `json:"wallpaper"`
}

// ChatWallpaperUpdate sets the caller's personal wallpaper for a chat.
// An empty value resets it to the default
func (a *API) ChatWallpaperUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data wallpaperBody
	if err := c.ShouldBindJSON(&data); err != nil || data.ChatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No chat ID provided",
			"requestID": requestID,
		})
		return
	}

	chat, err := a.loadChatForMember(data.ChatID, userID)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Chat not found",
				"requestID": requestID,
			})
			return
		}

		a.internalError(c, requestID, "Failed to load chat", err)
		return
	}

	if chat.Wallpapers == nil {
		chat.Wallpapers = model.StringMap{}
	}

	if data.Wallpaper == "" {
		delete(chat.Wallpapers, userID)
	} else {
		chat.Wallpapers[userID] = data.Wallpaper
	}

	err = a.DB.Model(model.Chat{}).
		Where("id = ?", chat.ID).
		Update("wallpapers", chat.Wallpapers).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to update wallpaper", err)
		return
	}

	a.respondChat(c, requestID, chat.ID)
}

type nicknameBody struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

// ChatNicknameUpdate sets a member's nickname inside a chat. An empty
// value removes it
func (a *API) ChatNicknameUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data nicknameBody
	if err := c.ShouldBindJSON(&data); err != nil || data.ChatID == "" || data.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	chat, err := a.loadChatForMember(data.ChatID, userID)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Chat not found",
				"requestID": requestID,
			})
			return
		}

		a.internalError(c, requestID, "Failed to load chat", err)
		return
	}

	var isMember bool
	for _, m := range chat.Members {
		if m.ID == data.UserID {
			isMember = true
			break
		}
	}

	if !isMember {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "User is not a member of this chat",
			"requestID": requestID,
		})
		return
	}

	if chat.Nicknames == nil {
		chat.Nicknames = model.StringMap{}
	}

	if data.Nickname == "" {
		delete(chat.Nicknames, data.UserID)
	} else {
		chat.Nicknames[data.UserID] = data.Nickname
	}

	err = a.DB.Model(model.Chat{}).
		Where("id = ?", chat.ID).
		Update("nicknames", chat.Nicknames).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to update nickname", err)
		return
	}

	a.respondChat(c, requestID, chat.ID)
}
