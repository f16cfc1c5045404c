package api

import (
	"net/http"

	"chaton/chat-api/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type accessChatBody struct {
	UserID string `json:"userId"`
}

// ChatAccess finds the 1:1 chat between the caller and another user,
// creating it if it doesn't exist yet
func (a *API) ChatAccess(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data accessChatBody
	if err := c.ShouldBindJSON(&data); err != nil || data.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No user ID provided",
			"requestID": requestID,
		})
		return
	}

	if data.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Can't open a chat with yourself",
			"requestID": requestID,
		})
		return
	}

	var other model.User
	if err := a.DB.Where("id = ?", data.UserID).First(&other).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		a.internalError(c, requestID, "Failed to load user", err)
		return
	}

	var chat model.Chat
	err := a.DB.
		Joins("JOIN chat_members cm1 ON cm1.chat_id = chats.id AND cm1.user_id = ?", userID).
		Joins("JOIN chat_members cm2 ON cm2.chat_id = chats.id AND cm2.user_id = ?", data.UserID).
		Where("chats.is_group_chat = ?", false).
		Preload("Members").
		Preload("LatestMessage").
		Preload("LatestMessage.Sender").
		First(&chat).Error
	if err == nil {
		c.JSON(http.StatusOK, chat)
		return
	}

	if err != gorm.ErrRecordNotFound {
		a.internalError(c, requestID, "Failed to look up chat", err)
		return
	}

	var me model.User
	if err := a.DB.Where("id = ?", userID).First(&me).Error; err != nil {
		a.internalError(c, requestID, "Failed to load user", err)
		return
	}

	chatID, err := newID()
	if err != nil {
		a.internalError(c, requestID, "Failed to generate chat ID", err)
		return
	}

	chat = model.Chat{
		ID:         chatID,
		ChatName:   "sender",
		Members:    []model.User{me, other},
		Wallpapers: model.StringMap{},
		Nicknames:  model.StringMap{},
	}

	if err := a.DB.Create(&chat).Error; err != nil {
		a.internalError(c, requestID, "Failed to create chat", err)
		return
	}

	c.JSON(http.StatusOK, chat)
}

// ChatFetch returns every chat the caller belongs to, most recently
// active first
func (a *API) ChatFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var chats []model.Chat

	err := a.DB.
		Joins("JOIN chat_members cm ON cm.chat_id = chats.id AND cm.user_id = ?", userID).
		Preload("Members").
		Preload("LatestMessage").
		Preload("LatestMessage.Sender").
		Order("chats.updated_at desc").
		Find(&chats).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to fetch chats", err)
		return
	}

	c.JSON(http.StatusOK, chats)
}
