package api

import (
	"net/http"

	"chaton/chat-api/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MessageAdd stores a message from a multipart form and relays it to
// everyone in the chat's room. Blocked conversations reject new
// messages no matter who blocked them
func (a *API) MessageAdd(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	chatID := c.PostForm("chatId")
	content := c.PostForm("content")

	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No chat ID provided",
			"requestID": requestID,
		})
		return
	}

	chat, err := a.loadChatForMember(chatID, userID)
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

	if len(chat.BlockedBy) > 0 {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "This conversation is blocked",
			"requestID": requestID,
		})
		return
	}

	attachment, err := a.saveUpload(c, "attachment")
	if err != nil {
		a.internalError(c, requestID, "Failed to store attachment", err)
		return
	}

	if content == "" && attachment == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Empty message",
			"requestID": requestID,
		})
		return
	}

	msgID, err := newID()
	if err != nil {
		a.internalError(c, requestID, "Failed to generate message ID", err)
		return
	}

	msg := model.Message{
		ID:         msgID,
		ChatID:     chat.ID,
		SenderID:   userID,
		Content:    content,
		Attachment: attachment,
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		if err := tx.Model(model.Chat{}).
			Where("id = ?", chat.ID).
			Update("latest_message_id", msgID).Error; err != nil {
			return err
		}

		return a.touchChat(tx, chat.ID)
	})
	if err != nil {
		a.internalError(c, requestID, "Failed to store message", err)
		return
	}

	if err := a.DB.Preload("Sender").Where("id = ?", msgID).First(&msg).Error; err != nil {
		a.internalError(c, requestID, "Failed to reload message", err)
		return
	}

	a.Hub.BroadcastMessage(chat.ID, msg)

	c.JSON(http.StatusOK, msg)
}
