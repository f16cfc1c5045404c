package api

import (
	"net/http"

	"chaton/chat-api/model"

	"github.com/gin-gonic/gin"
)

// MessageFetch returns a chat's messages in chronological order.
// Non-members can't read anything
func (a *API) MessageFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	chatID := c.Param("chatId")

	if _, err := a.loadChatForMember(chatID, userID); err != nil {
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

	var messages []model.Message

	err := a.DB.
		Where("chat_id = ?", chatID).
		Preload("Sender").
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to fetch messages", err)
		return
	}

	c.JSON(http.StatusOK, messages)
}
