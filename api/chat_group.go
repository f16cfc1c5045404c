package api

import (
	"net/http"

	"chaton/chat-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type groupCreateBody struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

// GroupCreate opens a group chat with the caller as admin. A group
// needs at least two other members
func (a *API) GroupCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data groupCreateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No group name provided",
			"requestID": requestID,
		})
		return
	}

	if len(data.Users) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "A group chat needs at least 2 other users",
			"requestID": requestID,
		})
		return
	}

	memberIDs := append([]string{userID}, data.Users...)

	var members []model.User
	if err := a.DB.Where("id IN ?", memberIDs).Find(&members).Error; err != nil {
		a.internalError(c, requestID, "Failed to load members", err)
		return
	}

	if len(members) != len(memberIDs) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "User not found",
			"requestID": requestID,
		})
		return
	}

	chatID, err := newID()
	if err != nil {
		a.internalError(c, requestID, "Failed to generate chat ID", err)
		return
	}

	chat := model.Chat{
		ID:           chatID,
		IsGroupChat:  true,
		ChatName:     data.Name,
		GroupAdminID: userID,
		GroupPic:     "default-group.svg",
		Members:      members,
		Wallpapers:   model.StringMap{},
		Nicknames:    model.StringMap{},
	}

	if err := a.DB.Create(&chat).Error; err != nil {
		a.internalError(c, requestID, "Failed to create group chat", err)
		return
	}

	zap.L().Info("Group chat created", zap.String("chatID", chatID), zap.String("requestID", requestID))

	c.JSON(http.StatusOK, chat)
}

type groupRenameBody struct {
	ChatID   string `json:"chatId"`
	ChatName string `json:"chatName"`
}

func (a *API) GroupRename(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data groupRenameBody
	if err := c.ShouldBindJSON(&data); err != nil || data.ChatID == "" || data.ChatName == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	chat, ok := a.requireGroupChat(c, requestID, data.ChatID, userID)
	if !ok {
		return
	}

	err := a.DB.Model(model.Chat{}).
		Where("id = ?", chat.ID).
		Update("chat_name", data.ChatName).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to rename group", err)
		return
	}

	a.respondChat(c, requestID, chat.ID)
}

type groupMemberBody struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// GroupAdd adds a user to a group chat. Only the admin may add
func (a *API) GroupAdd(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data groupMemberBody
	if err := c.ShouldBindJSON(&data); err != nil || data.ChatID == "" || data.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	chat, ok := a.requireGroupChat(c, requestID, data.ChatID, userID)
	if !ok {
		return
	}

	if chat.GroupAdminID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Only the group admin can add users",
			"requestID": requestID,
		})
		return
	}

	for _, m := range chat.Members {
		if m.ID == data.UserID {
			c.JSON(http.StatusOK, chat)
			return
		}
	}

	var user model.User
	if err := a.DB.Where("id = ?", data.UserID).First(&user).Error; err != nil {
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

	if err := a.DB.Model(chat).Association("Members").Append(&user); err != nil {
		a.internalError(c, requestID, "Failed to add member", err)
		return
	}

	a.respondChat(c, requestID, chat.ID)
}

// GroupRemove pulls a user out of a group chat. The admin can remove
// anyone, everyone else only themselves (leaving)
func (a *API) GroupRemove(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data groupMemberBody
	if err := c.ShouldBindJSON(&data); err != nil || data.ChatID == "" || data.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	chat, ok := a.requireGroupChat(c, requestID, data.ChatID, userID)
	if !ok {
		return
	}

	if chat.GroupAdminID != userID && data.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Only the group admin can remove other users",
			"requestID": requestID,
		})
		return
	}

	err := a.DB.Exec("DELETE FROM chat_members WHERE chat_id = ? AND user_id = ?", chat.ID, data.UserID).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to remove member", err)
		return
	}

	// Removed members lose their nickname entry
	if _, ok := chat.Nicknames[data.UserID]; ok {
		delete(chat.Nicknames, data.UserID)
		err = a.DB.Model(model.Chat{}).
			Where("id = ?", chat.ID).
			Update("nicknames", chat.Nicknames).Error
		if err != nil {
			a.internalError(c, requestID, "Failed to clear nickname", err)
			return
		}
	}

	a.respondChat(c, requestID, chat.ID)
}

func (a *API) GroupPicUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	chatID := c.PostForm("chatId")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No chat ID provided",
			"requestID": requestID,
		})
		return
	}

	chat, ok := a.requireGroupChat(c, requestID, chatID, userID)
	if !ok {
		return
	}

	name, err := a.saveUpload(c, "groupPic")
	if err != nil {
		a.internalError(c, requestID, "Failed to store group picture", err)
		return
	}

	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No group picture provided",
			"requestID": requestID,
		})
		return
	}

	old := chat.GroupPic

	err = a.DB.Model(model.Chat{}).
		Where("id = ?", chat.ID).
		Update("group_pic", name).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to update group picture", err)
		return
	}

	if old != "" && old != "default-group.svg" {
		if err := a.Store.Delete(c.Request.Context(), old); err != nil {
			zap.L().Warn("Failed to delete old group picture", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	a.respondChat(c, requestID, chat.ID)
}

// UsersNotInGroup lists users that could still be added to a group,
// optionally narrowed by a username search
func (a *API) UsersNotInGroup(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	chatID := c.Param("chatId")

	if _, ok := a.requireGroupChat(c, requestID, chatID, userID); !ok {
		return
	}

	var users []model.User

	q := a.DB.Where("id NOT IN (SELECT user_id FROM chat_members WHERE chat_id = ?)", chatID)
	if search := c.Query("search"); search != "" {
		q = q.Where("username LIKE ?", "%"+search+"%")
	}

	if err := q.Order("username").Find(&users).Error; err != nil {
		a.internalError(c, requestID, "Failed to search users", err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// requireGroupChat loads a chat the caller is a member of and checks
// that it is a group chat. Writes the error response itself
func (a *API) requireGroupChat(c *gin.Context, requestID, chatID, userID string) (*model.Chat, bool) {
	chat, err := a.loadChatForMember(chatID, userID)
	if err != nil {
		if notFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Chat not found",
				"requestID": requestID,
			})
			return nil, false
		}

		a.internalError(c, requestID, "Failed to load chat", err)
		return nil, false
	}

	if !chat.IsGroupChat {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Not a group chat",
			"requestID": requestID,
		})
		return nil, false
	}

	return chat, true
}

// respondChat returns a chat with members and latest message preloaded
func (a *API) respondChat(c *gin.Context, requestID, chatID string) {
	var chat model.Chat

	err := a.DB.
		Where("id = ?", chatID).
		Preload("Members").
		Preload("LatestMessage").
		Preload("LatestMessage.Sender").
		First(&chat).Error
	if err != nil {
		a.internalError(c, requestID, "Failed to reload chat", err)
		return
	}

	c.JSON(http.StatusOK, chat)
}
