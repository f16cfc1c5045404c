package api

import (
	"net/http"

	"chaton/chat-api/model"

	"github.com/gin-gonic/gin"
)

// UserSearch returns users matching the search query by username,
// excluding the caller. An empty query returns everyone else
func (a *API) UserSearch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var users []model.User

	q := a.DB.Where("id != ?", userID)
	if search := c.Query("search"); search != "" {
		q = q.Where("username LIKE ?", "%"+search+"%")
	}

	if err := q.Order("username").Find(&users).Error; err != nil {
		a.internalError(c, requestID, "Failed to search users", err)
		return
	}

	c.JSON(http.StatusOK, users)
}
