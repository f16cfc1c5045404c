package api

import (
	"net/http"

	"chaton/chat-api/model"
	"chaton/chat-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebSocket upgrades the connection to the realtime relay. Browsers
// can't set headers on websocket requests so the session token comes
// in as a query parameter
func (a *API) WebSocket(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	userID, err := security.VerifyAuthToken(c.Query("token"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "token_invalid",
			"requestID": requestID,
		})
		return
	}

	var user model.User
	if err := a.DB.Where("id = ?", userID).First(&user).Error; err != nil || !user.Verified {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "account_not_verified",
			"requestID": requestID,
		})
		return
	}

	if err := a.Hub.Serve(c.Writer, c.Request, userID); err != nil {
		zap.L().Error("Failed to upgrade websocket", zap.Error(err), zap.String("requestID", requestID))
	}
}
