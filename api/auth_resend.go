package api

import (
	"net/http"

	"chaton/chat-api/model"
	"chaton/chat-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resendOTPBody struct {
	UserID string `json:"userId"`
}

// AuthResendOTP overwrites the pending code with a fresh one and mails
// it again. The previous code stops verifying the moment the new one
// is stored, even if delivery then fails
func (a *API) AuthResendOTP(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data resendOTPBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	var user model.User
	if err := a.DB.Where("id = ?", data.UserID).First(&user).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusOK, gin.H{"status": false, "msg": "User not found"})
			return
		}

		a.internalError(c, requestID, "Failed to load user", err)
		return
	}

	if user.Verified {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "Email already verified"})
		return
	}

	if !service.AllowResend(a.DB, user.ID) {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "Please wait before requesting a new code."})
		return
	}

	code, err := a.issueOTP(user.ID)
	if err != nil {
		a.internalError(c, requestID, "Failed to issue OTP", err)
		return
	}

	if err := service.SendOTPMail(user.Email, code, user.Username); err != nil {
		// The new code stays stored. A later resend overwrites it
		zap.L().Error("Failed to send verification email", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusOK, gin.H{
			"status": false,
			"msg":    "Failed to send verification email. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"msg":    "New OTP sent to your email.",
	})
}
