package api

import (
	"net/http"
	"time"

	"chaton/chat-api/model"
	"chaton/chat-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type verifyOTPBody struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

// AuthVerifyOTP checks a submitted code against the user's pending one.
// On success the account flips to verified exactly once, the code is
// cleared and a session token is minted
func (a *API) AuthVerifyOTP(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data verifyOTPBody
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

	if user.OTP == nil || user.OTPExpiresAt == nil {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "No OTP request found. Please register again."})
		return
	}

	if time.Now().After(*user.OTPExpiresAt) {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "OTP has expired. Please request a new one."})
		return
	}

	if *user.OTP != data.OTP {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "Invalid OTP. Please try again."})
		return
	}

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Model(model.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]any{
				"verified":       true,
				"otp":            nil,
				"otp_expires_at": nil,
				"purge_at":       nil,
			}).Error
	})
	if err != nil {
		a.internalError(c, requestID, "Failed to verify user", err)
		return
	}

	token, err := security.MakeAuthToken(user.ID)
	if err != nil {
		a.internalError(c, requestID, "Failed to mint session token", err)
		return
	}

	zap.L().Info("User verified", zap.String("userID", user.ID), zap.String("requestID", requestID))

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"user":   publicUser(&user, token),
	})
}
