package api

import (
	"net/http"

	"chaton/chat-api/model"
	"chaton/chat-api/pkg/security"
	"chaton/chat-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthLogin checks credentials and returns a session token. Unknown
// user and wrong password produce the same generic failure. A correct
// password on an unverified account never logs in; it re-triggers the
// verification flow instead
func (a *API) AuthLogin(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Username == "" || data.Password == "" {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "Incorrect username or password"})
		return
	}

	var user model.User
	if err := a.DB.Where("username = ?", data.Username).First(&user).Error; err != nil {
		if notFound(err) {
			c.JSON(http.StatusOK, gin.H{"status": false, "msg": "Incorrect username or password"})
			return
		}

		a.internalError(c, requestID, "Failed to load user", err)
		return
	}

	ok, err := a.Argon.VerifyPasswd(data.Password, user.PasswordHash)
	if err != nil {
		a.internalError(c, requestID, "Failed to verify password", err)
		return
	}

	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "Incorrect username or password"})
		return
	}

	if !user.Verified {
		// Valid password, unverified account: issue a fresh code so the
		// client can resume at verify-otp. Cooldown-guarded so login
		// retries can't spam the mailbox
		if service.MailEnabled() && service.AllowResend(a.DB, user.ID) {
			code, err := a.issueOTP(user.ID)
			if err != nil {
				a.internalError(c, requestID, "Failed to issue OTP", err)
				return
			}

			if err := service.SendOTPMail(user.Email, code, user.Username); err != nil {
				zap.L().Error("Failed to send verification email", zap.Error(err), zap.String("requestID", requestID))

				c.JSON(http.StatusOK, gin.H{
					"status": false,
					"msg":    "Failed to send verification email. Please try again.",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":               false,
			"requiresVerification": true,
			"userId":               user.ID,
			"email":                user.Email,
			"msg":                  "Email not verified. A verification code has been sent to your email.",
		})
		return
	}

	token, err := security.MakeAuthToken(user.ID)
	if err != nil {
		a.internalError(c, requestID, "Failed to mint session token", err)
		return
	}

	resp := publicUser(&user, token)
	resp["status"] = true
	c.JSON(http.StatusOK, resp)
}
