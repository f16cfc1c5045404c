package api

import (
	"net/http"
	"time"

	"chaton/chat-api/model"
	"chaton/chat-api/pkg/security"
	"chaton/chat-api/service"
	"chaton/chat-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// unverifiedAccountTTL is how long an account may stay unverified
// before the cleanup job purges it
const unverifiedAccountTTL = time.Hour * 24 * 30

// AuthRegister creates a new account from a multipart form. With email
// verification required the account starts unverified and an OTP is
// mailed out; otherwise it is verified on the spot and a session token
// is returned immediately.
//
// Domain failures use the HTTP 200 {status:false, msg} convention the
// client expects
func (a *API) AuthRegister(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")
	gender := c.PostForm("gender")

	for _, err := range []error{
		validators.UsernameValidator(username),
		validators.EmailValidator(email),
		validators.PasswordValidator(password),
	} {
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"status": false, "msg": err.Error()})
			return
		}
	}

	var usernameTaken bool
	r := a.DB.Model(model.User{}).
		Select("count(*) > 0").
		Where("username = ?", username).
		Find(&usernameTaken)
	if r.Error != nil {
		a.internalError(c, requestID, "Failed to check username uniqueness", r.Error)
		return
	}

	if usernameTaken {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "The username is already used"})
		return
	}

	var emailTaken bool
	r = a.DB.Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ?", email).
		Find(&emailTaken)
	if r.Error != nil {
		a.internalError(c, requestID, "Failed to check email uniqueness", r.Error)
		return
	}

	if emailTaken {
		c.JSON(http.StatusOK, gin.H{"status": false, "msg": "The email is already used"})
		return
	}

	hash, err := a.Argon.GenerateFromPassword(password)
	if err != nil {
		a.internalError(c, requestID, "Failed to hash password", err)
		return
	}

	userID, err := newID()
	if err != nil {
		a.internalError(c, requestID, "Failed to generate user ID", err)
		return
	}

	profilePic, err := a.saveUpload(c, "profilePic")
	if err != nil {
		a.internalError(c, requestID, "Failed to store profile picture", err)
		return
	}
	if profilePic == "" {
		profilePic = "default.svg"
	}

	code, expiresAt, err := security.GenerateOTP()
	if err != nil {
		a.internalError(c, requestID, "Failed to generate OTP", err)
		return
	}

	if !service.MailEnabled() {
		// Auto-verify mode: no code is stored, the account is usable
		// right away. Never run a public instance like this
		user := model.User{
			ID:           userID,
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			Gender:       gender,
			ProfilePic:   profilePic,
			Verified:     true,
		}

		if err := a.DB.Create(&user).Error; err != nil {
			a.internalError(c, requestID, "Failed to create user", err)
			return
		}

		token, err := security.MakeAuthToken(userID)
		if err != nil {
			a.internalError(c, requestID, "Failed to mint session token", err)
			return
		}

		zap.L().Warn("Auto-verified new account, email verification is disabled",
			zap.String("username", username), zap.String("requestID", requestID))

		c.JSON(http.StatusOK, gin.H{
			"status": true,
			"user":   publicUser(&user, token),
		})
		return
	}

	purgeAt := time.Now().Add(unverifiedAccountTTL)

	user := model.User{
		ID:           userID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Gender:       gender,
		ProfilePic:   profilePic,
		OTP:          &code,
		OTPExpiresAt: &expiresAt,
		PurgeAt:      &purgeAt,
	}

	if err := a.DB.Create(&user).Error; err != nil {
		a.internalError(c, requestID, "Failed to create user", err)
		return
	}

	if err := service.SendOTPMail(email, code, username); err != nil {
		// No orphan unverified record without a deliverable code
		if derr := a.DB.Where("id = ?", userID).Delete(model.User{}).Error; derr != nil {
			zap.L().Error("Failed to clean up user after mail failure", zap.Error(derr), zap.String("requestID", requestID))
		}

		zap.L().Error("Failed to send verification email", zap.Error(err), zap.String("requestID", requestID))

		c.JSON(http.StatusOK, gin.H{
			"status": false,
			"msg":    "Failed to send verification email. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":               true,
		"requiresVerification": true,
		"userId":               userID,
		"email":                email,
		"msg":                  "Registration successful! Please check your email for the OTP verification code.",
	})
}

func (a *API) internalError(c *gin.Context, requestID, logMsg string, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"requestID": requestID,
	})

	zap.L().Error(logMsg, zap.Error(err), zap.String("requestID", requestID))
}

// notFound is a small helper for the record-missing case on protected
// routes
func notFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}
