package api

import (
	"net/http"
	"testing"
	"time"

	"chaton/chat-api/model"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireEmailMode flips verification on for one test. Mail delivery
// will fail because the test mailer points at a closed port
func requireEmailMode(t *testing.T) {
	t.Helper()

	viper.Set("auth.verification_mode", "require_email")
	t.Cleanup(func() { viper.Set("auth.verification_mode", "auto") })
}

func TestRegisterAutoVerify(t *testing.T) {
	a := newTestAPI(t)

	w, body := doForm(t, a, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "secret1",
		"gender":   "female",
	}, "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["status"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok, "response should carry the user object")
	assert.Equal(t, "alice", user["username"])
	assert.NotEmpty(t, user["token"])
	assert.NotContains(t, user, "passwordHash")

	var stored model.User
	require.NoError(t, a.DB.Where("username = ?", "alice").First(&stored).Error)
	assert.True(t, stored.Verified)
	assert.Nil(t, stored.OTP)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"short username", map[string]string{"username": "al", "email": "a@x.com", "password": "secret1"}},
		{"bad email", map[string]string{"username": "alice", "email": "nope", "password": "secret1"}},
		{"short password", map[string]string{"username": "alice", "email": "a@x.com", "password": "ab"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doForm(t, a, http.MethodPost, "/api/auth/register", tt.fields, "")

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, false, body["status"])
			assert.NotEmpty(t, body["msg"])
		})
	}

	var count int64
	require.NoError(t, a.DB.Model(model.User{}).Count(&count).Error)
	assert.Zero(t, count, "no account should have been created")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	a := newTestAPI(t)
	seedUser(t, a, "alice", true)

	_, body := doForm(t, a, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "other@x.com",
		"password": "secret1",
	}, "")

	assert.Equal(t, false, body["status"])
	assert.Equal(t, "The username is already used", body["msg"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	a := newTestAPI(t)
	seedUser(t, a, "alice", true)

	_, body := doForm(t, a, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice2",
		"email":    "alice@x.com",
		"password": "secret1",
	}, "")

	assert.Equal(t, false, body["status"])
	assert.Equal(t, "The email is already used", body["msg"])
}

func TestRegisterMailFailureLeavesNoOrphan(t *testing.T) {
	a := newTestAPI(t)
	requireEmailMode(t)

	_, body := doForm(t, a, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "bobby",
		"email":    "bobby@x.com",
		"password": "secret1",
	}, "")

	assert.Equal(t, false, body["status"])
	assert.Equal(t, "Failed to send verification email. Please try again.", body["msg"])

	var count int64
	require.NoError(t, a.DB.Model(model.User{}).Where("username = ?", "bobby").Count(&count).Error)
	assert.Zero(t, count, "the half-registered account must be rolled back")
}

func TestVerifyOTP(t *testing.T) {
	a := newTestAPI(t)
	u := seedUser(t, a, "carol", false)
	seedOTP(t, a, u.ID, "123456", time.Now().Add(10*time.Minute))

	t.Run("wrong code", func(t *testing.T) {
		_, body := doJSON(t, a, http.MethodPost, "/api/auth/verify-otp", gin.H{
			"userId": u.ID, "otp": "000000",
		}, "")

		assert.Equal(t, false, body["status"])
		assert.Equal(t, "Invalid OTP. Please try again.", body["msg"])

		var stored model.User
		require.NoError(t, a.DB.First(&stored, "id = ?", u.ID).Error)
		assert.False(t, stored.Verified)
	})

	t.Run("correct code", func(t *testing.T) {
		_, body := doJSON(t, a, http.MethodPost, "/api/auth/verify-otp", gin.H{
			"userId": u.ID, "otp": "123456",
		}, "")

		require.Equal(t, true, body["status"])
		user := body["user"].(map[string]any)
		assert.NotEmpty(t, user["token"])

		var stored model.User
		require.NoError(t, a.DB.First(&stored, "id = ?", u.ID).Error)
		assert.True(t, stored.Verified)
		assert.Nil(t, stored.OTP, "the code must be cleared after use")
		assert.Nil(t, stored.PurgeAt)
	})

	t.Run("repeat verify", func(t *testing.T) {
		_, body := doJSON(t, a, http.MethodPost, "/api/auth/verify-otp", gin.H{
			"userId": u.ID, "otp": "123456",
		}, "")

		assert.Equal(t, false, body["status"])
		assert.Equal(t, "Email already verified", body["msg"])
	})
}

func TestVerifyOTPExpired(t *testing.T) {
	a := newTestAPI(t)
	u := seedUser(t, a, "dave", false)
	seedOTP(t, a, u.ID, "123456", time.Now().Add(-time.Second))

	_, body := doJSON(t, a, http.MethodPost, "/api/auth/verify-otp", gin.H{
		"userId": u.ID, "otp": "123456",
	}, "")

	assert.Equal(t, false, body["status"])
	assert.Equal(t, "OTP has expired. Please request a new one.", body["msg"])
}

func TestVerifyOTPNoPendingCode(t *testing.T) {
	a := newTestAPI(t)
	u := seedUser(t, a, "erin", false)

	_, body := doJSON(t, a, http.MethodPost, "/api/auth/verify-otp", gin.H{
		"userId": u.ID, "otp": "123456",
	}, "")

	assert.Equal(t, false, body["status"])
	assert.Equal(t, "No OTP request found. Please register again.", body["msg"])
}

func TestVerifyOTPUnknownUser(t *testing.T) {
	a := newTestAPI(t)

	_, body := doJSON(t, a, http.MethodPost, "/api/auth/verify-otp", gin.H{
		"userId": "nobody", "otp": "123456",
	}, "")

	assert.Equal(t, false, body["status"])
	assert.Equal(t, "User not found", body["msg"])
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	a := newTestAPI(t)
	u := seedUser(t, a, "frank", false)
	seedOTP(t, a, u.ID, "111111", time.Now().Add(10*time.Minute))

	// Delivery fails (closed port) but the fresh code is already stored
	_, body := doJSON(t, a, http.MethodPost, "/api/auth/resend-otp", gin.H{"userId": u.ID}, "")
	assert.Equal(t, false, body["status"])
	assert.Equal(t, "Failed to send verification email. Please try again.", body["msg"])

	var stored model.User
	require.NoError(t, a.DB.First(&stored, "id = ?", u.ID).Error)
	require.NotNil(t, stored.OTP)
	assert.NotEqual(t, "111111", *stored.OTP)
	assert.Len(t, *stored.OTP, 6)

	// The old code must no longer verify
	_, body = doJSON(t, a, http.MethodPost, "/api/auth/verify-otp", gin.H{
		"userId": u.ID, "otp": "111111",
	}, "")
	assert.Equal(t, "Invalid OTP. Please try again.", body["msg"])
}

func TestResendAlreadyVerified(t *testing.T) {
	a := newTestAPI(t)
	u := seedUser(t, a, "grace", true)

	_, body := doJSON(t, a, http.MethodPost, "/api/auth/resend-otp", gin.H{"userId": u.ID}, "")

	assert.Equal(t, false, body["status"])
	assert.Equal(t, "Email already verified", body["msg"])
}

func TestResendCooldown(t *testing.T) {
	a := newTestAPI(t)
	u := seedUser(t, a, "heidi", false)
	seedOTP(t, a, u.ID, "111111", time.Now().Add(10*time.Minute))

	// First resend consumes the cooldown even though delivery fails
	doJSON(t, a, http.MethodPost, "/api/auth/resend-otp", gin.H{"userId": u.ID}, "")

	_, body := doJSON(t, a, http.MethodPost, "/api/auth/resend-otp", gin.H{"userId": u.ID}, "")
	assert.Equal(t, false, body["status"])
	assert.Equal(t, "Please wait before requesting a new code.", body["msg"])
}

func TestLoginBadCredentials(t *testing.T) {
	a := newTestAPI(t)
	seedUser(t, a, "alice", true)

	t.Run("unknown user", func(t *testing.T) {
		_, body := doJSON(t, a, http.MethodPost, "/api/auth/login", gin.H{
			"username": "nobody", "password": "secret1",
		}, "")

		assert.Equal(t, false, body["status"])
		assert.Equal(t, "Incorrect username or password", body["msg"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, body := doJSON(t, a, http.MethodPost, "/api/auth/login", gin.H{
			"username": "alice", "password": "wrongpass",
		}, "")

		assert.Equal(t, false, body["status"])
		assert.Equal(t, "Incorrect username or password", body["msg"],
			"wrong password and unknown user must be indistinguishable")
	})
}

func TestLoginSuccess(t *testing.T) {
	a := newTestAPI(t)
	seedUser(t, a, "alice", true)

	w, body := doJSON(t, a, http.MethodPost, "/api/auth/login", gin.H{
		"username": "alice", "password": "secret1",
	}, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, "alice", body["username"])
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, body, "passwordHash")
}

func TestLoginUnverifiedNeverIssuesToken(t *testing.T) {
	a := newTestAPI(t)
	u := seedUser(t, a, "bob", false)

	_, body := doJSON(t, a, http.MethodPost, "/api/auth/login", gin.H{
		"username": "bob", "password": "secret1",
	}, "")

	assert.Equal(t, false, body["status"])
	assert.Equal(t, true, body["requiresVerification"])
	assert.Equal(t, u.ID, body["userId"])
	assert.Equal(t, u.Email, body["email"])
	assert.NotContains(t, body, "token")
}
