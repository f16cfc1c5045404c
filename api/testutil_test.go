package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"chaton/chat-api/middleware"
	"chaton/chat-api/model"
	"chaton/chat-api/pkg/security"
	"chaton/chat-api/storage"
	"chaton/chat-api/ws"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()

	gin.SetMode(gin.TestMode)

	viper.Set("jwt.secret", "test-secret")
	viper.Set("auth.verification_mode", "auto")
	viper.Set("storage.local_path", t.TempDir())

	// Point the mailer at a closed port so delivery fails fast when a
	// test flips verification back on
	viper.Set("mail.host", "127.0.0.1")
	viper.Set("mail.port", 1)
	viper.Set("mail.sender", "noreply@chaton.test")
	viper.Set("mail.password", "unused")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.User{}, model.Chat{}, model.Message{}, model.ResendRequest{}))

	store, err := storage.NewLocal()
	require.NoError(t, err)

	a := &API{
		DB:    db,
		Argon: security.New(),
		Store: store,
		Hub:   ws.NewHub(),
	}

	r := gin.New()
	r.Use(middleware.NewRequestIDMiddleware())

	auth := middleware.NewAuthMiddleware(db)

	r.POST("/api/auth/register", a.AuthRegister)
	r.POST("/api/auth/login", a.AuthLogin)
	r.POST("/api/auth/verify-otp", a.AuthVerifyOTP)
	r.POST("/api/auth/resend-otp", a.AuthResendOTP)
	r.GET("/api/auth/allUsers", auth, a.UserSearch)
	r.PUT("/api/auth/renameUser", auth, a.UserRename)
	r.PUT("/api/auth/emailUpdate", auth, a.UserEmailUpdate)
	r.PUT("/api/auth/passwordUpdate", auth, a.UserPasswordUpdate)
	r.PUT("/api/auth/deleteUser", auth, a.UserDelete)
	r.POST("/api/chats/accessChat", auth, a.ChatAccess)
	r.GET("/api/chats/fetchChats", auth, a.ChatFetch)
	r.POST("/api/chats/group", auth, a.GroupCreate)
	r.PUT("/api/chats/rename", auth, a.GroupRename)
	r.PUT("/api/chats/groupadd", auth, a.GroupAdd)
	r.PUT("/api/chats/groupremove", auth, a.GroupRemove)
	r.GET("/api/chats/usersNotInGroup/:chatId", auth, a.UsersNotInGroup)
	r.PUT("/api/chats/deleteChat", auth, a.ChatDelete)
	r.PUT("/api/chats/blockChat", auth, a.ChatBlock)
	r.PUT("/api/chats/updateWallpaper", auth, a.ChatWallpaperUpdate)
	r.PUT("/api/chats/updateNickname", auth, a.ChatNicknameUpdate)
	r.PUT("/api/messages/addmsg", auth, a.MessageAdd)
	r.GET("/api/messages/getmsg/:chatId", auth, a.MessageFetch)

	a.Router = r

	return a
}

// seedUser creates a user with password "secret1"
func seedUser(t *testing.T, a *API, username string, verified bool) *model.User {
	t.Helper()

	hash, err := a.Argon.GenerateFromPassword("secret1")
	require.NoError(t, err)

	u := &model.User{
		ID:           "id_" + username,
		Username:     username,
		Email:        username + "@x.com",
		PasswordHash: hash,
		ProfilePic:   "default.svg",
		Verified:     verified,
	}
	require.NoError(t, a.DB.Create(u).Error)

	return u
}

// seedOTP stores a pending code on a user
func seedOTP(t *testing.T, a *API, userID, code string, expiresAt time.Time) {
	t.Helper()

	err := a.DB.Model(model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"otp":            code,
			"otp_expires_at": expiresAt,
		}).Error
	require.NoError(t, err)
}

func authToken(t *testing.T, userID string) string {
	t.Helper()

	token, err := security.MakeAuthToken(userID)
	require.NoError(t, err)

	return token
}

// doJSON performs a request with a JSON body and decodes the response
func doJSON(t *testing.T, a *API, method, path string, body gin.H, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	return w, decode(t, w)
}

// doForm performs a request with urlencoded form fields, used for the
// endpoints that normally take multipart uploads
func doForm(t *testing.T, a *API, method, path string, fields map[string]string, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}

	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	return w, decode(t, w)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	if w.Body.Len() == 0 || !strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		return nil
	}

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		// Endpoints returning arrays are decoded by the caller
		return nil
	}

	return out
}
