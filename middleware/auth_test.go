package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chaton/chat-api/model"
	"chaton/chat-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	viper.Set("jwt.secret", "test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.User{}))

	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.GET("/p", NewAuthMiddleware(db), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.MustGet("userID")})
	})

	return r, db
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestAuthMiddleware(t *testing.T) {
	r, db := newAuthRouter(t)

	verified := model.User{ID: "u1", Username: "alice", Email: "a@x.com", PasswordHash: "x", Verified: true}
	unverified := model.User{ID: "u2", Username: "bob", Email: "b@x.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&verified).Error)
	require.NoError(t, db.Create(&unverified).Error)

	verifiedToken, err := security.MakeAuthToken("u1")
	require.NoError(t, err)
	unverifiedToken, err := security.MakeAuthToken("u2")
	require.NoError(t, err)
	ghostToken, err := security.MakeAuthToken("gone")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"missing header", "", http.StatusUnauthorized, "no_token"},
		{"not a bearer header", "Basic abc", http.StatusUnauthorized, "token_invalid"},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized, "token_invalid"},
		{"deleted user", "Bearer " + ghostToken, http.StatusUnauthorized, "user_not_found"},
		{"unverified user", "Bearer " + unverifiedToken, http.StatusUnauthorized, "account_not_verified"},
		{"verified user", "Bearer " + verifiedToken, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.header)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				assert.Contains(t, w.Body.String(), tt.wantErr)
			}
		})
	}
}

func TestAuthMiddlewareSetsUserID(t *testing.T) {
	r, db := newAuthRouter(t)

	u := model.User{ID: "u9", Username: "carol", Email: "c@x.com", PasswordHash: "x", Verified: true}
	require.NoError(t, db.Create(&u).Error)

	token, err := security.MakeAuthToken("u9")
	require.NoError(t, err)

	w := get(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u9")
}
