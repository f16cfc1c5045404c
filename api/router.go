// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"chaton/chat-api/db"
	"chaton/chat-api/middleware"
	"chaton/chat-api/pkg/security"
	"chaton/chat-api/service"
	"chaton/chat-api/storage"
	"chaton/chat-api/ws"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB     *gorm.DB
	Router *gin.Engine
	Argon  *security.ArgonHash
	Store  storage.Store
	Hub    *ws.Hub
}

func NewRouter() (*API, error) {
	a := &API{
		Hub: ws.NewHub(),
	}

	db, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = db

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{viper.GetString("host.cors_origin")},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	a.Router.MaxMultipartMemory = 5 << 20

	auth := middleware.NewAuthMiddleware(db)
	turnstile := middleware.NewTurnstileMiddleware()
	limiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             10,
	})

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates a session token
		main.HEAD("/validate", auth, a.Validate)
	}

	users := main.Group("/auth", middleware.BodySizeLimiter(5<<20))
	{
		// POST /api/auth/register 	-> Registers a new user, issues an OTP
		users.POST("/register", limiter, turnstile, a.AuthRegister)

		// POST /api/auth/login 	-> Logs in a user and returns a session token
		users.POST("/login", limiter, a.AuthLogin)

		// POST /api/auth/verify-otp	-> Verifies a pending one-time code
		users.POST("/verify-otp", limiter, a.AuthVerifyOTP)

		// POST /api/auth/resend-otp	-> Re-issues and re-sends a one-time code
		users.POST("/resend-otp", limiter, a.AuthResendOTP)

		// GET /api/auth/allUsers	-> Searches users by username
		users.GET("/allUsers", auth, a.UserSearch)

		// PUT /api/auth/renameUser	-> Changes the caller's username
		users.PUT("/renameUser", auth, a.UserRename)

		// PUT /api/auth/emailUpdate	-> Changes the caller's email
		users.PUT("/emailUpdate", auth, a.UserEmailUpdate)

		// PUT /api/auth/passwordUpdate	-> Changes the caller's password
		users.PUT("/passwordUpdate", auth, a.UserPasswordUpdate)

		// PUT /api/auth/profilePicUpdate -> Replaces the caller's profile picture
		users.PUT("/profilePicUpdate", auth, a.UserProfilePicUpdate)

		// PUT /api/auth/bannerUpdate	-> Replaces the caller's banner
		users.PUT("/bannerUpdate", auth, a.UserBannerUpdate)

		// PUT /api/auth/deleteUser	-> Deletes the caller's account and chats
		users.PUT("/deleteUser", auth, a.UserDelete)
	}

	chats := main.Group("/chats", auth, middleware.BodySizeLimiter(5<<20))
	{
		// POST /api/chats/accessChat	-> Finds or creates a 1:1 chat
		chats.POST("/accessChat", a.ChatAccess)

		// GET /api/chats/fetchChats	-> Returns the caller's chats
		chats.GET("/fetchChats", a.ChatFetch)

		// POST /api/chats/group	-> Creates a group chat
		chats.POST("/group", a.GroupCreate)

		// PUT /api/chats/rename	-> Renames a group chat
		chats.PUT("/rename", a.GroupRename)

		// PUT /api/chats/groupadd	-> Adds a member to a group chat
		chats.PUT("/groupadd", a.GroupAdd)

		// PUT /api/chats/groupremove	-> Removes a member from a group chat
		chats.PUT("/groupremove", a.GroupRemove)

		// PUT /api/chats/grouppic	-> Replaces a group chat's picture
		chats.PUT("/grouppic", a.GroupPicUpdate)

		// GET /api/chats/usersNotInGroup/:chatId -> Users that can still be added
		chats.GET("/usersNotInGroup/:chatId", a.UsersNotInGroup)

		// PUT /api/chats/deleteChat	-> Deletes a chat and its messages
		chats.PUT("/deleteChat", a.ChatDelete)

		// PUT /api/chats/blockChat	-> Toggles the caller's block on a chat
		chats.PUT("/blockChat", a.ChatBlock)

		// PUT /api/chats/updateWallpaper -> Sets the caller's wallpaper for a chat
		chats.PUT("/updateWallpaper", a.ChatWallpaperUpdate)

		// PUT /api/chats/updateNickname  -> Sets a member's nickname in a chat
		chats.PUT("/updateNickname", a.ChatNicknameUpdate)
	}

	messages := main.Group("/messages", auth)
	{
		// PUT /api/messages/addmsg	-> Stores a message and relays it
		messages.PUT("/addmsg", middleware.BodySizeLimiter(10<<20), a.MessageAdd)

		// GET /api/messages/getmsg/:chatId -> Returns a chat's messages
		messages.GET("/getmsg/:chatId", a.MessageFetch)
	}

	// GET /images/:name 		-> Serves stored pictures and attachments
	router.GET("/images/:name", cacheFor(300), a.FileServe)

	// GET /ws			-> Realtime relay
	router.GET("/ws", a.WebSocket)

	a.Argon = security.New()

	s, err := storage.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage, %w", err)
	}
	a.Store = s

	service.OTPCleanup(time.Minute, db)
	service.AccountCleanup(time.Hour, db)

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()

	var level zapcore.Level
	if err := level.Set(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
