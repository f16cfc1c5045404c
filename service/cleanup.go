package service

import (
	"time"

	"chaton/chat-api/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OTPCleanup periodically clears expired one-time codes from
// unverified users so stale codes can't linger in the database
func OTPCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("OTP cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			err := db.
				Model(model.User{}).
				Where("verified = ? AND otp_expires_at < ?", false, time.Now()).
				Updates(map[string]any{
					"otp":            nil,
					"otp_expires_at": nil,
				}).Error
			if err != nil {
				zap.L().Error("Failed to clear expired codes", zap.Error(err))
			}
		}
	}()
}

// AccountCleanup deletes accounts that registered but never verified
// before their purge deadline. Their resend ledger rows cascade
func AccountCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Account cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			var toClean []string

			err := db.
				Model(model.User{}).
				Where("verified = ? AND purge_at < ?", false, time.Now()).
				Pluck("id", &toClean).
				Error
			if err != nil {
				zap.L().Error("Failed to query db for users to clean", zap.Error(err))
				continue
			}

			if len(toClean) == 0 {
				continue
			}

			err = db.
				Where("id IN ?", toClean).
				Delete(model.User{}).
				Error
			if err != nil {
				zap.L().Error("Failed to delete stale accounts", zap.Error(err))
				continue
			}

			zap.L().Debug("Account cleanup finished", zap.Int("purged", len(toClean)))
		}
	}()
}
