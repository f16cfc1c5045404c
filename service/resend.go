package service

import (
	"time"

	"chaton/chat-api/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// ResendCooldown is the minimum gap between two code issuances for
	// the same user
	ResendCooldown = time.Minute

	// Exceeding this many issuances blocks the user for the rest of
	// the day
	maxDailyResends = 10
)

// AllowResend checks and updates the resend ledger for a user. It
// returns false when the user asked for a new code too recently or
// exceeded the daily limit. The ledger row is created on first use
func AllowResend(db *gorm.DB, userID string) bool {
	var req model.ResendRequest

	err := db.Where("user_id = ?", userID).First(&req).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			zap.L().Error("Failed to read resend ledger", zap.Error(err), zap.String("userID", userID))
			return false
		}

		req = model.ResendRequest{
			UserID:     userID,
			LastResend: time.Now(),
			DayCount:   1,
		}

		if err := db.Create(&req).Error; err != nil {
			zap.L().Error("Failed to create resend ledger entry", zap.Error(err), zap.String("userID", userID))
			return false
		}

		return true
	}

	now := time.Now()

	// A new day resets the count and any block
	if req.LastResend.YearDay() != now.YearDay() || req.LastResend.Year() != now.Year() {
		req.DayCount = 0
		req.Blocked = false
	}

	if req.Blocked {
		return false
	}

	if now.Sub(req.LastResend) < ResendCooldown && req.DayCount > 0 {
		return false
	}

	req.DayCount++
	req.LastResend = now

	if req.DayCount > maxDailyResends {
		req.Blocked = true
	}

	if err := db.Save(&req).Error; err != nil {
		zap.L().Error("Failed to update resend ledger", zap.Error(err), zap.String("userID", userID))
		return false
	}

	return !req.Blocked
}
