package common

import (
	"errors"
	"log"
	"louefacile/src/config"
	"louefacile/src/db"
	"louefacile/src/models"
	"louefacile/src/models/scopes"
	"louefacile/src/types"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrQuotaExhausted = errors.New("daily unlock quota exhausted")

// IsPassActive reports whether a pass currently entitles its holder.
// A nil end date means the pass is open ended.
func IsPassActive(pass *models.SearchPass, now time.Time) bool {
	if pass == nil {
		return false
	}
	if pass.Status != types.PASS_ACTIVE {
		return false
	}
	return pass.EndDate == nil || pass.EndDate.After(now)
}

// UnlocksUsedToday returns the quota spent on the current UTC calendar day.
// A last unlock on any other day means the counter has rolled over to zero.
func UnlocksUsedToday(pass *models.SearchPass, now time.Time) int {
	if !IsPassActive(pass, now) {
		return 0
	}
	if pass.LastUnlockDate == nil {
		return 0
	}
	today := now.UTC().Format(config.DATE_FORMAT)
	if pass.LastUnlockDate.UTC().Format(config.DATE_FORMAT) != today {
		return 0
	}
	return pass.UnlocksToday
}

func UnlocksRemaining(pass *models.SearchPass, now time.Time) int {
	remaining := config.PASS_DAILY_UNLOCKS - UnlocksUsedToday(pass, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

type Capability string

const (
	CapPreciseMap      Capability = "precise-map"
	CapContactDetails  Capability = "contact-details"
	CapVisitScheduling Capability = "visit-scheduling"
)

// Gate answers whether the pass grants the capability. Every gated
// capability requires an active pass, so denial always means the caller
// should point the user at the paywall.
func Gate(capability Capability, pass *models.SearchPass, now time.Time) bool {
	switch capability {
	case CapPreciseMap, CapContactDetails, CapVisitScheduling:
		return IsPassActive(pass, now)
	default:
		return false
	}
}

// GetActivePass fetches the authoritative pass for a user: the most recent
// by end date among the ones that still entitle. Returns nil without error
// when the user has none.
func GetActivePass(uid string) (*models.SearchPass, error) {
	conn := db.GetDb()
	var passes []models.SearchPass
	err := conn.
		Model(&models.SearchPass{}).
		Scopes(scopes.WithUser(uid), scopes.ActivePass(time.Now())).
		Order("end_date DESC NULLS FIRST").
		Limit(1).
		Find(&passes).
		Error
	if err != nil {
		return nil, err
	}
	if len(passes) == 0 {
		return nil, nil
	}
	return &passes[0], nil
}

// ActivatePass grants uid a fresh weekly pass. Finding a still-active pass
// is a no-op success so double purchases do not stack windows.
func ActivatePass(uid string, amount int64, sessionID string) (*models.SearchPass, types.ServiceResult) {
	now := time.Now()
	existing, err := GetActivePass(uid)
	if err != nil {
		return nil, types.ServiceResult{Error: err.Error()}
	}
	if IsPassActive(existing, now) {
		return existing, types.ServiceResult{OK: true, Notice: "pass already active"}
	}

	endDate := now.AddDate(0, 0, config.PASS_DURATION_DAYS)
	pass := models.SearchPass{
		UserID:          uid,
		Status:          types.PASS_ACTIVE,
		Amount:          amount,
		StartDate:       now,
		EndDate:         &endDate,
		StripeSessionID: sessionID,
	}
	conn := db.GetDb()
	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&pass).Error; err != nil {
			return err
		}
		return tx.
			Model(&models.Profile{}).
			Where(&models.Profile{UID: uid}).
			Updates(map[string]any{
				"has_active_pass":  true,
				"pass_expiry":      endDate,
				"daily_views_left": config.PASS_DAILY_UNLOCKS,
			}).
			Error
	})
	if err != nil {
		log.Printf("Error activating pass for %s: %s\n", uid, err.Error())
		return nil, types.ServiceResult{Error: err.Error()}
	}

	go models.PassActivatedProducer(pass.ID, map[string]any{
		"id":      pass.ID.String(),
		"user_id": uid,
		"ends_at": endDate,
	})
	return &pass, types.ServiceResult{OK: true}
}

// ConsumeUnlock spends one unit of today's quota inside the caller's
// transaction, rolling the counter over when the calendar day changed.
// The pass row is re-read under a row lock so concurrent unlocks cannot
// both pass the quota check.
func ConsumeUnlock(tx *gorm.DB, pass *models.SearchPass, now time.Time) error {
	var current models.SearchPass
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", pass.ID).
		First(&current).
		Error; err != nil {
		return err
	}
	used := UnlocksUsedToday(&current, now)
	if used >= config.PASS_DAILY_UNLOCKS {
		return ErrQuotaExhausted
	}
	today := now.UTC()
	if err := tx.
		Model(&models.SearchPass{}).
		Where(&models.SearchPass{ID: pass.ID}).
		Updates(map[string]any{
			"unlocks_today":    used + 1,
			"last_unlock_date": today,
		}).
		Error; err != nil {
		return err
	}
	remaining := config.PASS_DAILY_UNLOCKS - used - 1
	return tx.
		Model(&models.Profile{}).
		Where(&models.Profile{UID: current.UserID}).
		Update("daily_views_left", remaining).
		Error
}
