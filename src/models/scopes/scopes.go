package scopes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func WithID(id uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithUser(uid string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", uid)
	}
}

func WithPendingStatus(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", "pending")
}

func WithActiveStatus(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", "active")
}

// ActivePass keeps only passes that still entitle the holder: active status
// and either open ended or not yet past the end date.
func ActivePass(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", "active").Where("end_date IS NULL OR end_date > ?", now)
	}
}
