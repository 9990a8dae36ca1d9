package models

import (
	"log"
	"louefacile/src/lib"
	"louefacile/src/types"
	"time"

	"github.com/google/uuid"
)

type SearchPass struct {
	ID              uuid.UUID  `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID          string     `json:"user_id,omitempty"`
	Status          string     `gorm:"default:'active'" json:"status,omitempty"`
	Amount          int64      `json:"amount,omitempty"`
	Currency        string     `gorm:"default:'xof'" json:"currency,omitempty"`
	StartDate       time.Time  `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	UnlocksToday    int        `json:"unlocks_today,omitempty"`
	LastUnlockDate  *time.Time `json:"last_unlock_date,omitempty"`
	StripeSessionID string     `json:"-"`

	Holder  *Profile          `gorm:"foreignKey:user_id;references:uid" json:"-"`
	Unlocks []*PropertyUnlock `gorm:"foreignKey:pass_id" json:"unlocks,omitempty"`

	types.Timestamps
}

func PassActivatedProducer(id uuid.UUID, payload map[string]any) error {
	err := lib.KafkaProduceMessage("passes_activated_producer", "passes-activated", payload)
	if err != nil {
		log.Printf("Error on producing message: %s\n", err.Error())
		return err
	}
	return nil
}
