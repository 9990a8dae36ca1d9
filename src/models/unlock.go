package models

import (
	"louefacile/src/types"

	"github.com/google/uuid"
)

// PropertyUnlock marks a listing whose contact details a pass holder has
// already spent quota on. Repeat views of an unlocked listing are free.
type PropertyUnlock struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     string    `gorm:"uniqueIndex:idx_unlock_user_property" json:"user_id,omitempty"`
	PropertyID uuid.UUID `gorm:"uniqueIndex:idx_unlock_user_property" json:"property_id,omitempty"`
	PassID     uuid.UUID `json:"pass_id,omitempty"`

	Property *Property   `gorm:"foreignKey:property_id" json:"property,omitempty"`
	Pass     *SearchPass `gorm:"foreignKey:pass_id" json:"-"`

	types.Timestamps
}
