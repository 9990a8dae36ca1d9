package models

import (
	"louefacile/src/types"

	"github.com/google/uuid"
)

type Favorite struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     string    `gorm:"uniqueIndex:idx_favorite_user_property" json:"user_id,omitempty"`
	PropertyID uuid.UUID `gorm:"uniqueIndex:idx_favorite_user_property" json:"property_id,omitempty"`

	Property *Property `gorm:"foreignKey:property_id" json:"property,omitempty"`
	User     *Profile  `gorm:"foreignKey:user_id;references:uid" json:"-"`

	types.Timestamps
}
