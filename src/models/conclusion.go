package models

import (
	"louefacile/src/types"
	"time"

	"github.com/google/uuid"
)

// RentalConclusion records the owner's verdict after a visit and the window
// the tenant has to confirm it.
type RentalConclusion struct {
	ID                   uint      `gorm:"primarykey" json:"id"`
	BookingID            uint      `gorm:"uniqueIndex" json:"booking_id,omitempty"`
	PropertyID           uuid.UUID `json:"property_id,omitempty"`
	OwnerID              string    `json:"owner_id,omitempty"`
	TenantID             string    `json:"tenant_id,omitempty"`
	Status               string    `gorm:"default:'pending'" json:"status,omitempty"`
	Amount               *float64  `json:"amount,omitempty"`
	ConfirmationDeadline *time.Time `json:"confirmation_deadline,omitempty"`

	Booking  *Booking  `gorm:"foreignKey:booking_id" json:"-"`
	Property *Property `gorm:"foreignKey:property_id" json:"property,omitempty"`

	types.Timestamps
}
