package models

import (
	"log"
	"louefacile/src/lib"
	"louefacile/src/types"

	"github.com/google/uuid"
)

type Property struct {
	ID               uuid.UUID        `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title            string           `json:"title,omitempty"`
	Description      string           `json:"description,omitempty"`
	Price            float64          `json:"price,omitempty"`
	Address          string           `json:"address,omitempty"`
	City             string           `json:"city,omitempty"`
	Latitude         *float64         `json:"latitude,omitempty"`
	Longitude        *float64         `json:"longitude,omitempty"`
	Bedrooms         *int             `json:"bedrooms,omitempty"`
	Bathrooms        int              `gorm:"default:1" json:"bathrooms,omitempty"`
	AreaSqft         float64          `json:"area_sqft,omitempty"`
	Category         string           `json:"category,omitempty"`
	Status           string           `gorm:"default:'disponible'" json:"status,omitempty"`
	Verified         bool             `json:"verified,omitempty"`
	ImageURLs        types.JSONBArray `gorm:"type:jsonb" json:"image_urls,omitempty"`
	Slug             string           `gorm:"uniqueIndex" json:"slug,omitempty"`
	OwnerID          string           `json:"owner_id,omitempty"`
	OwnerName        string           `json:"owner_name,omitempty"`
	OwnerPhone       string           `json:"owner_phone,omitempty"`
	AdvanceMonths    *int             `json:"advance_months,omitempty"`
	RentalConditions string           `json:"rental_conditions,omitempty"`

	Owner    *Profile   `gorm:"foreignKey:owner_id;references:uid" json:"-"`
	Bookings []*Booking `gorm:"foreignKey:property_id" json:"bookings,omitempty"`

	types.Timestamps
}

func PropertyListedProducer(id uuid.UUID, payload map[string]any) error {
	err := lib.KafkaProduceMessage("properties_listed_producer", "properties-listed", payload)
	if err != nil {
		log.Printf("Error on producing message: %s\n", err.Error())
		return err
	}
	return nil
}
