package models

import (
	"log"
	"louefacile/src/lib"
	"louefacile/src/types"
	"time"

	"github.com/google/uuid"
)

// Booking is a scheduled property visit.
type Booking struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	PropertyID      uuid.UUID `json:"property_id,omitempty"`
	UserID          string    `json:"user_id,omitempty"`
	VisitDate       time.Time `json:"visit_date,omitempty"`
	Status          string    `gorm:"default:'pending'" json:"status,omitempty"`
	CalendarEventID string    `json:"-"`

	Property   *Property         `gorm:"foreignKey:property_id" json:"property,omitempty"`
	Visitor    *Profile          `gorm:"foreignKey:user_id;references:uid" json:"visitor,omitempty"`
	Conclusion *RentalConclusion `gorm:"foreignKey:booking_id" json:"conclusion,omitempty"`

	types.Timestamps
}

func BookingCreatedProducer(id uint, payload map[string]any) error {
	err := lib.KafkaProduceMessage("bookings_created_producer", "bookings-created", payload)
	if err != nil {
		log.Printf("Error on producing message: %s\n", err.Error())
		return err
	}
	return nil
}

func BookingCanceledProducer(id uint, payload map[string]any) error {
	err := lib.KafkaProduceMessage("bookings_canceled_producer", "bookings-canceled", payload)
	if err != nil {
		log.Printf("Error on producing message: %s\n", err.Error())
		return err
	}
	return nil
}
