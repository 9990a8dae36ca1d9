package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type JSONBArray []any
type Metadata map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a JSONBArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONBArray) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a Metadata) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *Metadata) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

const (
	BOOKING_PENDING  = "pending"
	BOOKING_CANCELED = "cancelled"

	CONCLUSION_PENDING   = "pending"
	CONCLUSION_CONFIRMED = "confirmed"
	CONCLUSION_DECLINED  = "declined"

	PASS_ACTIVE  = "active"
	PASS_EXPIRED = "expired"

	PROPERTY_RENTED    = "louee"
	PROPERTY_SUSPENDED = "suspendue"
	PROPERTY_AVAILABLE = "disponible"
)

// PropertyType carries the French labels the storefront renders verbatim.
type PropertyType string

const (
	PROPERTY_APARTMENT PropertyType = "Appartement"
	PROPERTY_STUDIO    PropertyType = "Studio"
	PROPERTY_VILLA     PropertyType = "Villa"
	PROPERTY_CHAMBRE   PropertyType = "Chambre"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ListingFeatures struct {
	Wifi      bool `json:"wifi"`
	AC        bool `json:"ac"`
	Furnished bool `json:"furnished"`
	Parking   bool `json:"parking"`
	Security  bool `json:"security"`
}

type ListingConditions struct {
	Advance         int  `json:"advance"`
	Caution         int  `json:"caution"`
	AgencyFee       bool `json:"agency_fee"`
	ChargesIncluded bool `json:"charges_included"`
}

// Listing is the canonical unit the storefront renders. Feature flags and
// lease conditions are best-effort inferred from free text, never authoritative.
type Listing struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Location    string            `json:"location"`
	Coordinates Coordinates       `json:"coordinates"`
	Type        PropertyType      `json:"type"`
	Bedrooms    int               `json:"bedrooms"`
	Bathrooms   int               `json:"bathrooms"`
	Surface     float64           `json:"surface"`
	Images      []string          `json:"images"`
	Features    ListingFeatures   `json:"features"`
	Conditions  ListingConditions `json:"conditions"`
	Verified    bool              `json:"verified"`
	Available   bool              `json:"available"`
	CreatedAt   time.Time         `json:"created_at"`

	Address          string `json:"address,omitempty"`
	OwnerName        string `json:"owner_name,omitempty"`
	OwnerPhone       string `json:"owner_phone,omitempty"`
	RentalConditions string `json:"rental_conditions,omitempty"`
	Status           string `json:"status,omitempty"`
}

// User is the view model assembled from the identity record plus its profile row.
type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	HasActivePass  bool       `json:"has_active_pass"`
	PassExpiry     *time.Time `json:"pass_expiry,omitempty"`
	DailyViewsLeft int        `json:"daily_views_left"`
}

// ServiceResult is the outcome descriptor domain operations hand back to the
// UI instead of raising: an error string to render, or an informational notice.
type ServiceResult struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Notice string `json:"notice,omitempty"`
}

type RegisterUserRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginUserRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type CreatePropertyRequestBody struct {
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description,omitempty"`
	Price            float64  `json:"price" binding:"required"`
	Address          string   `json:"address" binding:"required"`
	City             string   `json:"city,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Bedrooms         int      `json:"bedrooms,omitempty"`
	Bathrooms        int      `json:"bathrooms,omitempty"`
	AreaSqft         float64  `json:"area_sqft,omitempty"`
	Category         string   `json:"category,omitempty"`
	ImageURLs        []string `json:"image_urls,omitempty"`
	OwnerName        string   `json:"owner_name,omitempty"`
	OwnerPhone       string   `json:"owner_phone,omitempty"`
	AdvanceMonths    *int     `json:"advance_months,omitempty"`
	RentalConditions string   `json:"rental_conditions,omitempty"`
}

type ScheduleVisitRequestBody struct {
	PropertyID string `json:"property_id" binding:"required"`
	VisitDate  string `json:"visit_date" binding:"required,visitdate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type ConcludeVisitRequestBody struct {
	Status               string   `json:"status" binding:"required,oneof=confirmed declined"`
	Amount               *float64 `json:"amount,omitempty"`
	ConfirmationDeadline *string  `json:"confirmation_deadline,omitempty"`
}

// Oauth2FlowState travels encrypted through the provider round trip so the
// callback can tie the response back to the user who started it.
type Oauth2FlowState struct {
	UID      string `json:"uid"`
	Nonce    string `json:"nonce"`
	Redirect string `json:"redirect"`
}

type ToggleLikeRequestBody struct {
	DeviceID   string `json:"device_id" binding:"required"`
	PropertyID string `json:"property_id" binding:"required"`
}
