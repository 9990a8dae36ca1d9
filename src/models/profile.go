package models

import (
	"encoding/json"
	"log"
	"louefacile/src/types"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// Profile is the account row keyed by the identity provider uid. Pass state
// on it is a denormalized read model refreshed from search_passes.
type Profile struct {
	UID            string          `gorm:"primarykey;type:text" json:"uid"`
	FullName       string          `json:"full_name,omitempty"`
	Email          string          `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Role           string          `gorm:"default:'tenant'" json:"role,omitempty"`
	EmailVerified  bool            `json:"email_verified,omitempty"`
	HasActivePass  bool            `json:"has_active_pass,omitempty"`
	PassExpiry     *time.Time      `json:"pass_expiry,omitempty"`
	DailyViewsLeft int             `gorm:"default:2" json:"daily_views_left,omitempty"`
	Metadata       *types.Metadata `gorm:"type:jsonb" json:"-"`

	Properties []*Property   `gorm:"foreignKey:owner_id;references:uid" json:"properties,omitempty"`
	Bookings   []*Booking    `gorm:"foreignKey:user_id;references:uid" json:"bookings,omitempty"`
	Passes     []*SearchPass `gorm:"foreignKey:user_id;references:uid" json:"passes,omitempty"`

	Credentials []*Credential `gorm:"foreignKey:user_id;references:uid" json:"-"`

	types.Timestamps
}

func (p *Profile) WebAuthnID() []byte {
	return []byte(p.UID)
}
func (p *Profile) WebAuthnName() string {
	return p.Email
}
func (p *Profile) WebAuthnDisplayName() string {
	return p.FullName
}
func (p *Profile) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, 0)
	for _, c := range p.Credentials {
		rc, err := c.UnmarshalRawCredentials()
		if err != nil {
			log.Printf("Could not unmarshal credential %s: %s\n", c.ID, err.Error())
			continue
		}
		creds = append(creds, *rc)
	}
	return creds
}

var _ webauthn.User = (*Profile)(nil)

func (p *Profile) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}
