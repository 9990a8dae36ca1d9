package models

import (
	"louefacile/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenType string

const (
	TokenTypeVerification TokenType = "verification"
	TokenTypeSession      TokenType = "session"
	TokenTypeOTP          TokenType = "otp"
	TokenTypeCode         TokenType = "code"
	TokenTypeAccess       TokenType = "access_token"
)

type Token struct {
	ID            uuid.UUID       `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"-"`
	RequestedBy   string          `gorm:"->;<-:create" json:"-"`
	RequesterType string          `gorm:"->;<-:create" json:"-"`
	Type          TokenType       `gorm:"->;<-:create;type:text" json:"-"`
	TokenName     string          `gorm:"->;<-:create" json:"-"`
	TokenValue    types.JSONB     `gorm:"->;<-:create;type:jsonb" json:"-"`
	TTL           uint            `gorm:"->;<-:create" json:"-"`
	Metadata      *types.Metadata `gorm:"->;<-:create;type:jsonb" json:"-"`
	ExpiresAt     time.Time       `gorm:"-"`
	Status        string          `gorm:"default:'pending'" json:"-"`

	types.Timestamps
}

func (t *Token) AfterFind(tx *gorm.DB) error {
	t.ExpiresAt = t.CreatedAt.Add(time.Duration(t.TTL) * time.Second)
	return nil
}
