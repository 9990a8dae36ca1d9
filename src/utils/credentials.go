package utils

import (
	"encoding/base64"
	"encoding/json"
	"louefacile/src/db"
	"louefacile/src/models"
	"louefacile/src/types"

	"github.com/go-webauthn/webauthn/webauthn"
)

// GetCredentials loads the stored passkey credentials onto the profile.
func GetCredentials(p *models.Profile) error {
	conn := db.GetDb()
	return conn.
		Where(&models.Credential{UserID: p.UID}).
		Find(&p.Credentials).
		Error
}

// SaveCredential persists a freshly registered passkey for the profile.
func SaveCredential(p *models.Profile, cred *webauthn.Credential, deviceName string) error {
	b, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	var raw types.JSONB
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	row := models.Credential{
		ID:         base64.RawURLEncoding.EncodeToString(cred.ID),
		DeviceName: deviceName,
		UserID:     p.UID,
		PublicKey:  base64.RawURLEncoding.EncodeToString(cred.PublicKey),
		RawCreds:   &raw,
	}
	conn := db.GetDb()
	return conn.Create(&row).Error
}
