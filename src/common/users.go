package common

import (
	"log"
	"louefacile/src/db"
	"louefacile/src/models"
	"louefacile/src/types"
	"strings"
	"time"

	"gorm.io/gorm/clause"
)

// profileName picks a display name in preference order: explicit name,
// signup metadata, email local part, then a generic fallback.
func profileName(name string, metadata types.Metadata, email string) string {
	if name != "" {
		return name
	}
	if metadata != nil {
		if v, ok := metadata["full_name"].(string); ok && v != "" {
			return v
		}
		if v, ok := metadata["name"].(string); ok && v != "" {
			return v
		}
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return "Utilisateur"
}

// EnsureProfile returns the profile row for an identity, creating it on
// first sight. The insert is keyed on uid with conflicts ignored so
// concurrent first logins converge on a single row.
func EnsureProfile(uid string, email string, name string, metadata types.Metadata) (*models.Profile, error) {
	conn := db.GetDb()
	profile := models.Profile{
		UID:      uid,
		Email:    email,
		FullName: profileName(name, metadata, email),
	}
	if metadata != nil {
		profile.Metadata = &metadata
	}
	if err := conn.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoNothing: true,
		}).
		Create(&profile).
		Error; err != nil {
		return nil, err
	}
	var found models.Profile
	if err := conn.Where(&models.Profile{UID: uid}).First(&found).Error; err != nil {
		return nil, err
	}
	return &found, nil
}

// MapUser assembles the User view model from an identity plus its profile.
// A missing profile degrades to identity data alone, it never fails.
func MapUser(uid string, email string, profile *models.Profile) types.User {
	user := types.User{
		ID:    uid,
		Email: email,
	}
	if profile == nil {
		if at := strings.IndexByte(email, '@'); at > 0 {
			user.Name = email[:at]
		}
		return user
	}
	user.Name = profile.FullName
	if profile.Email != "" {
		user.Email = profile.Email
	}

	now := time.Now()
	pass, err := GetActivePass(uid)
	if err != nil {
		log.Printf("Error loading pass for %s: %s\n", uid, err.Error())
		user.HasActivePass = profile.HasActivePass
		user.PassExpiry = profile.PassExpiry
		user.DailyViewsLeft = profile.DailyViewsLeft
		return user
	}
	user.HasActivePass = IsPassActive(pass, now)
	if pass != nil {
		user.PassExpiry = pass.EndDate
	}
	user.DailyViewsLeft = UnlocksRemaining(pass, now)
	return user
}
