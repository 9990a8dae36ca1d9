package config

import (
	"os"
	"strconv"
)

func boolEnv(key string, fallback bool) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return val
}

// PasskeyEnabled gates the webauthn routes. Off unless ENABLE_PASSKEY=true.
func PasskeyEnabled() bool {
	return boolEnv("ENABLE_PASSKEY", false)
}

// OAuthProviderEnabled reports whether a social login provider is accepted.
// Google is on by default; facebook and apple must be switched on explicitly.
func OAuthProviderEnabled(provider string) bool {
	switch provider {
	case "google":
		return boolEnv("AUTH_GOOGLE", true)
	case "facebook":
		return boolEnv("AUTH_FACEBOOK", false)
	case "apple":
		return boolEnv("AUTH_APPLE", false)
	default:
		return false
	}
}
