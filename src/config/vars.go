package config

import "os"

var (
	API_ENV    = os.Getenv("API_ENV")
	API_HOST   = os.Getenv("API_HOST")
	API_DOMAIN = os.Getenv("API_DOMAIN")
	APP_HOST   = os.Getenv("APP_HOST")
	API_SECRET = os.Getenv("API_SECRET")

	OAUTH_CLIENT_ID     = os.Getenv("OAUTH_CLIENT_ID")
	OAUTH_CLIENT_SECRET = os.Getenv("OAUTH_CLIENT_SECRET")
	GAPI_API_KEY        = os.Getenv("GAPI_API_KEY")

	SMTP_FROM = os.Getenv("SMTP_FROM")
)

const (
	// Search pass product terms. Amount is FCFA, not cents.
	PASS_AMOUNT        = 2000
	PASS_DURATION_DAYS = 7
	PASS_DAILY_UNLOCKS = 2

	PLACEHOLDER_IMAGE = "https://images.unsplash.com/photo-1484154218962-a197022b5858?auto=format&fit=crop&w=1200&q=80"

	// Fallback map center (Lome) for rows with no coordinates.
	DEFAULT_CENTER_LAT = 6.1375
	DEFAULT_CENTER_LNG = 1.2123

	// Key prefix for the per-device liked-listings list in redis.
	LIKES_STORAGE_KEY = "louefacile_likes"
)
