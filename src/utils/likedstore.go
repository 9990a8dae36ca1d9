package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"louefacile/src/config"
	"louefacile/src/lib"

	"github.com/redis/go-redis/v9"
)

func likedKey(deviceID string) string {
	return fmt.Sprintf("%s:%s", config.LIKES_STORAGE_KEY, deviceID)
}

// GetLikedListings reads the per-device liked listing ids. Missing or
// corrupt content degrades to an empty list, never an error.
func GetLikedListings(ctx context.Context, deviceID string) []string {
	rd := lib.GetRedisClient()
	raw, err := rd.JSONGet(ctx, likedKey(deviceID), "$").Result()
	if err == redis.Nil || raw == "" {
		return []string{}
	}
	if err != nil {
		log.Printf("Error reading liked listings for %s: %s\n", deviceID, err.Error())
		return []string{}
	}
	var wrapped [][]string
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil || len(wrapped) == 0 {
		return []string{}
	}
	return wrapped[0]
}

// ToggleLikedListing flips a listing id in the device's liked list and
// persists the result. Returns the new list and whether the id is now liked.
func ToggleLikedListing(ctx context.Context, deviceID string, propertyID string) ([]string, bool, error) {
	ids := GetLikedListings(ctx, deviceID)
	next := make([]string, 0, len(ids)+1)
	liked := true
	for _, id := range ids {
		if id == propertyID {
			liked = false
			continue
		}
		next = append(next, id)
	}
	if liked {
		next = append(next, propertyID)
	}
	rd := lib.GetRedisClient()
	if err := rd.JSONSet(ctx, likedKey(deviceID), "$", next).Err(); err != nil {
		log.Printf("Error persisting liked listings for %s: %s\n", deviceID, err.Error())
		return ids, !liked, err
	}
	return next, liked, nil
}
