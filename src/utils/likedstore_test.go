package utils

import (
	"context"
	"louefacile/src/lib"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestGetLikedListings(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectJSONGet("louefacile_likes:device-1", "$").SetVal(`[["a","b"]]`)
	ids := GetLikedListings(context.Background(), "device-1")
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLikedListingsCorruptContent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectJSONGet("louefacile_likes:device-1", "$").SetVal(`{not json`)
	ids := GetLikedListings(context.Background(), "device-1")
	assert.Empty(t, ids)
}

func TestGetLikedListingsMissingKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectJSONGet("louefacile_likes:device-1", "$").RedisNil()
	ids := GetLikedListings(context.Background(), "device-1")
	assert.Empty(t, ids)
}

func TestToggleLikedListingOff(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectJSONGet("louefacile_likes:device-1", "$").SetVal(`[["a","b"]]`)
	mock.ExpectJSONSet("louefacile_likes:device-1", "$", []string{"b"}).SetVal("OK")

	ids, liked, err := ToggleLikedListing(context.Background(), "device-1", "a")
	assert.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, []string{"b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikedListingOn(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectJSONGet("louefacile_likes:device-1", "$").SetVal(`[["b"]]`)
	mock.ExpectJSONSet("louefacile_likes:device-1", "$", []string{"b", "a"}).SetVal("OK")

	ids, liked, err := ToggleLikedListing(context.Background(), "device-1", "a")
	assert.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{"b", "a"}, ids)
}
