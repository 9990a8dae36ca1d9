package common

import (
	"louefacile/src/config"
	"louefacile/src/models"
	"louefacile/src/types"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("opening stub database: %s", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening gorm database: %s", err)
	}
	return gormDB, mock
}

func TestIsPassActive(t *testing.T) {
	now := time.Now()
	future := now.Add(72 * time.Hour)
	past := now.Add(-72 * time.Hour)

	assert.False(t, IsPassActive(nil, now))
	assert.True(t, IsPassActive(&models.SearchPass{Status: types.PASS_ACTIVE}, now))
	assert.True(t, IsPassActive(&models.SearchPass{Status: types.PASS_ACTIVE, EndDate: &future}, now))
	assert.False(t, IsPassActive(&models.SearchPass{Status: types.PASS_ACTIVE, EndDate: &past}, now))
	assert.False(t, IsPassActive(&models.SearchPass{Status: types.PASS_EXPIRED, EndDate: &future}, now))
}

func TestUnlocksUsedToday(t *testing.T) {
	now := time.Now()
	future := now.Add(72 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	pass := models.SearchPass{
		Status:         types.PASS_ACTIVE,
		EndDate:        &future,
		UnlocksToday:   2,
		LastUnlockDate: &yesterday,
	}
	// counter silently rolls over on a new day
	assert.Equal(t, 0, UnlocksUsedToday(&pass, now))

	pass.LastUnlockDate = &now
	assert.Equal(t, 2, UnlocksUsedToday(&pass, now))

	pass.Status = types.PASS_EXPIRED
	assert.Equal(t, 0, UnlocksUsedToday(&pass, now))

	assert.Equal(t, 0, UnlocksUsedToday(nil, now))
}

func TestUnlocksRemaining(t *testing.T) {
	now := time.Now()
	future := now.Add(72 * time.Hour)

	pass := models.SearchPass{
		Status:         types.PASS_ACTIVE,
		EndDate:        &future,
		UnlocksToday:   1,
		LastUnlockDate: &now,
	}
	assert.Equal(t, config.PASS_DAILY_UNLOCKS-1, UnlocksRemaining(&pass, now))

	pass.UnlocksToday = config.PASS_DAILY_UNLOCKS + 5
	assert.Equal(t, 0, UnlocksRemaining(&pass, now))

	assert.Equal(t, config.PASS_DAILY_UNLOCKS, UnlocksRemaining(nil, now))
}

func TestGate(t *testing.T) {
	now := time.Now()
	active := models.SearchPass{Status: types.PASS_ACTIVE}

	for _, cap := range []Capability{CapPreciseMap, CapContactDetails, CapVisitScheduling} {
		assert.True(t, Gate(cap, &active, now), "capability %s", cap)
		assert.False(t, Gate(cap, nil, now), "capability %s", cap)
	}
	assert.False(t, Gate(Capability("unknown"), &active, now))
}

func TestConsumeUnlockChecksQuotaUnderLock(t *testing.T) {
	conn, mock := newMockDB(t)
	now := time.Now()
	passID := uuid.New()
	end := now.Add(72 * time.Hour)

	// the caller holds a stale snapshot with quota left, the locked
	// re-read says it is spent
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "search_passes"(.+)FOR UPDATE`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "user_id", "status", "end_date", "unlocks_today", "last_unlock_date"}).
			AddRow(passID.String(), "user-1", types.PASS_ACTIVE, end, config.PASS_DAILY_UNLOCKS, now.UTC()))
	mock.ExpectRollback()

	stale := models.SearchPass{ID: passID, UserID: "user-1", Status: types.PASS_ACTIVE, EndDate: &end}
	err := conn.Transaction(func(tx *gorm.DB) error {
		return ConsumeUnlock(tx, &stale, now)
	})

	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
