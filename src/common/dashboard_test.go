package common

import (
	"context"
	"errors"
	"louefacile/src/db"
	"louefacile/src/models"
	"louefacile/src/types"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetDashboardDataPartialFailure(t *testing.T) {
	conn, mock := newMockDB(t)
	db.NewDB(conn)
	mock.MatchExpectationsInOrder(false)

	favID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "properties"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))
	mock.ExpectQuery(`SELECT (.+) FROM "favorites"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "property_id"}).
			AddRow("user-1", favID.String()))
	mock.ExpectQuery(`SELECT (.+) FROM "property_unlocks"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "property_id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(`SELECT (.+) FROM "rental_conclusions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "search_passes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	data := GetDashboardData(context.Background(), "user-1")

	// the failed slice degrades to empty, the rest of the screen survives
	assert.NotNil(t, data.Bookings)
	assert.Empty(t, data.Bookings)
	assert.Equal(t, []string{favID.String()}, data.FavoriteIDs)
	assert.Nil(t, data.Pass)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPickToUnlockSkipsUnlockedAndCaps(t *testing.T) {
	listings := []types.Listing{
		{ID: "a", Available: true, Price: 50000},
		{ID: "b", Available: true, Price: 50000},
		{ID: "c", Available: true, Price: 50000},
		{ID: "d", Available: true, Price: 50000},
		{ID: "e", Available: true, Price: 50000},
		{ID: "rented", Available: false, Price: 50000},
	}
	picked := pickToUnlock(listings, []string{"a"})

	assert.Len(t, picked, 4)
	for _, l := range picked {
		assert.NotEqual(t, "a", l.ID)
		assert.NotEqual(t, "rented", l.ID)
	}
}

func TestPickUpcomingVisits(t *testing.T) {
	now := time.Now()
	bookings := []models.Booking{
		{ID: 1, VisitDate: now.Add(24 * time.Hour), Status: types.BOOKING_PENDING},
		{ID: 2, VisitDate: now.Add(24 * time.Hour), Status: types.BOOKING_CANCELED},
		{ID: 3, VisitDate: now.Add(-24 * time.Hour), Status: types.BOOKING_PENDING},
	}
	upcoming := pickUpcomingVisits(bookings, now)

	assert.Len(t, upcoming, 1)
	assert.Equal(t, uint(1), upcoming[0].ID)
}

func TestSplitConclusions(t *testing.T) {
	conclusions := []models.RentalConclusion{
		{ID: 1, Status: types.CONCLUSION_PENDING},
		{ID: 2, Status: ""},
		{ID: 3, Status: types.CONCLUSION_CONFIRMED},
		{ID: 4, Status: types.CONCLUSION_DECLINED},
	}
	pending, closed := splitConclusions(conclusions)

	assert.Len(t, pending, 2)
	assert.Len(t, closed, 2)
}

func TestPickPostVisitCandidates(t *testing.T) {
	now := time.Now()
	bookings := []models.Booking{
		{ID: 1, VisitDate: now.Add(-72 * time.Hour)},
		{ID: 2, VisitDate: now.Add(-48 * time.Hour)},
		{ID: 3, VisitDate: now.Add(-24 * time.Hour)},
		{ID: 4, VisitDate: now.Add(-12 * time.Hour)},
		{ID: 5, VisitDate: now.Add(24 * time.Hour)},
	}
	conclusions := []models.RentalConclusion{
		{ID: 9, BookingID: 1},
	}
	candidates := pickPostVisitCandidates(bookings, conclusions, now)

	// booking 1 already concluded, booking 5 is in the future, cap is 3
	assert.Len(t, candidates, 3)
	assert.Equal(t, uint(2), candidates[0].ID)
	assert.Equal(t, uint(3), candidates[1].ID)
	assert.Equal(t, uint(4), candidates[2].ID)
}
