package common

import (
	"context"
	"log"
	"louefacile/src/db"
	"louefacile/src/models"
	"louefacile/src/models/scopes"
	"louefacile/src/types"
	"sync"
	"time"
)

const (
	toUnlockCap  = 4
	postVisitCap = 3
)

type DashboardData struct {
	Listings    []types.Listing           `json:"listings"`
	FavoriteIDs []string                  `json:"favorite_ids"`
	UnlockedIDs []string                  `json:"unlocked_ids"`
	Bookings    []models.Booking          `json:"bookings"`
	Conclusions []models.RentalConclusion `json:"conclusions"`
	Pass        *models.SearchPass        `json:"pass,omitempty"`

	ToUnlock            []types.Listing           `json:"to_unlock"`
	UpcomingVisits      []models.Booking          `json:"upcoming_visits"`
	PendingDecisions    []models.RentalConclusion `json:"pending_decisions"`
	ClosedDecisions     []models.RentalConclusion `json:"closed_decisions"`
	PostVisitCandidates []models.Booking          `json:"post_visit_candidates"`
}

// GetDashboardData fans out the six reads backing the dashboard screen and
// joins on all of them. A failed slice degrades to empty instead of
// failing the whole screen, so each goroutine swallows its own error.
func GetDashboardData(ctx context.Context, uid string) *DashboardData {
	data := &DashboardData{
		Listings:    []types.Listing{},
		FavoriteIDs: []string{},
		UnlockedIDs: []string{},
		Bookings:    []models.Booking{},
		Conclusions: []models.RentalConclusion{},
	}
	conn := db.GetDb().WithContext(ctx)

	var wg sync.WaitGroup
	wg.Add(6)

	go func() {
		defer wg.Done()
		var properties []models.Property
		if err := conn.Order("created_at DESC").Find(&properties).Error; err != nil {
			log.Printf("dashboard: listings fetch failed: %s\n", err.Error())
			return
		}
		listings := make([]types.Listing, 0, len(properties))
		for i := range properties {
			listings = append(listings, NormalizeProperty(&properties[i]))
		}
		data.Listings = listings
	}()

	go func() {
		defer wg.Done()
		var favorites []models.Favorite
		if err := conn.Scopes(scopes.WithUser(uid)).Find(&favorites).Error; err != nil {
			log.Printf("dashboard: favorites fetch failed: %s\n", err.Error())
			return
		}
		ids := make([]string, 0, len(favorites))
		for _, f := range favorites {
			ids = append(ids, f.PropertyID.String())
		}
		data.FavoriteIDs = ids
	}()

	go func() {
		defer wg.Done()
		var unlocks []models.PropertyUnlock
		if err := conn.Scopes(scopes.WithUser(uid)).Find(&unlocks).Error; err != nil {
			log.Printf("dashboard: unlocks fetch failed: %s\n", err.Error())
			return
		}
		ids := make([]string, 0, len(unlocks))
		for _, u := range unlocks {
			ids = append(ids, u.PropertyID.String())
		}
		data.UnlockedIDs = ids
	}()

	go func() {
		defer wg.Done()
		var bookings []models.Booking
		if err := conn.
			Where(&models.Booking{UserID: uid}).
			Preload("Property").
			Order("visit_date ASC").
			Find(&bookings).
			Error; err != nil {
			log.Printf("dashboard: bookings fetch failed: %s\n", err.Error())
			return
		}
		data.Bookings = bookings
	}()

	go func() {
		defer wg.Done()
		var conclusions []models.RentalConclusion
		if err := conn.
			Where(&models.RentalConclusion{TenantID: uid}).
			Preload("Property").
			Order("created_at DESC").
			Find(&conclusions).
			Error; err != nil {
			log.Printf("dashboard: conclusions fetch failed: %s\n", err.Error())
			return
		}
		data.Conclusions = conclusions
	}()

	go func() {
		defer wg.Done()
		pass, err := GetActivePass(uid)
		if err != nil {
			log.Printf("dashboard: pass fetch failed: %s\n", err.Error())
			return
		}
		data.Pass = pass
	}()

	wg.Wait()

	now := time.Now()
	data.ToUnlock = pickToUnlock(data.Listings, data.UnlockedIDs)
	data.UpcomingVisits = pickUpcomingVisits(data.Bookings, now)
	data.PendingDecisions, data.ClosedDecisions = splitConclusions(data.Conclusions)
	data.PostVisitCandidates = pickPostVisitCandidates(data.Bookings, data.Conclusions, now)
	return data
}

func pickToUnlock(listings []types.Listing, unlockedIDs []string) []types.Listing {
	unlocked := make(map[string]bool, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlocked[id] = true
	}
	candidates := make([]types.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Available && !unlocked[l.ID] {
			candidates = append(candidates, l)
		}
	}
	ranked := RankListings(candidates)
	if len(ranked) > toUnlockCap {
		ranked = ranked[:toUnlockCap]
	}
	return ranked
}

func pickUpcomingVisits(bookings []models.Booking, now time.Time) []models.Booking {
	upcoming := []models.Booking{}
	for _, b := range bookings {
		if b.VisitDate.After(now) && b.Status != types.BOOKING_CANCELED {
			upcoming = append(upcoming, b)
		}
	}
	return upcoming
}

// splitConclusions separates pending decisions from closed ones. An absent
// status counts as pending.
func splitConclusions(conclusions []models.RentalConclusion) (pending, closed []models.RentalConclusion) {
	pending = []models.RentalConclusion{}
	closed = []models.RentalConclusion{}
	for _, c := range conclusions {
		if c.Status == "" || c.Status == types.CONCLUSION_PENDING {
			pending = append(pending, c)
		} else {
			closed = append(closed, c)
		}
	}
	return pending, closed
}

func pickPostVisitCandidates(bookings []models.Booking, conclusions []models.RentalConclusion, now time.Time) []models.Booking {
	concluded := make(map[uint]bool, len(conclusions))
	for _, c := range conclusions {
		concluded[c.BookingID] = true
	}
	candidates := []models.Booking{}
	for _, b := range bookings {
		if b.VisitDate.Before(now) && !concluded[b.ID] {
			candidates = append(candidates, b)
			if len(candidates) == postVisitCap {
				break
			}
		}
	}
	return candidates
}
