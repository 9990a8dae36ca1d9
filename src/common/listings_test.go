package common

import (
	"louefacile/src/config"
	"louefacile/src/models"
	"louefacile/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePropertyDefaults(t *testing.T) {
	p := models.Property{
		Title: "Appartement sans photos",
		Price: -5000,
	}
	listing := NormalizeProperty(&p)

	assert.Equal(t, []string{config.PLACEHOLDER_IMAGE}, listing.Images)
	assert.Equal(t, 1, listing.Bedrooms)
	assert.Equal(t, float64(0), listing.Price)
	assert.True(t, listing.Available)
	assert.Equal(t, types.PROPERTY_APARTMENT, listing.Type)
	assert.Equal(t, config.DEFAULT_CENTER_LAT, listing.Coordinates.Lat)
	assert.Equal(t, config.DEFAULT_CENTER_LNG, listing.Coordinates.Lng)
	assert.NotEmpty(t, listing.Slug)
}

func TestNormalizePropertyInference(t *testing.T) {
	p := models.Property{
		Title:            "Bel appartement Agoe",
		Description:      "Wifi fibre, climatisation, entierement meuble, parking prive, gardien de nuit, charges incluses",
		RentalConditions: "2 mois d'avance.\n1 mois de caution.\nFrais d'agence: commission de 10%",
	}
	listing := NormalizeProperty(&p)

	assert.True(t, listing.Features.Wifi)
	assert.True(t, listing.Features.AC)
	assert.True(t, listing.Features.Furnished)
	assert.True(t, listing.Features.Parking)
	assert.True(t, listing.Features.Security)
	assert.True(t, listing.Conditions.ChargesIncluded)
	assert.True(t, listing.Conditions.AgencyFee)
	assert.Equal(t, 2, listing.Conditions.Advance)
	assert.Equal(t, 1, listing.Conditions.Caution)
}

func TestNormalizePropertyNoAgencyFee(t *testing.T) {
	p := models.Property{
		Title:            "Studio",
		RentalConditions: "Frais d'agence: aucun",
	}
	listing := NormalizeProperty(&p)
	assert.False(t, listing.Conditions.AgencyFee)

	p.RentalConditions = "Frais d'agence: 0 FCFA"
	listing = NormalizeProperty(&p)
	assert.False(t, listing.Conditions.AgencyFee)
}

func TestNormalizePropertyStructuredAdvanceWins(t *testing.T) {
	advance := 6
	p := models.Property{
		Title:            "Villa",
		AdvanceMonths:    &advance,
		RentalConditions: "2 mois d'avance",
	}
	listing := NormalizeProperty(&p)
	assert.Equal(t, 6, listing.Conditions.Advance)
}

func TestNormalizePropertyCategoryPriority(t *testing.T) {
	cases := map[string]types.PropertyType{
		"Grande Villa avec studio": types.PROPERTY_VILLA,
		"Studio moderne":           types.PROPERTY_STUDIO,
		"chambre salon":            types.PROPERTY_CHAMBRE,
		"Single Room":              types.PROPERTY_CHAMBRE,
		"Duplex":                   types.PROPERTY_APARTMENT,
		"":                         types.PROPERTY_APARTMENT,
	}
	for category, want := range cases {
		p := models.Property{Title: "x", Category: category}
		assert.Equal(t, want, NormalizeProperty(&p).Type, "category %q", category)
	}
}

func TestNormalizePropertyAvailability(t *testing.T) {
	for status, want := range map[string]bool{
		"louee":      false,
		"suspendue":  false,
		"disponible": true,
		"":           true,
	} {
		p := models.Property{Title: "x", Status: status}
		assert.Equal(t, want, NormalizeProperty(&p).Available, "status %q", status)
	}
}

func TestObfuscateListing(t *testing.T) {
	original := types.Listing{
		Coordinates: types.Coordinates{Lat: 6.1375, Lng: 1.2123},
	}
	shifted := ObfuscateListing(original)

	assert.Equal(t, 6.142, shifted.Coordinates.Lat)
	assert.Equal(t, 1.2078, shifted.Coordinates.Lng)
	// input stays untouched
	assert.Equal(t, 6.1375, original.Coordinates.Lat)
	assert.Equal(t, 1.2123, original.Coordinates.Lng)
}

func TestScoreListing(t *testing.T) {
	l := types.Listing{
		Price:     50000,
		Available: true,
		Conditions: types.ListingConditions{
			Advance: 2,
		},
		Features: types.ListingFeatures{Security: true},
		Verified: true,
	}
	assert.Equal(t, 10, ScoreListing(l))

	l.Available = false
	assert.Equal(t, 7, ScoreListing(l))
}

func TestRankListingsTieBreak(t *testing.T) {
	older := types.Listing{ID: "older", Price: 50000, Available: true, CreatedAt: time.Now().Add(-48 * time.Hour)}
	newer := types.Listing{ID: "newer", Price: 50000, Available: true, CreatedAt: time.Now()}
	cheapButUnavailable := types.Listing{ID: "worst", Price: 50000, Available: false, CreatedAt: time.Now()}

	ranked := RankListings([]types.Listing{cheapButUnavailable, older, newer})
	assert.Equal(t, "newer", ranked[0].ID)
	assert.Equal(t, "older", ranked[1].ID)
	assert.Equal(t, "worst", ranked[2].ID)
}
