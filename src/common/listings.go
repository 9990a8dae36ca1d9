package common

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"louefacile/src/config"
	"louefacile/src/models"
	"louefacile/src/types"

	"github.com/gosimple/slug"
)

// Amenity and lease-term patterns matched against the free text of a
// property ad. Matches are best-effort hints, not authoritative facts.
var (
	reWifi      = regexp.MustCompile(`(?i)wifi|fibre|internet`)
	reAC        = regexp.MustCompile(`(?i)clim|air condition`)
	reFurnished = regexp.MustCompile(`(?i)meubl|furnished`)
	reParking   = regexp.MustCompile(`(?i)parking|garage`)
	reSecurity  = regexp.MustCompile(`(?i)secur|gardien|camera|surveillance`)
	reCharges   = regexp.MustCompile(`(?i)charges? incl|tout compris`)
	reAgency    = regexp.MustCompile(`(?i)frais d'agence|commission`)
	reNoAgency  = regexp.MustCompile(`(?i)0\s*f|aucun`)
	reAdvance   = regexp.MustCompile(`(?i)(\d+)\s*mois[^\n]*avance`)
	reCaution   = regexp.MustCompile(`(?i)(\d+)\s*mois[^\n]*caution`)
)

func inferCategory(raw string) types.PropertyType {
	c := strings.ToLower(raw)
	switch {
	case strings.Contains(c, "villa"):
		return types.PROPERTY_VILLA
	case strings.Contains(c, "studio"):
		return types.PROPERTY_STUDIO
	case strings.Contains(c, "chambre") || strings.Contains(c, "room"):
		return types.PROPERTY_CHAMBRE
	default:
		return types.PROPERTY_APARTMENT
	}
}

func extractMonths(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func clampFloat(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func clampInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// NormalizeProperty maps a stored property row into the Listing the
// storefront renders. It never fails: garbage fields degrade to safe
// defaults and a missing image list gets the placeholder.
func NormalizeProperty(p *models.Property) types.Listing {
	text := p.Description + "\n" + p.RentalConditions

	bedrooms := 1
	if p.Bedrooms != nil && *p.Bedrooms > 0 {
		bedrooms = *p.Bedrooms
	}

	advance := extractMonths(reAdvance, text)
	if p.AdvanceMonths != nil && *p.AdvanceMonths >= 0 {
		advance = *p.AdvanceMonths
	}

	agencyFee := false
	if loc := reAgency.FindStringIndex(text); loc != nil {
		clause := text[loc[0]:]
		if end := strings.IndexByte(clause, '\n'); end >= 0 {
			clause = clause[:end]
		}
		agencyFee = !reNoAgency.MatchString(clause)
	}

	images := make([]string, 0, len(p.ImageURLs))
	for _, v := range p.ImageURLs {
		if s, ok := v.(string); ok && s != "" {
			images = append(images, s)
		}
	}
	if len(images) == 0 {
		images = []string{config.PLACEHOLDER_IMAGE}
	}

	coords := types.Coordinates{Lat: config.DEFAULT_CENTER_LAT, Lng: config.DEFAULT_CENTER_LNG}
	if p.Latitude != nil && p.Longitude != nil {
		coords = types.Coordinates{Lat: *p.Latitude, Lng: *p.Longitude}
	}

	location := p.City
	if location == "" {
		location = p.Address
	}

	listingSlug := p.Slug
	if listingSlug == "" {
		listingSlug = slug.Make(p.Title)
	}

	status := strings.ToLower(p.Status)
	available := status != types.PROPERTY_RENTED && status != types.PROPERTY_SUSPENDED

	return types.Listing{
		ID:          p.ID.String(),
		Slug:        listingSlug,
		Title:       p.Title,
		Description: p.Description,
		Price:       clampFloat(p.Price),
		Location:    location,
		Coordinates: coords,
		Type:        inferCategory(p.Category),
		Bedrooms:    bedrooms,
		Bathrooms:   clampInt(p.Bathrooms),
		Surface:     clampFloat(p.AreaSqft),
		Images:      images,
		Features: types.ListingFeatures{
			Wifi:      reWifi.MatchString(text),
			AC:        reAC.MatchString(text),
			Furnished: reFurnished.MatchString(text),
			Parking:   reParking.MatchString(text),
			Security:  reSecurity.MatchString(text),
		},
		Conditions: types.ListingConditions{
			Advance:         clampInt(advance),
			Caution:         clampInt(extractMonths(reCaution, text)),
			AgencyFee:       agencyFee,
			ChargesIncluded: reCharges.MatchString(text),
		},
		Verified:         p.Verified,
		Available:        available,
		CreatedAt:        p.CreatedAt,
		Address:          p.Address,
		OwnerName:        p.OwnerName,
		OwnerPhone:       p.OwnerPhone,
		RentalConditions: p.RentalConditions,
		Status:           p.Status,
	}
}

const (
	coordOffsetLat = 0.0045
	coordOffsetLng = -0.0045
)

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ObfuscateListing shifts the coordinates by a fixed offset so viewers
// without an active pass only see an approximate position. Returns a copy,
// the input is left untouched.
func ObfuscateListing(l types.Listing) types.Listing {
	l.Coordinates = types.Coordinates{
		Lat: round4(l.Coordinates.Lat + coordOffsetLat),
		Lng: round4(l.Coordinates.Lng + coordOffsetLng),
	}
	return l
}

const (
	affordableMin = 10000
	affordableMax = 75000
)

// ScoreListing ranks a listing for recommendations. Availability and an
// affordable price weigh most, a tenant-friendly advance a bit less,
// security and verification break near ties.
func ScoreListing(l types.Listing) int {
	score := 0
	if l.Available {
		score += 3
	}
	if l.Price >= affordableMin && l.Price <= affordableMax {
		score += 3
	}
	if l.Conditions.Advance <= 3 {
		score += 2
	}
	if l.Features.Security {
		score += 1
	}
	if l.Verified {
		score += 1
	}
	return score
}

// RankListings orders by descending score, newer listings first on ties.
func RankListings(listings []types.Listing) []types.Listing {
	ranked := make([]types.Listing, len(listings))
	copy(ranked, listings)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ScoreListing(ranked[i]), ScoreListing(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	return ranked
}
