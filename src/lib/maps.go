package lib

import (
	"context"
	"louefacile/src/config"

	"googlemaps.github.io/maps"
)

var mapsClient *maps.Client

func GetMapsClient() (*maps.Client, error) {
	if mapsClient != nil {
		return mapsClient, nil
	}
	cli, err := maps.NewClient(maps.WithAPIKey(config.GAPI_API_KEY))
	if err != nil {
		return nil, err
	}
	mapsClient = cli
	return cli, nil
}

func NewMapsClient(c *maps.Client) {
	mapsClient = c
}

// GeocodeAddress resolves a street address to coordinates. Returns nils
// when the geocoder has no result for the address.
func GeocodeAddress(ctx context.Context, address string) (*float64, *float64, error) {
	cli, err := GetMapsClient()
	if err != nil {
		return nil, nil, err
	}
	results, err := cli.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, nil, nil
	}
	loc := results[0].Geometry.Location
	return &loc.Lat, &loc.Lng, nil
}
