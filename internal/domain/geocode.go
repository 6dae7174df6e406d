package domain

import (
	"context"
	"log/slog"
)

// EnrichWithPlaceName fills PlaceName from a reverse geocode of the
// sighting's coordinate. A nil geocoder, a lookup error or an empty result
// leaves the sighting unchanged (graceful degradation).
func EnrichWithPlaceName(ctx context.Context, s Sighting, geocoder Geocoder, logger *slog.Logger) Sighting {
	if geocoder == nil || s.PlaceName != "" {
		return s
	}

	result, err := geocoder.ReverseGeocode(ctx, s.Latitude, s.Longitude)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"species", s.Species,
			"lat", s.Latitude,
			"lon", s.Longitude,
			"error", err,
		)
		return s
	}

	switch {
	case result.PlaceName != "":
		s.PlaceName = result.PlaceName
	case result.FormattedAddress != "":
		s.PlaceName = result.FormattedAddress
	}
	return s
}
