// Package domain models marine-wildlife sightings and the device location
// state that gates reporting them.
//
// # Sightings
//
// A sighting records a species, a free-text description and a WGS-84
// coordinate. The remote store assigns an integer ID when it accepts a
// sighting; until then the ID is absent (nil) and the sighting is identified
// by the client-local sequence number the store hands out on insertion:
//
//	(species, description, latitude, longitude, local sequence)
//
// Content is never assumed to be unique. Two reports of the same turtle at
// the same beach are two sightings.
//
// # Wire Format
//
// The remote store speaks plain JSON:
//
//	POST /sightings   {"species":"Tartaruga","description":"vista na praia","latitude":-23.5,"longitude":-46.6}
//	                  → same object plus "id"
//	GET  /sightings   → array of the above
//
// An optional "place_name" is filled by servers that reverse geocode new
// sightings. Clients ignore it when absent.
//
// # Location States
//
// Location availability follows the platform authorization flow:
//
//	Unknown ──prompt──▶ Authorized ──fix──▶ Available(coordinate)
//	   │                                        │
//	   └──────────▶ Denied / Restricted ◀───────┘
//
// Nothing moves back to Unknown. Denied and Restricted only change through
// an explicit authorization callback (the user changed a system setting);
// they are never retried automatically. Fixes are ordered by the platform's
// update sequence, not by timestamp, because device clocks are not trusted.
//
// # Errors
//
// [ErrPermissionDenied], [ErrLocationUnavailable] and [ErrInvalidSpecies]
// refuse a submission before anything is stored. [SyncError] reports a
// failed exchange with the remote store and never undoes local state.
package domain
