package domain

import (
	"fmt"
	"time"
)

// LocationKind enumerates the location authorization and availability states.
type LocationKind int

const (
	LocationUnknown LocationKind = iota
	LocationDenied
	LocationRestricted
	// LocationAuthorized means permission was granted but no fix has arrived.
	LocationAuthorized
	LocationAvailable
)

func (k LocationKind) String() string {
	switch k {
	case LocationUnknown:
		return "unknown"
	case LocationDenied:
		return "denied"
	case LocationRestricted:
		return "restricted"
	case LocationAuthorized:
		return "authorized"
	case LocationAvailable:
		return "available"
	default:
		return fmt.Sprintf("LocationKind(%d)", int(k))
	}
}

// AuthorizationStatus is what the platform reports after a permission prompt
// or a settings change.
type AuthorizationStatus int

const (
	AuthorizationNotDetermined AuthorizationStatus = iota
	AuthorizationGranted
	AuthorizationDenied
	AuthorizationRestricted
)

func (s AuthorizationStatus) String() string {
	switch s {
	case AuthorizationNotDetermined:
		return "not_determined"
	case AuthorizationGranted:
		return "granted"
	case AuthorizationDenied:
		return "denied"
	case AuthorizationRestricted:
		return "restricted"
	default:
		return fmt.Sprintf("AuthorizationStatus(%d)", int(s))
	}
}

// Fix is a single reading from the platform location service. Seq increases
// with every update the platform delivers and is the only ordering used.
type Fix struct {
	Coordinate Coordinate
	Seq        uint64
}

// LocationState is a snapshot of the provider's state. Coordinate is only
// meaningful when Kind is LocationAvailable.
type LocationState struct {
	Kind       LocationKind
	Coordinate Coordinate
	FixSeq     uint64
	UpdatedAt  time.Time
}

// Available reports whether a coordinate can be used for a report.
func (s LocationState) Available() bool {
	return s.Kind == LocationAvailable
}

// Err translates the state into the error a submission would be refused with.
// It returns nil when a coordinate is available.
func (s LocationState) Err() error {
	switch s.Kind {
	case LocationAvailable:
		return nil
	case LocationDenied, LocationRestricted:
		return ErrPermissionDenied
	default:
		return ErrLocationUnavailable
	}
}
