package models

import (
	"fmt"
	"time"
)

// Coordinate is the single normalized lat/lon value type used everywhere
// inside the engine. The conversational front end is responsible for
// collapsing whatever shape it receives into this one before calling in.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate rejects out-of-range coordinates before any calculation runs.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of [-90,90]", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of [-180,180]", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// Location is a named point. PlaceID is an opaque identifier from the
// geocoder; manual and relative adjustments legitimately produce none.
type Location struct {
	Name        string     `json:"name"`
	Coordinates Coordinate `json:"coordinates"`
	PlaceID     string     `json:"place_id,omitempty"`
}

// VehicleTier is the closed set of vehicle categories.
type VehicleTier string

const (
	TierMoto    VehicleTier = "moto"
	TierEconomy VehicleTier = "economy"
	TierComfort VehicleTier = "comfort"
	TierPremium VehicleTier = "premium"
	TierXL      VehicleTier = "xl"
)

// Tiers lists all vehicle tiers in canonical quoting order.
func Tiers() []VehicleTier {
	return []VehicleTier{TierMoto, TierEconomy, TierComfort, TierPremium, TierXL}
}

// ParseVehicleTier converts a string to a VehicleTier, rejecting unknowns.
func ParseVehicleTier(s string) (VehicleTier, error) {
	switch VehicleTier(s) {
	case TierMoto, TierEconomy, TierComfort, TierPremium, TierXL:
		return VehicleTier(s), nil
	}
	return "", fmt.Errorf("unknown vehicle tier: %q", s)
}

// FareBreakdown itemizes a quote. Components are rounded independently for
// display, so they need not sum exactly to the final price.
type FareBreakdown struct {
	BaseFare        float64  `json:"base_fare"`
	DistanceFare    float64  `json:"distance_fare"`
	TimeFare        float64  `json:"time_fare"`
	SurgeMultiplier *float64 `json:"surge_multiplier,omitempty"`
}

type PriceQuote struct {
	VehicleType    VehicleTier   `json:"vehicle_type"`
	EstimatedPrice float64       `json:"estimated_price"`
	Currency       string        `json:"currency"`
	Breakdown      FareBreakdown `json:"breakdown"`
}

// ETA pairs an absolute arrival time with a human-readable duration.
type ETA struct {
	ArrivalTime   time.Time `json:"arrival_time"`
	HumanDuration string    `json:"human_duration"`
}

// RouteResult is the committed outcome of the route-calculation phase.
type RouteResult struct {
	DistanceMeters  int        `json:"distance_meters"`
	DurationSeconds int        `json:"duration_seconds"`
	Polyline        string     `json:"polyline,omitempty"`
	Quote           PriceQuote `json:"quote"`
	ETA             ETA        `json:"eta"`
	UsedFallback    bool       `json:"used_fallback"`
	Warning         string     `json:"warning,omitempty"`
}

// RoutePreferences are forwarded to the external directions provider. The
// local fallback cannot honor them; see route.Service.
type RoutePreferences struct {
	AvoidTolls    bool `json:"avoid_tolls"`
	AvoidHighways bool `json:"avoid_highways"`
}

// UserPreferences is the per-session saved preference set.
type UserPreferences struct {
	AvoidTolls           bool        `json:"avoid_tolls"`
	AvoidHighways        bool        `json:"avoid_highways"`
	PreferredVehicleType VehicleTier `json:"preferred_vehicle_type"`
}

// DefaultPreferences mirrors the defaults handed out before a user has
// saved anything.
func DefaultPreferences() UserPreferences {
	return UserPreferences{PreferredVehicleType: TierEconomy}
}

// SavedLocation is a user-named place such as "Home" or "Work".
type SavedLocation struct {
	Name        string     `json:"name"`
	Coordinates Coordinate `json:"coordinates"`
	LastUsed    time.Time  `json:"last_used"`
}

// TripRecord is one entry in a session's trip history.
type TripRecord struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
	VehicleType string    `json:"vehicle_type"`
}
