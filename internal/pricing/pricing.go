package pricing

import (
	"fmt"
	"math"

	"github.com/example/trip-quoting/internal/models"
)

// Fare holds the fixed constants for one vehicle tier, in USD.
type Fare struct {
	BaseFare      float64
	PerKmRate     float64
	PerMinuteRate float64
}

// fareTable is process-wide, read-only configuration shared by every
// session. The same constants back both the multi-tier estimate and the
// committed single-tier price; divergence between the two phases would
// break the quoting contract.
var fareTable = map[models.VehicleTier]Fare{
	models.TierMoto:    {BaseFare: 1.5, PerKmRate: 0.8, PerMinuteRate: 0.15},
	models.TierEconomy: {BaseFare: 2.5, PerKmRate: 1.2, PerMinuteRate: 0.25},
	models.TierComfort: {BaseFare: 4.0, PerKmRate: 1.8, PerMinuteRate: 0.35},
	models.TierPremium: {BaseFare: 6.0, PerKmRate: 2.5, PerMinuteRate: 0.50},
	models.TierXL:      {BaseFare: 5.0, PerKmRate: 2.0, PerMinuteRate: 0.40},
}

// FareFor exposes the constants for a tier, mostly for tests and display.
func FareFor(tier models.VehicleTier) (Fare, bool) {
	f, ok := fareTable[tier]
	return f, ok
}

const currency = "USD"

// SurgeSource produces the demand multiplier applied to a committed price.
// Implementations must return values >= 1.0.
type SurgeSource interface {
	Next() float64
}

// Calculator computes quotes from measured distance and duration.
type Calculator struct {
	surge SurgeSource
}

// NewCalculator builds a Calculator with the given surge source. A nil
// source disables surge entirely (multiplier pinned at 1.0).
func NewCalculator(surge SurgeSource) *Calculator {
	if surge == nil {
		surge = NoSurge{}
	}
	return &Calculator{surge: surge}
}

// PriceFor computes the committed quote for one tier, applying the surge
// multiplier drawn from the calculator's source.
func (c *Calculator) PriceFor(distanceMeters, durationSeconds float64, tier models.VehicleTier) (models.PriceQuote, error) {
	mult := c.surge.Next()
	if mult < 1.0 {
		mult = 1.0
	}
	return quote(distanceMeters, durationSeconds, tier, mult)
}

// PriceForAllTiers computes indicative quotes for every tier in canonical
// order. No surge is applied at this stage; the committed price is where
// demand pricing bites.
func (c *Calculator) PriceForAllTiers(distanceMeters, durationSeconds float64) ([]models.PriceQuote, error) {
	out := make([]models.PriceQuote, 0, len(fareTable))
	for _, tier := range models.Tiers() {
		q, err := quote(distanceMeters, durationSeconds, tier, 1.0)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func quote(distanceMeters, durationSeconds float64, tier models.VehicleTier, mult float64) (models.PriceQuote, error) {
	fare, ok := fareTable[tier]
	if !ok {
		return models.PriceQuote{}, fmt.Errorf("unknown vehicle tier: %q", tier)
	}
	if distanceMeters < 0 || durationSeconds < 0 ||
		!isFinite(distanceMeters) || !isFinite(durationSeconds) || !isFinite(mult) {
		return models.PriceQuote{}, fmt.Errorf("%w: distance=%f duration=%f surge=%f",
			models.ErrPricingInconsistency, distanceMeters, durationSeconds, mult)
	}

	distanceKm := distanceMeters / 1000
	durationMinutes := durationSeconds / 60

	distanceFare := distanceKm * fare.PerKmRate
	timeFare := durationMinutes * fare.PerMinuteRate
	total := (fare.BaseFare + distanceFare + timeFare) * mult

	breakdown := models.FareBreakdown{
		BaseFare:     round2(fare.BaseFare),
		DistanceFare: round2(distanceFare),
		TimeFare:     round2(timeFare),
	}
	if mult > 1.0 {
		m := round2(mult)
		breakdown.SurgeMultiplier = &m
	}

	return models.PriceQuote{
		VehicleType:    tier,
		EstimatedPrice: round2(total),
		Currency:       currency,
		Breakdown:      breakdown,
	}, nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
