package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/example/trip-quoting/internal/models"
)

func TestTierMonotonicity(t *testing.T) {
	c := NewCalculator(NoSurge{})
	quotes, err := c.PriceForAllTiers(15000, 1800)
	if err != nil {
		t.Fatal(err)
	}
	if len(quotes) != 5 {
		t.Fatalf("expected 5 tiers, got %d", len(quotes))
	}
	price := map[models.VehicleTier]float64{}
	for _, q := range quotes {
		price[q.VehicleType] = q.EstimatedPrice
	}
	if !(price[models.TierPremium] > price[models.TierComfort] &&
		price[models.TierComfort] > price[models.TierEconomy] &&
		price[models.TierEconomy] > price[models.TierMoto]) {
		t.Fatalf("tier ordering broken: %v", price)
	}
	// xl sits between comfort and premium in the fixed table
	if !(price[models.TierXL] > price[models.TierComfort] && price[models.TierXL] < price[models.TierPremium]) {
		t.Fatalf("xl out of band: %v", price)
	}
}

func TestCanonicalTierOrder(t *testing.T) {
	c := NewCalculator(nil)
	quotes, err := c.PriceForAllTiers(1000, 60)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.VehicleTier{models.TierMoto, models.TierEconomy, models.TierComfort, models.TierPremium, models.TierXL}
	for i, q := range quotes {
		if q.VehicleType != want[i] {
			t.Fatalf("position %d: got %s want %s", i, q.VehicleType, want[i])
		}
	}
}

func TestEconomyFormula(t *testing.T) {
	c := NewCalculator(NoSurge{})
	// 15 km, 30 min: 2.5 + 15*1.2 + 30*0.25 = 28.00
	q, err := c.PriceFor(15000, 1800, models.TierEconomy)
	if err != nil {
		t.Fatal(err)
	}
	if q.EstimatedPrice != 28.00 {
		t.Fatalf("expected 28.00, got %f", q.EstimatedPrice)
	}
	if q.Currency != "USD" {
		t.Fatalf("unexpected currency %s", q.Currency)
	}
	if q.Breakdown.SurgeMultiplier != nil {
		t.Fatal("no surge expected at 1.0")
	}
}

func TestSurgeApplied(t *testing.T) {
	c := NewCalculator(FixedSurge(1.3))
	q, err := c.PriceFor(10000, 600, models.TierMoto)
	if err != nil {
		t.Fatal(err)
	}
	// (1.5 + 10*0.8 + 10*0.15) * 1.3 = 11 * 1.3 = 14.30
	if q.EstimatedPrice != 14.30 {
		t.Fatalf("expected 14.30, got %f", q.EstimatedPrice)
	}
	if q.Breakdown.SurgeMultiplier == nil || *q.Breakdown.SurgeMultiplier != 1.3 {
		t.Fatalf("surge not surfaced in breakdown: %+v", q.Breakdown)
	}
}

// Breakdown components are rounded independently for display, so their sum
// may differ from the final price by a cent or two. That tolerance is the
// contract, not a bug.
func TestBreakdownRoundingTolerance(t *testing.T) {
	c := NewCalculator(NoSurge{})
	q, err := c.PriceFor(3333, 777, models.TierComfort)
	if err != nil {
		t.Fatal(err)
	}
	sum := q.Breakdown.BaseFare + q.Breakdown.DistanceFare + q.Breakdown.TimeFare
	if math.Abs(sum-q.EstimatedPrice) > 0.02 {
		t.Fatalf("breakdown sum %f too far from price %f", sum, q.EstimatedPrice)
	}
}

func TestInconsistentInputsRejected(t *testing.T) {
	c := NewCalculator(NoSurge{})
	for _, in := range [][2]float64{
		{-1, 60},
		{1000, -1},
		{math.NaN(), 60},
		{1000, math.Inf(1)},
	} {
		if _, err := c.PriceFor(in[0], in[1], models.TierEconomy); !errors.Is(err, models.ErrPricingInconsistency) {
			t.Fatalf("inputs %v: expected pricing inconsistency, got %v", in, err)
		}
	}
}

func TestRandomSurgeBounds(t *testing.T) {
	s := DefaultRandomSurge()
	for i := 0; i < 1000; i++ {
		v := s.Next()
		if v != 1.0 && (v < 1.2 || v >= 1.5) {
			t.Fatalf("multiplier %f out of bounds", v)
		}
	}
}
