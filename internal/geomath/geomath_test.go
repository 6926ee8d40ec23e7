package geomath

import (
	"math"
	"testing"

	"github.com/example/trip-quoting/internal/models"
)

func coord(lat, lon float64) models.Coordinate {
	return models.Coordinate{Latitude: lat, Longitude: lon}
}

func TestHaversineZeroAndSymmetry(t *testing.T) {
	a := coord(10.5, -66.9)
	b := coord(10.6, -66.8)
	if d := Haversine(a, a); d != 0 {
		t.Fatalf("expected 0 for identical points, got %f", d)
	}
	if ab, ba := Haversine(a, b), Haversine(b, a); ab != ba {
		t.Fatalf("not symmetric: %f vs %f", ab, ba)
	}
}

func TestHaversineOneDegreeAtEquator(t *testing.T) {
	// one degree of longitude at the equator is ~111,195 m
	d := Haversine(coord(0, 0), coord(0, 1))
	if math.Abs(d-111195) > 111195*0.01 {
		t.Fatalf("unexpected distance: %f", d)
	}
}

func TestEstimateDurationAt30Kmh(t *testing.T) {
	// 15 km at 30 km/h is 30 minutes
	sec := EstimateDuration(15000, 30)
	if math.Abs(sec-1800) > 1 {
		t.Fatalf("expected ~1800s, got %f", sec)
	}
	if def := EstimateDuration(15000, 0); math.Abs(def-1800) > 1 {
		t.Fatalf("default speed not applied, got %f", def)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	anchor := coord(10.5, -66.9)
	north, err := Project(anchor, North, 250)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Project(north, South, 250)
	if err != nil {
		t.Fatal(err)
	}
	if d := Haversine(anchor, back); d > 1 {
		t.Fatalf("round trip drifted %f m", d)
	}
}

func TestProjectNearPoleRejected(t *testing.T) {
	if _, err := Project(coord(89.95, 0), East, 100); err == nil {
		t.Fatal("expected error near pole")
	}
}

func TestProjectDiagonalSplitsOffset(t *testing.T) {
	anchor := coord(0, 0)
	ne, err := Project(anchor, Northeast, 1000)
	if err != nil {
		t.Fatal(err)
	}
	n, _ := Project(anchor, North, 1000)
	// diagonal latitude gain is cos(45°) of the straight-north gain
	want := (n.Latitude - anchor.Latitude) * diagonalFactor
	if math.Abs((ne.Latitude-anchor.Latitude)-want) > 1e-6 {
		t.Fatalf("diagonal split off: got %f want %f", ne.Latitude-anchor.Latitude, want)
	}
}

func TestNormalizeDirection(t *testing.T) {
	cases := []struct {
		token, hint string
		want        Direction
		resolved    bool
	}{
		{"north", "", North, true},
		{"SouthWest", "", Southwest, true},
		{"right", "", East, true},
		{"left", "", West, true},
		{"", "a la derecha del portón", East, true},
		{"", "hacia atrás", South, true},
		{"sideways", "", North, false},
		{"", "", North, false},
	}
	for _, c := range cases {
		got, resolved := NormalizeDirection(c.token, c.hint)
		if got != c.want || resolved != c.resolved {
			t.Fatalf("NormalizeDirection(%q,%q) = %v,%v; want %v,%v",
				c.token, c.hint, got, resolved, c.want, c.resolved)
		}
	}
}

func TestAdjustConfidenceLevels(t *testing.T) {
	anchor := coord(10.5, -66.9)

	a, err := Adjust(anchor, AdjustInstruction{Direction: "east", DistanceM: 25})
	if err != nil {
		t.Fatal(err)
	}
	if a.Method != MethodTrigonometry || a.Confidence != 0.9 {
		t.Fatalf("explicit distance: got %v conf %f", a.Method, a.Confidence)
	}

	a, _ = Adjust(anchor, AdjustInstruction{Direction: "east"})
	if a.Confidence != 0.7 {
		t.Fatalf("missing distance should lower confidence, got %f", a.Confidence)
	}

	a, _ = Adjust(anchor, AdjustInstruction{Direction: "north", Streets: 2})
	if a.Method != MethodStreetBased || a.Confidence != 0.7 {
		t.Fatalf("street-based: got %v conf %f", a.Method, a.Confidence)
	}

	a, _ = Adjust(anchor, AdjustInstruction{Direction: "north", DistanceM: 20, Landmark: "corner"})
	if a.Confidence != 0.6 {
		t.Fatalf("landmark should lower confidence, got %f", a.Confidence)
	}

	a, _ = Adjust(anchor, AdjustInstruction{Direction: "sideways", DistanceM: 20})
	if a.Confidence != 0.5 {
		t.Fatalf("unresolved direction should be low confidence, got %f", a.Confidence)
	}
}
