package route

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/trip-quoting/internal/models"
)

func mapsServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestDistanceMatrixParsesElement(t *testing.T) {
	srv := mapsServer(t, `{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":15234},"duration":{"value":1420}}]}]}`)
	defer srv.Close()

	c := NewGoogleMapsClient(srv.URL, "test-key")
	leg, err := c.DistanceMatrix(context.Background(), origin, dest)
	if err != nil {
		t.Fatal(err)
	}
	if leg.DistanceMeters != 15234 || leg.DurationSeconds != 1420 {
		t.Fatalf("unexpected leg: %+v", leg)
	}
}

func TestRouteSumsLegs(t *testing.T) {
	srv := mapsServer(t, `{"status":"OK","routes":[{"legs":[{"distance":{"value":1000},"duration":{"value":100}},{"distance":{"value":2000},"duration":{"value":200}}],"overview_polyline":{"points":"xyz"}}]}`)
	defer srv.Close()

	c := NewGoogleMapsClient(srv.URL, "test-key")
	sum, err := c.Route(context.Background(), origin, dest, []models.Coordinate{{Latitude: 10.55, Longitude: -66.85}}, models.RoutePreferences{AvoidTolls: true})
	if err != nil {
		t.Fatal(err)
	}
	if sum.DistanceMeters != 3000 || sum.DurationSeconds != 300 || sum.Polyline != "xyz" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		body string
		want error
	}{
		{`{"status":"ZERO_RESULTS","routes":[]}`, ErrNoRoute},
		{`{"status":"NOT_FOUND","routes":[]}`, ErrInvalidRequest},
		{`{"status":"INVALID_REQUEST","routes":[]}`, ErrInvalidRequest},
		{`{"status":"OVER_QUERY_LIMIT","routes":[]}`, ErrUnavailable},
	}
	for _, c := range cases {
		srv := mapsServer(t, c.body)
		client := NewGoogleMapsClient(srv.URL, "test-key")
		_, err := client.Route(context.Background(), origin, dest, nil, models.RoutePreferences{})
		srv.Close()
		if !errors.Is(err, c.want) {
			t.Fatalf("body %s: got %v want %v", c.body, err, c.want)
		}
	}
}

func TestUnknownStatusIsHardFailure(t *testing.T) {
	srv := mapsServer(t, `{"status":"REQUEST_DENIED","error_message":"key revoked","routes":[]}`)
	defer srv.Close()

	c := NewGoogleMapsClient(srv.URL, "test-key")
	_, err := c.Route(context.Background(), origin, dest, nil, models.RoutePreferences{})
	if err == nil || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNoRoute) || errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected unclassified failure, got %v", err)
	}
}

func TestMissingKeyReadsUnavailable(t *testing.T) {
	c := NewGoogleMapsClient("", "")
	if _, err := c.DistanceMatrix(context.Background(), origin, dest); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
