package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/trip-quoting/internal/geomath"
	"github.com/example/trip-quoting/internal/models"
)

// Candidate is one geocoding result, confidence-scored in [0,1].
type Candidate struct {
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	Coordinates models.Coordinate `json:"coordinates"`
	PlaceID     string            `json:"place_id,omitempty"`
	Confidence  float64           `json:"confidence"`
	Country     string            `json:"country,omitempty"`
	City        string            `json:"city,omitempty"`
}

// Bias narrows and re-ranks results: country/city filters plus an optional
// session coordinate that boosts nearby candidates.
type Bias struct {
	Country         string
	City            string
	SessionLocation *models.Coordinate
}

// Searcher is the geocoding boundary consumed by the HTTP layer.
type Searcher interface {
	Search(ctx context.Context, query string, bias Bias) ([]Candidate, error)
}

const defaultNominatimEndpoint = "https://nominatim.openstreetmap.org"

// NominatimClient geocodes free text against an OSM Nominatim server.
type NominatimClient struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

func NewNominatimClient(endpoint string) *NominatimClient {
	if endpoint == "" {
		endpoint = defaultNominatimEndpoint
	}
	return &NominatimClient{
		Endpoint:  endpoint,
		UserAgent: "trip-quoting/1.0",
		Client:    &http.Client{Timeout: 3 * time.Second},
	}
}

type nominatimResult struct {
	PlaceID     json.Number `json:"place_id"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	DisplayName string      `json:"display_name"`
	Importance  float64     `json:"importance"`
	Address     struct {
		Country string `json:"country"`
		City    string `json:"city"`
		Town    string `json:"town"`
		State   string `json:"state"`
	} `json:"address"`
}

// Search geocodes a query, returning candidates ordered by confidence as
// scored by rank, importance, and bias agreement.
func (n *NominatimClient) Search(ctx context.Context, query string, bias Bias) ([]Candidate, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "5")
	q.Set("addressdetails", "1")
	if bias.Country != "" && len(bias.Country) >= 2 {
		q.Set("countrycodes", strings.ToLower(bias.Country[:2]))
	}
	if bias.City != "" {
		q.Set("city", bias.City)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.Endpoint+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.UserAgent)

	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocoding response: %w", err)
	}

	out := make([]Candidate, 0, len(results))
	for i, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		c := Candidate{
			Name:        firstSegment(r.DisplayName),
			Address:     r.DisplayName,
			Coordinates: models.Coordinate{Latitude: lat, Longitude: lon},
			PlaceID:     r.PlaceID.String(),
			Country:     r.Address.Country,
			City:        pickCity(r.Address.City, r.Address.Town),
		}
		c.Confidence = score(r, i, len(results), bias, c.Coordinates)
		out = append(out, c)
	}
	return out, nil
}

// score blends result importance with position and bias agreement. Earlier
// results get a small bonus; matching country/city and proximity to the
// session location each add a bit more, clamped at 1.
func score(r nominatimResult, index, total int, bias Bias, coord models.Coordinate) float64 {
	conf := 0.8
	if r.Importance > 0 {
		conf = min1(r.Importance)
	}
	conf = min1(conf + float64(total-index)/float64(total)*0.2)

	if bias.Country != "" && strings.Contains(strings.ToLower(r.Address.Country), strings.ToLower(bias.Country)) {
		conf = min1(conf + 0.1)
	}
	if bias.City != "" {
		city := strings.ToLower(bias.City)
		if strings.Contains(strings.ToLower(r.Address.City), city) ||
			strings.Contains(strings.ToLower(r.Address.Town), city) {
			conf = min1(conf + 0.1)
		}
	}
	if bias.SessionLocation != nil {
		if d := geomath.Haversine(coord, *bias.SessionLocation); d < 5000 {
			conf = min1(conf + 0.1*(1-d/5000))
		}
	}
	return conf
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func firstSegment(displayName string) string {
	if i := strings.Index(displayName, ","); i > 0 {
		return strings.TrimSpace(displayName[:i])
	}
	return displayName
}

func pickCity(city, town string) string {
	if city != "" {
		return city
	}
	return town
}

// DefaultDisambiguationThreshold is the confidence above which a candidate
// counts as a serious contender.
const DefaultDisambiguationThreshold = 0.7

// NeedsDisambiguation reports whether more than one candidate clears the
// confidence threshold, meaning the user has to be asked which one they
// meant before the trip state can be touched.
func NeedsDisambiguation(candidates []Candidate, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultDisambiguationThreshold
	}
	n := 0
	for _, c := range candidates {
		if c.Confidence >= threshold {
			n++
		}
	}
	return n > 1
}
