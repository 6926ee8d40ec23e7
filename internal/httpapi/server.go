package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/trip-quoting/internal/disambig"
	"github.com/example/trip-quoting/internal/events"
	"github.com/example/trip-quoting/internal/geocode"
	"github.com/example/trip-quoting/internal/models"
	"github.com/example/trip-quoting/internal/payments"
	"github.com/example/trip-quoting/internal/prefs"
	"github.com/example/trip-quoting/internal/quoting"
	"github.com/example/trip-quoting/internal/trip"
)

// Server exposes the quoting engine's tool surface over HTTP. The
// conversational front end is the only intended client; everything here is
// session-scoped request/response with no cross-session state.
type Server struct {
	Trips    *trip.Manager
	Quotes   *quoting.Service
	Prefs    prefs.Store
	Geocoder geocode.Searcher
	Pending  *disambig.Pending
	WSReg    *disambig.WSRegistry
	Producer *events.Producer       // optional
	Payments *payments.StripeClient // optional

	DisambigConfidence float64

	logger *slog.Logger
	mux    *mux.Router
}

type Deps struct {
	Trips              *trip.Manager
	Quotes             *quoting.Service
	Prefs              prefs.Store
	Geocoder           geocode.Searcher
	Pending            *disambig.Pending
	WSReg              *disambig.WSRegistry
	Producer           *events.Producer
	Payments           *payments.StripeClient
	DisambigConfidence float64
	Logger             *slog.Logger
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.DisambigConfidence <= 0 {
		d.DisambigConfidence = geocode.DefaultDisambiguationThreshold
	}
	s := &Server{
		Trips:              d.Trips,
		Quotes:             d.Quotes,
		Prefs:              d.Prefs,
		Geocoder:           d.Geocoder,
		Pending:            d.Pending,
		WSReg:              d.WSReg,
		Producer:           d.Producer,
		Payments:           d.Payments,
		DisambigConfidence: d.DisambigConfidence,
		logger:             d.Logger,
		mux:                mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/trips/{session}", s.handleGetTrip).Methods("GET")
	api.HandleFunc("/trips/{session}/origin", s.handleSetOrigin).Methods("POST")
	api.HandleFunc("/trips/{session}/destination", s.handleSetDestination).Methods("POST")
	api.HandleFunc("/trips/{session}/waypoints", s.handleAddWaypoint).Methods("POST")
	api.HandleFunc("/trips/{session}/clear", s.handleClearTrip).Methods("POST")
	api.HandleFunc("/trips/{session}/start", s.handleStartTrip).Methods("POST")
	api.HandleFunc("/trips/{session}/complete", s.handleCompleteTrip).Methods("POST")

	api.HandleFunc("/trips/{session}/estimate", s.handleEstimate).Methods("POST")
	api.HandleFunc("/trips/{session}/finalize", s.handleFinalize).Methods("POST")

	api.HandleFunc("/geocode", s.handleGeocode).Methods("GET")
	api.HandleFunc("/disambiguation/{session}/answer", s.handleDisambigAnswer).Methods("POST")
	api.HandleFunc("/locations/adjust", s.handleAdjust).Methods("POST")

	api.HandleFunc("/sessions/{session}/preferences", s.handleGetPreferences).Methods("GET")
	api.HandleFunc("/sessions/{session}/preferences", s.handleSetPreferences).Methods("PUT")
	api.HandleFunc("/sessions/{session}/locations", s.handleSavedLocations).Methods("GET")
	api.HandleFunc("/sessions/{session}/locations", s.handleSaveLocation).Methods("POST")
	api.HandleFunc("/sessions/{session}/history", s.handleHistory).Methods("GET")

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/{session}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeBadRequest keeps client-input failures in the same JSON error shape
// as the taxonomy-mapped ones; the API never mixes plain-text bodies in.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// writeError maps the shared error taxonomy onto HTTP statuses. Anything
// unclassified reads as an upstream failure, since the only unhandled
// errors left at this point come from the directions provider or a store.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCoordinate):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrPreconditionFailed):
		writeJSON(w, http.StatusPreconditionFailed, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrPricingInconsistency):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
