package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/trip-quoting/internal/disambig"
	"github.com/example/trip-quoting/internal/events"
	"github.com/example/trip-quoting/internal/geocode"
	"github.com/example/trip-quoting/internal/geomath"
	"github.com/example/trip-quoting/internal/models"
	"github.com/example/trip-quoting/internal/trip"
)

func sessionKey(r *http.Request) string { return mux.Vars(r)["session"] }

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// --- trip state ---

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	st, err := s.Trips.Get(r.Context(), sessionKey(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSetOrigin(w http.ResponseWriter, r *http.Request) {
	s.mutateTrip(w, r, func(st *trip.State, loc models.Location) error {
		if loc.Name == "" {
			loc.Name = "Origin"
		}
		return st.SetOrigin(loc)
	})
}

func (s *Server) handleSetDestination(w http.ResponseWriter, r *http.Request) {
	s.mutateTrip(w, r, func(st *trip.State, loc models.Location) error {
		if loc.Name == "" {
			loc.Name = "Destination"
		}
		return st.SetDestination(loc)
	})
}

func (s *Server) handleAddWaypoint(w http.ResponseWriter, r *http.Request) {
	s.mutateTrip(w, r, func(st *trip.State, loc models.Location) error {
		return st.AddWaypoint(loc)
	})
}

func (s *Server) mutateTrip(w http.ResponseWriter, r *http.Request, apply func(*trip.State, models.Location) error) {
	var loc models.Location
	if err := decode(r, &loc); err != nil {
		writeBadRequest(w, err)
		return
	}
	st, err := s.Trips.Update(r.Context(), sessionKey(r), func(st *trip.State) error {
		return apply(st, loc)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleClearTrip(w http.ResponseWriter, r *http.Request) {
	st, err := s.Trips.Update(r.Context(), sessionKey(r), func(st *trip.State) error {
		st.Clear()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStartTrip(w http.ResponseWriter, r *http.Request) {
	st, err := s.Trips.Update(r.Context(), sessionKey(r), func(st *trip.State) error {
		return st.Start()
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCompleteTrip(w http.ResponseWriter, r *http.Request) {
	st, err := s.Trips.Update(r.Context(), sessionKey(r), func(st *trip.State) error {
		return st.Complete()
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// --- quoting ---

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	st, err := s.Trips.Get(r.Context(), sessionKey(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	est, err := s.Quotes.Estimate(r.Context(), st)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type finalizeRequest struct {
	VehicleType string `json:"vehicle_type"`
	HoldPayment bool   `json:"hold_payment"`
	CustomerID  string `json:"customer_id,omitempty"`
}

type finalizeResponse struct {
	models.RouteResult
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	var req finalizeRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	userPrefs, err := s.Prefs.Preferences(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}

	tier := userPrefs.PreferredVehicleType
	if req.VehicleType != "" {
		tier, err = models.ParseVehicleTier(req.VehicleType)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
	}

	st, err := s.Trips.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.Quotes.Finalize(r.Context(), st, tier, models.RoutePreferences{
		AvoidTolls:    userPrefs.AvoidTolls,
		AvoidHighways: userPrefs.AvoidHighways,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec := models.TripRecord{
		Origin:      st.Origin.Name,
		Destination: st.Destination.Name,
		Date:        time.Now().UTC(),
		Price:       res.Quote.EstimatedPrice,
		VehicleType: string(res.Quote.VehicleType),
	}
	if err := s.Prefs.AddTrip(r.Context(), key, rec); err != nil {
		s.requestLogger(r).Error("record trip history", "error", err)
	}
	if s.Producer != nil {
		ev := events.TripEvent{
			SessionKey:      key,
			Origin:          rec.Origin,
			Destination:     rec.Destination,
			VehicleType:     rec.VehicleType,
			Price:           rec.Price,
			Currency:        res.Quote.Currency,
			DistanceMeters:  res.DistanceMeters,
			DurationSeconds: res.DurationSeconds,
			UsedFallback:    res.UsedFallback,
			FinalizedAt:     rec.Date,
		}
		if err := s.Producer.PublishTrip(ev); err != nil {
			s.requestLogger(r).Error("publish trip event", "error", err)
		}
	}

	out := finalizeResponse{RouteResult: res}
	if s.Payments != nil && req.HoldPayment {
		piID, err := s.Payments.HoldQuote(r.Context(), res.Quote, req.CustomerID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out.PaymentIntentID = piID
	}
	writeJSON(w, http.StatusOK, out)
}

// --- geocoding & disambiguation ---

type geocodeResponse struct {
	Candidates           []geocode.Candidate `json:"candidates"`
	NeedsDisambiguation  bool                `json:"needs_disambiguation"`
	DisambiguationID     string              `json:"disambiguation_id,omitempty"`
	DisambiguationStatus string              `json:"disambiguation_status,omitempty"`
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeBadRequest(w, errors.New("missing q parameter"))
		return
	}
	bias := geocode.Bias{
		Country: r.URL.Query().Get("country"),
		City:    r.URL.Query().Get("city"),
	}
	candidates, err := s.Geocoder.Search(r.Context(), q, bias)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := geocodeResponse{Candidates: candidates}
	resp.NeedsDisambiguation = geocode.NeedsDisambiguation(candidates, s.DisambigConfidence)

	// with a connected conversation session, push the question right away
	session := r.URL.Query().Get("session")
	if resp.NeedsDisambiguation && session != "" && s.WSReg != nil {
		req := disambig.Request{
			ID:       newID(),
			Question: fmt.Sprintf("Which %q did you mean?", q),
		}
		for i, c := range candidates {
			if c.Confidence < s.DisambigConfidence {
				continue
			}
			req.Options = append(req.Options, disambig.Option{
				ID:          fmt.Sprintf("%d", i),
				Label:       c.Name,
				Description: c.Address,
			})
		}
		switch err := s.WSReg.Ask(session, req); err {
		case disambig.ErrPending:
			resp.DisambiguationID = req.ID
			resp.DisambiguationStatus = "pending"
		case disambig.ErrNoSession:
			resp.DisambiguationStatus = "no_session"
		default:
			if err != nil {
				s.requestLogger(r).Error("disambiguation push", "target_session", session, "error", err)
				resp.DisambiguationStatus = "push_failed"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type answerRequest struct {
	RequestID        string `json:"request_id"`
	SelectedOptionID string `json:"selected_option_id"`
}

func (s *Server) handleDisambigAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.Pending.Resolve(sessionKey(r), req.RequestID, req.SelectedOptionID); err != nil {
		writeBadRequest(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- micro adjust ---

type adjustRequest struct {
	Anchor      models.Coordinate         `json:"anchor"`
	Instruction geomath.AdjustInstruction `json:"instruction"`
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	adj, err := geomath.Adjust(req.Anchor, req.Instruction)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adj)
}

// --- preferences, saved locations, history ---

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.Prefs.Preferences(r.Context(), sessionKey(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var p models.UserPreferences
	if err := decode(r, &p); err != nil {
		writeBadRequest(w, err)
		return
	}
	if p.PreferredVehicleType != "" {
		if _, err := models.ParseVehicleTier(string(p.PreferredVehicleType)); err != nil {
			writeBadRequest(w, err)
			return
		}
	} else {
		p.PreferredVehicleType = models.TierEconomy
	}
	if err := s.Prefs.SetPreferences(r.Context(), sessionKey(r), p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSavedLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.Prefs.SavedLocations(r.Context(), sessionKey(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, locs)
}

func (s *Server) handleSaveLocation(w http.ResponseWriter, r *http.Request) {
	var loc models.SavedLocation
	if err := decode(r, &loc); err != nil {
		writeBadRequest(w, err)
		return
	}
	if loc.Name == "" {
		writeBadRequest(w, errors.New("location name is required"))
		return
	}
	if err := loc.Coordinates.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Prefs.SaveLocation(r.Context(), sessionKey(r), loc); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.Prefs.History(r.Context(), sessionKey(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// --- websocket disambiguation channel ---

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		s.requestLogger(r).Error("websocket upgrade failed", "error", err)
		return
	}
	s.WSReg.Add(key, conn)
}
