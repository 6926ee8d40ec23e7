package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/trip-quoting/internal/models"
	"github.com/example/trip-quoting/internal/prefs"
	"github.com/example/trip-quoting/internal/trip"
)

// RedisStore is the durable session backend: trip drafts, preferences,
// saved locations, and trip history, all JSON values keyed by session.
// Implements trip.Store and prefs.Store.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisStore{client: c}
}

func (r *RedisStore) Close() error { return r.client.Close() }

// Ping verifies connectivity, used by readiness checks.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func tripKey(sessionKey string) string     { return "trip:" + sessionKey }
func prefsKey(sessionKey string) string    { return "prefs:" + sessionKey }
func locationKey(sessionKey string) string { return "locations:" + sessionKey }
func historyKey(sessionKey string) string  { return "history:" + sessionKey }

func (r *RedisStore) Get(ctx context.Context, sessionKey string) (trip.State, bool, error) {
	raw, err := r.client.Get(ctx, tripKey(sessionKey)).Bytes()
	if err == redis.Nil {
		return trip.State{}, false, nil
	}
	if err != nil {
		return trip.State{}, false, fmt.Errorf("redis get trip: %w", err)
	}
	var st trip.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return trip.State{}, false, fmt.Errorf("decode trip state: %w", err)
	}
	return st, true, nil
}

func (r *RedisStore) Set(ctx context.Context, sessionKey string, st trip.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode trip state: %w", err)
	}
	return r.client.Set(ctx, tripKey(sessionKey), raw, 0).Err()
}

func (r *RedisStore) Preferences(ctx context.Context, sessionKey string) (models.UserPreferences, error) {
	raw, err := r.client.Get(ctx, prefsKey(sessionKey)).Bytes()
	if err == redis.Nil {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return models.UserPreferences{}, fmt.Errorf("redis get prefs: %w", err)
	}
	var p models.UserPreferences
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.UserPreferences{}, fmt.Errorf("decode prefs: %w", err)
	}
	return p, nil
}

func (r *RedisStore) SetPreferences(ctx context.Context, sessionKey string, p models.UserPreferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	return r.client.Set(ctx, prefsKey(sessionKey), raw, 0).Err()
}

func (r *RedisStore) SavedLocations(ctx context.Context, sessionKey string) ([]models.SavedLocation, error) {
	raw, err := r.client.Get(ctx, locationKey(sessionKey)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get locations: %w", err)
	}
	var locs []models.SavedLocation
	if err := json.Unmarshal(raw, &locs); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return locs, nil
}

func (r *RedisStore) SaveLocation(ctx context.Context, sessionKey string, loc models.SavedLocation) error {
	locs, err := r.SavedLocations(ctx, sessionKey)
	if err != nil {
		return err
	}
	loc.LastUsed = time.Now().UTC()
	locs = prefs.UpsertLocation(locs, loc)
	raw, err := json.Marshal(locs)
	if err != nil {
		return fmt.Errorf("encode locations: %w", err)
	}
	return r.client.Set(ctx, locationKey(sessionKey), raw, 0).Err()
}

func (r *RedisStore) History(ctx context.Context, sessionKey string) ([]models.TripRecord, error) {
	raw, err := r.client.LRange(ctx, historyKey(sessionKey), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get history: %w", err)
	}
	out := make([]models.TripRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.TripRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisStore) AddTrip(ctx context.Context, sessionKey string, rec models.TripRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	return r.client.RPush(ctx, historyKey(sessionKey), raw).Err()
}
