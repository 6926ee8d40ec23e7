package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/example/trip-quoting/internal/models"
)

// HistoryStore persists finalized trips for reporting. Fed by the Kafka
// consumer; the serving path reads session history from its session store.
type HistoryStore interface {
	SaveTrip(ctx context.Context, sessionKey string, rec models.TripRecord) error
	TripsForSession(ctx context.Context, sessionKey string) ([]models.TripRecord, error)
}

type PostgresHistory struct {
	db *sql.DB
}

func NewPostgresHistory(dsn string) (*PostgresHistory, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &PostgresHistory{db: db}, nil
}

func (p *PostgresHistory) Close() error { return p.db.Close() }

// Ping backs the consumer's readiness probe.
func (p *PostgresHistory) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *PostgresHistory) SaveTrip(ctx context.Context, sessionKey string, rec models.TripRecord) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO trip_history(session_key, origin, destination, vehicle_type, price, trip_date) VALUES($1,$2,$3,$4,$5,$6)`,
		sessionKey, rec.Origin, rec.Destination, rec.VehicleType, rec.Price, rec.Date)
	return err
}

func (p *PostgresHistory) TripsForSession(ctx context.Context, sessionKey string) ([]models.TripRecord, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT origin, destination, vehicle_type, price, trip_date FROM trip_history WHERE session_key=$1 ORDER BY trip_date`,
		sessionKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TripRecord
	for rows.Next() {
		var rec models.TripRecord
		if err := rows.Scan(&rec.Origin, &rec.Destination, &rec.VehicleType, &rec.Price, &rec.Date); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
