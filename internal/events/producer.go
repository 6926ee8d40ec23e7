package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// TripEvent is published whenever a quote is finalized. Consumed by the
// history pipeline (cmd/consumer) and anything else downstream.
type TripEvent struct {
	SessionKey      string    `json:"session_key"`
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	VehicleType     string    `json:"vehicle_type"`
	Price           float64   `json:"price"`
	Currency        string    `json:"currency"`
	DistanceMeters  int       `json:"distance_meters"`
	DurationSeconds int       `json:"duration_seconds"`
	UsedFallback    bool      `json:"used_fallback"`
	FinalizedAt     time.Time `json:"finalized_at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &Producer{writer: w}
}

// PublishTrip writes one finalized-trip event, keyed by session so a
// session's trips stay ordered within a partition.
func (p *Producer) PublishTrip(ev TripEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.SessionKey), Value: b})
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
