package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/example/trip-quoting/internal/events"
	"github.com/example/trip-quoting/internal/logging"
	"github.com/example/trip-quoting/internal/models"
	"github.com/example/trip-quoting/internal/storage"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_trip_events_consumed_total",
		Help: "Total trip events consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_trip_events_invalid_total",
		Help: "Total invalid trip events received",
	})
	historyWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_history_writes_total",
		Help: "Total trip history rows written",
	})
	historyErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_history_errors_total",
		Help: "Total trip history write failures",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, historyWrites, historyErrors)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	logger := logging.NewLogger(os.Getenv("LOG_LEVEL"))

	brokers := []string{"localhost:9092"}
	if env := os.Getenv("KAFKA_BROKERS"); env != "" {
		brokers = brokers[:0]
		for _, b := range strings.Split(env, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "trip-events"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "trip-quoting-consumer"
	}
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		logger.Error("PG_DSN is required")
		os.Exit(1)
	}

	history, err := storage.NewPostgresHistory(dsn)
	if err != nil {
		logger.Error("open postgres", "error", err)
		os.Exit(1)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
			w.Write([]byte("ok"))
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := history.Ping(r.Context()); err != nil {
				http.Error(w, "postgres not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		logger.Info("metrics/health listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = history.Close()
	}()

	logger.Info("consumer listening", "topic", topic, "brokers", brokers, "group", group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Error("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		msgsConsumed.Inc()

		var ev events.TripEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			msgsInvalid.Inc()
			logger.Error("invalid trip event", "error", err)
			continue
		}
		if ev.SessionKey == "" {
			msgsInvalid.Inc()
			logger.Error("trip event missing session key")
			continue
		}

		if err := saveWithRetry(ctx, history, ev, 3, 200*time.Millisecond); err != nil {
			historyErrors.Inc()
			logger.Error("history write failed", "session", ev.SessionKey, "error", err)
			continue
		}
		historyWrites.Inc()
	}
}

// HistorySaver is the subset of the postgres store the consumer needs,
// split out so the retry loop can be tested against a fake.
type HistorySaver interface {
	SaveTrip(ctx context.Context, sessionKey string, rec models.TripRecord) error
}

// saveWithRetry persists a trip event with bounded retries and doubling
// delay. The last error wins when attempts run out.
func saveWithRetry(ctx context.Context, hs HistorySaver, ev events.TripEvent, attempts int, delay time.Duration) error {
	rec := models.TripRecord{
		Origin:      ev.Origin,
		Destination: ev.Destination,
		Date:        ev.FinalizedAt,
		Price:       ev.Price,
		VehicleType: ev.VehicleType,
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = hs.SaveTrip(ctx, ev.SessionKey, rec); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
