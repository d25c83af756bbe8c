// Worker indexes attestation events into Loki: it consumes the Kafka topic the
// server publishes to and pushes each event line to the Loki push API.
// Requires KAFKA_BROKERS and LOKI_URL.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"attest-ledger/internal/config"
	"attest-ledger/internal/telemetry/loki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.LokiURL == "" {
		log.Fatal("worker: LOKI_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	log.Printf("worker: %s (group %s) -> %s", cfg.KafkaTopic, cfg.KafkaGroupID, cfg.LokiURL)
	consume(ctx, reader, cfg.LokiURL)
	log.Println("worker: stopped")
}

func consume(ctx context.Context, reader *kafka.Reader, lokiURL string) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("worker: kafka read: %v", err)
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := loki.PushEventJSON(pushCtx, lokiURL, msg.Value); err != nil {
			log.Printf("worker: loki push: %v", err)
		}
		cancel()
	}
}
