// migrate applies the embedded ledger schema migrations: go run ./cmd/migrate.
package main

import (
	"errors"
	"flag"
	"log"

	"attest-ledger/internal/config"
	"attest-ledger/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	switch err := migrate.Run(cfg.DatabaseURL, *direction); {
	case err == nil:
		log.Printf("migrations applied (%s)", *direction)
	case errors.Is(err, migrate.ErrNoChange):
		log.Print("no pending migrations")
	default:
		log.Fatalf("migrate: %v", err)
	}
}
