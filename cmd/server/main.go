// Server exposes the attestation pipeline and ledger reads over HTTP.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attest-ledger/internal/attest"
	attesthandler "attest-ledger/internal/attest/handler"
	"attest-ledger/internal/config"
	"attest-ledger/internal/db"
	healthhandler "attest-ledger/internal/health/handler"
	ledgerhandler "attest-ledger/internal/ledger/handler"
	"attest-ledger/internal/ledger/repository"
	ledgerservice "attest-ledger/internal/ledger/service"
	"attest-ledger/internal/pin"
	"attest-ledger/internal/policy/engine"
	"attest-ledger/internal/report"
	"attest-ledger/internal/security"
	"attest-ledger/internal/server"
	"attest-ledger/internal/telemetry"
	otelsetup "attest-ledger/internal/telemetry/otel"
	"attest-ledger/internal/telemetry/producer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "attest-ledger", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	emitters := []telemetry.EventEmitter{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.KafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
		defer kafkaProducer.Close()
	}
	emitter := telemetry.Fanout(emitters...)

	var repo repository.Repository
	var pinger healthhandler.Pinger
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer sqlDB.Close()
		repo = repository.NewPostgresRepository(sqlDB)
		pinger = sqlDB
	} else {
		log.Println("DATABASE_URL not set; using in-memory ledger (records are lost on restart)")
		repo = repository.NewMemoryRepository()
	}
	ledgerSvc := ledgerservice.NewService(repo, emitter)

	evaluator, err := engine.NewOPAEvaluator(cfg.AdmissionPolicy)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	pinClient := pin.NewClient(cfg.PinAPIKey, cfg.PinBaseURL, cfg.PinGatewayURL)
	flow := attest.NewService(pinClient, ledgerSvc, evaluator)
	reports := report.NewClient(cfg.BackendBaseURL, cfg.BackendAPIKey)

	var verifier *security.TokenVerifier
	if cfg.JWTPublicKey != "" {
		pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
		if err != nil {
			log.Fatalf("jwt public key: %v", err)
		}
		verifier = security.NewTokenVerifier(pub, cfg.JWTIssuer, cfg.JWTAudience)
	} else {
		log.Println("JWT_PUBLIC_KEY not set; API authentication is disabled")
	}

	router := server.NewRouter(server.Deps{
		Attest:   attesthandler.NewServer(flow, reports, cfg.ChainID),
		Ledger:   ledgerhandler.NewServer(ledgerSvc),
		Health:   healthhandler.NewServer(pinger, evaluator),
		Verifier: verifier,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Let in-flight async telemetry emits finish before tearing providers down.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
