// attest runs the attestation pipeline once from the command line: connect
// the wallet, fetch the audit report, and store its commitment on the ledger.
// With -decrypt it instead recovers every report the connected wallet stored.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"attest-ledger/internal/attest"
	"attest-ledger/internal/config"
	"attest-ledger/internal/db"
	"attest-ledger/internal/ledger/repository"
	ledgerservice "attest-ledger/internal/ledger/service"
	"attest-ledger/internal/pin"
	"attest-ledger/internal/policy/engine"
	"attest-ledger/internal/report"
	"attest-ledger/internal/wallet"
)

func main() {
	auditID := flag.String("audit", "", "Audit id to attest")
	decrypt := flag.Bool("decrypt", false, "Decrypt all reports stored by the connected wallet instead of attesting")
	flag.Parse()

	if !*decrypt && *auditID == "" {
		fmt.Fprintln(os.Stderr, "usage: attest -audit <id> | attest -decrypt")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required; the CLI writes to the shared ledger")
	}
	if cfg.WalletRPCURL == "" {
		log.Fatal("WALLET_RPC_URL is required to connect the wallet")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sess, err := wallet.Connect(ctx, wallet.NewRPCProvider(cfg.WalletRPCURL), cfg.ChainID)
	if err != nil {
		log.Fatalf("connect wallet: %v", err)
	}
	log.Printf("connected %s on chain %d", sess.Address, sess.ChainID)

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()
	ledgerSvc := ledgerservice.NewService(repository.NewPostgresRepository(sqlDB), nil)

	evaluator, err := engine.NewOPAEvaluator(cfg.AdmissionPolicy)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}
	pinClient := pin.NewClient(cfg.PinAPIKey, cfg.PinBaseURL, cfg.PinGatewayURL)
	flow := attest.NewService(pinClient, ledgerSvc, evaluator)

	if *decrypt {
		runDecrypt(ctx, flow, sess)
		return
	}

	rpt, err := report.NewClient(cfg.BackendBaseURL, cfg.BackendAPIKey).GetReport(ctx, *auditID)
	if err != nil {
		log.Fatalf("fetch report %s: %v", *auditID, err)
	}

	result, err := flow.Attest(ctx, sess, *auditID, rpt)
	if err != nil {
		if errors.Is(err, attest.ErrAlreadyStored) {
			log.Printf("audit %s is already stored on the ledger", *auditID)
			return
		}
		log.Fatalf("attest: %v", err)
	}

	rec := result.Record
	log.Printf("stored audit %s at index %d", rec.AuditID, rec.Index)
	log.Printf("  commitment %s", rec.Commitment.Hex())
	log.Printf("  locator    %s", rec.Locator)
}

func runDecrypt(ctx context.Context, flow *attest.Service, sess *wallet.Session) {
	decrypted, err := flow.DecryptAll(ctx, sess)
	if err != nil {
		log.Fatalf("decrypt: %v", err)
	}
	if len(decrypted) == 0 {
		log.Printf("no records stored by %s", sess.Address)
		return
	}
	for _, d := range decrypted {
		fmt.Printf("# %s (index %d)\n%s\n", d.Record.AuditID, d.Record.Index, d.Plaintext)
	}
}
