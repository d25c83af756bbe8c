// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; when empty the server falls back to the in-memory ledger.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// PinAPIKey is the JWT for the pinning service. Required for uploads.
	PinAPIKey string `mapstructure:"PIN_API_KEY"`
	// PinBaseURL is the pinning API base URL (default https://api.pinata.cloud).
	PinBaseURL string `mapstructure:"PIN_BASE_URL"`
	// PinGatewayURL is the gateway used for fetches (default https://gateway.pinata.cloud).
	PinGatewayURL string `mapstructure:"PIN_GATEWAY_URL"`

	// ChainID is the network attestation sessions must be on (default 11155111, Sepolia).
	ChainID int64 `mapstructure:"CHAIN_ID"`
	// WalletRPCURL is the JSON-RPC endpoint for the wallet provider boundary (CLI flows).
	WalletRPCURL string `mapstructure:"WALLET_RPC_URL"`

	// BackendBaseURL is the finance backend used to fetch audit reports by id.
	BackendBaseURL string `mapstructure:"BACKEND_BASE_URL"`
	// BackendAPIKey is the bearer token for the finance backend.
	BackendAPIKey string `mapstructure:"BACKEND_API_KEY"`

	// JWTPublicKey is the PEM-encoded public key (or path to file) used to verify API bearer tokens.
	// When empty, the HTTP API runs unauthenticated (development).
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim (e.g. "finance-api").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim (e.g. "attest-ledger").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	// AdmissionPolicy is an optional Rego module replacing the built-in report admission policy.
	AdmissionPolicy string `mapstructure:"ADMISSION_POLICY"`

	// OTLPEndpoint enables OTel export when set (e.g. http://localhost:4317).
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Telemetry (optional). When Kafka brokers are set, the server also emits events to Kafka.
	// KafkaBrokers is a comma-separated list of broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the topic for attestation events (default attest-events).
	KafkaTopic string `mapstructure:"KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push events (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PIN_API_KEY", "")
	v.SetDefault("PIN_BASE_URL", "https://api.pinata.cloud")
	v.SetDefault("PIN_GATEWAY_URL", "https://gateway.pinata.cloud")
	v.SetDefault("CHAIN_ID", 11155111)
	v.SetDefault("WALLET_RPC_URL", "")
	v.SetDefault("BACKEND_BASE_URL", "")
	v.SetDefault("BACKEND_API_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "finance-api")
	v.SetDefault("JWT_AUDIENCE", "attest-ledger")
	v.SetDefault("ADMISSION_POLICY", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "attest-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "attest-telemetry-worker")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.ChainID <= 0 {
		return nil, errors.New("config: CHAIN_ID must be positive")
	}
	if cfg.Env == "production" && cfg.JWTPublicKey == "" {
		return nil, errors.New("config: JWT_PUBLIC_KEY must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// KafkaBrokersList returns broker addresses from the comma-separated config.
// Used to decide if Kafka telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
