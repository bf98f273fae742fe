package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file,
// panicking on error. Mirrors the teacher services' bootstrap convention.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load()
	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // optional: .env is a local-dev convenience only

	if err := env.Parse(cfg); err != nil {
		return err
	}
	return nil
}

// Config holds every named constant from the engine's external-interface
// configuration surface (spec §6).
type Config struct {
	// FeeBPS is the fee rate in basis points applied per side per fill.
	FeeBPS uint64 `env:"FEE_BPS" envDefault:"20"`

	// ListingPricePayment is charged, in payment-token smallest units,
	// from the caller's liquid balance at list_token.
	ListingPricePayment uint64 `env:"LISTING_PRICE_PAYMENT" envDefault:"100000000000"`

	// OrderTTL: Janitor closes resting orders older than this.
	OrderTTL time.Duration `env:"ORDER_TTL" envDefault:"2160h"` // 90 days
	// ArchiveTTL: Janitor drops archived Trade records older than this.
	ArchiveTTL time.Duration `env:"ARCHIVE_TTL" envDefault:"4320h"` // 180 days
	// DelistTTL: Janitor delists tokens inactive (and bookless) this long.
	DelistTTL time.Duration `env:"DELIST_TTL" envDefault:"4320h"` // 180 days

	// JanitorBatch bounds how many expired orders a single Janitor tick
	// cancels; the delist and archive-prune sweeps are not bounded by it.
	JanitorBatch int `env:"JANITOR_BATCH" envDefault:"500"`
	// JanitorInterval is the tick period between Janitor sweeps.
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"1h"`

	// LogRing is parsed from LOG_RING; no component reads it, and the
	// engine keeps no in-memory log buffer.
	LogRing int `env:"LOG_RING" envDefault:"10000"`

	// PaymentToken is the principal of the single quote asset. Set via
	// set_payment_token if empty at startup.
	PaymentToken string `env:"PAYMENT_TOKEN"`
	// RevenueAccount is the destination user id for collected fees. Set
	// via set_revenue_account if empty at startup.
	RevenueAccount string `env:"REVENUE_ACCOUNT"`

	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
}

// PostgresConfig configures the versioned-blob and archive persistence.
type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	Database string `env:"DATABASE" envDefault:"beacon"`
	Username string `env:"USERNAME" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:""`
	SSLMode  string `env:"SSL_MODE" envDefault:"prefer"`
}

// RedisConfig configures the token-metadata and read-model cache.
type RedisConfig struct {
	Addrs      []string      `env:"ADDRS" envDefault:"localhost:6379"`
	Password   string        `env:"PASSWORD" envDefault:""`
	DB         int           `env:"DB" envDefault:"0"`
	PrefixKey  string        `env:"PREFIX_KEY" envDefault:"beacon:"`
	DefaultTTL time.Duration `env:"DEFAULT_TTL" envDefault:"5m"`
}

// KafkaConfig configures the Trade archive publisher.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"beacon.trades"`
}
