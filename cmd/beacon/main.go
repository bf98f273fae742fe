package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beacon-exchange/beacon/internal/app/engine"
	archiveuc "github.com/beacon-exchange/beacon/internal/usecase/archive"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	bookreg "github.com/beacon-exchange/beacon/internal/usecase/book"
	"github.com/beacon-exchange/beacon/internal/usecase/custody"
	"github.com/beacon-exchange/beacon/internal/usecase/janitor"
	"github.com/beacon-exchange/beacon/internal/usecase/matcher"
	"github.com/beacon-exchange/beacon/internal/usecase/tokens"

	kafkaarchive "github.com/beacon-exchange/beacon/internal/infrastructure/kafka/archive"
	"github.com/beacon-exchange/beacon/internal/infrastructure/ledger"
	pgarchive "github.com/beacon-exchange/beacon/internal/infrastructure/postgresql/archive"
	pgstate "github.com/beacon-exchange/beacon/internal/infrastructure/postgresql/state"
	rediscache "github.com/beacon-exchange/beacon/internal/infrastructure/redis/cache"

	"github.com/beacon-exchange/beacon/pkg/config"
	"github.com/beacon-exchange/beacon/pkg/logger"
	migrationpg "github.com/beacon-exchange/beacon/pkg/migration"
	"github.com/beacon-exchange/beacon/pkg/postgresql"
	"github.com/beacon-exchange/beacon/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	if err := config.Load(cfg); err != nil {
		panic(err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	pgClient, err := postgresql.NewClient(ctx, postgresql.Config{
		Host:                   cfg.Postgres.Host,
		Port:                   cfg.Postgres.Port,
		Database:               cfg.Postgres.Database,
		Username:               cfg.Postgres.Username,
		Password:               cfg.Postgres.Password,
		SSLMode:                cfg.Postgres.SSLMode,
		MaxConns:               50,
		MinConns:               10,
		MaxConnLifetime:        2 * time.Hour,
		MaxConnIdleTime:        15 * time.Minute,
		ConnectTimeout:         5 * time.Second,
		QueryTimeout:           30 * time.Second,
		StatementCacheCapacity: 512,
		ApplicationName:        "beacon",
		SearchPath:             "public",
	})
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_postgres"})
		return
	}
	defer pgClient.Close()

	runner := migrationpg.NewRunner(ctx, pgClient, migrationpg.Config{MigrationDir: "migrations"})
	if err := runner.MigrateUp(0); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "migrate_up"})
		return
	}

	redisConfig := redis.DefaultConfig()
	redisConfig.Addrs = cfg.Redis.Addrs
	redisConfig.Password = cfg.Redis.Password
	redisConfig.DB = cfg.Redis.DB
	redisConfig.PrefixKey = cfg.Redis.PrefixKey
	redisConfig.DefaultTTL = cfg.Redis.DefaultTTL
	redisClient := redis.NewClient(log, redisConfig)
	if err := redisClient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_redis"})
		return
	}
	defer func() { _ = redisClient.Disconnect(ctx) }()

	metaCache := rediscache.NewMetadataCache(redisClient, log, cfg.Redis.PrefixKey)
	priceCache := rediscache.NewPriceCache(redisClient, log, cfg.Redis.PrefixKey, cfg.Redis.DefaultTTL)

	tokensReg := tokens.NewRegistry()
	books := bookreg.New()
	bal := balances.New()
	cust := custody.NewCustodied()

	ledgerFactory := ledger.NewFactory(ledgerGatewayURL(), 10*time.Second)

	tokensUC := tokens.New(tokensReg, books, bal, ledgerFactory, log, cfg.ListingPricePayment, cfg.PaymentToken, cfg.RevenueAccount)
	tokensUC.SetMetadataCache(metaCache)
	custodyUC := custody.New(bal, tokensReg, cust, ledgerFactory, log, "beacon-custody")

	buffer := archiveuc.NewBuffer()
	archiveRepo := pgarchive.NewRepository(pgClient, log)
	kafkaPublisher := kafkaarchive.NewPublisher(kafkaarchive.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	}, log)
	defer kafkaPublisher.Close()
	flusher := archiveuc.NewFlusher(buffer, log, 5*time.Second, archiveRepo, kafkaPublisher)

	now := func() int64 { return time.Now().UnixNano() }

	match := matcher.New(bal, books, tokensUC, cust, buffer, log, cfg.FeeBPS, cfg.PaymentToken, cfg.RevenueAccount, now, 10_000)

	sweep := janitor.New(tokensReg, tokensUC, books, bal, archiveRepo, log, now, janitor.Config{
		OrderTTL:     cfg.OrderTTL,
		ArchiveTTL:   cfg.ArchiveTTL,
		DelistTTL:    cfg.DelistTTL,
		Interval:     cfg.JanitorInterval,
		Batch:        cfg.JanitorBatch,
		PaymentToken: cfg.PaymentToken,
	})

	stateStore := pgstate.NewStore(pgClient, log)

	eng := engine.New(engine.Deps{
		TokensReg:    tokensReg,
		TokensUC:     tokensUC,
		Books:        books,
		Balances:     bal,
		Custody:      cust,
		CustodyUC:    custodyUC,
		Matcher:      match,
		Janitor:      sweep,
		Flusher:      flusher,
		State:        stateStore,
		Trades:       archiveRepo,
		PriceCache:   priceCache,
		Logger:       log,
		PaymentToken: cfg.PaymentToken,
	})

	if err := eng.Start(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "start_engine"})
		return
	}

	log.Info("beacon started")

	sig := <-sigChan
	log.Info("received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := eng.Checkpoint(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "checkpoint_engine"})
	}
	if err := eng.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_engine"})
	}

	log.Info("beacon shutdown complete")
}

// ledgerGatewayURL is read directly from the environment rather than
// added to config.Config: it names an infrastructure endpoint, not one
// of the engine's own named constants (spec §6).
func ledgerGatewayURL() string {
	if v := os.Getenv("LEDGER_GATEWAY_URL"); v != "" {
		return v
	}
	return "http://localhost:8090"
}
