// Command server runs the trust-badge and promotion engine: HTTP API, payment
// confirmation consumer, and the audit pipeline, all wired from environment
// configuration.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"trustgate/internal/catalog"
	entitlementhandler "trustgate/internal/entitlement/handler"
	"trustgate/internal/entitlement/resolver"
	entservice "trustgate/internal/entitlement/service"
	"trustgate/internal/entitlement/store/purchase"
	"trustgate/internal/entitlement/sweeper"
	listinghandler "trustgate/internal/listing/handler"
	"trustgate/internal/listing/store/flags"
	"trustgate/internal/payment"
	"trustgate/internal/payment/consumer"
	paymenthandler "trustgate/internal/payment/handler"
	"trustgate/internal/platform/config"
	"trustgate/internal/platform/httpserver"
	"trustgate/internal/platform/logger"
	"trustgate/internal/platform/metrics"
	"trustgate/internal/platform/middleware"
	"trustgate/internal/platform/postgres"
	platformredis "trustgate/internal/platform/redis"
	"trustgate/internal/ranking"
	httptransport "trustgate/internal/transport/http"
	"trustgate/internal/verification/aireview"
	verificationhandler "trustgate/internal/verification/handler"
	verservice "trustgate/internal/verification/service"
	"trustgate/internal/verification/store/vcase"
	"trustgate/pkg/platform/audit/publisher"
	auditpg "trustgate/pkg/platform/audit/store/postgres"
)

const (
	shutdownTimeout = 10 * time.Second
	flagCacheTTL    = 30 * time.Second
	dedupTTL        = 24 * time.Hour
	auditBuffer     = 256
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	pool, err := postgres.OpenPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("pgx pool failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWith(registry)

	auditPub := publisher.NewPublisher(auditpg.New(db), publisher.WithAsyncBuffer(auditBuffer))
	defer auditPub.Close()

	var flagStore flags.Store = flags.NewPostgres(pool)
	if redisClient != nil {
		flagStore = flags.NewCached(flagStore, redisClient.Client, flagCacheTTL, log)
	}

	purchaseStore := purchase.NewPostgres(db)
	caseStore := vcase.NewPostgres(db)
	cat := catalog.Default()

	recompute := resolver.New(purchaseStore, flagStore, m, log)
	checkout := payment.NewHTTPClient(cfg.Checkout)

	entSvc := entservice.New(purchaseStore, recompute, checkout, cat, auditPub, m, log)
	verSvc := verservice.New(caseStore, aireview.New(cfg.AIReview), checkout, entSvc, cat, auditPub, m, log)
	sweepRunner := sweeper.NewRunner(purchaseStore, recompute, verSvc, auditPub, m, log, cfg.SweepChunkSize)

	var dedup payment.Dedup = payment.NewMemoryDedup()
	if redisClient != nil {
		dedup = payment.NewRedisDedup(redisClient.Client, dedupTTL)
	}
	gate := payment.NewGate(dedup, entSvc, verSvc, auditPub, log)

	healthChecks := map[string]httptransport.HealthCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient.Health
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Verification:    verificationhandler.New(verSvc, log),
		Entitlement:     entitlementhandler.New(entSvc, sweepRunner, log),
		Listing:         listinghandler.New(flagStore, ranking.NewScorer(cat), log),
		Payment:         paymenthandler.New(gate, cfg.Checkout.WebhookSecret, log),
		JWTValidator:    middleware.NewTokenValidator(cfg.JWTSigningKey),
		SweepSecretHash: cfg.SweepSecretHash,
		Registry:        registry,
		HealthChecks:    healthChecks,
		Logger:          log,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 {
		paymentConsumer, err := consumer.New(cfg.Kafka, gate, log)
		if err != nil {
			log.Error("kafka consumer setup failed", "error", err)
			os.Exit(1)
		}
		g.Go(func() error {
			defer paymentConsumer.Close()
			log.Info("payment consumer started",
				"brokers", cfg.Kafka.Brokers,
				"topic", cfg.Kafka.PaymentTopic,
			)
			return paymentConsumer.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
