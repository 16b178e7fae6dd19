package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"token-radar/internal/api"
	"token-radar/internal/config"
	"token-radar/internal/data/market"
	"token-radar/internal/data/pump"
	"token-radar/internal/logger"
	"token-radar/internal/message"
	"token-radar/internal/observability"
	"token-radar/internal/scraper"
	"token-radar/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	esCfg := &logger.ESConfig{
		Enabled:   cfg.ESEnabled,
		Addresses: cfg.ESAddresses,
		Index:     cfg.ESIndex,
	}
	if err := logger.InitLogger(cfg.LogDir, esCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if l := logger.GetLogger(); l != nil {
			l.Close()
		}
	}()

	log.Println("🚀 Starting Token Radar...")

	ctx := context.Background()

	var tokens store.TokenStore
	var alerts store.AlertStore
	if cfg.MySQLDSN != "" {
		db, err := store.OpenMySQL(cfg.MySQLDSN)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		tokens = store.NewMySQLTokenStore(db)
		alerts = store.NewMySQLAlertStore(db)
		log.Println("✅ Connected to MySQL")
	} else {
		// No DSN configured. In-memory stores keep the radar usable for local
		// runs, but everything is lost on restart.
		tokens = store.NewMemoryTokenStore()
		alerts = store.NewMemoryAlertStore()
		log.Println("⚠️  MYSQL_DSN not set, using in-memory stores")
	}

	var publisher message.Publisher = message.NopPublisher{}
	if cfg.KafkaEnabled {
		kp := message.NewKafkaPublisher(cfg.KafkaBrokers)
		publisher = kp
		log.Printf("✅ Kafka publishing enabled (brokers: %v)", cfg.KafkaBrokers)
	}
	defer publisher.Close()

	metrics := observability.NewMetrics("")

	listings := pump.NewClient(cfg.PumpAPIURL, 30*time.Second)
	enricher := market.NewClient(cfg.DexScreenerAPIURL, 10*time.Second)

	ingestor := scraper.NewIngestor(listings, enricher, tokens, publisher, metrics,
		cfg.ScrapeLimit, cfg.EnrichLimit)
	sweeper := scraper.NewSweeper(alerts, tokens, publisher, metrics, cfg.SnapshotLimit)

	ingestSch := scraper.NewScheduler("ingestion",
		time.Duration(cfg.ScrapeInterval)*time.Second, 0,
		func(ctx context.Context) error {
			started := time.Now()
			_, err := ingestor.RunOnce(ctx)
			metrics.ObserveTick("ingest", started, err)
			return err
		})
	sweepSch := scraper.NewScheduler("alert-check",
		time.Duration(cfg.AlertCheckInterval)*time.Second, 0,
		func(ctx context.Context) error {
			started := time.Now()
			_, err := sweeper.RunOnce(ctx)
			metrics.ObserveTick("sweep", started, err)
			return err
		})

	ingestSch.Start()
	sweepSch.Start()

	server := api.NewServer(ingestor, sweeper, ingestSch, sweepSch, alerts, tokens)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: server.Handler(),
	}
	go func() {
		log.Printf("🌐 API server listening on port %s", cfg.APIPort)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server error: %v", err)
		}
	}()

	var metricsSrv *http.Server
	if cfg.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		metricsSrv = &http.Server{
			Addr:    ":" + cfg.MetricsPort,
			Handler: mux,
		}
		go func() {
			log.Printf("📈 Metrics server listening on port %s", cfg.MetricsPort)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("❌ Metrics server error: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")

	ingestSch.Stop()
	sweepSch.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ API server shutdown error: %v", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("❌ Metrics server shutdown error: %v", err)
		}
	}

	log.Println("👋 Token Radar stopped")
}
