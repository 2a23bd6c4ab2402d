package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"greenpulse/internal/auth"
	"greenpulse/internal/config"
	"greenpulse/internal/ingest"
	"greenpulse/internal/pipeline"
	"greenpulse/internal/report"
	"greenpulse/internal/store"
	transport "greenpulse/internal/transport/http"
	"greenpulse/internal/views"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	sinks := pipeline.Sinks{}

	// Both stores are optional: the engine keeps full in-memory views and
	// serves the API without them.
	if db, err := store.NewTimescale(ctx, cfg); err != nil {
		log.Printf("timescale disabled: %v", err)
	} else {
		defer db.Close()
		sinks.Archive = store.NewArchiveWriter(db, cfg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sinks.Archive.Run(ctx)
		}()
	}

	var keyLookup auth.KeyLookup
	if live, err := store.NewLive(ctx, cfg); err != nil {
		log.Printf("redis disabled: %v", err)
	} else {
		defer live.Close()
		sinks.Live = live
		keyLookup = live
		if err := live.LoadRoutes(ctx, cfg.ExpectedRoutes); err != nil {
			log.Printf("route plan load: %v", err)
		}
	}

	reg := views.NewRegistry()
	leaderboard := report.NewLeaderboard()
	pipe := pipeline.New(cfg, reg, leaderboard, sinks)

	wg.Add(1)
	go func() {
		defer wg.Done()
		pipe.Run(ctx)
	}()

	startSources(ctx, &wg, cfg, pipe)

	// Prometheus on its own listener, matching the main port split.
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: promhttp.Handler(),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("metrics: listening on %s", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsSrv.Shutdown(shutdownCtx)
	}()

	authn := auth.New(cfg, keyLookup)
	srv := transport.NewServer(cfg, authn, pipe, reg, leaderboard)
	if err := srv.Run(ctx); err != nil {
		log.Printf("http server: %v", err)
	}

	stop()
	wg.Wait()
	log.Println("shutdown complete")
}

// startSources launches every configured ingestion transport. HTTP ingest is
// always available; MQTT, NATS and CSV replay are enabled by configuration.
func startSources(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, pipe *pipeline.Pipeline) {
	if cfg.MQTTBrokerURL != "" {
		src := ingest.NewMQTTSource(cfg, pipe.Events())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := src.Run(ctx); err != nil {
				log.Printf("mqtt source: %v", err)
			}
		}()
	}
	if cfg.NATSServerURL != "" {
		src := ingest.NewNATSSource(cfg, pipe.Events())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := src.Run(ctx); err != nil {
				log.Printf("nats source: %v", err)
			}
		}()
	}
	if cfg.GPSCSVPath != "" || cfg.FuelCSVPath != "" || cfg.ShipmentCSVPath != "" {
		src := ingest.NewCSVReplay(cfg, pipe.Events())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := src.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("csv replay: %v", err)
			}
		}()
	}
}
