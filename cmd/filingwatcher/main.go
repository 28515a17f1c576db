package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rsmith2002/filingwatcher/internal/analytics"
	"github.com/rsmith2002/filingwatcher/internal/api"
	"github.com/rsmith2002/filingwatcher/internal/cache"
	"github.com/rsmith2002/filingwatcher/internal/config"
	"github.com/rsmith2002/filingwatcher/internal/database"
	"github.com/rsmith2002/filingwatcher/internal/flags"
	"github.com/rsmith2002/filingwatcher/internal/kafka"
	"github.com/rsmith2002/filingwatcher/internal/pipeline"
)

func main() {
	once := flag.Bool("once", false, "process rows stored since the last successful run, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.Pipeline.MigrationsPath); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	for i := range cfg.Watchlist {
		if err := db.UpsertCompany(&cfg.Watchlist[i]); err != nil {
			log.Fatalf("Failed to sync watchlist: %v", err)
		}
	}
	if len(cfg.Watchlist) > 0 {
		log.Printf("Watchlist synced: %d companies", len(cfg.Watchlist))
	}

	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("Price cache disabled: %v", err)
		} else {
			defer redisClient.Close()
		}
	}
	prices := cache.NewPriceCache(db, redisClient, cfg.Redis.TTL, cfg.Redis.LatestTTL)

	var (
		flagPublisher     flags.Publisher
		analyticsNotifier analytics.Notifier
	)
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		defer producer.Close()
		flagPublisher = producer
		analyticsNotifier = producer
	}

	flagService := flags.NewService(db, prices, flagPublisher)
	refresher := analytics.NewRefresher(db, prices, cfg.Analytics.ReturnWindows, analyticsNotifier)
	runner := pipeline.NewRunner(db, flagService, refresher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		run, err := runner.RunSince(ctx)
		if err != nil {
			log.Fatalf("Run failed: %v", err)
		}
		if run.Errors != "" {
			log.Printf("Run errors: %s", run.Errors)
		}
		return
	}

	var wg sync.WaitGroup

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.IngestTopic, cfg.Kafka.GroupID, runner)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil {
				log.Printf("Kafka consumer stopped: %v", err)
			}
		}()
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if cfg.Pipeline.Schedule != "" {
		_, err := scheduler.AddFunc(cfg.Pipeline.Schedule, func() {
			if _, err := runner.RunSince(ctx); err != nil {
				log.Printf("Scheduled run failed: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("Invalid pipeline schedule %q: %v", cfg.Pipeline.Schedule, err)
		}
		scheduler.Start()
		log.Printf("Pipeline scheduled: %s", cfg.Pipeline.Schedule)
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           api.SetupRoutes(api.NewHandler(db, runner)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting HTTP server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	log.Println("Shutdown signal received")

	cancel()
	<-scheduler.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}

	wg.Wait()
	log.Println("Shutdown complete")
}
