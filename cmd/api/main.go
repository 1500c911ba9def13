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

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/fittrack/internal/api"
	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/config"
	"example.com/fittrack/internal/outbox"
	"example.com/fittrack/internal/persistence"
	"example.com/fittrack/internal/schedule"
	"example.com/fittrack/internal/tracker"
	httptransport "example.com/fittrack/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	loc, _ := cfg.Location()
	endOfDay, _ := cfg.EndOfDayTime()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := persistence.Open(ctx, cfg.Store())
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer store.Close()

	clock := schedule.InLocation(schedule.SystemClock, loc)
	svc := tracker.New(store,
		tracker.WithClock(clock),
		tracker.WithEndOfDay(endOfDay),
	)

	var background sync.WaitGroup
	var dispatcher *outbox.Dispatcher
	if cfg.KafkaEnabled {
		queue := outbox.NewQueue(store, clock.Now)
		outbox.NewRecorder(queue, cfg.OutboxTopicPrefix).Register(svc.Bus())

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		dispatcher = outbox.NewDispatcher(queue, producer, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)

		dlq := outbox.NewDLQManager(queue, cfg.DLQMaxRetries, cfg.DLQBaseDelay)
		background.Add(1)
		go func() {
			defer background.Done()
			dlq.Run(ctx, cfg.DLQPollInterval, cfg.DLQBatchSize)
		}()
	}

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("failed to start tracker: %v", err)
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	api.NewHandler(svc).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	limiter := httptransport.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	background.Add(1)
	go func() {
		defer background.Done()
		limiter.Cleanup(ctx)
	}()

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	if cfg.JWTSecret == "" {
		log.Printf("JWT_SECRET unset; requests are not authenticated")
	}

	var root http.Handler = authMiddleware.Wrap(mux)
	root = limiter.Wrap(root)
	root = httptransport.CORS(cfg.CORSOrigins)(root)
	root = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(root)
	root = handlers.LoggingHandler(os.Stdout, root)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, root)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("fittrack api listening on %s (store=%s, tz=%s)", cfg.HTTPAddress, cfg.StoreDriver, loc)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
	background.Wait()
}
