package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cataloghandler "coverdesk/internal/catalog/handler"
	catalogservice "coverdesk/internal/catalog/service"
	catalogstore "coverdesk/internal/catalog/store"
	claimhandler "coverdesk/internal/claims/handler"
	claimmetrics "coverdesk/internal/claims/metrics"
	claimservice "coverdesk/internal/claims/service"
	claimstore "coverdesk/internal/claims/store"
	contracthandler "coverdesk/internal/contracts/handler"
	contractmetrics "coverdesk/internal/contracts/metrics"
	contractservice "coverdesk/internal/contracts/service"
	contractstore "coverdesk/internal/contracts/store"
	"coverdesk/internal/docstore"
	"coverdesk/internal/events"
	"coverdesk/internal/jwttoken"
	"coverdesk/internal/platform/config"
	"coverdesk/internal/platform/httpserver"
	"coverdesk/internal/platform/logger"
	"coverdesk/internal/platform/metrics"
	"coverdesk/internal/platform/middleware"
	platformredis "coverdesk/internal/platform/redis"
	"coverdesk/internal/sequence"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal domain packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var db docstore.Store
	if cfg.FirestoreProjectID != "" {
		fs, err := docstore.NewFirestore(ctx, cfg.FirestoreProjectID)
		if err != nil {
			log.Error("failed to connect to firestore", "error", err)
			os.Exit(1)
		}
		db = fs
	} else {
		log.Warn("FIRESTORE_PROJECT_ID not set, using in-memory store")
		db = docstore.NewMemory()
	}
	defer db.Close()

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	claimMetrics := claimmetrics.New()
	contractMetrics := contractmetrics.New()
	httpMetrics := metrics.New()

	claimStore := claimstore.New(db, log, claimMetrics)
	contractStore := contractstore.New(db, log, contractMetrics)
	catalogStore := catalogstore.New(db, log)

	scans := catalogStore.ScanFuncs()
	scans[contractservice.ContractNumberPrefix] = contractStore.ContractNumberScan(contractservice.ContractNumberPrefix)
	var allocator sequence.Allocator
	if redisClient != nil {
		allocator = sequence.NewRedis(redisClient.Client, scans)
	} else {
		log.Warn("REDIS_URL not set, falling back to scan-based id allocation")
		allocator = sequence.NewScan(scans)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafka(ctx, cfg.KafkaBrokers)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		publisher = kp
	}
	defer publisher.Close()

	claimsSvc := claimservice.New(claimStore, publisher, log, cfg.DefaultPageSize, cfg.MaxPageSize)
	contractsSvc := contractservice.New(contractStore, catalogStore, allocator, publisher, log, cfg.DefaultPageSize, cfg.MaxPageSize)
	catalogSvc := catalogservice.New(catalogStore, allocator, log)

	jwtSvc := jwttoken.NewService(cfg.JWTSigningKey, "coverdesk")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(httpMetrics))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Health(req.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtSvc, log))
		r.Use(middleware.ContentTypeJSON)
		claimhandler.New(claimsSvc, log).Register(r)
		contracthandler.New(contractsSvc, log).Register(r)
		cataloghandler.New(catalogSvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
