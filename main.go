package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Polqt/crdtcollab/actor"
	"github.com/Polqt/crdtcollab/config"
	"github.com/Polqt/crdtcollab/registry"
	"github.com/Polqt/crdtcollab/transport"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "redis_url", cfg.RedisURL, "err", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("redis unreachable at startup", "err", err)
		os.Exit(1)
	}

	store := actor.NewRedisStore(redisClient)
	reg := registry.New(ctx, store)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{doc_id}", transport.NewHandler(reg).ServeHTTP)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	go func() {
		slog.Info("crdt collaboration server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server exited", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "err", err)
	}
	_ = redisClient.Close()
}
