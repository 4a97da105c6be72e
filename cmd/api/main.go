package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analysis-backend/internal/logs"
	"analysis-backend/internal/shared/config"
	"analysis-backend/internal/shared/server"
	"analysis-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	app := server.NewApp(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persist process logs so the dashboard can query them.
	telemetry.SetSink(logs.Sink{Repo: app.Logs.Repo})
	go app.Logs.StartCleanup(ctx, cfg.LogCleanupEvery, cfg.LogRetainRows)

	go app.Hub.Run(ctx)
	go app.Pool.Run(ctx)

	addr := server.Addr(cfg.Port)
	srv := &http.Server{Addr: addr, Handler: app.Engine}

	go func() {
		log.Printf("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	app.Queue.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}
