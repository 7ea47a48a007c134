package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Timofey28/Lichess-Telegram-Bot/internal/activity"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/api"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/auth"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/config"
	persistence "github.com/Timofey28/Lichess-Telegram-Bot/internal/persistence/postgres"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/report"
	httptransport "github.com/Timofey28/Lichess-Telegram-Bot/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	validator := activity.NewValidator(
		activity.WithLocation(cfg.Location()),
		activity.WithBaseURL(cfg.LichessBaseURL),
	)
	service := report.NewService(validator)

	handler := api.NewHandler(service, api.WithRejectionLog(persistence.NewRejectionStore(pool)))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), authMiddleware.Wrap(logger(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("activity-report api listening on %s (timezone=%s)", cfg.HTTPAddress, cfg.Location())
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
}
