package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/convote/go-convote/internal/api"
	"github.com/convote/go-convote/internal/config"
	"github.com/convote/go-convote/internal/database"
	"github.com/convote/go-convote/internal/stats"
	"github.com/convote/go-convote/internal/voting"
	"github.com/joho/godotenv"
)

const defaultSigningKey = "x8M1K7vQJp9tTzXfWb3mHnRuTodq0lYc4a2e6g8i0k0="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// missing .env is fine, flags and real env vars still apply
	_ = godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("CONVOTE_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", envOr("CONVOTE_DSN", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&signingKey, "signing-key", envOr("CONVOTE_SIGNING_KEY", defaultSigningKey), "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	if len(allowedOrigins) == 0 && os.Getenv("CONVOTE_ALLOWED_ORIGINS") != "" {
		allowedOrigins = strings.Split(os.Getenv("CONVOTE_ALLOWED_ORIGINS"), ",")
	}

	logger := log.New(os.Stderr, "[convote] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgConVoteRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.CreateSchema(); err != nil {
		logger.Fatal("create schema:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	engine := voting.NewEngine(dbConn)

	srv := api.NewConVoteApp(mux, logger, dbConn, engine, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
