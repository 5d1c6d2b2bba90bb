package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/quorum/cliparse"
	"github.com/danielhkuo/quorum/db"
	"github.com/danielhkuo/quorum/payment"
	"github.com/danielhkuo/quorum/router"
	"github.com/danielhkuo/quorum/store"
)

func main() {
	var err error

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	st, err := openStore(cfg)
	if err != nil {
		slog.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("Store ready", "type", cfg.DatabaseType)

	// Create router
	coins := payment.NewStaticCoinLedger(cfg.DefaultCoinBalance)
	handler, err := router.NewRouter(st, coins, cfg)
	if err != nil {
		slog.Error("router setup failed", "error", err)
		os.Exit(1)
	}

	// Create server
	server := http.Server{
		Handler: handler,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// openStore picks the storage backend for the configured database type.
func openStore(cfg cliparse.Config) (store.Store, error) {
	if cfg.DatabaseType == db.TypeMemory {
		return store.NewMemory(), nil
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	st, err := store.NewSQL(context.Background(), conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return st, nil
}
