package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/nshah/campusmarket/api"
	"github.com/nshah/campusmarket/config"
	"github.com/nshah/campusmarket/identity"
	"github.com/nshah/campusmarket/internal/util"
	"github.com/nshah/campusmarket/market"
	"github.com/nshah/campusmarket/session"
	bboltstorage "github.com/nshah/campusmarket/storage/bbolt"
)

const rememberKeyLen = 32

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the marketplace server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		repo, err := bboltstorage.NewRepositoryFromFile(filepath.Join(cfg.DataDir, "market.db"), nil)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer repo.Close()

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		key, err := loadRememberKey(cfg)
		if err != nil {
			return fmt.Errorf("loading remember key: %w", err)
		}
		remember, err := session.NewRemember(repo, key, cfg.RememberTTL)
		if err != nil {
			return fmt.Errorf("initializing remember tokens: %w", err)
		}

		sessions := session.NewPersistentStore(repo)
		defer sessions.Close()

		ids := identity.NewStore(repo)
		mgr := session.NewManager(sessions, ids, remember, logger,
			cfg.SessionTTL, cfg.ResetTokenTTL, cfg.StoreTimeout)

		a := api.New(cfg, ids, mgr, market.NewStore(repo), api.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/api/v1", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Starting server on port %d (data: %s)...\n", cfg.Port, cfg.DataDir)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

// loadRememberKey reads the remember-token signing key, generating and
// persisting one on first start so artifacts survive restarts.
func loadRememberKey(cfg *config.Config) ([]byte, error) {
	path := cfg.RememberKeyFile
	if path == "" {
		path = filepath.Join(cfg.DataDir, "remember.key")
	}
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) < rememberKeyLen {
			return nil, fmt.Errorf("key file %s is too short", path)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	key, err = util.RandomBytes(rememberKeyLen)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
